// Package modelsync pulls classifier artifacts from an S3-compatible bucket
// into the local models directory before the classifiers are loaded.
package modelsync

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/filex"
	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	sc "github.com/dmitrijs2005/drivesense/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
)

type Syncer struct {
	config *sc.Config
	logger logging.Logger
}

func NewSyncer(config *sc.Config, logger logging.Logger) *Syncer {
	return &Syncer{config: config, logger: logger}
}

func (s *Syncer) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Sync downloads both artifacts. An object missing from the bucket is
// skipped, leaving any local copy in place.
func (s *Syncer) Sync(ctx context.Context) error {
	client, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}

	dir, err := filex.EnsureDir(s.config.ModelsPath)
	if err != nil {
		return err
	}

	for _, modelType := range []string{common.ModelTypeDrivingEvent, common.ModelTypeDrivingStyle} {
		key := path.Join(s.config.S3ModelsPrefix, classifier.ArtifactFile(modelType))

		out, err := getObject(client, ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.S3Bucket),
			Key:    aws.String(key),
		})
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			s.logger.Warn(ctx, "model artifact not in bucket", "bucket", s.config.S3Bucket, "key", key)
			continue
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		err = filex.WriteAtomic(classifier.ModelPath(dir, modelType), out.Body)
		out.Body.Close()
		if err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
		s.logger.Info(ctx, "model artifact synced", "key", key, "model_type", modelType)
	}

	return nil
}
