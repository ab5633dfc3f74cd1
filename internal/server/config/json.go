package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/drivesense/internal/flagx"
	"github.com/dmitrijs2005/drivesense/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish
// "absent" from "zero", so a file only overrides what it mentions.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	TokenIssuer                 *string         `json:"token_issuer"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	EnforceActiveOnAccess       *bool           `json:"enforce_active_on_access"`
	ModelsPath                  *string         `json:"models_path"`
	AllowedOrigins              []string        `json:"allowed_origins"`
	Debug                       *bool           `json:"debug"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3ModelsPrefix              *string         `json:"s3_models_prefix"`
}

// parseJson overlays values from the file named by -c / -config. Nothing
// happens without the flag. An unreadable file or invalid JSON panics, since
// the process cannot start with a config the operator did not intend.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	str := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	boolean := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	str(&config.HTTPAddr, c.HTTPAddr)
	str(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	str(&config.DatabaseDSN, c.DatabaseDSN)
	str(&config.SecretKey, c.SecretKey)
	str(&config.TokenIssuer, c.TokenIssuer)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	boolean(&config.EnforceActiveOnAccess, c.EnforceActiveOnAccess)
	str(&config.ModelsPath, c.ModelsPath)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	boolean(&config.Debug, c.Debug)
	str(&config.S3RootUser, c.S3RootUser)
	str(&config.S3RootPassword, c.S3RootPassword)
	str(&config.S3Bucket, c.S3Bucket)
	str(&config.S3Region, c.S3Region)
	str(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	str(&config.S3ModelsPrefix, c.S3ModelsPrefix)
}
