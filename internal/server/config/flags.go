package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/flagx"
)

// parseFlags overlays values from command-line flags:
//
//	-a string   HTTP bind address (e.g. "0.0.0.0:8000")
//	-g string   gRPC health endpoint address
//	-d string   PostgreSQL DSN
//	-s string   token signing key
//	-t int      access token validity, minutes
//	-m string   classifier artifact directory
//	-o string   comma-separated CORS origins
//	-b string   S3 bucket holding classifier artifacts
//	-e string   S3 base endpoint
//	-r string   S3 region
//
// Only these flags are looked at, so -c / -config and unknown flags pass
// through untouched.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-m", "-o", "-b", "-e", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.ModelsPath, "m", config.ModelsPath, "classifier artifact directory")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket with classifier artifacts")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// derived values are only touched when their flag was given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		case "o":
			config.AllowedOrigins = splitList(*origins)
		}
	})
}
