package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFiles are loaded, if present, before the environment is read. Values
// already set in the process environment win over the files.
var envFiles = []string{".env"}

// parseEnv overlays values from environment variables:
//
//	SECRET_KEY                   token signing key
//	DATABASE_URL                 PostgreSQL DSN
//	ACCESS_TOKEN_EXPIRE_MINUTES  token lifetime in minutes
//	API_HOST, API_PORT           HTTP bind address parts
//	GRPC_ADDR                    gRPC health endpoint address
//	ALLOWED_ORIGINS              comma-separated CORS origins
//	ML_MODELS_PATH               classifier artifact directory
//	DEBUG                        debug logging
//	ENFORCE_ACTIVE_ON_ACCESS     reject inactive users on resource routes
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_MODELS_PREFIX
//
// Malformed numeric or boolean values are ignored and the previous value kept.
func parseEnv(config *Config) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.DatabaseDSN, "DATABASE_URL")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.ModelsPath, "ML_MODELS_PATH")

	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
		}
	}

	host, port, err := net.SplitHostPort(config.HTTPAddr)
	if err != nil {
		host, port = "0.0.0.0", "8000"
	}
	setString(&host, "API_HOST")
	setString(&port, "API_PORT")
	config.HTTPAddr = net.JoinHostPort(host, port)

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}

	setBool(&config.Debug, "DEBUG")
	setBool(&config.EnforceActiveOnAccess, "ENFORCE_ACTIVE_ON_ACCESS")

	setString(&config.S3RootUser, "S3_ACCESS_KEY")
	setString(&config.S3RootPassword, "S3_SECRET_KEY")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	setString(&config.S3ModelsPrefix, "S3_MODELS_PREFIX")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
