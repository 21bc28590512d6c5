package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/justapithecus/rangefs/rangefs"
)

// defaultRegion is used when the connection config leaves Region empty.
const defaultRegion = "us-east-1"

// NewClient creates an S3 client from a connection config.
//
// For AWS S3:
//
//	client, err := s3.NewClient(ctx, rangefs.ConnectionConfig{
//	    Backend: "s3",
//	    Region:  "eu-west-1",
//	})
//
// For MinIO:
//
//	client, err := s3.NewClient(ctx, s3.MinIOConfig())
//
// Static credentials are used when AccessKeyID or SecretAccessKey is set;
// otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg rangefs.ConnectionConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	if cfg.Timeout > 0 {
		opts = append(opts, config.WithHTTPClient(
			awshttp.NewBuildableClient().WithTimeout(cfg.Timeout),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	s3Opts := []func(*s3.Options){}

	if endpoint := EndpointURL(cfg); endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// Dial builds a client and wraps it in a Transport.
func Dial(ctx context.Context, cfg rangefs.ConnectionConfig) (*Transport, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client)
}

// EndpointURL returns the endpoint with a scheme. Endpoints given as bare
// host:port get https, or http when Insecure is set.
func EndpointURL(cfg rangefs.ConnectionConfig) string {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if cfg.Insecure {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// LocalStackConfig returns connection settings for a local LocalStack.
// Defaults: endpoint=http://localhost:4566, region=us-east-1, credentials=test/test.
func LocalStackConfig() rangefs.ConnectionConfig {
	return rangefs.ConnectionConfig{
		Backend:         BackendName,
		Endpoint:        "http://localhost:4566",
		Region:          defaultRegion,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	}
}

// MinIOConfig returns connection settings for a local MinIO speaking the S3 API.
// Defaults: endpoint=http://localhost:9000, region=us-east-1, credentials=minioadmin/minioadmin.
func MinIOConfig() rangefs.ConnectionConfig {
	return rangefs.ConnectionConfig{
		Backend:         BackendName,
		Endpoint:        "http://localhost:9000",
		Region:          defaultRegion,
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UsePathStyle:    true,
	}
}

// R2Config returns connection settings for Cloudflare R2.
// The accountID is your Cloudflare account ID; credentials are R2 API tokens.
func R2Config(accountID, accessKeyID, secretAccessKey string) rangefs.ConnectionConfig {
	return rangefs.ConnectionConfig{
		Backend:         BackendName,
		Endpoint:        "https://" + accountID + ".r2.cloudflarestorage.com",
		Region:          "auto",
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}
}
