package minio

import (
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/justapithecus/rangefs/rangefs"
)

// defaultEndpoint is used when the connection config leaves Endpoint empty.
const defaultEndpoint = "s3.amazonaws.com"

// NewClient creates a MinIO client from a connection config.
//
// The endpoint may carry an http or https scheme; without one, TLS is used
// unless Insecure is set. Empty credentials connect anonymously.
func NewClient(cfg rangefs.ConnectionConfig) (*minio.Client, error) {
	host, secure, err := splitEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	}
	if cfg.UsePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	if cfg.Timeout > 0 {
		tr, err := minio.DefaultTransport(secure)
		if err != nil {
			return nil, fmt.Errorf("minio: transport: %w", err)
		}
		tr.ResponseHeaderTimeout = cfg.Timeout
		opts.Transport = tr
	}

	client, err := minio.New(host, opts)
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}
	return client, nil
}

// Dial builds a client and wraps it in a Transport.
func Dial(_ context.Context, cfg rangefs.ConnectionConfig) (*Transport, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return New(Wrap(client))
}

// splitEndpoint returns the host:port minio-go expects and whether to use TLS.
func splitEndpoint(cfg rangefs.ConnectionConfig) (string, bool, error) {
	if cfg.Endpoint == "" {
		return defaultEndpoint, !cfg.Insecure, nil
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		// Bare host:port.
		return cfg.Endpoint, !cfg.Insecure, nil
	}

	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("%w: unsupported endpoint scheme %q", rangefs.ErrInvalidConfig, u.Scheme)
	}
}
