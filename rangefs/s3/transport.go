// Package s3 provides an S3-compatible transport for rangefs.
//
// The transport supports AWS S3, MinIO, LocalStack, Cloudflare R2 and other
// stores that speak the S3 API.
//
// # Protocol Mapping
//
//   - ListContainers: ListBuckets, following ContinuationToken
//   - ListObjects: ListObjectsV2, following NextContinuationToken until the
//     response is no longer truncated
//   - Stat: HeadObject
//   - FetchRange: GetObject with an inclusive Range header; the object size
//     is taken from Content-Range
//
// The transport does not retry. Retry and backoff are configured on the
// underlying client.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/rangefs/rangefs"
)

// BackendName is the backend identifier recorded in handles.
const BackendName = "s3"

// API defines the subset of the S3 client interface used by the transport.
// This enables testing with mock implementations.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Transport implements rangefs.Transport using an S3-compatible backend.
type Transport struct {
	client API
}

var _ rangefs.Transport = (*Transport)(nil)

// New creates a transport over a pre-configured client.
//
// Example:
//
//	client, err := s3.NewClient(ctx, rangefs.ConnectionConfig{Backend: "s3", Region: "us-east-1"})
//	transport, err := s3.New(client)
func New(client API) (*Transport, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	return &Transport{client: client}, nil
}

// Name implements rangefs.Transport.
func (t *Transport) Name() string {
	return BackendName
}

// ListContainers returns every bucket visible to the credentials.
func (t *Transport) ListContainers(ctx context.Context) ([]string, error) {
	var names []string
	var continuationToken *string

	for {
		out, err := t.client.ListBuckets(ctx, &s3.ListBucketsInput{
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list buckets: %w", err)
		}

		for _, b := range out.Buckets {
			if b.Name != nil {
				names = append(names, *b.Name)
			}
		}

		if aws.ToString(out.ContinuationToken) == "" {
			break
		}
		continuationToken = out.ContinuationToken
	}

	return names, nil
}

// ListObjects returns every object in bucket, draining all pages.
func (t *Transport) ListObjects(ctx context.Context, bucket string) ([]rangefs.Object, error) {
	objects := []rangefs.Object{}
	var continuationToken *string

	for {
		out, err := t.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, classify(fmt.Sprintf("s3: list objects in %s", bucket), err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			objects = append(objects, rangefs.Object{
				Key:  *obj.Key,
				Size: nonNegative(aws.ToInt64(obj.Size)),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		if aws.ToString(out.NextContinuationToken) == "" {
			return nil, fmt.Errorf("s3: list objects in %s: truncated page without continuation token", bucket)
		}
		continuationToken = out.NextContinuationToken
	}

	return objects, nil
}

// Stat issues a HeadObject request.
func (t *Transport) Stat(ctx context.Context, bucket, key string) (rangefs.Object, error) {
	out, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return rangefs.Object{}, classify(fmt.Sprintf("s3: head object %s/%s", bucket, key), err)
	}
	return rangefs.Object{Key: key, Size: nonNegative(aws.ToInt64(out.ContentLength))}, nil
}

// FetchRange issues a GetObject request for [start, end).
// S3 Range headers are inclusive, so the request covers start through end-1.
func (t *Transport) FetchRange(ctx context.Context, bucket, key string, start, end uint64) (io.ReadCloser, uint64, error) {
	if start >= end {
		return nil, 0, fmt.Errorf("s3: empty range [%d, %d)", start, end)
	}

	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(rangefs.RangeHeader(start, end)),
	})
	if err != nil {
		return nil, 0, classify(fmt.Sprintf("s3: range read %s/%s", bucket, key), err)
	}

	var size uint64
	if cr := aws.ToString(out.ContentRange); cr != "" {
		if size, err = rangefs.ParseContentRange(cr); err != nil {
			_ = out.Body.Close()
			return nil, 0, fmt.Errorf("s3: range read %s/%s: %w", bucket, key, err)
		}
	}
	return out.Body, size, nil
}

// classify wraps err, marking missing buckets and keys with rangefs.ErrNotFound.
func classify(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s: %w: %w", op, rangefs.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isNotFound checks if an error indicates the bucket or object was not found.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket", "404":
			return true
		}
	}
	return false
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
