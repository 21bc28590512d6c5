// Package minio provides a rangefs transport built on the MinIO Go client.
//
// It talks to any S3-compatible endpoint through minio-go, using the Core
// client for ranged reads so responses expose their headers. Listing
// pagination is drained by the client's object channel.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/justapithecus/rangefs/rangefs"
)

// BackendName is the backend identifier recorded in handles.
const BackendName = "minio"

// API defines the subset of the MinIO client used by the transport.
// This enables testing with mock implementations.
type API interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
}

// coreClient adapts a *minio.Client to API. Ranged reads go through
// minio.Core so the response headers are available.
type coreClient struct {
	*minio.Client
}

var _ API = coreClient{}

// Wrap adapts a MinIO client for use with New.
func Wrap(c *minio.Client) API {
	return coreClient{Client: c}
}

func (c coreClient) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error) {
	core := minio.Core{Client: c.Client}
	return core.GetObject(ctx, bucket, key, opts)
}

// Transport implements rangefs.Transport over a MinIO client.
type Transport struct {
	client API
}

var _ rangefs.Transport = (*Transport)(nil)

// New creates a transport over a pre-configured client.
func New(client API) (*Transport, error) {
	if client == nil {
		return nil, errors.New("minio: client is required")
	}
	return &Transport{client: client}, nil
}

// Name implements rangefs.Transport.
func (t *Transport) Name() string {
	return BackendName
}

// ListContainers returns every bucket visible to the credentials.
func (t *Transport) ListContainers(ctx context.Context) ([]string, error) {
	buckets, err := t.client.ListBuckets(ctx)
	if err != nil {
		return nil, translateError("minio: list buckets", err)
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// ListObjects returns every object in bucket.
func (t *Transport) ListObjects(ctx context.Context, bucket string) ([]rangefs.Object, error) {
	// Cancelling on return stops the listing goroutine if we bail out early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := []rangefs.Object{}
	for info := range t.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, translateError("minio: list objects in "+bucket, info.Err)
		}
		objects = append(objects, rangefs.Object{Key: info.Key, Size: nonNegative(info.Size)})
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("minio: list objects in %s: %w", bucket, err)
	}
	return objects, nil
}

// Stat issues a StatObject (HEAD) request.
func (t *Transport) Stat(ctx context.Context, bucket, key string) (rangefs.Object, error) {
	info, err := t.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return rangefs.Object{}, translateError(fmt.Sprintf("minio: stat %s/%s", bucket, key), err)
	}
	return rangefs.Object{Key: key, Size: nonNegative(info.Size)}, nil
}

// FetchRange issues a ranged GetObject for [start, end).
func (t *Transport) FetchRange(ctx context.Context, bucket, key string, start, end uint64) (io.ReadCloser, uint64, error) {
	if start >= end {
		return nil, 0, fmt.Errorf("minio: empty range [%d, %d)", start, end)
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(int64(start), int64(end-1)); err != nil {
		return nil, 0, fmt.Errorf("minio: range read %s/%s: %w", bucket, key, err)
	}

	body, _, header, err := t.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, 0, translateError(fmt.Sprintf("minio: range read %s/%s", bucket, key), err)
	}

	var size uint64
	if cr := header.Get("Content-Range"); cr != "" {
		if size, err = rangefs.ParseContentRange(cr); err != nil {
			_ = body.Close()
			return nil, 0, fmt.Errorf("minio: range read %s/%s: %w", bucket, key, err)
		}
	}
	return body, size, nil
}

// translateError wraps err, marking missing buckets and keys with
// rangefs.ErrNotFound.
func translateError(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%s: %w: %w", op, rangefs.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
