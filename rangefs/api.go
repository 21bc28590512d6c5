// Package rangefs exposes objects held in a remote, range-addressable object
// store as random-access files.
//
// A Catalog enumerates the containers (buckets) of a store and the objects
// they hold. Each object yields a Handle: a small, serializable descriptor
// that performs no I/O until it is opened. Opening a Handle produces a File,
// which implements io.Reader, io.Seeker and io.ReaderAt on top of stateless
// per-call HTTP range fetches. Seeking is a local operation; every Read issues
// exactly one range request for the bytes it returns.
//
// Files do no read-ahead and keep no cache: repeated reads of the same region
// fetch it again.
package rangefs

import (
	"context"
	"fmt"
	"io"
	"time"
)

// -----------------------------------------------------------------------------
// Catalog types
// -----------------------------------------------------------------------------

// Object describes a single object discovered during enumeration.
// Objects are immutable once enumerated.
type Object struct {
	// Key identifies the object within its container.
	Key string `json:"key"`

	// Size is the object size in bytes at enumeration time.
	Size uint64 `json:"size"`
}

// Container describes a named grouping of objects, such as an S3 bucket.
//
// Objects are kept in the order the store returned them.
type Container struct {
	// Name is the container (bucket) name.
	Name string `json:"name"`

	// Objects lists the container's objects in discovery order.
	Objects []Object `json:"objects"`
}

// -----------------------------------------------------------------------------
// Connection configuration
// -----------------------------------------------------------------------------

// ConnectionConfig describes how to reach a remote store.
//
// The value is passed explicitly to backend constructors; no package keeps a
// process-wide default endpoint.
type ConnectionConfig struct {
	// Backend selects the transport variant ("s3" or "minio").
	Backend string `json:"backend" mapstructure:"backend"`

	// Endpoint is an optional custom endpoint URL, e.g. "http://localhost:9000".
	// Empty means the provider default (AWS S3).
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Region is the store region. Most S3-compatible services accept "us-east-1".
	Region string `json:"region" mapstructure:"region"`

	// AccessKeyID and SecretAccessKey are static credentials.
	// When both are empty the provider's default credential chain is used.
	AccessKeyID     string `json:"-" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"-" mapstructure:"secret_access_key"`

	// UsePathStyle enables path-style addressing (required by MinIO and LocalStack).
	UsePathStyle bool `json:"use_path_style" mapstructure:"use_path_style"`

	// Insecure disables TLS when the endpoint carries no scheme.
	Insecure bool `json:"insecure" mapstructure:"insecure"`

	// Timeout bounds each HTTP request. Zero means no timeout: a stalled
	// store then stalls the caller.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Validate reports whether the configuration names a backend.
func (c ConnectionConfig) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Transport interface
// -----------------------------------------------------------------------------

// Transport abstracts the remote store protocol.
//
// Implementations are stateless between calls and safe for concurrent use.
// They do not retry; retry and backoff belong to the underlying client.
type Transport interface {
	// Name returns the backend identifier recorded in handles (e.g. "s3").
	Name() string

	// ListContainers returns the names of all containers in discovery order.
	ListContainers(ctx context.Context) ([]string, error)

	// ListObjects returns every object in the container. Implementations must
	// follow continuation tokens until the store reports no further pages.
	ListObjects(ctx context.Context, container string) ([]Object, error)

	// Stat returns the current descriptor of a single object.
	// Returns ErrNotFound if the container or key does not exist.
	Stat(ctx context.Context, container, key string) (Object, error)

	// FetchRange returns the bytes in [start, end) of the object together
	// with the total object size reported by the store.
	// Callers guarantee start < end; implementations send the inclusive
	// header "bytes=start-(end-1)". The caller must close the body.
	FetchRange(ctx context.Context, container, key string, start, end uint64) (io.ReadCloser, uint64, error)
}

// -----------------------------------------------------------------------------
// Opener interface
// -----------------------------------------------------------------------------

// Opener is the capability shared by every handle variant: report the
// captured size without I/O, and open a live File.
type Opener interface {
	// Size returns the object size captured at enumeration time.
	Size() uint64

	// Open instantiates a File positioned at offset 0.
	Open(ctx context.Context, t Transport, opts ...FileOption) (*File, error)
}
