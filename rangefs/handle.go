package rangefs

import (
	"context"
	"errors"
	"fmt"
)

// Handle is the capability to open one remote object.
//
// A Handle is plain data: building one performs no I/O and it can be
// persisted or transmitted with MarshalHandle, WriteHandles or any
// JSON/Parquet encoder. ObjectSize is captured at enumeration time and is
// not revalidated; if the remote object changes afterwards the handle is
// stale and reads are bounded by the old size.
type Handle struct {
	// Backend names the transport variant that can open the handle.
	Backend string `json:"backend" parquet:"backend"`

	// Container is the container (bucket) name.
	Container string `json:"container" parquet:"container"`

	// Key identifies the object within the container.
	Key string `json:"key" parquet:"key"`

	// ObjectSize is the object size in bytes at enumeration time.
	ObjectSize uint64 `json:"size" parquet:"size"`
}

var _ Opener = Handle{}

// NewHandle builds a handle for obj in container.
func NewHandle(backend, container string, obj Object) Handle {
	return Handle{
		Backend:    backend,
		Container:  container,
		Key:        obj.Key,
		ObjectSize: obj.Size,
	}
}

// Size returns the captured object size without contacting the store.
func (h Handle) Size() uint64 {
	return h.ObjectSize
}

// String returns "backend://container/key".
func (h Handle) String() string {
	return fmt.Sprintf("%s://%s/%s", h.Backend, h.Container, h.Key)
}

// Open returns a new File positioned at offset 0.
//
// Unless WithoutVerify is given, Open issues one metadata request to confirm
// the object is still addressable; no content is fetched. Every call returns
// an independent File. Failures match ErrOpen.
func (h Handle) Open(ctx context.Context, t Transport, opts ...FileOption) (*File, error) {
	if t == nil {
		return nil, newError("open", ErrOpen, h.Container, h.Key, errors.New("transport is required"))
	}
	if h.Container == "" || h.Key == "" {
		return nil, newError("open", ErrOpen, h.Container, h.Key, errors.New("handle has no container or key"))
	}
	if h.Backend != "" && h.Backend != t.Name() {
		return nil, newError("open", ErrOpen, h.Container, h.Key,
			fmt.Errorf("handle backend %q does not match transport %q", h.Backend, t.Name()))
	}

	cfg := newFileConfig(opts)
	if cfg.verify {
		if _, err := t.Stat(ctx, h.Container, h.Key); err != nil {
			return nil, newError("open", ErrOpen, h.Container, h.Key, err)
		}
	}

	return &File{
		ctx:       ctx,
		transport: t,
		log:       cfg.logger,
		container: h.Container,
		key:       h.Key,
		size:      h.ObjectSize,
	}, nil
}

// MarshalHandle encodes a handle as JSON.
func MarshalHandle(h Handle) ([]byte, error) {
	return jsonCodec.Marshal(h)
}

// UnmarshalHandle decodes a handle produced by MarshalHandle.
func UnmarshalHandle(data []byte) (Handle, error) {
	var h Handle
	if err := jsonCodec.Unmarshal(data, &h); err != nil {
		return Handle{}, fmt.Errorf("rangefs: decode handle: %w", err)
	}
	return h, nil
}
