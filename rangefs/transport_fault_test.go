package rangefs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing/iotest"
)

// errInjected is the cause returned by faultTransport failures.
var errInjected = errors.New("injected failure")

// faultTransport wraps a MemoryTransport and injects failures.
type faultTransport struct {
	*MemoryTransport

	mu                sync.Mutex
	listContainersErr error
	listObjectsErr    map[string]error
	statErr           error
	fetchFailures     int  // number of upcoming FetchRange calls to fail
	truncateBodies    bool // serve one byte less than requested
	emptyBodies       bool // serve no bytes at all
	brokenBodies      bool // fail the body after its first byte
}

func newFaultTransport(inner *MemoryTransport) *faultTransport {
	return &faultTransport{
		MemoryTransport: inner,
		listObjectsErr:  make(map[string]error),
	}
}

func (f *faultTransport) ListContainers(ctx context.Context) ([]string, error) {
	if f.listContainersErr != nil {
		return nil, f.listContainersErr
	}
	return f.MemoryTransport.ListContainers(ctx)
}

func (f *faultTransport) ListObjects(ctx context.Context, container string) ([]Object, error) {
	if err := f.listObjectsErr[container]; err != nil {
		return nil, err
	}
	return f.MemoryTransport.ListObjects(ctx, container)
}

func (f *faultTransport) Stat(ctx context.Context, container, key string) (Object, error) {
	if f.statErr != nil {
		return Object{}, f.statErr
	}
	return f.MemoryTransport.Stat(ctx, container, key)
}

func (f *faultTransport) FetchRange(ctx context.Context, container, key string, start, end uint64) (io.ReadCloser, uint64, error) {
	f.mu.Lock()
	fail := f.fetchFailures > 0
	if fail {
		f.fetchFailures--
	}
	truncate, empty, broken := f.truncateBodies, f.emptyBodies, f.brokenBodies
	f.mu.Unlock()

	if fail {
		return nil, 0, errInjected
	}

	body, size, err := f.MemoryTransport.FetchRange(ctx, container, key, start, end)
	if err != nil || !(truncate || empty || broken) {
		return body, size, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, 0, err
	}
	switch {
	case empty:
		return io.NopCloser(bytes.NewReader(nil)), size, nil
	case broken:
		return io.NopCloser(io.MultiReader(bytes.NewReader(data[:1]), iotest.ErrReader(errInjected))), size, nil
	default:
		return io.NopCloser(bytes.NewReader(data[:len(data)-1])), size, nil
	}
}
