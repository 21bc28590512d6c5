package rangefs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// -----------------------------------------------------------------------------
// Memory Transport
// -----------------------------------------------------------------------------

// FetchRecord describes one FetchRange call observed by a MemoryTransport.
type FetchRecord struct {
	Container string
	Key       string
	Start     uint64
	End       uint64
}

// MemoryTransport implements Transport over in-process data.
//
// Listing is paginated internally with the configured page size and drained
// the same way a remote backend drains continuation tokens. It records every
// range fetch for inspection. MemoryTransport is safe for concurrent use.
type MemoryTransport struct {
	mu         sync.RWMutex
	name       string
	pageSize   int
	containers []string
	objects    map[string][]memoryObject

	fetches     []FetchRecord
	listedPages int
}

type memoryObject struct {
	key  string
	data []byte
}

// MemoryOption configures a MemoryTransport.
type MemoryOption func(*MemoryTransport)

// WithPageSize sets how many objects one simulated listing page returns.
func WithPageSize(n int) MemoryOption {
	return func(m *MemoryTransport) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// NewMemory creates an empty in-memory transport reporting the given name.
func NewMemory(name string, opts ...MemoryOption) *MemoryTransport {
	m := &MemoryTransport{
		name:     name,
		pageSize: 1000,
		objects:  make(map[string][]memoryObject),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateContainer adds an empty container. Existing containers are kept.
func (m *MemoryTransport) CreateContainer(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createLocked(name)
}

func (m *MemoryTransport) createLocked(name string) {
	if _, ok := m.objects[name]; ok {
		return
	}
	m.containers = append(m.containers, name)
	m.objects[name] = nil
}

// Put stores data under container/key, creating the container if needed.
// Putting an existing key replaces its data in place.
func (m *MemoryTransport) Put(container, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createLocked(container)
	dataCopy := bytes.Clone(data)
	for i, obj := range m.objects[container] {
		if obj.key == key {
			m.objects[container][i].data = dataCopy
			return
		}
	}
	m.objects[container] = append(m.objects[container], memoryObject{key: key, data: dataCopy})
}

// Delete removes container/key if present.
func (m *MemoryTransport) Delete(container, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	objs := m.objects[container]
	for i, obj := range objs {
		if obj.key == key {
			m.objects[container] = append(objs[:i:i], objs[i+1:]...)
			return
		}
	}
}

// Fetches returns a copy of every recorded range fetch.
func (m *MemoryTransport) Fetches() []FetchRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FetchRecord(nil), m.fetches...)
}

// ListedPages returns how many simulated listing pages have been served.
func (m *MemoryTransport) ListedPages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listedPages
}

// Name implements Transport.
func (m *MemoryTransport) Name() string {
	return m.name
}

// ListContainers implements Transport.
func (m *MemoryTransport) ListContainers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.containers...), nil
}

// ListObjects implements Transport, draining simulated pages.
func (m *MemoryTransport) ListObjects(ctx context.Context, container string) ([]Object, error) {
	objects := []Object{}
	token := ""
	for {
		page, next, err := m.listPage(ctx, container, token)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page...)
		if next == "" {
			break
		}
		token = next
	}
	return objects, nil
}

// listPage serves one page starting at the offset encoded in token.
func (m *MemoryTransport) listPage(ctx context.Context, container, token string) ([]Object, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objs, ok := m.objects[container]
	if !ok {
		return nil, "", fmt.Errorf("container %q: %w", container, ErrNotFound)
	}

	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(objs) {
			return nil, "", fmt.Errorf("invalid continuation token %q", token)
		}
		start = n
	}
	end := min(start+m.pageSize, len(objs))

	page := make([]Object, 0, end-start)
	for _, obj := range objs[start:end] {
		page = append(page, Object{Key: obj.key, Size: uint64(len(obj.data))})
	}
	m.listedPages++

	next := ""
	if end < len(objs) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// Stat implements Transport.
func (m *MemoryTransport) Stat(_ context.Context, container, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.lookupLocked(container, key)
	if !ok {
		return Object{}, fmt.Errorf("%s/%s: %w", container, key, ErrNotFound)
	}
	return Object{Key: key, Size: uint64(len(data))}, nil
}

// FetchRange implements Transport. A window that starts past the end of the
// object is rejected, like an HTTP 416 response.
func (m *MemoryTransport) FetchRange(ctx context.Context, container, key string, start, end uint64) (io.ReadCloser, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches = append(m.fetches, FetchRecord{Container: container, Key: key, Start: start, End: end})

	data, ok := m.lookupLocked(container, key)
	if !ok {
		return nil, 0, fmt.Errorf("%s/%s: %w", container, key, ErrNotFound)
	}
	size := uint64(len(data))
	if start >= end || start >= size {
		return nil, 0, fmt.Errorf("invalid range %s for object of %d bytes", RangeHeader(start, end), size)
	}
	end = min(end, size)

	return io.NopCloser(bytes.NewReader(data[start:end])), size, nil
}

func (m *MemoryTransport) lookupLocked(container, key string) ([]byte, bool) {
	for _, obj := range m.objects[container] {
		if obj.key == key {
			return obj.data, true
		}
	}
	return nil, false
}
