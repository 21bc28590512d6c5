package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/justapithecus/rangefs/rangefs"
)

// -----------------------------------------------------------------------------
// Mock client
// -----------------------------------------------------------------------------

type mockClient struct {
	buckets []string
	objects map[string]map[string][]byte

	listBucketsErr error
	listErrAfter   int // emit an error after this many objects; -1 disables
	ranges         []string
	statCalls      int
}

func newMockClient() *mockClient {
	return &mockClient{objects: make(map[string]map[string][]byte), listErrAfter: -1}
}

func (m *mockClient) put(bucket, key string, data []byte) {
	if _, ok := m.objects[bucket]; !ok {
		m.buckets = append(m.buckets, bucket)
		m.objects[bucket] = make(map[string][]byte)
	}
	m.objects[bucket][key] = data
}

func (m *mockClient) ListBuckets(context.Context) ([]minio.BucketInfo, error) {
	if m.listBucketsErr != nil {
		return nil, m.listBucketsErr
	}
	infos := make([]minio.BucketInfo, 0, len(m.buckets))
	for _, name := range m.buckets {
		infos = append(infos, minio.BucketInfo{Name: name})
	}
	return infos, nil
}

func (m *mockClient) ListObjects(ctx context.Context, bucket string, _ minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		objs, ok := m.objects[bucket]
		if !ok {
			ch <- minio.ObjectInfo{Err: minio.ErrorResponse{Code: "NoSuchBucket", BucketName: bucket}}
			return
		}
		keys := make([]string, 0, len(objs))
		for k := range objs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			info := minio.ObjectInfo{Key: k, Size: int64(len(objs[k]))}
			if i == m.listErrAfter {
				info = minio.ObjectInfo{Err: minio.ErrorResponse{Code: "InternalError"}}
			}
			select {
			case ch <- info:
			case <-ctx.Done():
				return
			}
			if info.Err != nil {
				return
			}
		}
	}()
	return ch
}

func (m *mockClient) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	m.statCalls++
	data, ok := m.objects[bucket][key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", BucketName: bucket, Key: key}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *mockClient) GetObject(_ context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error) {
	rangeHeader := opts.Header().Get("Range")
	m.ranges = append(m.ranges, rangeHeader)

	data, ok := m.objects[bucket][key]
	if !ok {
		return nil, minio.ObjectInfo{}, nil, minio.ErrorResponse{Code: "NoSuchKey", BucketName: bucket, Key: key}
	}

	start, end, err := rangefs.ParseRangeHeader(rangeHeader)
	if err != nil {
		return nil, minio.ObjectInfo{}, nil, err
	}
	size := uint64(len(data))
	if start >= size {
		return nil, minio.ObjectInfo{}, nil, minio.ErrorResponse{Code: "InvalidRange"}
	}
	end = min(end, size)

	header := http.Header{}
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, size))
	body := io.NopCloser(bytes.NewReader(data[start:end]))
	return body, minio.ObjectInfo{Key: key, Size: int64(end - start)}, header, nil
}

func newTestTransport(t *testing.T) (*Transport, *mockClient) {
	t.Helper()
	mock := newMockClient()
	transport, err := New(mock)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return transport, mock
}

// -----------------------------------------------------------------------------
// Transport tests
// -----------------------------------------------------------------------------

func TestNew_RequiresClient(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestTransport_ListContainers(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("b1", "k", nil)
	mock.put("b2", "k", nil)

	names, err := transport.ListContainers(t.Context())
	if err != nil {
		t.Fatalf("ListContainers failed: %v", err)
	}
	if !slices.Equal(names, []string{"b1", "b2"}) {
		t.Errorf("ListContainers = %v", names)
	}

	mock.listBucketsErr = errors.New("connection refused")
	if _, err := transport.ListContainers(t.Context()); err == nil {
		t.Error("expected error")
	}
}

func TestTransport_ListObjects(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("bucket", "b", []byte("bb"))
	mock.put("bucket", "a", []byte("a"))

	objects, err := transport.ListObjects(t.Context(), "bucket")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	want := []rangefs.Object{{Key: "a", Size: 1}, {Key: "b", Size: 2}}
	if !slices.Equal(objects, want) {
		t.Errorf("ListObjects = %+v, want %+v", objects, want)
	}
}

func TestTransport_ListObjects_Errors(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("bucket", "a", nil)
	mock.put("bucket", "b", nil)

	if _, err := transport.ListObjects(t.Context(), "missing"); !errors.Is(err, rangefs.ErrNotFound) {
		t.Errorf("missing bucket: expected ErrNotFound, got %v", err)
	}

	mock.listErrAfter = 1
	objects, err := transport.ListObjects(t.Context(), "bucket")
	if err == nil || objects != nil {
		t.Errorf("mid-listing failure: got %v, %v", objects, err)
	}
	if errors.Is(err, rangefs.ErrNotFound) {
		t.Errorf("internal error must not match ErrNotFound: %v", err)
	}
}

func TestTransport_Stat(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("bucket", "obj", []byte("hello"))

	obj, err := transport.Stat(t.Context(), "bucket", "obj")
	if err != nil || obj.Size != 5 {
		t.Errorf("Stat = %+v, %v", obj, err)
	}
	if _, err := transport.Stat(t.Context(), "bucket", "nope"); !errors.Is(err, rangefs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransport_FetchRange(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("bucket", "obj", []byte("0123456789"))

	body, size, err := transport.FetchRange(t.Context(), "bucket", "obj", 0, 4)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()

	if string(data) != "0123" || size != 10 {
		t.Errorf("FetchRange = %q, %d", data, size)
	}
	if !slices.Equal(mock.ranges, []string{"bytes=0-3"}) {
		t.Errorf("ranges = %v", mock.ranges)
	}

	if _, _, err := transport.FetchRange(t.Context(), "bucket", "obj", 3, 3); err == nil {
		t.Error("empty range: expected error")
	}
}

func TestTransport_ReadThroughFile(t *testing.T) {
	transport, mock := newTestTransport(t)
	mock.put("bucket", "obj", []byte("0123456789"))

	h := rangefs.Handle{Backend: BackendName, Container: "bucket", Key: "obj", ObjectSize: 10}
	f, err := h.Open(t.Context(), transport)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := f.Seek(-3, io.SeekEnd); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	got, err := io.ReadAll(f)
	if err != nil || string(got) != "789" {
		t.Errorf("ReadAll = %q, %v", got, err)
	}
	if !slices.Equal(mock.ranges, []string{"bytes=7-9"}) {
		t.Errorf("ranges = %v", mock.ranges)
	}
}

// -----------------------------------------------------------------------------
// Config tests
// -----------------------------------------------------------------------------

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		cfg      rangefs.ConnectionConfig
		host     string
		secure   bool
		hasError bool
	}{
		{rangefs.ConnectionConfig{}, "s3.amazonaws.com", true, false},
		{rangefs.ConnectionConfig{Endpoint: "http://localhost:9000"}, "localhost:9000", false, false},
		{rangefs.ConnectionConfig{Endpoint: "https://play.min.io"}, "play.min.io", true, false},
		{rangefs.ConnectionConfig{Endpoint: "localhost:9000"}, "localhost:9000", true, false},
		{rangefs.ConnectionConfig{Endpoint: "127.0.0.1:9000", Insecure: true}, "127.0.0.1:9000", false, false},
		{rangefs.ConnectionConfig{Endpoint: "ftp://host"}, "", false, true},
	}
	for _, tt := range tests {
		host, secure, err := splitEndpoint(tt.cfg)
		if tt.hasError {
			if !errors.Is(err, rangefs.ErrInvalidConfig) {
				t.Errorf("%q: expected ErrInvalidConfig, got %v", tt.cfg.Endpoint, err)
			}
			continue
		}
		if err != nil || host != tt.host || secure != tt.secure {
			t.Errorf("%q: got %q, %v, %v; want %q, %v", tt.cfg.Endpoint, host, secure, err, tt.host, tt.secure)
		}
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(rangefs.ConnectionConfig{
		Backend:         BackendName,
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.EndpointURL().Host != "localhost:9000" {
		t.Errorf("EndpointURL = %v", client.EndpointURL())
	}
}
