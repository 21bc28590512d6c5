package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/rangefs/rangefs"
)

// -----------------------------------------------------------------------------
// Mock S3 Client for Testing
// -----------------------------------------------------------------------------

// MockS3Client is a test double for API.
//
// Buckets are listed in creation order and keys in lexicographic order, as
// S3 does. Listing is paginated with PageSize so that callers exercise
// continuation tokens.
type MockS3Client struct {
	mu      sync.RWMutex
	buckets []string
	objects map[string]map[string][]byte

	// PageSize bounds the entries per ListBuckets/ListObjectsV2 page.
	// Zero means 1000.
	PageSize int

	// Injected failures, returned verbatim when non-nil.
	ListBucketsErr   error
	ListObjectsV2Err error
	GetObjectErr     error

	// Call counters and recorded Range headers for test assertions.
	ListBucketsCalls   int
	ListObjectsV2Calls int
	HeadObjectCalls    int
	GetObjectCalls     int
	Ranges             []string
}

// NewMockS3Client creates a new mock S3 client for testing.
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		objects: make(map[string]map[string][]byte),
	}
}

// CreateBucket adds an empty bucket. Existing buckets are kept.
func (m *MockS3Client) CreateBucket(bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createLocked(bucket)
}

func (m *MockS3Client) createLocked(bucket string) {
	if _, ok := m.objects[bucket]; ok {
		return
	}
	m.buckets = append(m.buckets, bucket)
	m.objects[bucket] = make(map[string][]byte)
}

// PutObject stores data under bucket/key, creating the bucket if needed.
func (m *MockS3Client) PutObject(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createLocked(bucket)
	m.objects[bucket][key] = bytes.Clone(data)
}

// ResetCounts resets call counters for test isolation.
func (m *MockS3Client) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListBucketsCalls = 0
	m.ListObjectsV2Calls = 0
	m.HeadObjectCalls = 0
	m.GetObjectCalls = 0
	m.Ranges = nil
}

func (m *MockS3Client) pageSize() int {
	if m.PageSize > 0 {
		return m.PageSize
	}
	return 1000
}

// page returns items[from:from+pageSize] and the token for the next page.
func page[T any](items []T, token string, size int) ([]T, string, error) {
	from := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(items) {
			return nil, "", &smithyAPIError{code: "InvalidArgument", message: "invalid continuation token"}
		}
		from = n
	}
	to := min(from+size, len(items))
	next := ""
	if to < len(items) {
		next = strconv.Itoa(to)
	}
	return items[from:to], next, nil
}

// ListBuckets implements API.ListBuckets for testing.
func (m *MockS3Client) ListBuckets(_ context.Context, params *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListBucketsCalls++
	if m.ListBucketsErr != nil {
		return nil, m.ListBucketsErr
	}

	names, next, err := page(m.buckets, aws.ToString(params.ContinuationToken), m.pageSize())
	if err != nil {
		return nil, err
	}

	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name)})
	}
	if next != "" {
		out.ContinuationToken = aws.String(next)
	}
	return out, nil
}

// ListObjectsV2 implements API.ListObjectsV2 for testing.
func (m *MockS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListObjectsV2Calls++
	if m.ListObjectsV2Err != nil {
		return nil, m.ListObjectsV2Err
	}

	bucket := aws.ToString(params.Bucket)
	objs, ok := m.objects[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("bucket " + bucket + " does not exist")}
	}

	keys := make([]string, 0, len(objs))
	for key := range objs {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	keys, next, err := page(keys, aws.ToString(params.ContinuationToken), m.pageSize())
	if err != nil {
		return nil, err
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(next != "")}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(objs[key]))),
		})
	}
	if next != "" {
		out.NextContinuationToken = aws.String(next)
	}
	return out, nil
}

// HeadObject implements API.HeadObject for testing.
func (m *MockS3Client) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	m.HeadObjectCalls++
	data, exists := m.lookupLocked(aws.ToString(params.Bucket), aws.ToString(params.Key))
	m.mu.Unlock()

	if !exists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

// GetObject implements API.GetObject for testing.
func (m *MockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	m.GetObjectCalls++
	if params.Range != nil {
		m.Ranges = append(m.Ranges, aws.ToString(params.Range))
	}
	injected := m.GetObjectErr
	data, exists := m.lookupLocked(aws.ToString(params.Bucket), aws.ToString(params.Key))
	m.mu.Unlock()

	if injected != nil {
		return nil, injected
	}
	if !exists {
		return nil, &types.NoSuchKey{}
	}

	size := uint64(len(data))
	out := &s3.GetObjectOutput{}

	// Handle range requests
	if params.Range != nil {
		start, end, err := rangefs.ParseRangeHeader(aws.ToString(params.Range))
		if err != nil {
			return nil, &smithyAPIError{code: "InvalidArgument", message: err.Error()}
		}
		if start >= size {
			return nil, &smithyAPIError{code: "InvalidRange", message: "the requested range is not satisfiable"}
		}
		end = min(end, size)
		data = data[start:end]
		out.ContentRange = aws.String(fmt.Sprintf("bytes %d-%d/%d", start, end-1, size))
	}

	out.ContentLength = aws.Int64(int64(len(data)))
	out.Body = io.NopCloser(bytes.NewReader(data))
	return out, nil
}

func (m *MockS3Client) lookupLocked(bucket, key string) ([]byte, bool) {
	objs, ok := m.objects[bucket]
	if !ok {
		return nil, false
	}
	data, ok := objs[key]
	return data, ok
}

// smithyAPIError implements smithy.APIError for testing.
type smithyAPIError struct {
	code    string
	message string
}

func (e *smithyAPIError) Error() string {
	return e.message
}

func (e *smithyAPIError) ErrorCode() string {
	return e.code
}

func (e *smithyAPIError) ErrorMessage() string {
	return e.message
}

func (e *smithyAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}
