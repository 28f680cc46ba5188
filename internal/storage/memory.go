package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryClient keeps objects in process memory. It backs STORAGE_BACKEND=memory
// for local development and tests.
type MemoryClient struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryClient returns an empty in-memory bucket.
func NewMemoryClient(bucket string) *MemoryClient {
	return &MemoryClient{bucket: bucket, objects: make(map[string]memoryObject)}
}

func (m *MemoryClient) EnsureBucket(ctx context.Context) error {
	return nil
}

func (m *MemoryClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryClient) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryClient) Bucket() string {
	return m.bucket
}

// Keys returns the stored keys in no particular order.
func (m *MemoryClient) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}
