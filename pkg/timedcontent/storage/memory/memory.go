package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/tendant/timed-content/pkg/timedcontent"
)

const backendName = "memory"

// Backend is an in-memory implementation of the timedcontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// Put stores a copy of data under objectKey
func (b *Backend) Put(ctx context.Context, objectKey string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return timedcontent.NewStorageError(backendName, "put", objectKey, err)
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = stored
	return nil
}

// Get returns a copy of the object stored under objectKey
func (b *Backend) Get(ctx context.Context, objectKey string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", objectKey, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, timedcontent.NewStorageError(backendName, "get", objectKey, timedcontent.ErrNotFound)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// List returns every object whose key starts with prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]timedcontent.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, timedcontent.NewStorageError(backendName, "list", prefix, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	objects := []timedcontent.StoredObject{}
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, timedcontent.StoredObject{Key: key})
		}
	}
	return objects, nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return timedcontent.NewStorageError(backendName, "delete", objectKey, timedcontent.ErrNotFound)
	}

	delete(b.objects, objectKey)
	return nil
}

var (
	_ timedcontent.BlobStore = (*Backend)(nil)
	_ timedcontent.Deleter   = (*Backend)(nil)
)
