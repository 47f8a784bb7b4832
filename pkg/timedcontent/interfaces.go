package timedcontent

import (
	"context"
)

// BlobStore defines the interface for object storage backends
type BlobStore interface {
	// Put writes data at key, replacing any existing object
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the full object at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every object whose key starts with prefix, in no
	// particular order. An unmatched prefix yields an empty slice.
	List(ctx context.Context, prefix string) ([]StoredObject, error)
}

// Deleter is implemented by blob stores that support removing objects.
// It is only used by retention tooling, never by the cache itself.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// ColumnStore defines the interface for keyed records of named byte columns
type ColumnStore interface {
	// Put merges columns into the record at key, creating it if needed.
	// Columns not named in the call keep their previous values.
	Put(ctx context.Context, key string, columns []Column) error

	// Get returns the requested columns that exist for key. Missing
	// columns and missing records are omitted rather than reported.
	Get(ctx context.Context, key string, names []string) ([]Column, error)
}
