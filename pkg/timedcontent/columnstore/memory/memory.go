package memory

import (
	"context"
	"sync"

	"github.com/tendant/timed-content/pkg/timedcontent"
)

// Store is an in-memory implementation of the timedcontent.ColumnStore interface
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

// New creates a new in-memory column store
func New() *Store {
	return &Store{
		records: make(map[string]map[string][]byte),
	}
}

// Put merges columns into the record at key
func (s *Store) Put(ctx context.Context, key string, columns []timedcontent.Column) error {
	if err := ctx.Err(); err != nil {
		return timedcontent.NewStorageError("memory", "put", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[key]
	if !exists {
		record = make(map[string][]byte, len(columns))
		s.records[key] = record
	}
	for _, column := range columns {
		value := make([]byte, len(column.Value))
		copy(value, column.Value)
		record[column.Name] = value
	}
	return nil
}

// Get returns the requested columns that exist for key
func (s *Store) Get(ctx context.Context, key string, names []string) ([]timedcontent.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, timedcontent.NewStorageError("memory", "get", key, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	columns := []timedcontent.Column{}
	record, exists := s.records[key]
	if !exists {
		return columns, nil
	}
	for _, name := range names {
		if value, ok := record[name]; ok {
			out := make([]byte, len(value))
			copy(out, value)
			columns = append(columns, timedcontent.NewColumn(name, out))
		}
	}
	return columns, nil
}

var _ timedcontent.ColumnStore = (*Store)(nil)
