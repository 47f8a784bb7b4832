package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tendant/timed-content/pkg/timedcontent"
	bbolt "go.etcd.io/bbolt"
)

const backendName = "bolt"

// Config options for the bolt column store
type Config struct {
	Path    string        // Database file path
	Bucket  string        // Top-level bucket holding records (default: "columns")
	Timeout time.Duration // Time to wait for the file lock (default: 1s)
}

// Store is a bbolt implementation of the timedcontent.ColumnStore interface.
// Each record is a nested bucket and each column a key inside it.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open initializes or opens a Store at the configured path
func Open(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, errors.New("database path is required")
	}
	if config.Bucket == "" {
		config.Bucket = "columns"
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Second
	}

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bbolt.Open(config.Path, 0o600, &bbolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	bucket := []byte(config.Bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put merges columns into the record at key
func (s *Store) Put(ctx context.Context, key string, columns []timedcontent.Column) error {
	if key == "" {
		return timedcontent.NewStorageError(backendName, "put", key, errors.New("record key is required"))
	}
	if err := ctx.Err(); err != nil {
		return timedcontent.NewStorageError(backendName, "put", key, err)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		record, err := tx.Bucket(s.bucket).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		for _, column := range columns {
			if column.Name == "" {
				return errors.New("column name is required")
			}
			if err := record.Put([]byte(column.Name), column.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return timedcontent.NewStorageError(backendName, "put", key, err)
	}
	return nil
}

// Get returns the requested columns that exist for key
func (s *Store) Get(ctx context.Context, key string, names []string) ([]timedcontent.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", key, err)
	}

	columns := []timedcontent.Column{}
	if key == "" {
		return columns, nil
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		record := tx.Bucket(s.bucket).Bucket([]byte(key))
		if record == nil {
			return nil
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			// Values are only valid for the life of the transaction
			if v := record.Get([]byte(name)); v != nil {
				columns = append(columns, timedcontent.NewColumn(name, append([]byte{}, v...)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", key, err)
	}
	return columns, nil
}

var _ timedcontent.ColumnStore = (*Store)(nil)
