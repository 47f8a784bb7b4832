package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/timed-content/pkg/timedcontent"
)

const backendName = "fs"

// Backend is a filesystem implementation of the timedcontent.BlobStore interface.
// Object keys map to paths relative to the base directory.
type Backend struct {
	mu      sync.RWMutex
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the absolute base directory
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// keyPath converts an object key into a path under the base directory.
// Keys must already be clean so the key read back by List is the key
// that was written.
func (b *Backend) keyPath(objectKey string) (string, error) {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
	rel, err := filepath.Rel(b.baseDir, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes base directory", objectKey)
	}
	if rel == "." || filepath.ToSlash(rel) != objectKey {
		return "", fmt.Errorf("object key %q is not canonical", objectKey)
	}
	return filePath, nil
}

// pathKey converts a path under the base directory back into an object key
func (b *Backend) pathKey(path string) (string, bool) {
	rel, err := filepath.Rel(b.baseDir, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Put writes data to the file for objectKey, creating parent directories
func (b *Backend) Put(ctx context.Context, objectKey string, data []byte) error {
	filePath, err := b.keyPath(objectKey)
	if err != nil {
		return timedcontent.NewStorageError(backendName, "put", objectKey, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Create directory structure if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return timedcontent.NewStorageError(backendName, "put", objectKey, fmt.Errorf("failed to create directory: %w", err))
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return timedcontent.NewStorageError(backendName, "put", objectKey, fmt.Errorf("failed to write file: %w", err))
	}

	return nil
}

// Get reads the file for objectKey
func (b *Backend) Get(ctx context.Context, objectKey string) ([]byte, error) {
	filePath, err := b.keyPath(objectKey)
	if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", objectKey, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, timedcontent.NewStorageError(backendName, "get", objectKey, timedcontent.ErrNotFound)
	} else if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", objectKey, fmt.Errorf("failed to read file: %w", err))
	}

	return data, nil
}

// List returns every file whose key starts with prefix. A prefix ending in
// "/" is walked from that directory; any other prefix is walked from its
// parent directory and matched as a plain string prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]timedcontent.StoredObject, error) {
	objects := []timedcontent.StoredObject{}

	root := b.baseDir
	if dir := strings.TrimSuffix(prefix, "/"); dir != "" {
		searchPath, err := b.keyPath(dir)
		if err != nil {
			// No stored key can start with a non-canonical prefix
			return objects, nil
		}
		root = searchPath
		if !strings.HasSuffix(prefix, "/") {
			root = filepath.Dir(searchPath)
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The search root never existing is an empty result
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		key, ok := b.pathKey(path)
		if ok && strings.HasPrefix(key, prefix) {
			objects = append(objects, timedcontent.StoredObject{Key: key})
		}
		return nil
	})
	if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "list", prefix, fmt.Errorf("failed to walk directory: %w", err))
	}

	return objects, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath, err := b.keyPath(objectKey)
	if err != nil {
		return timedcontent.NewStorageError(backendName, "delete", objectKey, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return timedcontent.NewStorageError(backendName, "delete", objectKey, timedcontent.ErrNotFound)
	}

	// Delete file
	if err := os.Remove(filePath); err != nil {
		return timedcontent.NewStorageError(backendName, "delete", objectKey, fmt.Errorf("failed to delete file: %w", err))
	}

	// Clean up empty directories
	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == b.baseDir {
		return
	}

	// Check if directory is empty
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		// Remove empty directory
		if os.Remove(dir) == nil {
			// Recursively clean parent directory
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

var (
	_ timedcontent.BlobStore = (*Backend)(nil)
	_ timedcontent.Deleter   = (*Backend)(nil)
)
