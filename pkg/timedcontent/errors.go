package timedcontent

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates a key was never written
	ErrNotFound = errors.New("object not found")

	// ErrStorage indicates a backend failure (unreachable, permission denied, disk error)
	ErrStorage = errors.New("storage failure")

	// ErrSerialization indicates stored bytes could not be encoded or decoded
	ErrSerialization = errors.New("serialization failure")

	// ErrGeneration indicates the content generator failed or returned malformed output
	ErrGeneration = errors.New("generation failure")

	// ErrConfiguration indicates a required category or prompt mapping is missing
	ErrConfiguration = errors.New("configuration failure")
)

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports a StorageError as ErrStorage unless it wraps ErrNotFound
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage && !errors.Is(e.Err, ErrNotFound)
}

// NewStorageError wraps err as a StorageError
func NewStorageError(backend, op, key string, err error) error {
	return &StorageError{Backend: backend, Key: key, Op: op, Err: err}
}

// SerializationError represents a stored artifact that could not be decoded
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("serialization failed: %v", e.Err)
	}
	return fmt.Sprintf("serialization failed for key %s: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// GenerationError represents a failed call to the content generator
type GenerationError struct {
	Prompt    string
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for prompt %s: %v", e.Prompt, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// IsNotFound reports whether err means the key does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
