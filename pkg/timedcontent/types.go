package timedcontent

import (
	"fmt"
	"strings"
	"time"
)

// BucketLayout is the time format of the hour segment in object keys
const BucketLayout = "2006-01-02-15"

// DefaultCapacity is the number of artifacts a bucket receives before
// lookups start serving from it
const DefaultCapacity = 16

// StoredObject describes a blob in a BlobStore
type StoredObject struct {
	Key string
}

// Column is a named value in a ColumnStore record
type Column struct {
	Name  string
	Value []byte
}

// NewColumn creates a column
func NewColumn(name string, value []byte) Column {
	return Column{Name: name, Value: value}
}

// Category identifies a logical content stream
type Category string

const (
	// CategoryReading holds reading comprehension stories
	CategoryReading Category = "reading"
)

// Categories lists every known category
func Categories() []Category {
	return []Category{CategoryReading}
}

// Prefix returns the storage prefix partitioning the category
func (c Category) Prefix() string {
	switch c {
	case CategoryReading:
		return "reading"
	default:
		return ""
	}
}

// PromptName returns the prompt used to generate content for the category
func (c Category) PromptName() string {
	switch c {
	case CategoryReading:
		return "reading_comprehension"
	default:
		return ""
	}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c.Prefix() != ""
}

// ParseCategory converts a string into a known category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrConfiguration, s)
	}
	return c, nil
}

// BucketPrefix returns the bucket prefix for the category at t, in UTC:
// "{prefix}/{YYYY-MM-DD-HH}/"
func BucketPrefix(c Category, t time.Time) string {
	return c.Prefix() + "/" + t.UTC().Format(BucketLayout) + "/"
}

// ParseBucketTime extracts the bucket hour from an object key produced by
// Cache.Store. It returns false for keys that do not follow the layout.
func ParseBucketTime(key string) (time.Time, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(BucketLayout, parts[1], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
