package timedcontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Cache implements the generate-or-reuse policy for artifacts of type T.
// It never calls a generator itself: Lookup reports a miss and the caller
// generates content and hands it to Store.
//
// Lookup counts the bucket and then decides, which is not atomic with other
// callers' Store. Concurrent misses on a bucket just below capacity can all
// store, so a bucket may overshoot its capacity by at most the number of
// racing callers.
type Cache[T any] struct {
	store    BlobStore
	capacity int
	now      func() time.Time
	pick     func(n int) int
	logger   *slog.Logger
	hooks    Hooks
}

type options struct {
	capacity int
	now      func() time.Time
	pick     func(n int) int
	logger   *slog.Logger
	hooks    Hooks
}

// Option represents a functional option for configuring the cache
type Option func(*options)

// WithCapacity sets the number of artifacts a bucket receives before
// lookups serve from it
func WithCapacity(capacity int) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// WithClock overrides the time source used to compute buckets
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithPicker overrides the random index selection used on hits.
// pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(o *options) {
		o.pick = pick
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks adds lifecycle hooks to the cache
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks.Merge(hooks)
	}
}

// NewCache creates a cache over the given blob store
func NewCache[T any](store BlobStore, opts ...Option) (*Cache[T], error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}

	o := options{
		capacity: DefaultCapacity,
		now:      time.Now,
		pick:     rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.capacity < 1 {
		return nil, fmt.Errorf("capacity must be positive, got: %d", o.capacity)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Cache[T]{
		store:    store,
		capacity: o.capacity,
		now:      o.now,
		pick:     o.pick,
		logger:   o.logger,
		hooks:    o.hooks,
	}, nil
}

// Capacity returns the per-bucket capacity
func (c *Cache[T]) Capacity() int {
	return c.capacity
}

// Lookup returns a random artifact from the current bucket of category once
// the bucket is full. found is false while the bucket is below capacity, in
// which case the caller should generate content and call Store.
func (c *Cache[T]) Lookup(ctx context.Context, category Category) (artifact T, found bool, err error) {
	if !category.Valid() {
		err = fmt.Errorf("%w: unknown category %q", ErrConfiguration, category)
		c.hooks.failed(category, "lookup", err)
		return artifact, false, err
	}

	prefix := BucketPrefix(category, c.now())
	objects, err := c.store.List(ctx, prefix)
	if err != nil {
		c.hooks.failed(category, "lookup", err)
		return artifact, false, fmt.Errorf("failed to list bucket %s: %w", prefix, err)
	}

	count := len(objects)
	if count < c.capacity {
		c.logger.Debug("timed content miss", "category", category, "bucket", prefix, "count", count)
		c.hooks.miss(category, count)
		return artifact, false, nil
	}

	key := objects[c.pick(count)].Key
	data, err := c.store.Get(ctx, key)
	if err != nil {
		c.hooks.failed(category, "lookup", err)
		return artifact, false, fmt.Errorf("failed to read cached object: %w", err)
	}

	if err := json.Unmarshal(data, &artifact); err != nil {
		err = &SerializationError{Key: key, Err: err}
		c.logger.Error("Corrupt cached object", "key", key, "err", err)
		c.hooks.failed(category, "lookup", err)
		var zero T
		return zero, false, err
	}

	c.logger.Debug("timed content hit", "category", category, "key", key, "count", count)
	c.hooks.hit(category, count, key)
	return artifact, true, nil
}

// Store writes artifact into the current bucket of category and returns its
// key. The bucket is computed at call time, so an artifact generated across
// an hour boundary lands in the new bucket. Store does not check capacity.
func (c *Cache[T]) Store(ctx context.Context, artifact T, category Category) (string, error) {
	if !category.Valid() {
		err := fmt.Errorf("%w: unknown category %q", ErrConfiguration, category)
		c.hooks.failed(category, "store", err)
		return "", err
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		err = &SerializationError{Err: err}
		c.hooks.failed(category, "store", err)
		return "", err
	}

	key := fmt.Sprintf("%s%s.json", BucketPrefix(category, c.now()), uuid.New())
	if err := c.store.Put(ctx, key, data); err != nil {
		c.hooks.failed(category, "store", err)
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}

	c.logger.Debug("timed content stored", "category", category, "key", key)
	c.hooks.stored(category, key)
	return key, nil
}
