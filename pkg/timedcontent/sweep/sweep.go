// Package sweep deletes artifacts from buckets that have aged out.
//
// The cache never removes anything. A Sweeper lists each category prefix,
// reads the bucket hour out of every key and deletes objects whose bucket
// started more than MaxAge ago. Keys that do not follow the bucket layout
// are left alone.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/timed-content/pkg/timedcontent"
)

// Store is a blob store that supports deletes
type Store interface {
	timedcontent.BlobStore
	timedcontent.Deleter
}

// Config configures a Sweeper
type Config struct {
	Store      Store
	Categories []timedcontent.Category // Defaults to timedcontent.Categories()
	MaxAge     time.Duration           // Buckets that started earlier than now-MaxAge are deleted
	Clock      func() time.Time        // Defaults to time.Now
	Logger     *slog.Logger
}

// Result summarizes one sweep
type Result struct {
	Scanned int
	Deleted int
	Skipped int
}

// Sweeper removes expired buckets
type Sweeper struct {
	store      Store
	categories []timedcontent.Category
	maxAge     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a sweeper
func New(config Config) (*Sweeper, error) {
	if config.Store == nil {
		return nil, errors.New("store is required")
	}
	if config.MaxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive, got: %s", config.MaxAge)
	}
	if len(config.Categories) == 0 {
		config.Categories = timedcontent.Categories()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Sweeper{
		store:      config.Store,
		categories: config.Categories,
		maxAge:     config.MaxAge,
		now:        config.Clock,
		logger:     config.Logger,
	}, nil
}

// Run performs one sweep over every category. It stops at the first list or
// delete failure and returns the counts gathered so far.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var result Result
	cutoff := s.now().UTC().Add(-s.maxAge)

	for _, category := range s.categories {
		if !category.Valid() {
			return result, fmt.Errorf("%w: unknown category %q", timedcontent.ErrConfiguration, category)
		}

		objects, err := s.store.List(ctx, category.Prefix()+"/")
		if err != nil {
			return result, fmt.Errorf("failed to list category %s: %w", category, err)
		}

		for _, obj := range objects {
			result.Scanned++

			bucket, ok := timedcontent.ParseBucketTime(obj.Key)
			if !ok {
				result.Skipped++
				continue
			}
			// Bucket hours are inclusive, so the bucket ends an hour after it starts
			if !bucket.Add(time.Hour).Before(cutoff) {
				continue
			}

			if err := s.store.Delete(ctx, obj.Key); err != nil {
				if timedcontent.IsNotFound(err) {
					continue
				}
				return result, fmt.Errorf("failed to delete %s: %w", obj.Key, err)
			}
			result.Deleted++
		}
	}

	s.logger.Info("Sweep completed",
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"cutoff", cutoff,
	)
	return result, nil
}

// Start runs a sweep every interval until ctx is canceled. Failures are
// logged and the next tick tries again.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Error("Sweep failed", "err", err)
			}
		}
	}
}
