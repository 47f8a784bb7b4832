package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/storage/memory"
	"github.com/tendant/timed-content/pkg/timedcontent/storage/storagetest"
)

var now = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Backend, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, store.Put(context.Background(), key, []byte(`{}`)))
	}
}

func TestNew(t *testing.T) {
	_, err := New(Config{MaxAge: time.Hour})
	assert.Error(t, err)

	_, err = New(Config{Store: memory.New()})
	assert.Error(t, err)

	s, err := New(Config{Store: memory.New(), MaxAge: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, timedcontent.Categories(), s.categories)
}

func TestSweeper_Run(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(t, store,
		"reading/2024-03-05-14/current.json",
		"reading/2024-03-05-13/previous.json",
		"reading/2024-03-05-11/old-1.json",
		"reading/2024-03-04-09/old-2.json",
		"reading/manual/notes.json",
		"other/2024-01-01-00/untouched.json",
	)

	s, err := New(Config{Store: store, MaxAge: 2 * time.Hour, Clock: func() time.Time { return now }})
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 5, Deleted: 2, Skipped: 1}, result)

	remaining, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"other/2024-01-01-00/untouched.json",
		"reading/2024-03-05-13/previous.json",
		"reading/2024-03-05-14/current.json",
		"reading/manual/notes.json",
	}, storagetest.Keys(remaining))
}

func TestSweeper_RunKeepsCacheWorking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cache, err := timedcontent.NewCache[map[string]string](store,
		timedcontent.WithCapacity(1),
		timedcontent.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	_, err = cache.Store(ctx, map[string]string{"title": "T"}, timedcontent.CategoryReading)
	require.NoError(t, err)

	s, err := New(Config{Store: store, MaxAge: time.Hour, Clock: func() time.Time { return now }})
	require.NoError(t, err)
	_, err = s.Run(ctx)
	require.NoError(t, err)

	_, found, err := cache.Lookup(ctx, timedcontent.CategoryReading)
	require.NoError(t, err)
	assert.True(t, found, "the current bucket is never swept")
}

type failingDelete struct {
	*memory.Backend
}

func (f failingDelete) Delete(ctx context.Context, key string) error {
	return timedcontent.NewStorageError("test", "delete", key, errors.New("permission denied"))
}

func TestSweeper_RunDeleteFailure(t *testing.T) {
	store := memory.New()
	seed(t, store, "reading/2024-03-01-00/old.json")

	s, err := New(Config{Store: failingDelete{store}, MaxAge: time.Hour, Clock: func() time.Time { return now }})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	assert.ErrorIs(t, err, timedcontent.ErrStorage)
	assert.Equal(t, 0, result.Deleted)
}

func TestSweeper_RunUnknownCategory(t *testing.T) {
	s, err := New(Config{
		Store:      memory.New(),
		MaxAge:     time.Hour,
		Categories: []timedcontent.Category{"poetry"},
	})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, timedcontent.ErrConfiguration)
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	store := memory.New()
	seed(t, store, "reading/2024-03-01-00/old.json")

	s, err := New(Config{Store: store, MaxAge: time.Hour, Clock: func() time.Time { return now }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		objects, err := store.List(context.Background(), "reading/")
		return err == nil && len(objects) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
