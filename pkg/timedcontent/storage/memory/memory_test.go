package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	memorystorage "github.com/tendant/timed-content/pkg/timedcontent/storage/memory"
	"github.com/tendant/timed-content/pkg/timedcontent/storage/storagetest"
)

func TestMemoryBackend(t *testing.T) {
	storagetest.RunBlobStoreTests(t, memorystorage.New(), "")
}

func TestMemoryBackendCopiesData(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, backend.Put(ctx, "copy/key", data))
	data[0] = 'X'

	got, err := backend.Get(ctx, "copy/key")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, err := backend.Get(ctx, "copy/key")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemoryBackendDelete(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "delete/key", []byte("x")))
	require.NoError(t, backend.Delete(ctx, "delete/key"))

	_, err := backend.Get(ctx, "delete/key")
	assert.True(t, timedcontent.IsNotFound(err))

	err = backend.Delete(ctx, "delete/key")
	assert.ErrorIs(t, err, timedcontent.ErrNotFound)
}

func TestMemoryBackendCanceledContext(t *testing.T) {
	backend := memorystorage.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := backend.Put(ctx, "canceled/key", []byte("x"))
	assert.ErrorIs(t, err, timedcontent.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkMemoryBackend(b *testing.B) {
	backend := memorystorage.New()
	ctx := context.Background()
	data := []byte(`{"title":"benchmark","story":"data","questions":["q"]}`)

	b.Run("Put", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := backend.Put(ctx, fmt.Sprintf("benchmark/put/%d.json", i), data); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("List", func(b *testing.B) {
		for i := 0; i < 64; i++ {
			if err := backend.Put(ctx, fmt.Sprintf("benchmark/list/%d.json", i), data); err != nil {
				b.Fatal(err)
			}
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := backend.List(ctx, "benchmark/list/"); err != nil {
				b.Fatal(err)
			}
		}
	})
}
