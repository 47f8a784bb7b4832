// Package storagetest provides shared behavior tests for BlobStore backends.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
)

// RunBlobStoreTests exercises the BlobStore contract against store.
// Keys are written below root so backends shared between runs stay isolated.
func RunBlobStoreTests(t *testing.T, store timedcontent.BlobStore, root string) {
	ctx := context.Background()

	t.Run("PutThenGet", func(t *testing.T) {
		key := root + "put-get/object.json"
		require.NoError(t, store.Put(ctx, key, []byte(`{"title":"T"}`)))

		data, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"title":"T"}`, string(data))
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		key := root + "overwrite/object.json"
		require.NoError(t, store.Put(ctx, key, []byte("first")))
		require.NoError(t, store.Put(ctx, key, []byte("second")))

		data, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, root+"missing/object.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, timedcontent.ErrNotFound)
		assert.NotErrorIs(t, err, timedcontent.ErrStorage)
	})

	t.Run("ListEmptyPrefix", func(t *testing.T) {
		objects, err := store.List(ctx, root+"nothing-here/")
		require.NoError(t, err)
		assert.NotNil(t, objects)
		assert.Empty(t, objects)
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		want := []string{
			root + "list/a/1.json",
			root + "list/a/2.json",
			root + "list/a/nested/3.json",
		}
		for _, key := range want {
			require.NoError(t, store.Put(ctx, key, []byte(key)))
		}
		require.NoError(t, store.Put(ctx, root+"list/b/4.json", []byte("other")))

		objects, err := store.List(ctx, root+"list/a/")
		require.NoError(t, err)
		assert.Equal(t, want, Keys(objects))
	})

	t.Run("ListPartialSegment", func(t *testing.T) {
		want := []string{
			root + "segment/2024-03-05-14/a.json",
			root + "segment/2024-03-05-140/b.json",
		}
		for _, key := range want {
			require.NoError(t, store.Put(ctx, key, []byte(key)))
		}
		require.NoError(t, store.Put(ctx, root+"segment/2024-03-05-15/c.json", []byte("other")))

		objects, err := store.List(ctx, root+"segment/2024-03-05-14")
		require.NoError(t, err)
		assert.Equal(t, want, Keys(objects))
	})

	t.Run("UncleanKeysAreListableOrRejected", func(t *testing.T) {
		for _, key := range []string{
			root + "unclean//double.json",
			root + "unclean/./dot.json",
		} {
			err := store.Put(ctx, key, []byte(key))
			if err != nil {
				assert.ErrorIs(t, err, timedcontent.ErrStorage, key)
				continue
			}

			objects, err := store.List(ctx, root+"unclean/")
			require.NoError(t, err)
			assert.Contains(t, Keys(objects), key)

			data, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, key, string(data))
		}
	})

	t.Run("ConcurrentPutAndList", func(t *testing.T) {
		const writers = 8
		const perWriter = 10

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(writer int) {
				defer wg.Done()
				for j := 0; j < perWriter; j++ {
					key := fmt.Sprintf("%sconcurrent/%d-%d.json", root, writer, j)
					assert.NoError(t, store.Put(ctx, key, []byte(key)))
					_, err := store.List(ctx, root+"concurrent/")
					assert.NoError(t, err)
				}
			}(i)
		}
		wg.Wait()

		objects, err := store.List(ctx, root+"concurrent/")
		require.NoError(t, err)
		assert.Len(t, objects, writers*perWriter)
		for _, obj := range objects {
			data, err := store.Get(ctx, obj.Key)
			require.NoError(t, err)
			assert.Equal(t, obj.Key, string(data))
		}
	})
}

// Keys returns the sorted keys of objects
func Keys(objects []timedcontent.StoredObject) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys
}
