// Package columnstoretest provides shared behavior tests for ColumnStore backends.
package columnstoretest

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

// RunColumnStoreTests exercises the ColumnStore contract against store.
// Record keys are prefixed with root so shared backends stay isolated.
func RunColumnStoreTests(t *testing.T, store timedcontent.ColumnStore, root string) {
	ctx := context.Background()

	t.Run("PutThenGet", func(t *testing.T) {
		key := root + "record-1"
		require.NoError(t, store.Put(ctx, key, []timedcontent.Column{
			timedcontent.NewColumn("title", []byte("T")),
			timedcontent.NewColumn("story", []byte("S")),
		}))

		columns, err := store.Get(ctx, key, []string{"title", "story"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"title": "T", "story": "S"}, AsMap(columns))
	})

	t.Run("PutMergesColumns", func(t *testing.T) {
		key := root + "record-merge"
		require.NoError(t, store.Put(ctx, key, []timedcontent.Column{
			timedcontent.NewColumn("a", []byte("1")),
			timedcontent.NewColumn("b", []byte("2")),
		}))
		require.NoError(t, store.Put(ctx, key, []timedcontent.Column{
			timedcontent.NewColumn("b", []byte("20")),
			timedcontent.NewColumn("c", []byte("30")),
		}))

		columns, err := store.Get(ctx, key, []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "20", "c": "30"}, AsMap(columns))
	})

	t.Run("GetOmitsMissingColumns", func(t *testing.T) {
		key := root + "record-partial"
		require.NoError(t, store.Put(ctx, key, []timedcontent.Column{
			timedcontent.NewColumn("present", []byte("yes")),
		}))

		columns, err := store.Get(ctx, key, []string{"present", "absent"})
		require.NoError(t, err)
		require.Len(t, columns, 1)
		assert.Equal(t, "present", columns[0].Name)
		assert.Equal(t, []byte("yes"), columns[0].Value)
	})

	t.Run("GetMissingRecord", func(t *testing.T) {
		columns, err := store.Get(ctx, root+"record-missing", []string{"a"})
		require.NoError(t, err)
		assert.Empty(t, columns)
	})

	t.Run("BinaryValues", func(t *testing.T) {
		key := root + "record-binary"
		value := []byte{0x00, 0xff, 0x10, 0x00}
		require.NoError(t, store.Put(ctx, key, []timedcontent.Column{
			timedcontent.NewColumn("blob", value),
		}))

		columns, err := store.Get(ctx, key, []string{"blob"})
		require.NoError(t, err)
		require.Len(t, columns, 1)
		assert.Equal(t, value, columns[0].Value)
	})

	t.Run("ConcurrentPuts", func(t *testing.T) {
		key := root + "record-concurrent"
		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(writer int) {
				defer wg.Done()
				name := fmt.Sprintf("col-%d", writer)
				assert.NoError(t, store.Put(ctx, key, []timedcontent.Column{
					timedcontent.NewColumn(name, []byte(name)),
				}))
			}(i)
		}
		wg.Wait()

		names := make([]string, 0, writers)
		for i := 0; i < writers; i++ {
			names = append(names, fmt.Sprintf("col-%d", i))
		}
		columns, err := store.Get(ctx, key, names)
		require.NoError(t, err)
		assert.Len(t, columns, writers)
	})
}

// AsMap converts columns into a name to string value map
func AsMap(columns []timedcontent.Column) map[string]string {
	out := make(map[string]string, len(columns))
	for _, column := range columns {
		out[column.Name] = string(column.Value)
	}
	return out
}

// Names returns the sorted column names
func Names(columns []timedcontent.Column) []string {
	names := make([]string, 0, len(columns))
	for _, column := range columns {
		names = append(names, column.Name)
	}
	sort.Strings(names)
	return names
}
