package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/columnstore/columnstoretest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltColumnStore(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "columns.db"))
	columnstoretest.RunColumnStoreTests(t, store, "")
}

func TestBoltColumnStore_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestBoltColumnStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "columns.db")
	ctx := context.Background()

	store, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "reading/2025-10-11-14/a.json", []timedcontent.Column{
		timedcontent.NewColumn("model", []byte("gpt-4o-mini")),
		timedcontent.NewColumn("prompt", []byte("reading_comprehension")),
	}))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	columns, err := reopened.Get(ctx, "reading/2025-10-11-14/a.json", []string{"prompt", "model", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"model", "prompt"}, columnstoretest.Names(columns))
}

func TestBoltColumnStore_RejectsEmptyNames(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "columns.db"))
	ctx := context.Background()

	err := store.Put(ctx, "", []timedcontent.Column{timedcontent.NewColumn("a", []byte("1"))})
	assert.ErrorIs(t, err, timedcontent.ErrStorage)

	err = store.Put(ctx, "key", []timedcontent.Column{timedcontent.NewColumn("", []byte("1"))})
	assert.ErrorIs(t, err, timedcontent.ErrStorage)
}
