package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/storage/storagetest"
)

func TestFSBackend(t *testing.T) {
	b, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	storagetest.RunBlobStoreTests(t, b, "")
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory is required")
}

func TestFSBackend_PutCreatesDirectories(t *testing.T) {
	tmp := t.TempDir()
	b, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-14/abc.json", []byte("{}")))

	data, err := os.ReadFile(filepath.Join(tmp, "reading", "2025-10-11-14", "abc.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFSBackend_ListSkipsDirectoriesAndUsesForwardSlashes(t *testing.T) {
	tmp := t.TempDir()
	b, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "reading", "2025-10-11-14", "empty"), 0755))
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-14/one.json", []byte("1")))
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-15/two.json", []byte("2")))

	objects, err := b.List(ctx, "reading/2025-10-11-14/")
	require.NoError(t, err)
	assert.Equal(t, []string{"reading/2025-10-11-14/one.json"}, storagetest.Keys(objects))

	objects, err = b.List(ctx, "reading/2025-10-11-1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reading/2025-10-11-14/one.json",
		"reading/2025-10-11-15/two.json",
	}, storagetest.Keys(objects))
}

func TestFSBackend_RejectsEscapingKeys(t *testing.T) {
	b, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	err = b.Put(context.Background(), "../outside.json", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, timedcontent.ErrStorage)
}

func TestFSBackend_RejectsUncleanKeys(t *testing.T) {
	b, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{
		"/lead/c.json",
		"reading//double.json",
		"./reading/dot.json",
		"reading/2025-10-11-14/../x.json",
		"reading/",
		".",
	} {
		err := b.Put(ctx, key, []byte("x"))
		assert.ErrorIs(t, err, timedcontent.ErrStorage, key)

		_, err = b.Get(ctx, key)
		assert.ErrorIs(t, err, timedcontent.ErrStorage, key)
		assert.NotErrorIs(t, err, timedcontent.ErrNotFound, key)
	}

	objects, err := b.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, objects)

	objects, err = b.List(ctx, "/lead")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestFSBackend_ListDirectoryPrefixWithoutSlash(t *testing.T) {
	b, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-14/one.json", []byte("1")))
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-140/two.json", []byte("2")))
	require.NoError(t, b.Put(ctx, "reading-extra/three.json", []byte("3")))

	objects, err := b.List(ctx, "reading/2025-10-11-14")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reading/2025-10-11-14/one.json",
		"reading/2025-10-11-140/two.json",
	}, storagetest.Keys(objects))

	objects, err = b.List(ctx, "reading")
	require.NoError(t, err)
	assert.Len(t, objects, 3)
}

func TestFSBackend_DeleteCleansEmptyDirectories(t *testing.T) {
	tmp := t.TempDir()
	b, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "reading/2025-10-11-14/one.json", []byte("1")))
	require.NoError(t, b.Delete(ctx, "reading/2025-10-11-14/one.json"))

	_, err = os.Stat(filepath.Join(tmp, "reading"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(tmp)
	assert.NoError(t, err)

	err = b.Delete(ctx, "reading/2025-10-11-14/one.json")
	assert.ErrorIs(t, err, timedcontent.ErrNotFound)
}
