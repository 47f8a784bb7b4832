package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	boltcolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/bolt"
	memorycolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/memory"
	fsstorage "github.com/tendant/timed-content/pkg/timedcontent/storage/fs"
	memorystorage "github.com/tendant/timed-content/pkg/timedcontent/storage/memory"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "memory", cfg.ColumnStore.Type)
	assert.Equal(t, timedcontent.DefaultCapacity, cfg.BucketCapacity)
	assert.Zero(t, cfg.SweepMaxAge)
	assert.Equal(t, "static", cfg.StaticDir)
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty port", WithPort("")},
		{"empty environment", WithEnvironment("")},
		{"empty base dir", WithFilesystemStorage("")},
		{"empty bucket", WithS3Storage("", "")},
		{"endpoint without s3", WithS3Endpoint("http://localhost:9000", true)},
		{"bad SSE algorithm", func(c *ServerConfig) error {
			if err := WithS3Storage("bucket", "")(c); err != nil {
				return err
			}
			return WithS3Encryption("rot13", "")(c)
		}},
		{"empty bolt path", WithBoltColumnStore("")},
		{"empty redis addr", WithRedisColumnStore("", "", 0)},
		{"empty table", WithDynamoDBColumnStore("", "")},
		{"zero capacity", WithBucketCapacity(0)},
		{"zero max age", WithSweep(0, time.Minute)},
		{"zero interval", WithSweep(time.Hour, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestOptionsApply(t *testing.T) {
	cfg, err := Load(
		WithPort("9000"),
		WithEnvironment("production"),
		WithS3Storage("artifacts", "eu-west-1"),
		WithS3Endpoint("http://localhost:9000", true),
		WithS3Encryption("aws:kms", "key-id"),
		WithDynamoDBColumnStore("generations", ""),
		WithBucketCapacity(8),
		WithOpenAI("gpt-4.1", ""),
		WithSweep(24*time.Hour, time.Minute),
		WithStaticDir("static"),
	)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, map[string]interface{}{
		"bucket":         "artifacts",
		"region":         "eu-west-1",
		"endpoint":       "http://localhost:9000",
		"use_path_style": true,
		"enable_sse":     true,
		"sse_algorithm":  "aws:kms",
		"sse_kms_key_id": "key-id",
	}, cfg.Storage.Config)
	assert.Equal(t, "dynamodb", cfg.ColumnStore.Type)
	assert.Equal(t, "us-east-1", cfg.ColumnStore.Config["region"])
	assert.Equal(t, 8, cfg.BucketCapacity)
	assert.Equal(t, "gpt-4.1", cfg.OpenAIModel)
	assert.Equal(t, 24*time.Hour, cfg.SweepMaxAge)
	assert.Equal(t, "static", cfg.StaticDir)
}

func TestBuildBlobStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		store, err := cfg.BuildBlobStore()
		require.NoError(t, err)
		assert.IsType(t, &memorystorage.Backend{}, store)
	})

	t.Run("Filesystem", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Load(WithFilesystemStorage(dir))
		require.NoError(t, err)

		store, err := cfg.BuildBlobStore()
		require.NoError(t, err)
		require.IsType(t, &fsstorage.Backend{}, store)

		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "reading/2024-03-05-14/a.json", []byte(`{}`)))
		objects, err := store.List(ctx, "reading/")
		require.NoError(t, err)
		assert.Len(t, objects, 1)
	})

	t.Run("S3RequiresBucket", func(t *testing.T) {
		cfg := &ServerConfig{Storage: BackendConfig{Type: "s3", Config: map[string]interface{}{}}}
		store, err := cfg.BuildBlobStore()
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestBuildColumnStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		store, err := cfg.BuildColumnStore()
		require.NoError(t, err)
		assert.IsType(t, &memorycolumns.Store{}, store)
	})

	t.Run("None", func(t *testing.T) {
		cfg, err := Load(WithoutGenerationRecords())
		require.NoError(t, err)
		store, err := cfg.BuildColumnStore()
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("Bolt", func(t *testing.T) {
		cfg, err := Load(WithBoltColumnStore(filepath.Join(t.TempDir(), "columns.db")))
		require.NoError(t, err)
		store, err := cfg.BuildColumnStore()
		require.NoError(t, err)
		require.IsType(t, &boltcolumns.Store{}, store)
		t.Cleanup(func() { _ = store.(*boltcolumns.Store).Close() })
	})

	t.Run("RedisRequiresAddr", func(t *testing.T) {
		cfg := &ServerConfig{ColumnStore: BackendConfig{Type: "redis", Config: map[string]interface{}{}}}
		store, err := cfg.BuildColumnStore()
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("DynamoDBRequiresTable", func(t *testing.T) {
		cfg := &ServerConfig{ColumnStore: BackendConfig{Type: "dynamodb", Config: map[string]interface{}{}}}
		store, err := cfg.BuildColumnStore()
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
