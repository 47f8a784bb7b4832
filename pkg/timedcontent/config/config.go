package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tendant/timed-content/pkg/timedcontent"
	boltcolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/bolt"
	dynamocolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/dynamodb"
	memorycolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/memory"
	rediscolumns "github.com/tendant/timed-content/pkg/timedcontent/columnstore/redis"
	fsstorage "github.com/tendant/timed-content/pkg/timedcontent/storage/fs"
	memorystorage "github.com/tendant/timed-content/pkg/timedcontent/storage/memory"
	s3storage "github.com/tendant/timed-content/pkg/timedcontent/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		Storage: BackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		ColumnStore: BackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		BucketCapacity: timedcontent.DefaultCapacity,
		SweepInterval:  10 * time.Minute,
		StaticDir:      "static",
	}
}

// ServerConfig represents server configuration for the timed content service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Blob storage holding cached artifacts
	Storage BackendConfig

	// Column store holding generation records
	ColumnStore BackendConfig

	// Cache options
	BucketCapacity int

	// Generation options
	OpenAIModel   string // Overrides the prompt's model when set
	OpenAIBaseURL string

	// Retention options. Sweeping is off while SweepMaxAge is zero.
	SweepMaxAge   time.Duration
	SweepInterval time.Duration

	// Directory holding home.html and reading.html, relative to the working
	// directory. Pages are not served when empty.
	StaticDir string
}

// BackendConfig selects a backend implementation and its settings
type BackendConfig struct {
	Type   string // blob: "memory", "fs", "s3"; columns: "none", "memory", "bolt", "redis", "dynamodb"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Storage.Type {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("storage type must be 'memory', 'fs' or 's3', got: %s", c.Storage.Type)
	}

	switch c.ColumnStore.Type {
	case "none", "memory", "bolt", "redis", "dynamodb":
	default:
		return fmt.Errorf("column store type must be 'none', 'memory', 'bolt', 'redis' or 'dynamodb', got: %s", c.ColumnStore.Type)
	}

	if c.BucketCapacity < 1 {
		return fmt.Errorf("bucket capacity must be positive, got: %d", c.BucketCapacity)
	}

	if c.SweepMaxAge < 0 {
		return fmt.Errorf("sweep max age cannot be negative, got: %s", c.SweepMaxAge)
	}
	if c.SweepMaxAge > 0 && c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive when sweeping, got: %s", c.SweepInterval)
	}

	return nil
}

// BuildBlobStore creates the configured BlobStore
func (c *ServerConfig) BuildBlobStore() (timedcontent.BlobStore, error) {
	config := c.Storage.Config
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		store, err := fsstorage.New(fsstorage.Config{
			BaseDir: getString(config, "base_dir", "./data/storage"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		store, err := s3storage.New(s3storage.Config{
			Region:                 getString(config, "region", "us-east-1"),
			Bucket:                 getString(config, "bucket", ""),
			AccessKeyID:            getString(config, "access_key_id", ""),
			SecretAccessKey:        getString(config, "secret_access_key", ""),
			Endpoint:               getString(config, "endpoint", ""),
			UsePathStyle:           getBool(config, "use_path_style", false),
			EnableSSE:              getBool(config, "enable_sse", false),
			SSEAlgorithm:           getString(config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config, "create_bucket_if_not_exist", false),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}
}

// BuildColumnStore creates the configured ColumnStore. It returns nil when
// generation records are disabled.
func (c *ServerConfig) BuildColumnStore() (timedcontent.ColumnStore, error) {
	config := c.ColumnStore.Config
	switch c.ColumnStore.Type {
	case "none":
		return nil, nil

	case "memory":
		return memorycolumns.New(), nil

	case "bolt":
		store, err := boltcolumns.Open(boltcolumns.Config{
			Path:   getString(config, "path", "./data/columns.db"),
			Bucket: getString(config, "bucket", ""),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "redis":
		store, err := rediscolumns.New(rediscolumns.Config{
			Addr:      getString(config, "addr", ""),
			Password:  getString(config, "password", ""),
			DB:        getInt(config, "db", 0),
			KeyPrefix: getString(config, "key_prefix", "timedcontent:"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "dynamodb":
		store, err := dynamocolumns.New(dynamocolumns.Config{
			Table:           getString(config, "table", ""),
			Region:          getString(config, "region", "us-east-1"),
			KeyAttribute:    getString(config, "key_attribute", ""),
			AccessKeyID:     getString(config, "access_key_id", ""),
			SecretAccessKey: getString(config, "secret_access_key", ""),
			Endpoint:        getString(config, "endpoint", ""),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported column store type: %s", c.ColumnStore.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
	}
	return defaultValue
}
