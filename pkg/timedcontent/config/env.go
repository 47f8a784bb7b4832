package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//	STATIC_DIR - Directory holding home.html and reading.html (default: "static", empty disables pages)
//
// Storage:
//
//	STORAGE_URL - Blob storage for cached artifacts (one of):
//	              - "memory://" - In-memory storage (default)
//	              - "file:///path/to/data" - Filesystem storage
//	              - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//	COLUMN_STORE_URL - Generation records (one of):
//	              - "memory://" - In-memory records (default)
//	              - "none" - Records disabled
//	              - "bolt:///path/to/columns.db"
//	              - "redis://:password@host:6379/0?prefix=timedcontent:"
//	              - "dynamodb://table?region=us-east-1&endpoint=http://localhost:8000"
//
// Cache and generation:
//
//	BUCKET_CAPACITY - Artifacts per hourly bucket before reuse (default: 16)
//	OPENAI_MODEL - Model overriding the prompt's model
//	OPENAI_BASE_URL - Base URL of an OpenAI-compatible API
//
// Retention:
//
//	SWEEP_MAX_AGE - Delete buckets older than this duration, e.g. "48h" (default: off)
//	SWEEP_INTERVAL - Time between sweeps (default: "10m")
//
// AWS credentials and region come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
// and AWS_REGION, unprefixed.
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}
		if v, ok := lookupEnv(prefix, "STATIC_DIR"); ok {
			c.StaticDir = v
		}

		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}
		if err := applyColumnStoreEnv(prefix, c); err != nil {
			return err
		}

		if v, ok, err := parseIntEnv(prefix, "BUCKET_CAPACITY"); err != nil {
			return err
		} else if ok {
			c.BucketCapacity = v
		}
		if v, ok := lookupEnv(prefix, "OPENAI_MODEL"); ok && v != "" {
			c.OpenAIModel = v
		}
		if v, ok := lookupEnv(prefix, "OPENAI_BASE_URL"); ok && v != "" {
			c.OpenAIBaseURL = v
		}

		if v, ok, err := parseDurationEnv(prefix, "SWEEP_MAX_AGE"); err != nil {
			return err
		} else if ok {
			c.SweepMaxAge = v
		}
		if v, ok, err := parseDurationEnv(prefix, "SWEEP_INTERVAL"); err != nil {
			return err
		} else if ok {
			c.SweepInterval = v
		}

		return nil
	}
}

// applyStorageEnv applies blob storage configuration from environment
func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")

	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.Storage = BackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}

	u, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Host + u.Path
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.Storage = BackendConfig{
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": path},
		}
		return nil

	case "s3":
		if u.Host == "" {
			return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		backend := BackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": u.Host,
				"region": "us-east-1",
			},
		}
		applyAWSEnv(backend.Config)
		query := u.Query()
		copyQuery(query, backend.Config, map[string]string{
			"region":     "region",
			"endpoint":   "endpoint",
			"path_style": "use_path_style",
			"create":     "create_bucket_if_not_exist",
			"sse":        "sse_algorithm",
			"kms_key_id": "sse_kms_key_id",
		})
		if query.Get("sse") != "" {
			backend.Config["enable_sse"] = true
		}
		c.Storage = backend
		return nil
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyColumnStoreEnv applies generation record storage from environment
func applyColumnStoreEnv(prefix string, c *ServerConfig) error {
	storeURL, hasURL := lookupEnv(prefix, "COLUMN_STORE_URL")

	if !hasURL || storeURL == "" || storeURL == "memory" || storeURL == "memory://" {
		c.ColumnStore = BackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
	if storeURL == "none" || storeURL == "none://" {
		c.ColumnStore = BackendConfig{Type: "none", Config: map[string]interface{}{}}
		return nil
	}

	u, err := url.Parse(storeURL)
	if err != nil {
		return fmt.Errorf("invalid COLUMN_STORE_URL: %w", err)
	}

	switch u.Scheme {
	case "bolt":
		path := u.Host + u.Path
		if path == "" {
			return fmt.Errorf("bolt database path cannot be empty in COLUMN_STORE_URL")
		}
		c.ColumnStore = BackendConfig{
			Type:   "bolt",
			Config: map[string]interface{}{"path": path},
		}
		return nil

	case "redis":
		if u.Host == "" {
			return fmt.Errorf("redis address cannot be empty in COLUMN_STORE_URL")
		}
		backend := BackendConfig{
			Type:   "redis",
			Config: map[string]interface{}{"addr": u.Host},
		}
		if password, ok := u.User.Password(); ok {
			backend.Config["password"] = password
		}
		if db := strings.Trim(u.Path, "/"); db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return fmt.Errorf("invalid redis database %q in COLUMN_STORE_URL: %w", db, err)
			}
			backend.Config["db"] = n
		}
		copyQuery(u.Query(), backend.Config, map[string]string{"prefix": "key_prefix"})
		c.ColumnStore = backend
		return nil

	case "dynamodb":
		if u.Host == "" {
			return fmt.Errorf("DynamoDB table name cannot be empty in COLUMN_STORE_URL")
		}
		backend := BackendConfig{
			Type: "dynamodb",
			Config: map[string]interface{}{
				"table":  u.Host,
				"region": "us-east-1",
			},
		}
		applyAWSEnv(backend.Config)
		copyQuery(u.Query(), backend.Config, map[string]string{
			"region":        "region",
			"endpoint":      "endpoint",
			"key_attribute": "key_attribute",
		})
		c.ColumnStore = backend
		return nil
	}

	return fmt.Errorf("unsupported COLUMN_STORE_URL format: %s (use 'memory://', 'none', 'bolt://...', 'redis://...', or 'dynamodb://...')", storeURL)
}

// applyAWSEnv copies the standard AWS credential variables into config
func applyAWSEnv(config map[string]interface{}) {
	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		config["access_key_id"] = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		config["secret_access_key"] = secretKey
	}
	if region, ok := os.LookupEnv("AWS_REGION"); ok && region != "" {
		config["region"] = region
	}
}

// copyQuery copies non-empty query parameters into config under new names
func copyQuery(query url.Values, config map[string]interface{}, names map[string]string) {
	for param, key := range names {
		if v := query.Get(param); v != "" {
			config[key] = v
		}
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseIntEnv(prefix, key string) (int, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}

func parseDurationEnv(prefix, key string) (time.Duration, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid duration for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
