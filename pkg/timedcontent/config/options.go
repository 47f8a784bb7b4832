package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithMemoryStorage stores artifacts in memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = BackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
}

// WithFilesystemStorage stores artifacts below baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = BackendConfig{
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": baseDir},
		}
		return nil
	}
}

// WithS3Storage stores artifacts in an S3 bucket
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.Storage = BackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Endpoint points the S3 backend at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires s3 storage, got: %s", c.Storage.Type)
		}
		c.Storage.Config["endpoint"] = endpoint
		c.Storage.Config["use_path_style"] = usePathStyle
		return nil
	}
}

// WithS3Encryption enables server-side encryption for the S3 backend
func WithS3Encryption(algorithm, kmsKeyID string) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 encryption requires s3 storage, got: %s", c.Storage.Type)
		}
		if algorithm != "AES256" && algorithm != "aws:kms" {
			return fmt.Errorf("SSE algorithm must be 'AES256' or 'aws:kms', got: %s", algorithm)
		}
		c.Storage.Config["enable_sse"] = true
		c.Storage.Config["sse_algorithm"] = algorithm
		if kmsKeyID != "" {
			c.Storage.Config["sse_kms_key_id"] = kmsKeyID
		}
		return nil
	}
}

// WithoutGenerationRecords disables the column store
func WithoutGenerationRecords() Option {
	return func(c *ServerConfig) error {
		c.ColumnStore = BackendConfig{Type: "none", Config: map[string]interface{}{}}
		return nil
	}
}

// WithBoltColumnStore keeps generation records in a local bbolt file
func WithBoltColumnStore(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("bolt database path cannot be empty")
		}
		c.ColumnStore = BackendConfig{
			Type:   "bolt",
			Config: map[string]interface{}{"path": path},
		}
		return nil
	}
}

// WithRedisColumnStore keeps generation records in Redis hashes
func WithRedisColumnStore(addr, password string, db int) Option {
	return func(c *ServerConfig) error {
		if addr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
		c.ColumnStore = BackendConfig{
			Type: "redis",
			Config: map[string]interface{}{
				"addr":     addr,
				"password": password,
				"db":       db,
			},
		}
		return nil
	}
}

// WithDynamoDBColumnStore keeps generation records in a DynamoDB table
func WithDynamoDBColumnStore(table, region string) Option {
	return func(c *ServerConfig) error {
		if table == "" {
			return fmt.Errorf("DynamoDB table cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.ColumnStore = BackendConfig{
			Type: "dynamodb",
			Config: map[string]interface{}{
				"table":  table,
				"region": region,
			},
		}
		return nil
	}
}

// WithBucketCapacity sets how many artifacts a bucket receives before reuse
func WithBucketCapacity(capacity int) Option {
	return func(c *ServerConfig) error {
		if capacity < 1 {
			return fmt.Errorf("bucket capacity must be positive, got: %d", capacity)
		}
		c.BucketCapacity = capacity
		return nil
	}
}

// WithOpenAI overrides the generation model and API base URL. Empty values
// keep the current setting.
func WithOpenAI(model, baseURL string) Option {
	return func(c *ServerConfig) error {
		if model != "" {
			c.OpenAIModel = model
		}
		if baseURL != "" {
			c.OpenAIBaseURL = baseURL
		}
		return nil
	}
}

// WithSweep deletes buckets older than maxAge every interval
func WithSweep(maxAge, interval time.Duration) Option {
	return func(c *ServerConfig) error {
		if maxAge <= 0 {
			return fmt.Errorf("sweep max age must be positive, got: %s", maxAge)
		}
		if interval <= 0 {
			return fmt.Errorf("sweep interval must be positive, got: %s", interval)
		}
		c.SweepMaxAge = maxAge
		c.SweepInterval = interval
		return nil
	}
}

// WithStaticDir serves the home and reading pages from dir
func WithStaticDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.StaticDir = dir
		return nil
	}
}
