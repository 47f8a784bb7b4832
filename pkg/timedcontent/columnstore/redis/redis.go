package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/timed-content/pkg/timedcontent"
)

const backendName = "redis"

// Config options for the redis column store
type Config struct {
	Addr        string        // host:port
	Password    string        // Optional password
	DB          int           // Database number
	KeyPrefix   string        // Prefix applied to every record key
	DialTimeout time.Duration // Optional dial timeout
}

// Store is a Redis implementation of the timedcontent.ColumnStore interface.
// Each record is a hash and each column a hash field, so HSET gives merge
// semantics.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// New connects to Redis and verifies the connection
func New(config Config) (*Store, error) {
	if config.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	opts := &goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.DialTimeout > 0 {
		opts.DialTimeout = config.DialTimeout
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, config.KeyPrefix), nil
}

// NewWithClient creates a store around an existing client
func NewWithClient(client goredis.UniversalClient, keyPrefix string) *Store {
	return &Store{client: client, prefix: keyPrefix}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// Put merges columns into the hash at key
func (s *Store) Put(ctx context.Context, key string, columns []timedcontent.Column) error {
	if len(columns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(columns)*2)
	for _, column := range columns {
		values = append(values, column.Name, column.Value)
	}

	if err := s.client.HSet(ctx, s.prefix+key, values...).Err(); err != nil {
		return timedcontent.NewStorageError(backendName, "put", key, err)
	}
	return nil
}

// Get returns the requested hash fields that exist for key
func (s *Store) Get(ctx context.Context, key string, names []string) ([]timedcontent.Column, error) {
	columns := []timedcontent.Column{}
	if len(names) == 0 {
		return columns, nil
	}

	values, err := s.client.HMGet(ctx, s.prefix+key, names...).Result()
	if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", key, err)
	}

	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			// nil marks a missing field
			continue
		}
		columns = append(columns, timedcontent.NewColumn(names[i], []byte(str)))
	}
	return columns, nil
}

var _ timedcontent.ColumnStore = (*Store)(nil)
