package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yejune/go-hcc/internal/verify"
)

// RedisCache shares verification reports between hcc processes (CI workers, watch sessions)
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisConfig configures the Redis cache
type RedisConfig struct {
	Addr     string        // Redis address (e.g., "localhost:6379")
	Password string        // Redis password (empty for no auth)
	DB       int           // Redis database number
	TTL      time.Duration // Cache TTL (0 = no expiration)
	Prefix   string        // Key prefix (default: "hcc:")
	UseTLS   bool          // Enable TLS connection
}

// NewRedisCache creates a new Redis cache and checks the connection
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "hcc:"
	}

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		prefix: prefix,
	}, nil
}

func (rc *RedisCache) reportKey(key string) string {
	return rc.prefix + "report:" + key
}

// GetReport retrieves a verification report from Redis
func (rc *RedisCache) GetReport(key string) (verify.Report, bool) {
	ctx := context.Background()
	data, err := rc.client.Get(ctx, rc.reportKey(key)).Bytes()
	if err != nil {
		return verify.Report{}, false
	}

	var report verify.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return verify.Report{}, false
	}
	return report, true
}

// SetReport stores a verification report in Redis
func (rc *RedisCache) SetReport(key string, report verify.Report) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	rc.client.Set(context.Background(), rc.reportKey(key), data, rc.ttl)
}

// RemoveReport removes a verification report from Redis
func (rc *RedisCache) RemoveReport(key string) {
	rc.client.Del(context.Background(), rc.reportKey(key))
}

// Clear removes all hcc keys from cache
func (rc *RedisCache) Clear() {
	ctx := context.Background()
	pattern := rc.prefix + "*"
	var cursor uint64
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			break
		}
		if len(keys) > 0 {
			rc.client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
