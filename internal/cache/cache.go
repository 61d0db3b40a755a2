package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/yejune/go-hcc/internal/verify"
)

// CacheType selects the cache backend
type CacheType string

const (
	CacheTypeLocal CacheType = "local"
	CacheTypeRedis CacheType = "redis"
)

// Cache stores verification reports keyed by the digest of the verified entry
type Cache interface {
	GetReport(key string) (verify.Report, bool)
	SetReport(key string, report verify.Report)
	RemoveReport(key string)
	Clear()
	Close() error
}

// CacheConfig configures which cache to build
type CacheConfig struct {
	Type          CacheType `yaml:"type"`
	RedisAddr     string    `yaml:"redis_addr"`
	RedisPassword string    `yaml:"redis_password"`
	RedisDB       int       `yaml:"redis_db"`
	RedisTLS      bool      `yaml:"redis_tls"`
	RedisPrefix   string    `yaml:"redis_prefix"`
}

// Key returns the cache key for an entry: target plus the SHA-256 of its text
func Key(target, code string) string {
	sum := sha256.Sum256([]byte(code))
	return target + ":" + hex.EncodeToString(sum[:])
}
