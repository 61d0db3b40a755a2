package cache

import (
	"sync"

	"github.com/yejune/go-hcc/internal/verify"
)

// LocalCache is an in-memory cache implementation
type LocalCache struct {
	reports map[string]verify.Report
	lock    sync.RWMutex
}

// NewLocalCache creates a new in-memory cache
func NewLocalCache() *LocalCache {
	return &LocalCache{
		reports: make(map[string]verify.Report),
	}
}

func (cm *LocalCache) GetReport(key string) (verify.Report, bool) {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	report, ok := cm.reports[key]
	return report, ok
}

func (cm *LocalCache) SetReport(key string, report verify.Report) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.reports[key] = report
}

func (cm *LocalCache) RemoveReport(key string) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	delete(cm.reports, key)
}

// Len returns the number of cached reports
func (cm *LocalCache) Len() int {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	return len(cm.reports)
}

// Clear removes all cached data
func (cm *LocalCache) Clear() {
	cm.lock.Lock()
	cm.reports = make(map[string]verify.Report)
	cm.lock.Unlock()
}

func (cm *LocalCache) Close() error {
	return nil
}

// NewCache creates a cache based on the config
func NewCache(config CacheConfig) (Cache, error) {
	switch config.Type {
	case CacheTypeRedis:
		return NewRedisCache(RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			UseTLS:   config.RedisTLS,
			Prefix:   config.RedisPrefix,
		})
	default:
		return NewLocalCache(), nil
	}
}
