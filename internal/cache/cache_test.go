package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yejune/go-hcc/internal/verify"
)

var sample = verify.Report{
	Runtime:    "@midwayjs/hooks-internal",
	Registered: []verify.Registration{{File: "api.js", Mod: "./api.js"}},
	Requires:   []string{"@midwayjs/hooks-internal", "./api.js", "./a.js"},
	Hydrated:   1,
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	key := Key("js", "require('./a.js');")

	_, ok := c.GetReport(key)
	assert.False(t, ok)

	c.SetReport(key, sample)
	got, ok := c.GetReport(key)
	require.True(t, ok)
	assert.Equal(t, sample, got)

	c.RemoveReport(key)
	_, ok = c.GetReport(key)
	assert.False(t, ok)

	c.SetReport(key, sample)
	c.Clear()
	_, ok = c.GetReport(key)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("js", "x"), Key("js", "x"))
	assert.NotEqual(t, Key("js", "x"), Key("ts", "x"))
	assert.NotEqual(t, Key("js", "x"), Key("js", "y"))
}

func TestLocalCache(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)
	defer c.Close()
	exerciseCache(t, c)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("HCC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HCC_TEST_REDIS_ADDR not set")
	}
	c, err := NewCache(CacheConfig{Type: CacheTypeRedis, RedisAddr: addr, RedisPrefix: "hcc-test:"})
	require.NoError(t, err)
	defer c.Close()
	exerciseCache(t, c)
}
