package hcc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yejune/go-hcc/internal/cache"
)

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: ./server/src
target: ts
api_dirs: [api, functions]
exclude: ["**/*.mock.ts"]
debounce: 500ms
cache:
  type: local
log:
  level: debug
`), 0o644))

	t.Setenv("HCC_LOG_FORMAT", "json")
	t.Setenv("HCC_API_DIRS", "routes, lambda")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./server/src", cfg.Source)
	assert.Equal(t, "ts", cfg.Target)
	assert.Equal(t, []string{"routes", "lambda"}, cfg.APIDirs)
	assert.Equal(t, []string{"**/*.mock.ts"}, cfg.Exclude)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, cache.CacheTypeLocal, cfg.Cache.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigMalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HCC-BAD=1\n"), 0o644))
	t.Chdir(dir)

	_, err := LoadConfig("hcc.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestLoadConfigWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("hcc.yaml")
	assert.NoError(t, err)
}

func TestLoadConfigInvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hcc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: src\n"), 0o644))
	t.Setenv("HCC_HOT_RELOAD_PORT", "abc")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
