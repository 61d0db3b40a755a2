package hcc

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yejune/go-hcc/internal/cache"
	"github.com/yejune/go-hcc/internal/discovery"
	"github.com/yejune/go-hcc/internal/entrybuilder"
	"github.com/yejune/go-hcc/internal/verify"
)

func writeSource(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0o644))
	}
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Shutdown(context.Background()) })
	return engine
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Source: t.TempDir()}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "js", cfg.Target)
	assert.Equal(t, TargetJS, cfg.EntryTarget())
	assert.Equal(t, []string{"api"}, cfg.APIDirs)
	assert.Equal(t, ".ts", cfg.StripExtension)
	assert.Equal(t, cache.CacheTypeLocal, cfg.Cache.Type)
	assert.Equal(t, filepath.Join(cfg.Source, "hcc.js"), cfg.EntryPath())
	assert.Positive(t, cfg.Debounce)
}

func TestConfigValidateErrors(t *testing.T) {
	cases := map[string]Config{
		"target":     {Target: "coffee"},
		"glob":       {Exclude: []string{"[a-"}},
		"port":       {HotReloadPort: 70000},
		"cache":      {Cache: cache.CacheConfig{Type: "memcached"}},
		"redis addr": {Cache: cache.CacheConfig{Type: cache.CacheTypeRedis}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			cfg.Source = t.TempDir()
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEngineGenerateJS(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "configuration.js", "api/index.js", "api/user.js", "lib/a.js", "lib/b.js", "scripts/seed.js")

	engine := newEngine(t, Config{Source: root, Exclude: []string{"scripts/**"}})
	path, err := engine.Generate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "hcc.js"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	code := string(data)
	assert.Equal(t, []string{"./configuration.js", "./lib/a.js", "./lib/b.js"}, submatches(requireRe, code))
	assert.Equal(t, []string{"api/index.js", "api/user.js"}, submatches(fileRe, code))
	assert.True(t, strings.HasSuffix(code, ConfigurationTrailer))
}

func TestEngineGenerateTS(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "configuration.ts", "api/index.ts", "lib/util.ts")

	engine := newEngine(t, Config{Source: root, Target: "ts"})
	path, err := engine.Generate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "hcc.ts"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	code := string(data)
	assert.Equal(t, []string{"./configuration", "./lib/util"}, submatches(importRe, code))
	assert.Equal(t, []string{"/api/index.ts"}, submatches(fileRe, code))
	assert.NotContains(t, code, "module.exports")

	_, err = engine.Generate()
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, code, string(again))
}

func TestEngineGenerateRunsTypesGenerator(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "api/index.js")

	engine := newEngine(t, Config{Source: root, TypesPath: "types/hcc.d.ts"})
	_, err := engine.Generate()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "types", "hcc.d.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "HydrateOptions")
}

func TestEngineGenerateIgnoresTypesOutput(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "api/index.ts", "lib/a.ts")

	engine := newEngine(t, Config{Source: root, Target: "ts", TypesPath: "hydrate.ts"})
	path, err := engine.Generate()
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "hydrate.ts"))

	_, err = engine.Generate()
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.NotContains(t, string(second), "./hydrate")
}

func TestEngineResolveWarnsAboutStrayAPIs(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer

	engine := newEngine(t, Config{Source: root})
	engine.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	engine.Discovery = staticDiscovery{result: discovery.Result{
		Files: abs(root, "lib/a.js"),
		Apis:  abs(root, "api/gone.js"),
	}}

	entry, err := engine.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"api/gone.js"}, entry.Apis)
	assert.Equal(t, []string{"lib/a.js"}, entry.Files)
	assert.Contains(t, buf.String(), "API files missing from discovered files")
	assert.Contains(t, buf.String(), "gone.js")
}

func TestEngineShutdownClearsLocalCache(t *testing.T) {
	engine, err := New(Config{Source: t.TempDir()})
	require.NoError(t, err)

	local, ok := engine.Cache.(*cache.LocalCache)
	require.True(t, ok)
	local.SetReport("js:abc", verify.Report{Hydrated: 1})

	require.NoError(t, engine.Shutdown(context.Background()))
	assert.Equal(t, 0, local.Len())
}

func TestEngineGenerateMissingSource(t *testing.T) {
	engine := newEngine(t, Config{Source: filepath.Join(t.TempDir(), "missing")})
	_, err := engine.Generate()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEngineVerifyJS(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "configuration.js", "api/index.js", "lib/a.js")

	engine := newEngine(t, Config{Source: root, Verify: true})
	code, entry, err := engine.Render()
	require.NoError(t, err)

	report, err := engine.Verify(code, entry)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Hydrated)
	assert.Equal(t, []string{"./configuration.js", "./lib/a.js", "./configuration"}, report.Imports())

	local, ok := engine.Cache.(*cache.LocalCache)
	require.True(t, ok)
	assert.Equal(t, 1, local.Len())

	// second run is served from the cache
	_, err = engine.Verify(code, entry)
	require.NoError(t, err)
	assert.Equal(t, 1, local.Len())

	_, err = engine.Generate()
	require.NoError(t, err)
}

func TestEngineVerifyReplacesStaleCachedReport(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "api/index.js", "lib/a.js")

	engine := newEngine(t, Config{Source: root})
	code, entry, err := engine.Render()
	require.NoError(t, err)

	key := cache.Key(TargetJS.String(), code)
	engine.Cache.SetReport(key, verify.Report{Runtime: "stale"})

	report, err := engine.Verify(code, entry)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Hydrated)

	cached, ok := engine.Cache.GetReport(key)
	require.True(t, ok)
	assert.NotEqual(t, "stale", cached.Runtime)
	assert.Len(t, cached.Registered, 1)
}

func TestEngineVerifyTS(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "configuration.ts", "api/index.ts", "api/user/get.ts", "lib/util.ts")

	engine := newEngine(t, Config{Source: root, Target: "ts"})
	code, entry, err := engine.Render()
	require.NoError(t, err)

	report, err := engine.Verify(code, entry)
	require.NoError(t, err)
	assert.Equal(t, "/api/index.ts", report.Registered[0].File)
	assert.Equal(t, "./api/user/get", report.Registered[1].Mod)
	assert.Equal(t, []string{"./configuration", "./lib/util"}, report.Imports())
}

func TestEngineVerifyDetectsTamperedEntry(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "api/index.js", "lib/a.js")

	engine := newEngine(t, Config{Source: root})
	code, entry, err := engine.Render()
	require.NoError(t, err)

	tampered := strings.Replace(code, "require('./lib/a.js');", "", 1)
	_, err = engine.Verify(tampered, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imports")
}

func TestEntryImportsRoundTrip(t *testing.T) {
	root := t.TempDir()
	entry := EntryFiles{
		Files: []string{"configuration.ts", "lib/a.ts", "lib/deep/b.ts"},
		Apis:  []string{"api/index.ts", "api/user.ts"},
	}

	js, err := GetJSCode(entry.Files, entry.Apis)
	require.NoError(t, err)
	analysis, err := entrybuilder.Analyze(js, false, root)
	require.NoError(t, err)
	want := Expect(TargetJS, entry, ".ts", false)
	assert.Equal(t, want.Imports, SideEffectImports(analysis, TargetJS, want.Registered))

	ts, err := GetTSCode(entry.Files, entry.Apis, ".ts")
	require.NoError(t, err)
	analysis, err = entrybuilder.Analyze(ts, true, root)
	require.NoError(t, err)
	want = Expect(TargetTS, entry, ".ts", false)
	assert.Equal(t, []string{"./configuration", "./lib/a", "./lib/deep/b"}, SideEffectImports(analysis, TargetTS, want.Registered))
	assert.Equal(t, []string{"./api/index", "./api/user"}, analysis.Paths(entrybuilder.KindRequire))
}
