package hcc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yejune/go-hcc/internal/cache"
	"github.com/yejune/go-hcc/internal/discovery"
	"github.com/yejune/go-hcc/internal/jsruntime"
)

type Engine struct {
	Logger      *slog.Logger
	Config      *Config
	Router      Router
	Discovery   discovery.Service
	Cache       cache.Cache
	RuntimePool *jsruntime.Pool
	HotReload   *HotReload
	Generators  []Generator
}

// New creates a new hcc Engine instance
func New(config Config) (*Engine, error) {
	// Validate config first to set defaults
	if err := config.Validate(); err != nil {
		slog.Error("Failed to validate config", "error", err)
		return nil, err
	}

	engine := &Engine{
		Logger: NewLogger(config.Log),
		Config: &config,
		Router: discovery.NewDirRouter(config.Source, config.APIDirs...),
		Discovery: discovery.NewWalker(discovery.Options{
			Extensions: config.Extensions,
			Ignore:     config.Ignore,
			Skip:       config.generatedFiles(),
		}),
	}

	var err error
	if engine.Cache, err = cache.NewCache(config.Cache); err != nil {
		engine.Logger.Error("Failed to create cache", "type", string(config.Cache.Type), "error", err)
		return nil, err
	}

	if config.Verify {
		if err := engine.initRuntimePool(); err != nil {
			return nil, err
		}
	}

	if config.TypesPath != "" {
		engine.Generators = append(engine.Generators, typesGenerator{})
	}

	engine.Logger.Debug("Initialized hcc engine",
		"source", config.Source,
		"target", config.Target,
		"api_dirs", config.APIDirs,
		"cache", string(config.Cache.Type))
	return engine, nil
}

func (engine *Engine) initRuntimePool() error {
	if engine.RuntimePool != nil {
		return nil
	}
	pool, err := jsruntime.NewPool(jsruntime.PoolConfig{
		RuntimeType: engine.Config.JSRuntime,
		PoolSize:    engine.Config.JSRuntimePoolSize,
	})
	if err != nil {
		engine.Logger.Error("Failed to create JS runtime pool", "error", err)
		return err
	}
	engine.RuntimePool = pool
	engine.Logger.Debug("Initialized JS runtime pool",
		"runtime", string(engine.Config.JSRuntime),
		"pool_size", engine.Config.JSRuntimePoolSize)
	return nil
}

// entryOptions translates the config into GetEntryCode options
func (engine *Engine) entryOptions() []EntryOption {
	exclude := engine.Config.Exclude
	return []EntryOption{
		WithDiscovery(engine.Discovery),
		WithExtension(engine.Config.StripExtension),
		WithFilter(func(file string) bool {
			for _, pattern := range exclude {
				if ok, _ := doublestar.Match(pattern, file); ok {
					return false
				}
			}
			return true
		}),
	}
}

// Resolve runs discovery and returns the relative files and APIs the entry is rendered from
func (engine *Engine) Resolve() (EntryFiles, error) {
	result, err := engine.Discovery.Discover(engine.Config.Source, engine.Router)
	if err != nil {
		return EntryFiles{}, err
	}
	if stray := StrayAPIs(result.Files, result.Apis); len(stray) > 0 {
		engine.Logger.Warn("API files missing from discovered files", "apis", stray)
	}
	return ResolveEntryFiles(engine.Config.Source, engine.Router,
		append(engine.entryOptions(), WithDiscovery(staticService{result}))...)
}

// Render returns the entry text for the configured target without writing it
func (engine *Engine) Render() (string, EntryFiles, error) {
	entry, err := engine.Resolve()
	if err != nil {
		return "", EntryFiles{}, err
	}
	code, err := engine.render(entry)
	return code, entry, err
}

func (engine *Engine) render(entry EntryFiles) (string, error) {
	switch engine.Config.EntryTarget() {
	case TargetTS:
		return GetTSCode(entry.Files, entry.Apis, engine.Config.StripExtension)
	default:
		code, err := GetJSCode(entry.Files, entry.Apis)
		if err != nil {
			return "", err
		}
		return code + ConfigurationTrailer, nil
	}
}

// Generate renders the entry, writes it into the source root and runs the
// registered generators. It returns the written path.
func (engine *Engine) Generate() (string, error) {
	path, _, err := engine.generate()
	return path, err
}

func (engine *Engine) generate() (string, EntryFiles, error) {
	code, entry, err := engine.Render()
	if err != nil {
		engine.Logger.Error("Failed to render entry", "error", err)
		return "", entry, err
	}

	if engine.Config.Verify {
		if _, err := engine.Verify(code, entry); err != nil {
			engine.Logger.Error("Entry verification failed", "error", err)
			return "", entry, err
		}
	}

	path := engine.Config.EntryPath()
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		engine.Logger.Error("Failed to write entry", "path", path, "error", err)
		return "", entry, fmt.Errorf("failed to write %s: %w", path, err)
	}
	engine.Logger.Info("Generated entry",
		"path", path,
		"apis", len(entry.Apis),
		"files", len(entry.Files))

	for _, g := range engine.Generators {
		if err := g.Generate(engine.Config); err != nil {
			engine.Logger.Error("Generator failed", "error", err)
			return "", entry, err
		}
	}
	return path, entry, nil
}

// Shutdown releases the runtime pool, cache and hot reload server.
func (engine *Engine) Shutdown(ctx context.Context) error {
	engine.Logger.Debug("Shutting down hcc engine")

	if engine.RuntimePool != nil {
		engine.RuntimePool.Close()
		engine.Logger.Debug("Runtime pool closed", "stats", engine.RuntimePool.Stats())
	}
	if engine.Cache != nil {
		// reports in Redis are shared with other processes and outlive this engine
		if _, ok := engine.Cache.(*cache.LocalCache); ok {
			engine.Cache.Clear()
			engine.Logger.Debug("Cache cleared")
		}
		if err := engine.Cache.Close(); err != nil {
			engine.Logger.Warn("Failed to close cache", "error", err)
		}
	}
	return engine.stopHotReload(ctx)
}

// NewLogger builds the slog logger described by cfg
func NewLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type staticService struct {
	result discovery.Result
}

func (s staticService) Discover(string, discovery.Router) (discovery.Result, error) {
	return s.result, nil
}
