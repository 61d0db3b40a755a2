package hcc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yejune/go-hcc/internal/cache"
	"github.com/yejune/go-hcc/internal/jsruntime"
)

// DefaultConfigFile is looked up in the working directory by LoadConfig
const DefaultConfigFile = "hcc.yaml"

// Config is the configuration for the hcc Engine
type Config struct {
	// Source is the directory scanned for modules; the entry is written here.
	Source string `yaml:"source"`
	// Target is "js" or "ts".
	Target string `yaml:"target"`
	// APIDirs are directories, relative to Source, whose files are API files.
	APIDirs []string `yaml:"api_dirs"`
	// Extensions limit which files are discovered.
	Extensions []string `yaml:"extensions"`
	// Ignore removes files from discovery (doublestar globs relative to Source).
	Ignore []string `yaml:"ignore"`
	// Exclude drops non-API files from the generated imports (doublestar globs).
	Exclude []string `yaml:"exclude"`
	// StripExtension is removed from paths in the TypeScript entry.
	StripExtension string `yaml:"strip_extension"`
	// TypesPath, when set, receives TypeScript declarations of the hydration payload.
	TypesPath string `yaml:"types_path"`

	Verify   bool          `yaml:"verify"`
	Debounce time.Duration `yaml:"debounce"`
	// HotReloadPort serves regeneration notifications over websocket; 0 disables it.
	HotReloadPort int `yaml:"hot_reload_port"`

	JSRuntime         jsruntime.RuntimeType `yaml:"js_runtime"`
	JSRuntimePoolSize int                   `yaml:"js_runtime_pool_size"`

	Cache cache.CacheConfig `yaml:"cache"`
	Log   LogConfig         `yaml:"log"`

	target Target
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text
}

// Validate checks the config and fills in defaults
func (c *Config) Validate() error {
	if c.Source == "" {
		c.Source = "src"
	}
	abs, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source %s: %w", c.Source, err)
	}
	c.Source = abs

	if c.target, err = ParseTarget(c.Target); err != nil {
		return err
	}
	c.Target = c.target.String()

	if len(c.APIDirs) == 0 {
		c.APIDirs = []string{"api"}
	}
	if c.StripExtension == "" {
		c.StripExtension = DefaultStripExtension
	}
	if !strings.HasPrefix(c.StripExtension, ".") {
		c.StripExtension = "." + c.StripExtension
	}
	for _, pattern := range append(append([]string{}, c.Ignore...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob %q", pattern)
		}
	}
	if c.Debounce <= 0 {
		c.Debounce = 200 * time.Millisecond
	}
	if c.HotReloadPort < 0 || c.HotReloadPort > 65535 {
		return fmt.Errorf("invalid hot_reload_port %d", c.HotReloadPort)
	}
	if c.JSRuntime == "" {
		c.JSRuntime = jsruntime.DefaultRuntimeType()
	}
	if c.JSRuntimePoolSize <= 0 {
		c.JSRuntimePoolSize = 1
	}
	switch c.Cache.Type {
	case "":
		c.Cache.Type = cache.CacheTypeLocal
	case cache.CacheTypeLocal:
	case cache.CacheTypeRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}
	return nil
}

// EntryTarget returns the parsed target. Call Validate first.
func (c *Config) EntryTarget() Target {
	return c.target
}

// EntryPath is where Generate writes the entry
func (c *Config) EntryPath() string {
	if c.target == TargetTS {
		return filepath.Join(c.Source, "hcc.ts")
	}
	return filepath.Join(c.Source, EntryFileName)
}

// TypesFile is the absolute path TypesPath resolves to, or "" when unset
func (c *Config) TypesFile() string {
	if c.TypesPath == "" {
		return ""
	}
	if filepath.IsAbs(c.TypesPath) {
		return filepath.Clean(c.TypesPath)
	}
	return filepath.Join(c.Source, c.TypesPath)
}

// generatedFiles lists generator outputs inside Source, relative to it
func (c *Config) generatedFiles() []string {
	var out []string
	if types := c.TypesFile(); types != "" {
		if rel, err := filepath.Rel(c.Source, types); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			out = append(out, filepath.ToSlash(rel))
		}
	}
	return out
}

// LoadConfig reads path (if it exists), then .env, then HCC_* environment overrides.
// A missing file is not an error when path is the default name.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultConfigFile:
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HCC_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("HCC_TARGET"); v != "" {
		cfg.Target = v
	}
	if v := os.Getenv("HCC_API_DIRS"); v != "" {
		cfg.APIDirs = splitList(v)
	}
	if v := os.Getenv("HCC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HCC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HCC_CACHE_TYPE"); v != "" {
		cfg.Cache.Type = cache.CacheType(v)
	}
	if v := os.Getenv("HCC_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HCC_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("HCC_HOT_RELOAD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HCC_HOT_RELOAD_PORT %q: %w", v, err)
		}
		cfg.HotReloadPort = port
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
