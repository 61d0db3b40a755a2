package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// EntryFileName is the name of the generated JS entry
const EntryFileName = "hcc.js"

// generatedEntries are written into the source root by hcc and never discovered
var generatedEntries = map[string]struct{}{
	EntryFileName: {},
	"hcc.ts":      {},
}

// DefaultExtensions are the source extensions scanned when Options.Extensions is empty
var DefaultExtensions = []string{".js", ".ts"}

// Router decides whether a discovered file is exposed as an API endpoint
type Router interface {
	IsAPIFile(path string) bool
}

// Service returns the full file list and the API subset for a source root
type Service interface {
	Discover(source string, router Router) (Result, error)
}

// Result holds absolute file paths. Apis is expected to be a subset of Files.
type Result struct {
	Files []string
	Apis  []string
}

// Options tunes the directory walk
type Options struct {
	// Extensions are matched case-insensitively, with or without a leading dot.
	Extensions []string
	// Ignore holds doublestar globs matched against slash-separated paths relative to the source root.
	Ignore []string
	// Skip holds exact slash-separated paths relative to the source root, such as generated outputs.
	Skip []string
}

// Walker is the filesystem-backed Service
type Walker struct {
	Options Options
}

// NewWalker creates a Walker with the given options
func NewWalker(opts Options) *Walker {
	return &Walker{Options: opts}
}

// Discover implements Service
func (w *Walker) Discover(source string, router Router) (Result, error) {
	return Discover(source, router, w.Options)
}

// Discover walks source and splits the matching files into all files and API files.
func Discover(source string, router Router, opts Options) (Result, error) {
	root, err := filepath.Abs(source)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve source %s: %w", source, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat source %s: %w", root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("source %s is not a directory", root)
	}

	allowed := normalizeExtensions(opts.Extensions)
	if len(allowed) == 0 {
		allowed = normalizeExtensions(DefaultExtensions)
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return Result{}, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	skip := make(map[string]struct{}, len(opts.Skip))
	for _, rel := range opts.Skip {
		skip[strings.TrimPrefix(filepath.ToSlash(filepath.Clean(rel)), "./")] = struct{}{}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, generated := generatedEntries[rel]; generated || skipFile(d.Name()) {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if _, ok := skip[rel]; ok || ignored(rel, opts.Ignore) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to walk source %s: %w", root, err)
	}

	sort.Strings(files)
	result := Result{Files: files}
	for _, file := range files {
		if router.IsAPIFile(file) {
			result.Apis = append(result.Apis, file)
		}
	}
	return result, nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return allowed
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

func skipFile(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return true
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")
}

func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
