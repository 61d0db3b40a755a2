package hcc

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/yejune/go-hcc/internal/discovery"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"quote": quote,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Target selects the dialect of the generated entry
type Target int

const (
	// TargetJS renders CommonJS with require calls
	TargetJS Target = iota
	// TargetTS renders TypeScript with import statements
	TargetTS
)

// HydrateRuntime is the module that provides setHydrateOptions
const HydrateRuntime = "@midwayjs/hooks-internal"

// DefaultStripExtension is removed from embedded TypeScript paths
const DefaultStripExtension = ".ts"

func (t Target) String() string {
	switch t {
	case TargetJS:
		return "js"
	case TargetTS:
		return "ts"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget accepts "js" or "ts" (case-insensitive)
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "js", "javascript", "":
		return TargetJS, nil
	case "ts", "typescript":
		return TargetTS, nil
	default:
		return TargetJS, fmt.Errorf("unknown target %q", s)
	}
}

// Router is the handle handed through to discovery
type Router = discovery.Router

type entryOptions struct {
	filter    func(file string) bool
	discovery discovery.Service
	extension string
}

// EntryOption customises GetEntryCode
type EntryOption func(*entryOptions)

// WithFilter keeps only the non-API files for which keep returns true. API files are never filtered.
func WithFilter(keep func(file string) bool) EntryOption {
	return func(o *entryOptions) {
		if keep != nil {
			o.filter = keep
		}
	}
}

// WithDiscovery replaces the default filesystem walker
func WithDiscovery(svc discovery.Service) EntryOption {
	return func(o *entryOptions) {
		if svc != nil {
			o.discovery = svc
		}
	}
}

// WithExtension sets the suffix stripped from paths in the TypeScript dialect
func WithExtension(ext string) EntryOption {
	return func(o *entryOptions) {
		if ext != "" {
			o.extension = ext
		}
	}
}

// EntryFiles is the relativised input of the templates
type EntryFiles struct {
	Files []string
	Apis  []string
}

// ResolveEntryFiles runs discovery and returns the filtered non-API files and the API files,
// both relative to source.
func ResolveEntryFiles(source string, router Router, opts ...EntryOption) (EntryFiles, error) {
	return resolveEntryFiles(source, router, applyOptions(opts))
}

func resolveEntryFiles(source string, router Router, o entryOptions) (EntryFiles, error) {
	result, err := o.discovery.Discover(source, router)
	if err != nil {
		return EntryFiles{}, err
	}

	files, err := RelativePaths(source, Difference(result.Files, result.Apis))
	if err != nil {
		return EntryFiles{}, err
	}
	apis, err := RelativePaths(source, result.Apis)
	if err != nil {
		return EntryFiles{}, err
	}

	kept := files[:0]
	for _, file := range files {
		if o.filter(file) {
			kept = append(kept, file)
		}
	}
	return EntryFiles{Files: kept, Apis: apis}, nil
}

// GetEntryCode discovers the files under source and renders the entry for target.
func GetEntryCode(source string, router Router, target Target, opts ...EntryOption) (string, error) {
	o := applyOptions(opts)
	entry, err := resolveEntryFiles(source, router, o)
	if err != nil {
		return "", err
	}
	switch target {
	case TargetJS:
		return GetJSCode(entry.Files, entry.Apis)
	case TargetTS:
		return GetTSCode(entry.Files, entry.Apis, o.extension)
	default:
		return "", fmt.Errorf("unknown target %s", target)
	}
}

// GetJSCode renders the CommonJS entry
func GetJSCode(files, apis []string) (string, error) {
	var buf strings.Builder
	err := templates.ExecuteTemplate(&buf, "entry.js.tmpl", struct {
		Runtime string
		Files   []string
		Apis    []string
	}{HydrateRuntime, files, apis})
	if err != nil {
		return "", fmt.Errorf("failed to render js entry: %w", err)
	}
	return buf.String(), nil
}

type tsModule struct {
	File   string
	Module string
}

// GetTSCode renders the TypeScript entry. ext is stripped from every embedded path except
// the file field of each registration, which keeps the original path.
func GetTSCode(files, apis []string, ext string) (string, error) {
	if ext == "" {
		ext = DefaultStripExtension
	}
	stripped := make([]string, len(files))
	for i, file := range files {
		stripped[i] = RemoveExt(file, ext)
	}
	modules := make([]tsModule, len(apis))
	for i, api := range apis {
		modules[i] = tsModule{File: api, Module: RemoveExt(api, ext)}
	}

	var buf strings.Builder
	err := templates.ExecuteTemplate(&buf, "entry.ts.tmpl", struct {
		Runtime string
		Files   []string
		Apis    []tsModule
	}{HydrateRuntime, stripped, modules})
	if err != nil {
		return "", fmt.Errorf("failed to render ts entry: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Difference returns files without any element of apis, keeping the order of files
func Difference(files, apis []string) []string {
	exclude := make(map[string]struct{}, len(apis))
	for _, api := range apis {
		exclude[api] = struct{}{}
	}
	out := make([]string, 0, len(files))
	for _, file := range files {
		if _, ok := exclude[file]; !ok {
			out = append(out, file)
		}
	}
	return out
}

// StrayAPIs returns the apis that do not appear in files. Discovery is expected to return none.
func StrayAPIs(files, apis []string) []string {
	known := make(map[string]struct{}, len(files))
	for _, file := range files {
		known[file] = struct{}{}
	}
	var stray []string
	for _, api := range apis {
		if _, ok := known[api]; !ok {
			stray = append(stray, api)
		}
	}
	return stray
}

// RelativePaths rewrites paths relative to source using forward slashes
func RelativePaths(source string, paths []string) ([]string, error) {
	root, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, fmt.Errorf("failed to relativise %s: %w", p, err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out, nil
}

// RemoveExt drops ext from path only when path ends with it
func RemoveExt(path, ext string) string {
	if ext == "" || !strings.HasSuffix(path, ext) || len(path) == len(ext) {
		return path
	}
	return strings.TrimSuffix(path, ext)
}

func applyOptions(opts []EntryOption) entryOptions {
	o := entryOptions{
		filter:    func(string) bool { return true },
		discovery: discovery.NewWalker(discovery.Options{}),
		extension: DefaultStripExtension,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// quote renders s as a single-quoted JavaScript string literal
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}
