package discovery

import (
	"path/filepath"
	"strings"
)

// DefaultAPIDir is the directory, relative to the source root, that holds API routes
const DefaultAPIDir = "api"

// DirRouter treats every file below one of Dirs as an API file
type DirRouter struct {
	Source string
	Dirs   []string
}

// NewDirRouter creates a router rooted at source. With no dirs it uses DefaultAPIDir.
func NewDirRouter(source string, dirs ...string) *DirRouter {
	if len(dirs) == 0 {
		dirs = []string{DefaultAPIDir}
	}
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	return &DirRouter{Source: source, Dirs: dirs}
}

// IsAPIFile reports whether path lies inside one of the router directories
func (r *DirRouter) IsAPIFile(path string) bool {
	rel, err := filepath.Rel(r.Source, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, dir := range r.Dirs {
		dir = strings.Trim(filepath.ToSlash(filepath.Clean(dir)), "/")
		if dir == "" || dir == "." {
			return !strings.HasPrefix(rel, "../")
		}
		if strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// RouterFunc adapts a plain function to Router
type RouterFunc func(path string) bool

func (f RouterFunc) IsAPIFile(path string) bool {
	return f(path)
}
