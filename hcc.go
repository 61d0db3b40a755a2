package hcc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yejune/go-hcc/internal/discovery"
)

// EntryFileName is written into the source root by Hcc
const EntryFileName = discovery.EntryFileName

// ConfigurationTrailer re-exports the sibling configuration module from the JS entry
const ConfigurationTrailer = "module.exports = require('./configuration');\n"

// Hcc renders the JS entry for source, appends the configuration re-export and writes
// it to <source>/hcc.js. It returns the written path.
func Hcc(source string, router Router, opts ...EntryOption) (string, error) {
	code, err := GetEntryCode(source, router, TargetJS, opts...)
	if err != nil {
		return "", err
	}
	code += ConfigurationTrailer

	entry := filepath.Join(source, EntryFileName)
	if err := os.WriteFile(entry, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", entry, err)
	}
	return entry, nil
}
