package typegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tkrajina/typescriptify-golang-structs/typescriptify"
)

// HydrateModule mirrors one entry of the modules array passed to setHydrateOptions
type HydrateModule struct {
	File string      `json:"file"`
	Mod  interface{} `json:"mod" ts_type:"Record<string, unknown>"`
}

// HydrateOptions mirrors the argument of setHydrateOptions
type HydrateOptions struct {
	Modules []HydrateModule `json:"modules"`
}

// DefaultFileName is written next to the entry when no path is configured
const DefaultFileName = "hcc.d.ts"

// Declarations renders TypeScript interfaces for the hydration payload
func Declarations() (string, error) {
	converter := typescriptify.New().
		WithInterface(true).
		WithBackupDir("").
		Add(HydrateModule{}).
		Add(HydrateOptions{})
	converter.CreateFromMethod = false

	out, err := converter.Convert(nil)
	if err != nil {
		return "", fmt.Errorf("failed to convert hydrate types: %w", err)
	}
	return "// This file is auto-generated by hcc, any modification will be overwritten.\n" + out, nil
}

// Generate writes the declarations to outPath
func Generate(outPath string) error {
	code, err := Declarations()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(code), 0o644)
}
