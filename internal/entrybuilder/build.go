package entrybuilder

import (
	"encoding/json"
	"fmt"
	"sort"

	esbuildApi "github.com/evanw/esbuild/pkg/api"
)

// Import kinds reported by esbuild
const (
	KindRequire = "require-call"
	KindImport  = "import-statement"
)

// Import is one module specifier found in an entry
type Import struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Analysis lists the imports of an entry in source order
type Analysis struct {
	Imports []Import
}

// Paths returns the import paths of the given kind, or every path when kind is empty
func (a Analysis) Paths(kind string) []string {
	var paths []string
	for _, imp := range a.Imports {
		if kind == "" || imp.Kind == kind {
			paths = append(paths, imp.Path)
		}
	}
	return paths
}

// externalizeAll keeps every specifier unresolved so the analysis never touches the filesystem
var externalizeAll = esbuildApi.Plugin{
	Name: "hcc-external",
	Setup: func(build esbuildApi.PluginBuild) {
		build.OnResolve(esbuildApi.OnResolveOptions{Filter: ".*"},
			func(args esbuildApi.OnResolveArgs) (esbuildApi.OnResolveResult, error) {
				return esbuildApi.OnResolveResult{Path: args.Path, External: true}, nil
			})
	},
}

// Analyze parses an entry with esbuild and returns its imports.
func Analyze(code string, typescript bool, resolveDir string) (Analysis, error) {
	loader := esbuildApi.LoaderJS
	if typescript {
		loader = esbuildApi.LoaderTS
	}
	opts := esbuildApi.BuildOptions{
		Stdin: &esbuildApi.StdinOptions{
			Contents:   code,
			Loader:     loader,
			ResolveDir: resolveDir,
			Sourcefile: entryName(typescript),
		},
		Platform:      esbuildApi.PlatformNode,
		Format:        esbuildApi.FormatCommonJS,
		Bundle:        true,
		Write:         false,
		Outdir:        "/",
		Metafile:      true,
		LogLevel:      esbuildApi.LogLevelSilent,
		Plugins:       []esbuildApi.Plugin{externalizeAll},
		LegalComments: esbuildApi.LegalCommentsNone,
	}

	result := esbuildApi.Build(opts)
	if err := firstError(result.Errors); err != nil {
		return Analysis{}, err
	}
	return importsFromMetafile(result.Metafile)
}

// Transform compiles a TypeScript entry to CommonJS so it can be executed.
func Transform(code string) (string, error) {
	result := esbuildApi.Transform(code, esbuildApi.TransformOptions{
		Loader:     esbuildApi.LoaderTS,
		Format:     esbuildApi.FormatCommonJS,
		Platform:   esbuildApi.PlatformNode,
		Sourcefile: entryName(true),
		LogLevel:   esbuildApi.LogLevelSilent,
	})
	if err := firstError(result.Errors); err != nil {
		return "", err
	}
	return string(result.Code), nil
}

func entryName(typescript bool) string {
	if typescript {
		return "hcc.ts"
	}
	return "hcc.js"
}

func firstError(errs []esbuildApi.Message) error {
	if len(errs) == 0 {
		return nil
	}
	fileLocation := "unknown"
	lineNum := "unknown"
	if errs[0].Location != nil {
		fileLocation = errs[0].Location.File
		lineNum = fmt.Sprintf("%d: %s", errs[0].Location.Line, errs[0].Location.LineText)
	}
	return fmt.Errorf("%s in %s at %s", errs[0].Text, fileLocation, lineNum)
}

// metafileSchema represents the part of the esbuild metafile we read
type metafileSchema struct {
	Inputs map[string]struct {
		Imports []Import `json:"imports"`
	} `json:"inputs"`
}

func importsFromMetafile(metafile string) (Analysis, error) {
	var meta metafileSchema
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return Analysis{}, fmt.Errorf("failed to parse esbuild metafile: %w", err)
	}

	// every import is external, so the stdin entry is normally the only input
	keys := make([]string, 0, len(meta.Inputs))
	for key := range meta.Inputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var analysis Analysis
	for _, key := range keys {
		analysis.Imports = append(analysis.Imports, meta.Inputs[key].Imports...)
	}
	return analysis, nil
}
