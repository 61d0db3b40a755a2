package hcc

import (
	"fmt"
	"slices"

	"github.com/yejune/go-hcc/internal/cache"
	"github.com/yejune/go-hcc/internal/entrybuilder"
	"github.com/yejune/go-hcc/internal/verify"
)

// Expect returns the registrations and side-effect imports an entry rendered from entry must produce.
// withTrailer adds the configuration re-export of the JS entry.
func Expect(target Target, entry EntryFiles, ext string, withTrailer bool) verify.Expectation {
	var want verify.Expectation
	for _, api := range entry.Apis {
		if target == TargetTS {
			want.Registered = append(want.Registered, verify.Registration{File: "/" + api, Mod: "./" + RemoveExt(api, ext)})
			continue
		}
		want.Registered = append(want.Registered, verify.Registration{File: api, Mod: "./" + api})
	}
	for _, file := range entry.Files {
		if target == TargetTS {
			file = RemoveExt(file, ext)
		}
		want.Imports = append(want.Imports, "./"+file)
	}
	if withTrailer && target == TargetJS {
		want.Imports = append(want.Imports, "./configuration")
	}
	return want
}

// Verify parses the entry with esbuild, executes it in the JS runtime against stubbed modules
// and checks both against what entry should produce. Reports are cached by entry digest.
func (engine *Engine) Verify(code string, entry EntryFiles) (*verify.Report, error) {
	target := engine.Config.EntryTarget()
	want := Expect(target, entry, engine.Config.StripExtension, target == TargetJS)

	if err := engine.checkImports(code, target, want); err != nil {
		return nil, err
	}

	key := cache.Key(target.String(), code)
	if cached, ok := engine.Cache.GetReport(key); ok {
		if err := verify.Check(&cached, want); err == nil {
			engine.Logger.Debug("Using cached verification report", "key", key)
			return &cached, nil
		}
		engine.Logger.Debug("Dropping stale verification report", "key", key)
		engine.Cache.RemoveReport(key)
	}

	if err := engine.initRuntimePool(); err != nil {
		return nil, err
	}
	script := code
	if target == TargetTS {
		var err error
		if script, err = entrybuilder.Transform(code); err != nil {
			return nil, fmt.Errorf("failed to compile ts entry: %w", err)
		}
	}
	report, err := verify.Run(engine.RuntimePool, script, HydrateRuntime)
	if err != nil {
		return nil, err
	}
	if err := verify.Check(report, want); err != nil {
		return report, err
	}
	engine.Cache.SetReport(key, *report)
	engine.Logger.Debug("Verified entry",
		"registered", len(report.Registered),
		"imports", len(report.Imports()))
	return report, nil
}

// checkImports compares the statically parsed import list with the expected side-effect imports
func (engine *Engine) checkImports(code string, target Target, want verify.Expectation) error {
	analysis, err := entrybuilder.Analyze(code, target == TargetTS, engine.Config.Source)
	if err != nil {
		return fmt.Errorf("failed to parse entry: %w", err)
	}
	got := SideEffectImports(analysis, target, want.Registered)
	if !slices.Equal(got, want.Imports) {
		return fmt.Errorf("entry imports %v, want %v", got, want.Imports)
	}
	return nil
}

// SideEffectImports extracts the plain module imports from a parsed entry: the hydration runtime
// and the registered modules are left out.
func SideEffectImports(analysis entrybuilder.Analysis, target Target, registered []verify.Registration) []string {
	skip := map[string]struct{}{HydrateRuntime: {}}
	for _, reg := range registered {
		skip[reg.Mod] = struct{}{}
	}
	kind := entrybuilder.KindRequire
	if target == TargetTS {
		kind = entrybuilder.KindImport
	}
	var imports []string
	for _, p := range analysis.Paths(kind) {
		if _, ok := skip[p]; !ok {
			imports = append(imports, p)
		}
	}
	return imports
}
