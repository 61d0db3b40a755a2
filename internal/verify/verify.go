// Package verify executes a generated entry against stubbed modules and records what it
// registers and requires.
package verify

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Executor runs JavaScript and returns the completion value. *jsruntime.Pool satisfies it.
type Executor interface {
	Execute(code string) (string, error)
}

// Registration is one module handed to setHydrateOptions
type Registration struct {
	File string `json:"file"`
	Mod  string `json:"mod"`
}

// Report is what a single execution of an entry did
type Report struct {
	Runtime    string         `json:"runtime"`
	Registered []Registration `json:"registered"`
	Requires   []string       `json:"requires"`
	Hydrated   int            `json:"hydrated"`
}

// Imports returns the required paths that were neither the hydration runtime nor a registered module
func (r *Report) Imports() []string {
	skip := map[string]struct{}{r.Runtime: {}}
	for _, reg := range r.Registered {
		skip[reg.Mod] = struct{}{}
	}
	var imports []string
	for _, p := range r.Requires {
		if _, ok := skip[p]; !ok {
			imports = append(imports, p)
		}
	}
	return imports
}

// harness stubs require and the hydration runtime. Each stubbed module carries the path it was
// required with so registrations can be traced back to their specifier.
const harness = `(function () {
  var __report = { runtime: %[1]s, registered: [], requires: [], hydrated: 0 };
  var __runtime = {
    setHydrateOptions: function (opts) {
      __report.hydrated++;
      var mods = (opts && opts.modules) || [];
      for (var i = 0; i < mods.length; i++) {
        var mod = mods[i].mod;
        __report.registered.push({ file: String(mods[i].file), mod: mod && mod.__hccPath ? mod.__hccPath : "" });
      }
    }
  };
  var require = function (p) {
    __report.requires.push(p);
    if (p === __report.runtime) { return __runtime; }
    return { __hccPath: p };
  };
  var module = { exports: {} };
  var exports = module.exports;
  (function (require, module, exports) {
%[2]s
  })(require, module, exports);
  return JSON.stringify(__report);
})()`

// Run executes a CommonJS entry and reports its registrations and requires.
// runtimeModule is the specifier that provides setHydrateOptions.
func Run(exec Executor, code, runtimeModule string) (*Report, error) {
	runtimeLiteral, err := json.Marshal(runtimeModule)
	if err != nil {
		return nil, err
	}
	out, err := exec.Execute(fmt.Sprintf(harness, runtimeLiteral, code))
	if err != nil {
		return nil, fmt.Errorf("failed to execute entry: %w", err)
	}

	var report Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return nil, fmt.Errorf("failed to decode entry report %q: %w", out, err)
	}
	return &report, nil
}

// Expectation is the registrations and side-effect imports an entry should produce
type Expectation struct {
	Registered []Registration
	Imports    []string
}

// Check compares a report with the expected registrations and imports, order included.
func Check(report *Report, want Expectation) error {
	var problems []string
	if report.Hydrated != 1 {
		problems = append(problems, fmt.Sprintf("setHydrateOptions called %d times", report.Hydrated))
	}
	if !slices.Equal(report.Registered, want.Registered) {
		problems = append(problems, fmt.Sprintf("registered %v, want %v", report.Registered, want.Registered))
	}
	if got := report.Imports(); !slices.Equal(got, want.Imports) {
		problems = append(problems, fmt.Sprintf("imports %v, want %v", got, want.Imports))
	}
	if len(problems) > 0 {
		return fmt.Errorf("entry mismatch: %s", strings.Join(problems, "; "))
	}
	return nil
}
