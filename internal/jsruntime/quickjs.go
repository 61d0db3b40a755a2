//go:build use_quickjs

package jsruntime

import (
	"github.com/buke/quickjs-go"
)

func init() {
	defaultRuntimeType = RuntimeQuickJS
}

func newRuntime() JSRuntime {
	return NewQuickJSRuntime()
}

// QuickJSRuntime wraps a QuickJS runtime and context
type QuickJSRuntime struct {
	runtime *quickjs.Runtime
	context *quickjs.Context
}

// NewQuickJSRuntime creates a new QuickJS runtime
func NewQuickJSRuntime() *QuickJSRuntime {
	rt := quickjs.NewRuntime()
	return &QuickJSRuntime{
		runtime: rt,
		context: rt.NewContext(),
	}
}

// Execute runs JavaScript code and returns the result
func (q *QuickJSRuntime) Execute(code string) (string, error) {
	res := q.context.Eval(code)
	defer res.Free()

	if res.IsException() {
		return "", res.Error()
	}
	return res.String(), nil
}

// Reset swaps in a fresh context so globals from the previous entry don't leak
func (q *QuickJSRuntime) Reset() {
	if q.context != nil {
		q.context.Close()
	}
	q.context = q.runtime.NewContext()
}

// Destroy permanently destroys the runtime
func (q *QuickJSRuntime) Destroy() {
	if q.context != nil {
		q.context.Close()
		q.context = nil
	}
	if q.runtime != nil {
		q.runtime.Close()
		q.runtime = nil
	}
}
