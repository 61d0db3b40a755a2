package jsruntime

import (
	"fmt"
	"sync"
)

// RuntimeType represents the type of JavaScript runtime
type RuntimeType string

const (
	RuntimeQuickJS RuntimeType = "quickjs"
	RuntimeV8      RuntimeType = "v8"
)

// defaultRuntimeType is set by init() in the build-specific files
var defaultRuntimeType RuntimeType

// JSRuntime executes generated entries inside an embedded engine
type JSRuntime interface {
	// Execute runs JavaScript code and returns the completion value as a string
	Execute(code string) (string, error)
	// Reset clears per-run globals before the runtime goes back to the pool
	Reset()
	// Destroy permanently destroys the runtime
	Destroy()
}

// Pool keeps warm runtimes for repeated verification runs (watch mode)
type Pool struct {
	runtimeType RuntimeType
	pool        sync.Pool
	maxSize     int
	created     int
	closed      bool
	mu          sync.Mutex
}

// PoolConfig configures the runtime pool
type PoolConfig struct {
	RuntimeType RuntimeType
	PoolSize    int // runtimes created up front
}

// DefaultRuntimeType returns the runtime type for this build
func DefaultRuntimeType() RuntimeType {
	return defaultRuntimeType
}

// NewPool creates a new runtime pool. Only the runtime compiled into this build can be used.
func NewPool(config PoolConfig) (*Pool, error) {
	if config.PoolSize <= 0 {
		config.PoolSize = 2
	}
	if config.RuntimeType == "" {
		config.RuntimeType = defaultRuntimeType
	}
	if config.RuntimeType != defaultRuntimeType {
		return nil, fmt.Errorf("runtime %q not available in this build (have %q)", config.RuntimeType, defaultRuntimeType)
	}

	p := &Pool{
		runtimeType: config.RuntimeType,
		maxSize:     config.PoolSize,
	}
	p.pool = sync.Pool{
		New: func() interface{} {
			return p.createRuntime()
		},
	}

	// Pre-warm the pool
	runtimes := make([]JSRuntime, config.PoolSize)
	for i := range runtimes {
		runtimes[i] = p.Get()
	}
	for _, rt := range runtimes {
		p.Put(rt)
	}
	return p, nil
}

func (p *Pool) createRuntime() JSRuntime {
	p.mu.Lock()
	p.created++
	p.mu.Unlock()

	return newRuntime()
}

// Get retrieves a runtime from the pool
func (p *Pool) Get() JSRuntime {
	return p.pool.Get().(JSRuntime)
}

// Put returns a runtime to the pool
func (p *Pool) Put(rt JSRuntime) {
	rt.Reset()
	p.pool.Put(rt)
}

// Execute gets a runtime, executes code, and returns it to the pool
func (p *Pool) Execute(code string) (string, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return "", fmt.Errorf("runtime pool is closed")
	}

	rt := p.Get()
	defer p.Put(rt)
	return rt.Execute(code)
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]interface{}{
		"runtime_type":  p.runtimeType,
		"total_created": p.created,
		"max_pool_size": p.maxSize,
		"closed":        p.closed,
	}
}

// Close marks the pool as closed.
// sync.Pool can't be iterated, so pooled runtimes are left to the garbage collector.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
