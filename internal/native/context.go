package native

import (
	"sync"

	"github.com/spherical/mudoc/internal/domain"
)

// Context is one engine execution context. The engine context and its error
// slot are not safe for concurrent use, so every call holds mu from the entry
// point until its error slot has been read.
type Context struct {
	mu sync.Mutex
	b  Binding
}

// NewContext wraps an existing binding.
func NewContext(b Binding) *Context {
	return &Context{b: b}
}

// Open creates an engine context using the backend compiled into this binary.
func Open(opts Options) (*Context, error) {
	if opts.StoreSize == 0 {
		opts.StoreSize = DefaultStoreSize
	}
	b, err := newBinding(opts)
	if err != nil {
		return nil, err
	}
	return NewContext(b), nil
}

// Call runs fn and converts a failure recorded by the engine into an engine
// error. op names the entry point in the error message.
func Call[T any](c *Context, op string, fn func(b Binding) T) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.b == nil {
		return zero, domain.ClosedError("engine context")
	}

	v := fn(c.b)
	if code, msg := c.b.TakeError(); code != 0 {
		return zero, domain.EngineError(op, code, msg)
	}
	return v, nil
}

// Exec is Call for entry points without a result.
func Exec(c *Context, op string, fn func(b Binding)) error {
	_, err := Call(c, op, func(b Binding) struct{} {
		fn(b)
		return struct{}{}
	})
	return err
}

// Probe runs fn for an entry point that cannot fail. It returns the zero
// value once the context is closed.
func Probe[T any](c *Context, fn func(b Binding) T) T {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.b == nil {
		return zero
	}
	v := fn(c.b)
	// Drop calls never throw; clear anything a misbehaving shim left behind
	// so it is not attributed to the next call.
	c.b.TakeError()
	return v
}

// Release runs a drop entry point.
func Release(c *Context, fn func(b Binding)) {
	Probe(c, func(b Binding) struct{} {
		fn(b)
		return struct{}{}
	})
}

// Close drops the engine context. Handles created from it must be released
// first. Close is idempotent.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.b != nil {
		c.b.Close()
		c.b = nil
	}
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b == nil
}
