// Package mudoc opens and inspects documents through the MuPDF engine without
// exposing raw engine handles.
//
// Every value that owns an engine resource (Document, PDFDocument, Page) has a
// Close method that releases it exactly once. A cleanup registered with the
// runtime releases values that are dropped without Close, but callers should
// not rely on it: the engine store is sized independently of the Go heap and
// will not trigger a collection.
//
// All calls into one Context are serialized. A Document is not safe for
// concurrent use when one goroutine may Close it while another is using it.
package mudoc

import (
	"io"
	"sync"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/native"
)

// Options configures an engine context.
type Options struct {
	// Library is the path of the shim library loaded when the binary is
	// built without cgo. Empty selects libmudoc.so / libmudoc.dylib.
	Library string
	// StoreSize is the engine resource store limit in bytes. Zero selects
	// the engine default.
	StoreSize uint
}

// Context is an engine execution context. Documents opened from a Context
// must be closed before the Context is.
type Context struct {
	nc *native.Context
}

// NewContext creates an engine context.
func NewContext(opts Options) (*Context, error) {
	nc, err := native.Open(native.Options{Library: opts.Library, StoreSize: opts.StoreSize})
	if err != nil {
		return nil, err
	}
	return &Context{nc: nc}, nil
}

// FromNative wraps an existing native context. It lets tests and tools in
// this module run against an alternative binding.
func FromNative(nc *native.Context) *Context {
	return &Context{nc: nc}
}

// Close drops the engine context.
func (c *Context) Close() {
	c.nc.Close()
}

// DefaultOptions configures the context returned by Default. It must be set
// before the first call to Default or any package-level function.
var DefaultOptions Options

var (
	defaultOnce sync.Once
	defaultCtx  *Context
	defaultErr  error
)

// Default returns the process-wide context, creating it on first use.
func Default() (*Context, error) {
	defaultOnce.Do(func() {
		defaultCtx, defaultErr = NewContext(DefaultOptions)
	})
	return defaultCtx, defaultErr
}

// Open opens the document at path with the default context.
func Open(path string) (*Document, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Open(path)
}

// FromBytes opens an in-memory document with the default context.
func FromBytes(data []byte, magic string) (*Document, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.FromBytes(data, magic)
}

// FromReader opens a document read from r with the default context.
func FromReader(r io.Reader, magic string) (*Document, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.FromReader(r, magic)
}

// Recognize reports whether the default context has a handler for magic.
func Recognize(magic string) (bool, error) {
	c, err := Default()
	if err != nil {
		return false, err
	}
	return c.Recognize(magic)
}

// Open opens the document at path. The engine picks the handler from the
// file name and content.
func (c *Context) Open(path string) (*Document, error) {
	p, err := native.CString(path)
	if err != nil {
		return nil, err
	}

	h, err := native.Call(c.nc, "open document", func(b native.Binding) native.Document {
		return b.OpenDocument(p)
	})
	if err != nil {
		return nil, err
	}
	return c.adopt(h, "open document", path)
}

// FromBytes opens a document from data. magic is a MIME type or file name
// that selects the handler; no content sniffing is done without it.
func (c *Context) FromBytes(data []byte, magic string) (*Document, error) {
	m, err := native.CString(magic)
	if err != nil {
		return nil, err
	}

	buf, err := native.Call(c.nc, "new buffer", func(b native.Binding) native.Buffer {
		return b.NewBuffer(len(data))
	})
	if err != nil {
		return nil, err
	}
	// The opened document holds its own reference to the buffer.
	defer native.Release(c.nc, func(b native.Binding) { b.DropBuffer(buf) })

	err = native.Exec(c.nc, "append buffer", func(b native.Binding) {
		b.AppendBuffer(buf, data)
	})
	if err != nil {
		return nil, err
	}

	h, err := native.Call(c.nc, "open document from buffer", func(b native.Binding) native.Document {
		return b.OpenDocumentFromBuffer(buf, m)
	})
	if err != nil {
		return nil, err
	}
	return c.adopt(h, "open document from buffer", "")
}

// FromReader reads r to the end and opens the result like FromBytes.
func (c *Context) FromReader(r io.Reader, magic string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.IOError("read document", err)
	}
	return c.FromBytes(data, magic)
}

// Recognize reports whether the engine has a handler for magic, which may be
// a MIME type or a file name.
func (c *Context) Recognize(magic string) (bool, error) {
	m, err := native.CString(magic)
	if err != nil {
		return false, err
	}
	return native.Call(c.nc, "recognize document", func(b native.Binding) bool {
		return b.RecognizeDocument(m)
	})
}

func (c *Context) adopt(h native.Document, op, path string) (*Document, error) {
	if h == 0 {
		return nil, domain.EngineError(op, 0, "engine returned no document")
	}
	return newDocument(c.nc, h, path), nil
}
