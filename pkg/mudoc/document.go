package mudoc

import (
	"bytes"
	"iter"
	"runtime"
	"time"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/native"
)

// Document owns one engine document.
type Document struct {
	nc      *native.Context
	handle  native.Document
	path    string
	cleanup runtime.Cleanup
}

type documentRef struct {
	nc *native.Context
	h  native.Document
}

func dropDocument(r documentRef) {
	native.Release(r.nc, func(b native.Binding) { b.DropDocument(r.h) })
}

func newDocument(nc *native.Context, h native.Document, path string) *Document {
	d := &Document{nc: nc, handle: h, path: path}
	d.cleanup = runtime.AddCleanup(d, dropDocument, documentRef{nc: nc, h: h})
	return d
}

// Close releases the engine document. Pages already loaded stay valid.
// Close is idempotent and always returns nil.
func (d *Document) Close() error {
	if d.handle == 0 {
		return nil
	}
	h := d.handle
	d.handle = 0
	d.cleanup.Stop()
	dropDocument(documentRef{nc: d.nc, h: h})
	return nil
}

// Path returns the path the document was opened from, or "" for documents
// opened from memory or produced by conversion.
func (d *Document) Path() string {
	return d.path
}

func (d *Document) raw() (native.Document, error) {
	if d.handle == 0 {
		return 0, domain.ClosedError("document")
	}
	return d.handle, nil
}

// NeedsPassword reports whether the document must be authenticated before
// its content can be read.
func (d *Document) NeedsPassword() (bool, error) {
	h, err := d.raw()
	if err != nil {
		return false, err
	}
	return native.Call(d.nc, "needs password", func(b native.Binding) bool {
		return b.NeedsPassword(h)
	})
}

// Authenticate tries password. A wrong password returns false and no error.
// Documents that need no password accept any password.
func (d *Document) Authenticate(password string) (bool, error) {
	h, err := d.raw()
	if err != nil {
		return false, err
	}
	p, err := native.CString(password)
	if err != nil {
		return false, err
	}
	return native.Call(d.nc, "authenticate password", func(b native.Binding) bool {
		return b.AuthenticatePassword(h, p)
	})
}

// PageCount returns the number of pages in the current layout.
func (d *Document) PageCount() (int, error) {
	h, err := d.raw()
	if err != nil {
		return 0, err
	}
	return native.Call(d.nc, "count pages", func(b native.Binding) int {
		return b.CountPages(h)
	})
}

// Metadata returns the value of a metadata field, or "" when the document
// does not set it.
func (d *Document) Metadata(name MetadataName) (string, error) {
	h, err := d.raw()
	if err != nil {
		return "", err
	}
	key, err := native.CString(name.Key())
	if err != nil {
		return "", err
	}

	buf := make([]byte, 256)
	lookup := func(b native.Binding) int {
		return b.LookupMetadata(h, key, buf)
	}

	n, err := native.Call(d.nc, "lookup metadata", lookup)
	if err != nil {
		return "", err
	}
	if n > len(buf) {
		buf = make([]byte, n)
		if n, err = native.Call(d.nc, "lookup metadata", lookup); err != nil {
			return "", err
		}
	}
	if n <= 0 {
		return "", nil
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// ResolveLink resolves an internal link URI to a page number. ok is false
// when the link has no target in this document.
func (d *Document) ResolveLink(uri string) (page int, ok bool, err error) {
	h, err := d.raw()
	if err != nil {
		return 0, false, err
	}
	u, err := native.CString(uri)
	if err != nil {
		return 0, false, err
	}
	n, err := native.Call(d.nc, "resolve link", func(b native.Binding) int {
		return b.ResolveLink(h, u)
	})
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// IsReflowable reports whether the document supports Layout.
func (d *Document) IsReflowable() (bool, error) {
	h, err := d.raw()
	if err != nil {
		return false, err
	}
	return native.Call(d.nc, "is reflowable", func(b native.Binding) bool {
		return b.IsReflowable(h)
	})
}

// IsPDF reports whether the document is backed by a PDF. It returns false
// once the document is closed.
func (d *Document) IsPDF() bool {
	if d.handle == 0 {
		return false
	}
	h := d.handle
	return native.Probe(d.nc, func(b native.Binding) bool {
		return b.PDFSpecifics(h)
	})
}

// Layout reflows the document into a width x height viewport with base font
// size em. Documents that are not reflowable are left to the engine.
func (d *Document) Layout(width, height, em float32) error {
	h, err := d.raw()
	if err != nil {
		return err
	}
	return native.Exec(d.nc, "layout document", func(b native.Binding) {
		b.LayoutDocument(h, width, height, em)
	})
}

// LoadPage loads page number (0-based). Out-of-range numbers are rejected by
// the engine.
func (d *Document) LoadPage(number int) (*Page, error) {
	h, err := d.raw()
	if err != nil {
		return nil, err
	}
	p, err := native.Call(d.nc, "load page", func(b native.Binding) native.Page {
		return b.LoadPage(h, number)
	})
	if err != nil {
		return nil, err
	}
	if p == 0 {
		return nil, domain.EngineError("load page", 0, "engine returned no page")
	}
	return newPage(d.nc, p, number), nil
}

// Pages returns an iterator over the pages in the current layout. Each call
// starts a new, independent iteration.
func (d *Document) Pages() (*PageIter, error) {
	n, err := d.PageCount()
	if err != nil {
		return nil, err
	}
	return &PageIter{doc: d, total: n}, nil
}

// All ranges over the document's pages:
//
//	for page, err := range doc.All() { ... }
//
// If the page count cannot be read, All yields that error once.
func (d *Document) All() iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		it, err := d.Pages()
		if err != nil {
			yield(nil, err)
			return
		}
		for p, err := range it.Seq() {
			if !yield(p, err) {
				return
			}
		}
	}
}

// Info collects page count, flags and every metadata field. For documents
// that still need a password only the fields readable before authentication
// are filled in.
func (d *Document) Info() (*DocumentInfo, error) {
	info := &DocumentInfo{
		Path:        d.path,
		Metadata:    make(map[string]string, len(metadataKeys)),
		InspectedAt: time.Now(),
	}

	var err error
	if info.NeedsPassword, err = d.NeedsPassword(); err != nil {
		return nil, err
	}
	info.IsPDF = d.IsPDF()

	names := MetadataNames()
	if info.NeedsPassword {
		names = []MetadataName{Format, Encryption}
	}
	for _, name := range names {
		v, err := d.Metadata(name)
		if err != nil {
			return nil, err
		}
		info.Metadata[name.String()] = v
	}
	if info.NeedsPassword {
		return info, nil
	}

	if info.Reflowable, err = d.IsReflowable(); err != nil {
		return nil, err
	}
	if info.PageCount, err = d.PageCount(); err != nil {
		return nil, err
	}
	if info.PageCount > 0 {
		page, err := d.LoadPage(0)
		if err != nil {
			return nil, err
		}
		defer page.Close()

		bounds, err := page.Bounds()
		if err != nil {
			return nil, err
		}
		info.FirstPage = &bounds
	}
	return info, nil
}
