package mudoc

import (
	"runtime"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/native"
)

// Page is one loaded page. It holds its own engine reference and stays valid
// after the document it came from is closed.
type Page struct {
	nc      *native.Context
	handle  native.Page
	number  int
	cleanup runtime.Cleanup
}

type pageRef struct {
	nc *native.Context
	h  native.Page
}

func dropPage(r pageRef) {
	native.Release(r.nc, func(b native.Binding) { b.DropPage(r.h) })
}

func newPage(nc *native.Context, h native.Page, number int) *Page {
	p := &Page{nc: nc, handle: h, number: number}
	p.cleanup = runtime.AddCleanup(p, dropPage, pageRef{nc: nc, h: h})
	return p
}

// Number returns the 0-based index the page was loaded from.
func (p *Page) Number() int {
	return p.number
}

// Bounds returns the page's bounding box in points.
func (p *Page) Bounds() (Rect, error) {
	if p.handle == 0 {
		return Rect{}, domain.ClosedError("page")
	}
	h := p.handle
	return native.Call(p.nc, "bound page", func(b native.Binding) domain.Rect {
		return b.BoundPage(h)
	})
}

// Close releases the page. It is idempotent.
func (p *Page) Close() error {
	if p.handle == 0 {
		return nil
	}
	h := p.handle
	p.handle = 0
	p.cleanup.Stop()
	dropPage(pageRef{nc: p.nc, h: h})
	return nil
}
