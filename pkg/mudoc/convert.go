package mudoc

import (
	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/native"
)

// PDFDocument is a document known to be backed by a PDF, such as the output
// of ConvertToPDF. It supports every Document operation.
type PDFDocument struct {
	*Document
}

// clampRange limits start and end to the last page. A negative start is
// passed on unchanged; a negative end selects the last page.
func clampRange(start, end, count int) (int, int) {
	last := count - 1
	if start > last {
		start = last
	}
	if end > last || end < 0 {
		end = last
	}
	return start, end
}

// ConvertToPDF renders pages start..end (inclusive, 0-based) into a new PDF,
// rotated by rotate degrees. A start after end produces the pages in reverse
// order. Out-of-range bounds are clamped to the last page. The result is
// owned by the caller and independent of d.
func (d *Document) ConvertToPDF(start, end, rotate int) (*PDFDocument, error) {
	count, err := d.PageCount()
	if err != nil {
		return nil, err
	}
	h, err := d.raw()
	if err != nil {
		return nil, err
	}

	start, end = clampRange(start, end, count)
	out, err := native.Call(d.nc, "convert to pdf", func(b native.Binding) native.Document {
		return b.ConvertToPDF(h, start, end, rotate)
	})
	if err != nil {
		return nil, err
	}
	if out == 0 {
		return nil, domain.EngineError("convert to pdf", 0, "engine returned no document")
	}
	return &PDFDocument{Document: newDocument(d.nc, out, "")}, nil
}

// AsPDF returns d as a PDFDocument when it is backed by a PDF. The result
// shares d's handle; closing either closes both.
func (d *Document) AsPDF() (*PDFDocument, bool) {
	if !d.IsPDF() {
		return nil, false
	}
	return &PDFDocument{Document: d}, true
}

// Save writes the document to path.
func (p *PDFDocument) Save(path string) error {
	h, err := p.raw()
	if err != nil {
		return err
	}
	cp, err := native.CString(path)
	if err != nil {
		return err
	}
	return native.Exec(p.nc, "save pdf", func(b native.Binding) {
		b.SavePDF(h, cp)
	})
}
