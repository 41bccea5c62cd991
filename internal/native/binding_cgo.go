//go:build cgo && !purego

package native

/*
#cgo !nopkgconfig pkg-config: mupdf
#cgo nopkgconfig LDFLAGS: -lmupdf -lmupdf-third -lm

#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/spherical/mudoc/internal/domain"
)

// cgoBinding calls the shim compiled into this package.
type cgoBinding struct {
	mc *C.mudoc_context
}

func newBinding(opts Options) (Binding, error) {
	mc := C.mudoc_new_context(C.size_t(opts.StoreSize))
	if mc == nil {
		return nil, domain.EngineError("mudoc_new_context", 1, "cannot create engine context")
	}
	return &cgoBinding{mc: mc}, nil
}

func cstr(p *byte) *C.char {
	return (*C.char)(unsafe.Pointer(p))
}

func cdoc(d Document) *C.fz_document {
	return (*C.fz_document)(unsafe.Pointer(uintptr(d)))
}

func cpage(p Page) *C.fz_page {
	return (*C.fz_page)(unsafe.Pointer(uintptr(p)))
}

func cbuf(b Buffer) *C.fz_buffer {
	return (*C.fz_buffer)(unsafe.Pointer(uintptr(b)))
}

func (b *cgoBinding) OpenDocument(path *byte) Document {
	return Document(unsafe.Pointer(C.mudoc_open_document(b.mc, cstr(path))))
}

func (b *cgoBinding) OpenDocumentFromBuffer(buf Buffer, magic *byte) Document {
	return Document(unsafe.Pointer(C.mudoc_open_document_from_buffer(b.mc, cbuf(buf), cstr(magic))))
}

func (b *cgoBinding) RecognizeDocument(magic *byte) bool {
	return C.mudoc_recognize_document(b.mc, cstr(magic)) != 0
}

func (b *cgoBinding) DropDocument(doc Document) {
	C.mudoc_drop_document(b.mc, cdoc(doc))
}

func (b *cgoBinding) NewBuffer(capacity int) Buffer {
	return Buffer(unsafe.Pointer(C.mudoc_new_buffer(b.mc, C.size_t(capacity))))
}

func (b *cgoBinding) AppendBuffer(buf Buffer, data []byte) {
	if len(data) == 0 {
		return
	}
	C.mudoc_append_buffer(b.mc, cbuf(buf), unsafe.Pointer(&data[0]), C.size_t(len(data)))
	runtime.KeepAlive(data)
}

func (b *cgoBinding) DropBuffer(buf Buffer) {
	C.mudoc_drop_buffer(b.mc, cbuf(buf))
}

func (b *cgoBinding) NeedsPassword(doc Document) bool {
	return C.mudoc_needs_password(b.mc, cdoc(doc)) != 0
}

func (b *cgoBinding) AuthenticatePassword(doc Document, password *byte) bool {
	return C.mudoc_authenticate_password(b.mc, cdoc(doc), cstr(password)) != 0
}

func (b *cgoBinding) CountPages(doc Document) int {
	return int(C.mudoc_count_pages(b.mc, cdoc(doc)))
}

func (b *cgoBinding) LookupMetadata(doc Document, key *byte, buf []byte) int {
	var p *C.char
	if len(buf) > 0 {
		p = (*C.char)(unsafe.Pointer(&buf[0]))
	}
	n := C.mudoc_lookup_metadata(b.mc, cdoc(doc), cstr(key), p, C.int(len(buf)))
	runtime.KeepAlive(buf)
	return int(n)
}

func (b *cgoBinding) ResolveLink(doc Document, uri *byte) int {
	return int(C.mudoc_resolve_link(b.mc, cdoc(doc), cstr(uri)))
}

func (b *cgoBinding) IsReflowable(doc Document) bool {
	return C.mudoc_is_reflowable(b.mc, cdoc(doc)) != 0
}

func (b *cgoBinding) PDFSpecifics(doc Document) bool {
	return C.mudoc_pdf_specifics(b.mc, cdoc(doc)) != 0
}

func (b *cgoBinding) LayoutDocument(doc Document, width, height, em float32) {
	C.mudoc_layout_document(b.mc, cdoc(doc), C.float(width), C.float(height), C.float(em))
}

func (b *cgoBinding) ConvertToPDF(doc Document, start, end, rotate int) Document {
	return Document(unsafe.Pointer(C.mudoc_convert_to_pdf(b.mc, cdoc(doc), C.int(start), C.int(end), C.int(rotate))))
}

func (b *cgoBinding) SavePDF(doc Document, path *byte) {
	C.mudoc_save_pdf(b.mc, cdoc(doc), cstr(path))
}

func (b *cgoBinding) LoadPage(doc Document, number int) Page {
	return Page(unsafe.Pointer(C.mudoc_load_page(b.mc, cdoc(doc), C.int(number))))
}

func (b *cgoBinding) BoundPage(page Page) domain.Rect {
	r := C.mudoc_bound_page(b.mc, cpage(page))
	return domain.Rect{X0: float32(r.x0), Y0: float32(r.y0), X1: float32(r.x1), Y1: float32(r.y1)}
}

func (b *cgoBinding) DropPage(page Page) {
	C.mudoc_drop_page(b.mc, cpage(page))
}

func (b *cgoBinding) TakeError() (int, string) {
	code := int(C.mudoc_error_code(b.mc))
	if code == 0 {
		return 0, ""
	}
	msg := C.GoString(C.mudoc_error_message(b.mc))
	C.mudoc_clear_error(b.mc)
	return code, msg
}

func (b *cgoBinding) Close() {
	C.mudoc_drop_context(b.mc)
	b.mc = nil
}
