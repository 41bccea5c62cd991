//go:build (!cgo || purego) && (darwin || freebsd || linux)

package native

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/jupiterrider/ffi"

	"github.com/spherical/mudoc/internal/domain"
)

// puregoBinding calls the shim built as a shared library (see shim.c) and
// loaded at run time. fz_rect is returned by value, which purego cannot
// express on every platform, so mudoc_bound_page goes through libffi.
type puregoBinding struct {
	lib uintptr
	mc  uintptr

	boundPageSym uintptr
	boundPageCif ffi.Cif

	newContext       func(storeSize uintptr) uintptr
	dropContext      func(mc uintptr)
	errorCode        func(mc uintptr) int32
	errorMessage     func(mc uintptr) string
	clearError       func(mc uintptr)
	openDocument     func(mc uintptr, path *byte) uintptr
	openFromBuffer   func(mc uintptr, buf uintptr, magic *byte) uintptr
	recognize        func(mc uintptr, magic *byte) int32
	dropDocument     func(mc uintptr, doc uintptr)
	newBuffer        func(mc uintptr, capacity uintptr) uintptr
	appendBuffer     func(mc uintptr, buf uintptr, data *byte, n uintptr)
	dropBuffer       func(mc uintptr, buf uintptr)
	needsPassword    func(mc uintptr, doc uintptr) int32
	authenticate     func(mc uintptr, doc uintptr, password *byte) int32
	countPages       func(mc uintptr, doc uintptr) int32
	lookupMetadata   func(mc uintptr, doc uintptr, key *byte, buf *byte, size int32) int32
	resolveLink      func(mc uintptr, doc uintptr, uri *byte) int32
	isReflowable     func(mc uintptr, doc uintptr) int32
	pdfSpecifics     func(mc uintptr, doc uintptr) int32
	layoutDocument   func(mc uintptr, doc uintptr, w, h, em float32)
	convertToPDF     func(mc uintptr, doc uintptr, start, end, rotate int32) uintptr
	savePDF          func(mc uintptr, doc uintptr, path *byte)
	loadPage         func(mc uintptr, doc uintptr, number int32) uintptr
	dropPage         func(mc uintptr, page uintptr)
}

var typeRect = ffi.Type{
	Type:     ffi.Struct,
	Elements: &[]*ffi.Type{&ffi.TypeFloat, &ffi.TypeFloat, &ffi.TypeFloat, &ffi.TypeFloat, nil}[0],
}

func defaultLibrary() string {
	if runtime.GOOS == "darwin" {
		return "libmudoc.dylib"
	}
	return "libmudoc.so"
}

func newBinding(opts Options) (Binding, error) {
	name := opts.Library
	if name == "" {
		name = defaultLibrary()
	}

	lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("load engine library %s", name), err)
	}

	b := &puregoBinding{lib: lib}
	if err := b.register(); err != nil {
		_ = purego.Dlclose(lib)
		return nil, err
	}

	b.mc = b.newContext(uintptr(opts.StoreSize))
	if b.mc == 0 {
		_ = purego.Dlclose(lib)
		return nil, domain.EngineError("mudoc_new_context", 1, "cannot create engine context")
	}
	return b, nil
}

func (b *puregoBinding) register() (err error) {
	// RegisterLibFunc panics on a missing symbol.
	defer func() {
		if r := recover(); r != nil {
			err = domain.ConfigError("engine library is missing a shim entry point", fmt.Errorf("%v", r))
		}
	}()

	purego.RegisterLibFunc(&b.newContext, b.lib, "mudoc_new_context")
	purego.RegisterLibFunc(&b.dropContext, b.lib, "mudoc_drop_context")
	purego.RegisterLibFunc(&b.errorCode, b.lib, "mudoc_error_code")
	purego.RegisterLibFunc(&b.errorMessage, b.lib, "mudoc_error_message")
	purego.RegisterLibFunc(&b.clearError, b.lib, "mudoc_clear_error")
	purego.RegisterLibFunc(&b.openDocument, b.lib, "mudoc_open_document")
	purego.RegisterLibFunc(&b.openFromBuffer, b.lib, "mudoc_open_document_from_buffer")
	purego.RegisterLibFunc(&b.recognize, b.lib, "mudoc_recognize_document")
	purego.RegisterLibFunc(&b.dropDocument, b.lib, "mudoc_drop_document")
	purego.RegisterLibFunc(&b.newBuffer, b.lib, "mudoc_new_buffer")
	purego.RegisterLibFunc(&b.appendBuffer, b.lib, "mudoc_append_buffer")
	purego.RegisterLibFunc(&b.dropBuffer, b.lib, "mudoc_drop_buffer")
	purego.RegisterLibFunc(&b.needsPassword, b.lib, "mudoc_needs_password")
	purego.RegisterLibFunc(&b.authenticate, b.lib, "mudoc_authenticate_password")
	purego.RegisterLibFunc(&b.countPages, b.lib, "mudoc_count_pages")
	purego.RegisterLibFunc(&b.lookupMetadata, b.lib, "mudoc_lookup_metadata")
	purego.RegisterLibFunc(&b.resolveLink, b.lib, "mudoc_resolve_link")
	purego.RegisterLibFunc(&b.isReflowable, b.lib, "mudoc_is_reflowable")
	purego.RegisterLibFunc(&b.pdfSpecifics, b.lib, "mudoc_pdf_specifics")
	purego.RegisterLibFunc(&b.layoutDocument, b.lib, "mudoc_layout_document")
	purego.RegisterLibFunc(&b.convertToPDF, b.lib, "mudoc_convert_to_pdf")
	purego.RegisterLibFunc(&b.savePDF, b.lib, "mudoc_save_pdf")
	purego.RegisterLibFunc(&b.loadPage, b.lib, "mudoc_load_page")
	purego.RegisterLibFunc(&b.dropPage, b.lib, "mudoc_drop_page")

	sym, err := purego.Dlsym(b.lib, "mudoc_bound_page")
	if err != nil {
		return domain.ConfigError("engine library is missing mudoc_bound_page", err)
	}
	b.boundPageSym = sym

	if status := ffi.PrepCif(&b.boundPageCif, ffi.DefaultAbi, 2, &typeRect, &ffi.TypePointer, &ffi.TypePointer); status != ffi.OK {
		return domain.ConfigError(fmt.Sprintf("prepare mudoc_bound_page call: status %v", status), nil)
	}
	return nil
}

func (b *puregoBinding) OpenDocument(path *byte) Document {
	return Document(b.openDocument(b.mc, path))
}

func (b *puregoBinding) OpenDocumentFromBuffer(buf Buffer, magic *byte) Document {
	return Document(b.openFromBuffer(b.mc, uintptr(buf), magic))
}

func (b *puregoBinding) RecognizeDocument(magic *byte) bool {
	return b.recognize(b.mc, magic) != 0
}

func (b *puregoBinding) DropDocument(doc Document) {
	b.dropDocument(b.mc, uintptr(doc))
}

func (b *puregoBinding) NewBuffer(capacity int) Buffer {
	return Buffer(b.newBuffer(b.mc, uintptr(capacity)))
}

func (b *puregoBinding) AppendBuffer(buf Buffer, data []byte) {
	if len(data) == 0 {
		return
	}
	b.appendBuffer(b.mc, uintptr(buf), &data[0], uintptr(len(data)))
	runtime.KeepAlive(data)
}

func (b *puregoBinding) DropBuffer(buf Buffer) {
	b.dropBuffer(b.mc, uintptr(buf))
}

func (b *puregoBinding) NeedsPassword(doc Document) bool {
	return b.needsPassword(b.mc, uintptr(doc)) != 0
}

func (b *puregoBinding) AuthenticatePassword(doc Document, password *byte) bool {
	return b.authenticate(b.mc, uintptr(doc), password) != 0
}

func (b *puregoBinding) CountPages(doc Document) int {
	return int(b.countPages(b.mc, uintptr(doc)))
}

func (b *puregoBinding) LookupMetadata(doc Document, key *byte, buf []byte) int {
	var p *byte
	if len(buf) > 0 {
		p = &buf[0]
	}
	n := b.lookupMetadata(b.mc, uintptr(doc), key, p, int32(len(buf)))
	runtime.KeepAlive(buf)
	return int(n)
}

func (b *puregoBinding) ResolveLink(doc Document, uri *byte) int {
	return int(b.resolveLink(b.mc, uintptr(doc), uri))
}

func (b *puregoBinding) IsReflowable(doc Document) bool {
	return b.isReflowable(b.mc, uintptr(doc)) != 0
}

func (b *puregoBinding) PDFSpecifics(doc Document) bool {
	return b.pdfSpecifics(b.mc, uintptr(doc)) != 0
}

func (b *puregoBinding) LayoutDocument(doc Document, width, height, em float32) {
	b.layoutDocument(b.mc, uintptr(doc), width, height, em)
}

func (b *puregoBinding) ConvertToPDF(doc Document, start, end, rotate int) Document {
	return Document(b.convertToPDF(b.mc, uintptr(doc), int32(start), int32(end), int32(rotate)))
}

func (b *puregoBinding) SavePDF(doc Document, path *byte) {
	b.savePDF(b.mc, uintptr(doc), path)
}

func (b *puregoBinding) LoadPage(doc Document, number int) Page {
	return Page(b.loadPage(b.mc, uintptr(doc), int32(number)))
}

func (b *puregoBinding) BoundPage(page Page) domain.Rect {
	var r struct{ X0, Y0, X1, Y1 float32 }
	mc, pg := b.mc, uintptr(page)
	ffi.Call(&b.boundPageCif, b.boundPageSym, unsafe.Pointer(&r), unsafe.Pointer(&mc), unsafe.Pointer(&pg))
	return domain.Rect{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}

func (b *puregoBinding) DropPage(page Page) {
	b.dropPage(b.mc, uintptr(page))
}

func (b *puregoBinding) TakeError() (int, string) {
	code := int(b.errorCode(b.mc))
	if code == 0 {
		return 0, ""
	}
	msg := b.errorMessage(b.mc)
	b.clearError(b.mc)
	return code, msg
}

func (b *puregoBinding) Close() {
	b.dropContext(b.mc)
	b.mc = 0
	_ = purego.Dlclose(b.lib)
}
