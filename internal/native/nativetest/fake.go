// Package nativetest provides an in-memory engine binding for tests.
package nativetest

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/native"
)

// Engine error codes used by the fake, mirroring fz_error_type.
const (
	CodeGeneric  = 1
	CodeArgument = 4
	CodeFormat   = 7
	CodeSyntax   = 8
)

// A4 is the media box of an A4 portrait page.
var A4 = domain.Rect{X0: 0, Y0: 0, X1: 595, Y1: 842}

// Doc describes a document the fake engine can open.
type Doc struct {
	Pages      []domain.Rect
	Metadata   map[string]string
	Password   string
	Reflowable bool
	PDF        bool
	Links      map[string]int
	// Corrupt makes CountPages fail.
	Corrupt bool
	// BadPages makes LoadPage fail for the listed page numbers.
	BadPages map[int]bool
	// Rotation is set on documents produced by ConvertToPDF.
	Rotation int
}

func (d *Doc) clone() *Doc {
	c := *d
	c.Pages = append([]domain.Rect(nil), d.Pages...)
	return &c
}

// ConvertCall records the arguments ConvertToPDF received.
type ConvertCall struct {
	Start, End, Rotate int
}

// LayoutCall records the arguments LayoutDocument received.
type LayoutCall struct {
	Width, Height, Em float32
}

type openDoc struct {
	doc           *Doc
	authenticated bool
}

// Fake implements native.Binding over in-memory documents.
type Fake struct {
	mu sync.Mutex

	// Files maps a path to the document opened from it.
	Files map[string]*Doc
	// Blobs maps buffer contents to the document opened from them.
	Blobs map[string]*Doc
	// Formats lists the magic strings RecognizeDocument accepts. An entry
	// starting with "." also matches any path ending in it.
	Formats []string

	next    uintptr
	docs    map[native.Document]*openDoc
	pages   map[native.Page]domain.Rect
	buffers map[native.Buffer][]byte

	code int
	msg  string

	// Observations.
	Opened        int
	DocDrops      map[native.Document]int
	PageDrops     map[native.Page]int
	BufferDrops   int
	BadDrops      int
	Loads         []int
	Conversions   []ConvertCall
	Layouts       []LayoutCall
	Saved         map[string]*Doc
	ContextClosed bool
}

var _ native.Binding = (*Fake)(nil)

// New returns an empty fake engine that recognizes PDF and EPUB.
func New() *Fake {
	return &Fake{
		Files:     make(map[string]*Doc),
		Blobs:     make(map[string]*Doc),
		Formats:   []string{".pdf", "application/pdf", ".epub", "application/epub+zip"},
		docs:      make(map[native.Document]*openDoc),
		pages:     make(map[native.Page]domain.Rect),
		buffers:   make(map[native.Buffer][]byte),
		DocDrops:  make(map[native.Document]int),
		PageDrops: make(map[native.Page]int),
		Saved:     make(map[string]*Doc),
	}
}

// Context wraps f in a native.Context.
func (f *Fake) Context() *native.Context {
	return native.NewContext(f)
}

// Live returns the number of documents and pages not yet dropped.
func (f *Fake) Live() (docs, pages int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), len(f.pages)
}

// Drops returns copies of the per-handle drop counts and the number of drops
// of unknown handles. Cleanups run on their own goroutine, so tests read the
// counts through Drops rather than the fields.
func (f *Fake) Drops() (docs map[native.Document]int, pages map[native.Page]int, bad int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs = make(map[native.Document]int, len(f.DocDrops))
	for h, n := range f.DocDrops {
		docs[h] = n
	}
	pages = make(map[native.Page]int, len(f.PageDrops))
	for h, n := range f.PageDrops {
		pages[h] = n
	}
	return docs, pages, f.BadDrops
}

func (f *Fake) handle() uintptr {
	f.next++
	return f.next
}

func (f *Fake) fail(code int, format string, args ...any) {
	f.code = code
	f.msg = fmt.Sprintf(format, args...)
}

func gostr(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

func (f *Fake) register(d *Doc) native.Document {
	h := native.Document(f.handle())
	f.docs[h] = &openDoc{doc: d}
	f.Opened++
	return h
}

func (f *Fake) lookup(doc native.Document) *openDoc {
	od, ok := f.docs[doc]
	if !ok {
		f.fail(CodeArgument, "invalid document handle %d", doc)
		return nil
	}
	return od
}

func (f *Fake) OpenDocument(path *byte) native.Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := gostr(path)
	d, ok := f.Files[name]
	if !ok {
		f.fail(CodeGeneric, "cannot open document: %s", name)
		return 0
	}
	return f.register(d.clone())
}

func (f *Fake) OpenDocumentFromBuffer(buf native.Buffer, magic *byte) native.Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.buffers[buf]
	if !ok {
		f.fail(CodeArgument, "invalid buffer handle %d", buf)
		return 0
	}
	if !f.recognized(gostr(magic)) {
		f.fail(CodeFormat, "cannot find document handler for file type: '%s'", gostr(magic))
		return 0
	}
	d, ok := f.Blobs[string(data)]
	if !ok {
		f.fail(CodeFormat, "no objects found")
		return 0
	}
	return f.register(d.clone())
}

func (f *Fake) recognized(magic string) bool {
	for _, m := range f.Formats {
		if magic == m || (strings.HasPrefix(m, ".") && strings.HasSuffix(magic, m)) {
			return true
		}
	}
	return false
}

func (f *Fake) RecognizeDocument(magic *byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recognized(gostr(magic))
}

func (f *Fake) DropDocument(doc native.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DocDrops[doc]++
	if _, ok := f.docs[doc]; !ok {
		f.BadDrops++
		return
	}
	delete(f.docs, doc)
}

func (f *Fake) NewBuffer(capacity int) native.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := native.Buffer(f.handle())
	f.buffers[h] = make([]byte, 0, capacity)
	return h
}

func (f *Fake) AppendBuffer(buf native.Buffer, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.buffers[buf]
	if !ok {
		f.fail(CodeArgument, "invalid buffer handle %d", buf)
		return
	}
	f.buffers[buf] = append(b, data...)
}

func (f *Fake) DropBuffer(buf native.Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buffers[buf]; !ok {
		f.BadDrops++
		return
	}
	delete(f.buffers, buf)
	f.BufferDrops++
}

func (f *Fake) NeedsPassword(doc native.Document) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return false
	}
	return od.doc.Password != "" && !od.authenticated
}

func (f *Fake) AuthenticatePassword(doc native.Document, password *byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return false
	}
	if od.doc.Password == "" {
		return true
	}
	if gostr(password) == od.doc.Password {
		od.authenticated = true
		return true
	}
	return false
}

func (f *Fake) CountPages(doc native.Document) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return 0
	}
	if od.doc.Corrupt {
		f.fail(CodeFormat, "cannot find page tree")
		return 0
	}
	return len(od.doc.Pages)
}

func (f *Fake) LookupMetadata(doc native.Document, key *byte, buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return -1
	}
	v, ok := od.doc.Metadata[gostr(key)]
	if !ok || v == "" {
		return -1
	}
	if len(buf) > 0 {
		n := copy(buf[:len(buf)-1], v)
		buf[n] = 0
	}
	return len(v) + 1
}

func (f *Fake) ResolveLink(doc native.Document, uri *byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return -1
	}
	target := gostr(uri)
	if strings.HasPrefix(target, "bad:") {
		f.fail(CodeSyntax, "malformed link %s", target)
		return -1
	}
	page, ok := od.doc.Links[target]
	if !ok {
		return -1
	}
	return page
}

func (f *Fake) IsReflowable(doc native.Document) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return false
	}
	return od.doc.Reflowable
}

func (f *Fake) PDFSpecifics(doc native.Document) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	od, ok := f.docs[doc]
	return ok && od.doc.PDF
}

func (f *Fake) LayoutDocument(doc native.Document, width, height, em float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return
	}
	f.Layouts = append(f.Layouts, LayoutCall{Width: width, Height: height, Em: em})
	if od.doc.Reflowable && width > 0 && height > 0 {
		// Narrower than A4 doubles the page count.
		n := len(od.doc.Pages)
		if width < 595 {
			n *= 2
		}
		od.doc.Pages = make([]domain.Rect, n)
		for i := range od.doc.Pages {
			od.doc.Pages[i] = domain.Rect{X1: width, Y1: height}
		}
	}
}

func (f *Fake) ConvertToPDF(doc native.Document, start, end, rotate int) native.Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return 0
	}
	f.Conversions = append(f.Conversions, ConvertCall{Start: start, End: end, Rotate: rotate})

	count := len(od.doc.Pages)
	step := 1
	if start > end {
		step = -1
	}
	out := &Doc{PDF: true, Rotation: rotate, Metadata: map[string]string{"format": "PDF 1.7"}}
	for i := start; i != end+step; i += step {
		if i < 0 || i >= count {
			f.fail(CodeArgument, "invalid page number: %d", i+1)
			return 0
		}
		out.Pages = append(out.Pages, od.doc.Pages[i])
	}
	return f.register(out)
}

func (f *Fake) SavePDF(doc native.Document, path *byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	od := f.lookup(doc)
	if od == nil {
		return
	}
	if !od.doc.PDF {
		f.fail(CodeGeneric, "not a PDF document")
		return
	}
	f.Saved[gostr(path)] = od.doc.clone()
}

func (f *Fake) LoadPage(doc native.Document, number int) native.Page {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Loads = append(f.Loads, number)
	od := f.lookup(doc)
	if od == nil {
		return 0
	}
	if number < 0 || number >= len(od.doc.Pages) {
		f.fail(CodeArgument, "invalid page number: %d", number+1)
		return 0
	}
	if od.doc.BadPages[number] {
		f.fail(CodeFormat, "cannot load page %d", number+1)
		return 0
	}
	h := native.Page(f.handle())
	f.pages[h] = od.doc.Pages[number]
	return h
}

func (f *Fake) BoundPage(page native.Page) domain.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.pages[page]
	if !ok {
		f.fail(CodeArgument, "invalid page handle %d", page)
		return domain.Rect{}
	}
	return r
}

func (f *Fake) DropPage(page native.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PageDrops[page]++
	if _, ok := f.pages[page]; !ok {
		f.BadDrops++
		return
	}
	delete(f.pages, page)
}

func (f *Fake) TakeError() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	code, msg := f.code, f.msg
	f.code, f.msg = 0, ""
	return code, msg
}

func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ContextClosed = true
}
