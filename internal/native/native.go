// Package native is the boundary to the MuPDF engine.
//
// Every entry point of the engine shim reports failure the same way: it
// returns a zero/sentinel value and records a code and message in the error
// slot of its execution context. Callers never touch a Binding directly; they
// go through Context, which serializes access and turns a recorded failure
// into a typed error.
package native

import "github.com/spherical/mudoc/internal/domain"

// Opaque engine handles. Zero is never a valid handle.
type (
	Document uintptr
	Page     uintptr
	Buffer   uintptr
)

// DefaultStoreSize matches FZ_STORE_DEFAULT.
const DefaultStoreSize = 256 << 20

// Options configures the engine context.
type Options struct {
	// Library is the shared shim library loaded by the purego backend.
	// Ignored by the cgo backend, which links the shim statically.
	Library string
	// StoreSize is the resource store limit in bytes.
	StoreSize uint
}

// Binding is the raw entry-point table of the engine shim.
//
// Methods that can fail leave their diagnostic in the error slot, which
// TakeError reads and clears. Strings are NUL-terminated byte pointers
// produced by CString.
type Binding interface {
	OpenDocument(path *byte) Document
	OpenDocumentFromBuffer(buf Buffer, magic *byte) Document
	RecognizeDocument(magic *byte) bool
	DropDocument(doc Document)

	NewBuffer(capacity int) Buffer
	AppendBuffer(buf Buffer, data []byte)
	DropBuffer(buf Buffer)

	NeedsPassword(doc Document) bool
	AuthenticatePassword(doc Document, password *byte) bool
	CountPages(doc Document) int
	// LookupMetadata copies the value for key into buf and returns the size
	// needed to hold it including the terminator, or -1 when the key is unknown.
	LookupMetadata(doc Document, key *byte, buf []byte) int
	// ResolveLink returns the target page number, negative when unresolved.
	ResolveLink(doc Document, uri *byte) int
	IsReflowable(doc Document) bool
	// PDFSpecifics reports whether doc is backed by a PDF document. It cannot fail.
	PDFSpecifics(doc Document) bool
	LayoutDocument(doc Document, width, height, em float32)
	ConvertToPDF(doc Document, start, end, rotate int) Document
	SavePDF(doc Document, path *byte)

	LoadPage(doc Document, number int) Page
	BoundPage(page Page) domain.Rect
	DropPage(page Page)

	// TakeError returns the code and message recorded by the last failing
	// call and clears the slot. code is zero when no failure is pending.
	TakeError() (code int, message string)
	// Close drops the engine context.
	Close()
}
