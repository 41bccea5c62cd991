package mudoc

import "github.com/spherical/mudoc/internal/domain"

// Re-export error and value types for the public API
type (
	Error        = domain.DomainError
	ErrorType    = domain.ErrorType
	Rect         = domain.Rect
	DocumentInfo = domain.DocumentInfo
)

// Error type constants
const (
	ErrorTypeInvalidInput = domain.ErrorTypeInvalidInput
	ErrorTypeEngine       = domain.ErrorTypeEngine
	ErrorTypeClosed       = domain.ErrorTypeClosed
	ErrorTypeIO           = domain.ErrorTypeIO
)

// Sentinels matched with errors.Is.
var (
	// ErrInvalidInput: a string argument cannot be passed to the engine.
	ErrInvalidInput = domain.ErrInvalidInput
	// ErrEngine: the engine reported a failure.
	ErrEngine = domain.ErrEngine
	// ErrClosed: the handle or its context was closed.
	ErrClosed = domain.ErrClosed
)
