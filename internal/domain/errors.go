package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeEngine       ErrorType = "engine"
	ErrorTypeClosed       ErrorType = "closed"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeIO           ErrorType = "io"
)

// Sentinels for errors.Is. A DomainError matches the sentinel of its Type.
var (
	ErrInvalidInput = &DomainError{Type: ErrorTypeInvalidInput, Message: "invalid input"}
	ErrEngine       = &DomainError{Type: ErrorTypeEngine, Message: "engine failure"}
	ErrClosed       = &DomainError{Type: ErrorTypeClosed, Message: "handle is closed"}
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	// Code is the engine error code; zero for errors raised on the Go side.
	Code int
	Err  error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError of the same type.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidInputError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidInput, message, err)
}

// EngineError wraps a failure reported by the native engine. op names the
// entry point, message is the diagnostic read back from the engine context.
func EngineError(op string, code int, message string) *DomainError {
	if message == "" {
		message = "unknown engine error"
	}
	return &DomainError{
		Type:    ErrorTypeEngine,
		Message: fmt.Sprintf("%s: %s", op, message),
		Code:    code,
	}
}

func ClosedError(what string) *DomainError {
	return NewError(ErrorTypeClosed, what+" is closed", nil)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err is a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
