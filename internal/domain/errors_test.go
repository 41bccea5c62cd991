package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "engine matches engine sentinel",
			err:    EngineError("open", 2, "cannot recognize document"),
			target: ErrEngine,
			want:   true,
		},
		{
			name:   "invalid input matches invalid input sentinel",
			err:    InvalidInputError("path contains NUL", nil),
			target: ErrInvalidInput,
			want:   true,
		},
		{
			name:   "engine does not match closed sentinel",
			err:    EngineError("open", 2, "boom"),
			target: ErrClosed,
			want:   false,
		},
		{
			name:   "wrapped closed error matches",
			err:    fmt.Errorf("load page: %w", ClosedError("document")),
			target: ErrClosed,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineError_Message(t *testing.T) {
	err := EngineError("fz_load_page", 7, "invalid page number: 12")
	msg := err.Error()

	if !strings.Contains(msg, "[engine]") {
		t.Errorf("Expected type prefix in %q", msg)
	}
	if !strings.Contains(msg, "fz_load_page: invalid page number: 12") {
		t.Errorf("Expected op and diagnostic in %q", msg)
	}
	if !strings.Contains(msg, "code 7") {
		t.Errorf("Expected code in %q", msg)
	}

	empty := EngineError("fz_open_document", 1, "")
	if !strings.Contains(empty.Error(), "unknown engine error") {
		t.Errorf("Expected fallback message, got %q", empty.Error())
	}
}

func TestIsType(t *testing.T) {
	cause := errors.New("permission denied")
	err := fmt.Errorf("read input: %w", IOError("read document", cause))

	if !IsType(err, ErrorTypeIO) {
		t.Error("Expected wrapped IO error to report ErrorTypeIO")
	}
	if IsType(err, ErrorTypeEngine) {
		t.Error("IO error must not report ErrorTypeEngine")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
	if IsType(cause, ErrorTypeIO) {
		t.Error("Plain error must not report a domain type")
	}
}

func TestRect(t *testing.T) {
	r := Rect{X0: 0, Y0: 0, X1: 595, Y1: 842}
	if r.Width() != 595 || r.Height() != 842 {
		t.Errorf("Unexpected size %vx%v", r.Width(), r.Height())
	}
	if r.IsEmpty() {
		t.Error("A4 rect must not be empty")
	}
	if !(Rect{X0: 10, X1: 10, Y1: 5}).IsEmpty() {
		t.Error("Zero-width rect must be empty")
	}
}

func TestDocumentInfo_Meta(t *testing.T) {
	var info DocumentInfo
	if got := info.Meta("author"); got != "" {
		t.Errorf("Expected empty value on nil map, got %q", got)
	}
	info.Metadata = map[string]string{"author": "Evangelos Vlachogiannis"}
	if got := info.Meta("author"); got != "Evangelos Vlachogiannis" {
		t.Errorf("Meta(author) = %q", got)
	}
}
