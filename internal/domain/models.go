package domain

import "time"

// Rect is an axis-aligned rectangle in page space (points).
type Rect struct {
	X0 float32 `json:"x0"`
	Y0 float32 `json:"y0"`
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool {
	return r.X0 >= r.X1 || r.Y0 >= r.Y1
}

// DocumentInfo summarizes an opened document
type DocumentInfo struct {
	// ID is assigned when the record is first saved to a catalog.
	ID            string            `json:"id,omitempty"`
	Path          string            `json:"path"`
	PageCount     int               `json:"page_count"`
	NeedsPassword bool              `json:"needs_password"`
	Reflowable    bool              `json:"reflowable"`
	IsPDF         bool              `json:"is_pdf"`
	Metadata      map[string]string `json:"metadata"`
	FirstPage     *Rect             `json:"first_page,omitempty"`
	InspectedAt   time.Time         `json:"inspected_at"`
}

// Meta returns a metadata value, or "" when the document does not set it.
func (i *DocumentInfo) Meta(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart            EventType = "start"
	EventDocumentStart    EventType = "document_start"
	EventDocumentComplete EventType = "document_complete"
	EventDocumentSkipped  EventType = "document_skipped"
	EventError            EventType = "error"
	EventComplete         EventType = "complete"
)

// StreamEvent represents an event emitted while indexing
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Path      string      `json:"path,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// IndexStats summarizes one indexing run
type IndexStats struct {
	TotalTime time.Duration
	Indexed   int
	Skipped   int
	Failed    int
	Errors    []error
}
