package domain

import "context"

// Catalog persists inspection results
type Catalog interface {
	// Save inserts or replaces the record for info.Path
	Save(ctx context.Context, info *DocumentInfo) error

	// GetByPath returns the record stored for path
	GetByPath(ctx context.Context, path string) (*DocumentInfo, error)

	// List returns all records ordered by path
	List(ctx context.Context) ([]*DocumentInfo, error)
}
