package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/mudoc/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleInfo(path string) *domain.DocumentInfo {
	return &domain.DocumentInfo{
		Path:      path,
		PageCount: 1,
		IsPDF:     true,
		Metadata: map[string]string{
			"format": "PDF 1.4",
			"author": "Evangelos Vlachogiannis",
		},
		FirstPage:   &domain.Rect{X1: 595, Y1: 842},
		InspectedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// storeContract runs the catalog behaviour shared by every driver.
func storeContract(t *testing.T, s *Store) {
	ctx := context.Background()

	info := sampleInfo("/docs/b.pdf")
	require.NoError(t, s.Save(ctx, info))
	_, err := uuid.Parse(info.ID)
	require.NoError(t, err, "id should be a uuid")

	got, err := s.GetByPath(ctx, "/docs/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
	assert.Equal(t, 1, got.PageCount)
	assert.True(t, got.IsPDF)
	assert.False(t, got.NeedsPassword)
	assert.Equal(t, info.Metadata, got.Metadata)
	require.NotNil(t, got.FirstPage)
	assert.Equal(t, *info.FirstPage, *got.FirstPage)
	assert.True(t, info.InspectedAt.Equal(got.InspectedAt), "inspected_at %v != %v", got.InspectedAt, info.InspectedAt)

	// Saving the same path again updates in place and keeps the id.
	firstID := info.ID
	info.PageCount = 7
	info.ID = ""
	require.NoError(t, s.Save(ctx, info))
	assert.Equal(t, firstID, info.ID)

	got, err = s.GetByPath(ctx, "/docs/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, 7, got.PageCount)

	locked := &domain.DocumentInfo{Path: "/docs/a.pdf", NeedsPassword: true}
	require.NoError(t, s.Save(ctx, locked))
	assert.False(t, locked.InspectedAt.IsZero())

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/docs/a.pdf", all[0].Path)
	assert.True(t, all[0].NeedsPassword)
	assert.Nil(t, all[0].FirstPage)
	assert.Equal(t, "/docs/b.pdf", all[1].Path)

	require.NoError(t, s.Delete(ctx, "/docs/a.pdf"))
	assert.ErrorIs(t, s.Delete(ctx, "/docs/a.pdf"), ErrNotFound)

	_, err = s.GetByPath(ctx, "/docs/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SQLite(t *testing.T) {
	storeContract(t, newTestStore(t))
}

func TestStore_SaveRequiresPath(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), &domain.DocumentInfo{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_EmptyList(t *testing.T) {
	s := newTestStore(t)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "mongodb://localhost", nil)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
