//go:build integration

package mudoc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/pkg/mudoc"
)

const dummyPDF = "testdata/dummy.pdf"

// engine opens a real MuPDF context, skipping when the shim library cannot
// be loaded on this machine.
func engine(t *testing.T) *mudoc.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping engine test in short mode")
	}
	ctx, err := mudoc.NewContext(mudoc.Options{Library: os.Getenv("MUDOC_LIBRARY")})
	if domain.IsType(err, domain.ErrorTypeConfig) {
		t.Skipf("engine not available: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(ctx.Close)
	return ctx
}

func TestEngine_DummyPDF(t *testing.T) {
	ctx := engine(t)

	doc, err := ctx.Open(dummyPDF)
	require.NoError(t, err)
	defer doc.Close()

	count, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, doc.IsPDF())

	page, err := doc.LoadPage(0)
	require.NoError(t, err)
	defer page.Close()
	bounds, err := page.Bounds()
	require.NoError(t, err)
	assert.Equal(t, mudoc.Rect{X0: 0, Y0: 0, X1: 595, Y1: 842}, bounds)

	n := 0
	for p, err := range doc.All() {
		require.NoError(t, err)
		b, err := p.Bounds()
		require.NoError(t, err)
		assert.Equal(t, bounds, b)
		p.Close()
		n++
	}
	assert.Equal(t, 1, n)
}

func TestEngine_Metadata(t *testing.T) {
	ctx := engine(t)

	doc, err := ctx.Open(dummyPDF)
	require.NoError(t, err)
	defer doc.Close()

	want := map[mudoc.MetadataName]string{
		mudoc.Format:       "PDF 1.4",
		mudoc.Encryption:   "None",
		mudoc.Author:       "Evangelos Vlachogiannis",
		mudoc.Producer:     "OpenOffice.org 2.1",
		mudoc.Creator:      "Writer",
		mudoc.CreationDate: "D:20070223175637+02'00'",
	}
	for _, name := range mudoc.MetadataNames() {
		got, err := doc.Metadata(name)
		require.NoError(t, err, name.String())
		assert.Equal(t, want[name], got, name.String())
	}
}

func TestEngine_FromBytes(t *testing.T) {
	ctx := engine(t)
	data, err := os.ReadFile(dummyPDF)
	require.NoError(t, err)

	doc, err := ctx.FromBytes(data, "application/pdf")
	require.NoError(t, err)
	defer doc.Close()

	count, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = ctx.FromBytes([]byte("definitely not a pdf"), "application/pdf")
	assert.ErrorIs(t, err, mudoc.ErrEngine)
}

func TestEngine_Recognize(t *testing.T) {
	ctx := engine(t)

	tests := []struct {
		magic string
		want  bool
	}{
		{"application/pdf", true},
		{"test.pdf", true},
		{"test.doc", false},
		{"text/html", false},
		{"application/x-not-a-document", false},
	}

	for _, tt := range tests {
		t.Run(tt.magic, func(t *testing.T) {
			ok, err := ctx.Recognize(tt.magic)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestEngine_Errors(t *testing.T) {
	ctx := engine(t)

	_, err := ctx.Open("testdata/missing.pdf")
	assert.ErrorIs(t, err, mudoc.ErrEngine)

	doc, err := ctx.Open(dummyPDF)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.LoadPage(5)
	assert.ErrorIs(t, err, mudoc.ErrEngine)

	ok, err := doc.Authenticate("whatever")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_ConvertAndSave(t *testing.T) {
	ctx := engine(t)

	doc, err := ctx.Open(dummyPDF)
	require.NoError(t, err)
	defer doc.Close()

	out, err := doc.ConvertToPDF(0, -1, 90)
	require.NoError(t, err)
	defer out.Close()

	count, err := out.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Clamped start on a one-page document converts the only page.
	again, err := doc.ConvertToPDF(5, 5, 0)
	require.NoError(t, err)
	again.Close()

	path := filepath.Join(t.TempDir(), "rotated.pdf")
	require.NoError(t, out.Save(path))

	saved, err := ctx.Open(path)
	require.NoError(t, err)
	defer saved.Close()
	page, err := saved.LoadPage(0)
	require.NoError(t, err)
	defer page.Close()
	bounds, err := page.Bounds()
	require.NoError(t, err)
	assert.InDelta(t, 842, bounds.Width(), 0.5)
	assert.InDelta(t, 595, bounds.Height(), 0.5)
}
