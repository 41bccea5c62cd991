//go:build integration && purego

package mudoc_test

import (
	"testing"

	"github.com/gen2brain/go-fitz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/mudoc/pkg/mudoc"
)

// TestEngine_MatchesFitz cross-checks the shim against go-fitz, which drives
// its own copy of MuPDF.
func TestEngine_MatchesFitz(t *testing.T) {
	ctx := engine(t)

	ref, err := fitz.New(dummyPDF)
	if err != nil {
		t.Skipf("go-fitz unavailable: %v", err)
	}
	defer ref.Close()

	doc, err := ctx.Open(dummyPDF)
	require.NoError(t, err)
	defer doc.Close()

	count, err := doc.PageCount()
	require.NoError(t, err)
	require.Equal(t, ref.NumPage(), count)

	for i := range count {
		want, err := ref.Bound(i)
		require.NoError(t, err)

		page, err := doc.LoadPage(i)
		require.NoError(t, err)
		got, err := page.Bounds()
		page.Close()
		require.NoError(t, err)

		assert.Equal(t, want.Dx(), int(got.Width()), "page %d width", i)
		assert.Equal(t, want.Dy(), int(got.Height()), "page %d height", i)
	}

	meta := ref.Metadata()
	for name, key := range map[mudoc.MetadataName]string{
		mudoc.Format:       "format",
		mudoc.Encryption:   "encryption",
		mudoc.Author:       "author",
		mudoc.Title:        "title",
		mudoc.Producer:     "producer",
		mudoc.Creator:      "creator",
		mudoc.CreationDate: "creationDate",
		mudoc.ModDate:      "modDate",
		mudoc.Subject:      "subject",
		mudoc.Keywords:     "keywords",
	} {
		got, err := doc.Metadata(name)
		require.NoError(t, err)
		assert.Equal(t, meta[key], got, name.String())
	}
}
