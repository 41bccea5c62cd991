package mudoc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/mudoc/internal/native/nativetest"
	"github.com/spherical/mudoc/pkg/mudoc"
)

func openThreePages(t *testing.T, bad map[int]bool) (*nativetest.Fake, *mudoc.Document) {
	t.Helper()
	fake, ctx := newEngine(t)
	fake.Files["three.pdf"] = &nativetest.Doc{
		Pages: []mudoc.Rect{
			nativetest.A4,
			{X1: 612, Y1: 792},
			{X1: 420, Y1: 595},
		},
		PDF:      true,
		BadPages: bad,
	}
	doc, err := ctx.Open("three.pdf")
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return fake, doc
}

func collect(t *testing.T, it *mudoc.PageIter) []mudoc.Rect {
	t.Helper()
	var out []mudoc.Rect
	for {
		page, ok, err := it.Next()
		if !ok {
			return out
		}
		require.NoError(t, err)
		b, err := page.Bounds()
		require.NoError(t, err)
		require.NoError(t, page.Close())
		out = append(out, b)
	}
}

func TestPages_SinglePage(t *testing.T) {
	_, doc := openDummy(t)

	it, err := doc.Pages()
	require.NoError(t, err)
	assert.Equal(t, 1, it.Len())

	assert.Equal(t, []mudoc.Rect{nativetest.A4}, collect(t, it))
	assert.Zero(t, it.Len())
}

func TestPages_ExhaustedStaysExhausted(t *testing.T) {
	_, doc := openDummy(t)

	it, err := doc.Pages()
	require.NoError(t, err)
	collect(t, it)

	for range 3 {
		page, ok, err := it.Next()
		assert.Nil(t, page)
		assert.False(t, ok)
		assert.NoError(t, err)
	}
}

func TestPages_Restart(t *testing.T) {
	_, doc := openThreePages(t, nil)

	first, err := doc.Pages()
	require.NoError(t, err)
	want := collect(t, first)
	require.Len(t, want, 3)

	second, err := doc.Pages()
	require.NoError(t, err)
	assert.Equal(t, want, collect(t, second))
}

func TestPages_Independent(t *testing.T) {
	_, doc := openThreePages(t, nil)

	a, err := doc.Pages()
	require.NoError(t, err)
	b, err := doc.Pages()
	require.NoError(t, err)

	p, ok, err := a.Next()
	require.True(t, ok)
	require.NoError(t, err)
	p.Close()

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 3, b.Len())
}

func TestPages_Lazy(t *testing.T) {
	fake, doc := openThreePages(t, nil)

	it, err := doc.Pages()
	require.NoError(t, err)
	assert.Empty(t, fake.Loads)

	p, _, err := it.Next()
	require.NoError(t, err)
	p.Close()
	assert.Equal(t, []int{0}, fake.Loads)
}

func TestPages_ContinuesAfterFailure(t *testing.T) {
	_, doc := openThreePages(t, map[int]bool{1: true})

	it, err := doc.Pages()
	require.NoError(t, err)

	var got []int
	var failed []int
	for page, err := range it.Seq() {
		if err != nil {
			assert.ErrorIs(t, err, mudoc.ErrEngine)
			failed = append(failed, 3-it.Len()-1)
			continue
		}
		got = append(got, page.Number())
		page.Close()
	}

	assert.Equal(t, []int{0, 2}, got)
	assert.Equal(t, []int{1}, failed)
}

func TestPages_SnapshotCount(t *testing.T) {
	fake, ctx := newEngine(t)
	fake.Files["book.epub"] = &nativetest.Doc{
		Pages:      []mudoc.Rect{nativetest.A4, nativetest.A4},
		Reflowable: true,
	}
	doc, err := ctx.Open("book.epub")
	require.NoError(t, err)
	defer doc.Close()

	it, err := doc.Pages()
	require.NoError(t, err)
	require.NoError(t, doc.Layout(300, 400, 12))

	assert.Equal(t, 2, it.Len())
	assert.Len(t, collect(t, it), 2)

	after, err := doc.Pages()
	require.NoError(t, err)
	assert.Equal(t, 4, after.Len())
}

func TestPages_SourceClosedMidway(t *testing.T) {
	_, doc := openThreePages(t, nil)

	it, err := doc.Pages()
	require.NoError(t, err)

	p, ok, err := it.Next()
	require.True(t, ok)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, doc.Close())

	for range 2 {
		page, ok, err := it.Next()
		assert.True(t, ok)
		assert.Nil(t, page)
		assert.ErrorIs(t, err, mudoc.ErrClosed)
	}
	_, ok, _ = it.Next()
	assert.False(t, ok)
}

func TestAll(t *testing.T) {
	fake, doc := openThreePages(t, nil)

	for range 2 {
		var numbers []int
		for page, err := range doc.All() {
			require.NoError(t, err)
			numbers = append(numbers, page.Number())
			page.Close()
		}
		assert.Equal(t, []int{0, 1, 2}, numbers)
	}

	_, pages := fake.Live()
	assert.Zero(t, pages)
}

func TestAll_Break(t *testing.T) {
	fake, doc := openThreePages(t, nil)

	for page, err := range doc.All() {
		require.NoError(t, err)
		page.Close()
		break
	}
	assert.Equal(t, []int{0}, fake.Loads)
}

func TestAll_CountFailure(t *testing.T) {
	fake, ctx := newEngine(t)
	fake.Files["corrupt.pdf"] = &nativetest.Doc{Corrupt: true}
	doc, err := ctx.Open("corrupt.pdf")
	require.NoError(t, err)
	defer doc.Close()

	var errs []error
	for page, err := range doc.All() {
		assert.Nil(t, page)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], mudoc.ErrEngine)
}
