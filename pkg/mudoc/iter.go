package mudoc

import "iter"

// PageIter loads pages in order, one per Next call. The page count is fixed
// when the iterator is created; a Layout call afterwards is not observed.
//
// A failed load does not end the iteration: the next call moves on to the
// following page.
type PageIter struct {
	doc   *Document
	index int
	total int
}

// Next loads the next page. ok is false once every page has been produced.
// The caller owns the returned page.
func (it *PageIter) Next() (page *Page, ok bool, err error) {
	if it.index >= it.total {
		return nil, false, nil
	}
	n := it.index
	it.index++
	page, err = it.doc.LoadPage(n)
	return page, true, err
}

// Len returns the number of pages not yet produced.
func (it *PageIter) Len() int {
	return it.total - it.index
}

// Seq adapts the iterator to a range-over-func sequence. It continues from
// the iterator's current position.
func (it *PageIter) Seq() iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		for {
			page, ok, err := it.Next()
			if !ok {
				return
			}
			if !yield(page, err) {
				return
			}
		}
	}
}
