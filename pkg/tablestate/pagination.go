package tablestate

import "math"

// PageCount returns the number of pages for total rows at the given size.
// An empty result still has one page.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// MaxPageIndex is the largest page index whose rows can be numbered at
// pageSize without overflowing int.
func MaxPageIndex(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return math.MaxInt/pageSize - 1
}

// RowRange returns the 1-based first and last row shown on pageIndex. Both
// are zero when there are no rows or pageIndex is out of range.
func RowRange(pageIndex, pageSize, total int) (start, end int) {
	if total <= 0 || pageSize <= 0 || pageIndex < 0 || pageIndex > MaxPageIndex(pageSize) {
		return 0, 0
	}
	start = pageIndex*pageSize + 1
	end = min(total, (pageIndex+1)*pageSize)
	return start, end
}

// ClampPage bounds pageIndex to the pages that exist for total rows.
func ClampPage(pageIndex, pageSize, total int) int {
	last := PageCount(total, pageSize) - 1
	switch {
	case pageIndex < 0:
		return 0
	case pageIndex > last:
		return last
	}
	return pageIndex
}
