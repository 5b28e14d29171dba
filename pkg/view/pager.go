package view

import "github.com/clinicdesk/console/pkg/tablestate"

// Gap marks elided pages in a page window.
const Gap = -1

// maxFullWindow is the largest page count shown without gaps.
const maxFullWindow = 7

// PageWindow returns the 0-based page indices to offer as buttons. Up to
// seven pages are all shown; beyond that the first, the last and the pages
// around current are shown, with Gap wherever indices are skipped.
func PageWindow(pageCount, current int) []int {
	if pageCount <= 0 {
		return nil
	}
	if pageCount <= maxFullWindow {
		out := make([]int, pageCount)
		for i := range out {
			out[i] = i
		}
		return out
	}

	picked := []int{0}
	for _, p := range []int{current - 1, current, current + 1} {
		if p > 0 && p < pageCount-1 {
			picked = append(picked, p)
		}
	}
	picked = append(picked, pageCount-1)

	out := make([]int, 0, len(picked)+2)
	for i, p := range picked {
		if i > 0 && p-picked[i-1] > 1 {
			out = append(out, Gap)
		}
		out = append(out, p)
	}
	return out
}

// Summary is the pager footer state.
type Summary struct {
	PageIndex int
	PageCount int
	Start     int
	End       int
	Total     int
	CanPrev   bool
	CanNext   bool
}

// Summarize computes the footer for a page of a result set.
func Summarize(pageIndex, pageSize, total int) Summary {
	count := tablestate.PageCount(total, pageSize)
	start, end := tablestate.RowRange(pageIndex, pageSize, total)
	return Summary{
		PageIndex: pageIndex,
		PageCount: count,
		Start:     start,
		End:       end,
		Total:     total,
		CanPrev:   pageIndex > 0,
		CanNext:   pageIndex < count-1,
	}
}
