package tablectl

import "github.com/clinicdesk/console/pkg/tablestate"

// SortCycle decides the next sort when a column header is clicked.
type SortCycle int

const (
	// SortCycleTriState cycles ascending, descending, unsorted.
	SortCycleTriState SortCycle = iota
	// SortCycleToggle flips between ascending and descending.
	SortCycleToggle
)

// ParseSortCycle maps "tristate" and "toggle" to a cycle.
func ParseSortCycle(s string) (SortCycle, bool) {
	switch s {
	case "tristate", "tri-state", "":
		return SortCycleTriState, true
	case "toggle":
		return SortCycleToggle, true
	}
	return SortCycleTriState, false
}

func (c SortCycle) String() string {
	if c == SortCycleToggle {
		return "toggle"
	}
	return "tristate"
}

// next returns the sort after clicking col. A different column always
// starts ascending.
func (c SortCycle) next(st tablestate.TableState, col string) (string, tablestate.SortDirection) {
	if st.SortColumn != col {
		return col, tablestate.Ascending
	}
	if st.SortDir == tablestate.Ascending {
		return col, tablestate.Descending
	}
	if c == SortCycleToggle {
		return col, tablestate.Ascending
	}
	return "", tablestate.Ascending
}
