package tablestate

import (
	"maps"
	"strconv"
)

// Query parameter names.
const (
	ParamPage    = "page"
	ParamLimit   = "limit"
	ParamSortBy  = "sortBy"
	ParamSortDir = "sortDir"
	ParamSearch  = "search"
)

// SortDirection is the direction of the single active sort column.
type SortDirection int

const (
	// Ascending is the default direction.
	Ascending SortDirection = iota
	// Descending sorts from largest to smallest.
	Descending
)

// String returns the URL form of the direction.
func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseSortDirection parses the URL form. Anything other than "desc" is
// treated as ascending.
func ParseSortDirection(s string) SortDirection {
	if s == "desc" {
		return Descending
	}
	return Ascending
}

// TableState is the canonical table state derived from the URL.
type TableState struct {
	// PageIndex is 0-based; the URL carries PageIndex+1.
	PageIndex int

	// PageSize is always one of the codec's allowed sizes.
	PageSize int

	// SortColumn is empty when the table is unsorted.
	SortColumn string

	// SortDir is only meaningful when SortColumn is set.
	SortDir SortDirection

	// Search is the free-text filter; empty means absent.
	Search string

	// Filters maps registered filter keys to their values. Keys with empty
	// values are never present.
	Filters map[string]string
}

// Sorted reports whether a sort column is active.
func (s TableState) Sorted() bool {
	return s.SortColumn != ""
}

// Filter returns the value of a filter key, or "" when unconstrained.
func (s TableState) Filter(key string) string {
	return s.Filters[key]
}

// Clone returns a deep copy of the state.
func (s TableState) Clone() TableState {
	c := s
	if s.Filters != nil {
		c.Filters = maps.Clone(s.Filters)
	}
	return c
}

// Equal reports whether two states describe the same table view. A nil and an
// empty Filters map are equal, and SortDir is ignored while unsorted.
func (s TableState) Equal(o TableState) bool {
	if s.PageIndex != o.PageIndex || s.PageSize != o.PageSize || s.Search != o.Search {
		return false
	}
	if s.SortColumn != o.SortColumn {
		return false
	}
	if s.Sorted() && s.SortDir != o.SortDir {
		return false
	}
	if len(s.Filters) != len(o.Filters) {
		return false
	}
	for k, v := range s.Filters {
		if ov, ok := o.Filters[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Patch returns the full patch that writes this state into a query string.
// Filter keys listed in clear but absent from the state are written as
// deletions so stale values are removed.
func (s TableState) Patch(clear ...string) Patch {
	p := Patch{
		ParamPage:   strconv.Itoa(s.PageIndex + 1),
		ParamLimit:  strconv.Itoa(s.PageSize),
		ParamSearch: s.Search,
	}
	if s.Sorted() {
		p[ParamSortBy] = s.SortColumn
		p[ParamSortDir] = s.SortDir.String()
	} else {
		p[ParamSortBy] = ""
		p[ParamSortDir] = ""
	}
	for _, k := range clear {
		p[k] = ""
	}
	for k, v := range s.Filters {
		p[k] = v
	}
	return p
}
