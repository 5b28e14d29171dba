package tablectl

import (
	"net/url"

	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/tablestate"
)

// Status is the state of the most recent fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSucceeded
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusSucceeded:
		return "succeeded"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// Snapshot is a consistent copy of what the table should show.
type Snapshot[R any] struct {
	State  tablestate.TableState
	Query  url.Values
	Status Status

	// Page is the last successfully fetched page. It survives failures and
	// is only replaced by a newer success.
	Page    datasource.Page[R]
	HasPage bool
	Err     error

	// SearchInput is the text in the search box, which leads State.Search
	// while the debounce is pending.
	SearchInput   string
	SearchPending bool

	PageCount int
	StartRow  int
	EndRow    int
}

// Loading reports whether a fetch is in flight.
func (s Snapshot[R]) Loading() bool {
	return s.Status == StatusFetching
}

// Empty reports whether the last page had no rows.
func (s Snapshot[R]) Empty() bool {
	return s.HasPage && len(s.Page.Rows) == 0
}

// CanPrev reports whether a previous page exists.
func (s Snapshot[R]) CanPrev() bool {
	return s.State.PageIndex > 0
}

// CanNext reports whether a next page exists.
func (s Snapshot[R]) CanNext() bool {
	return s.State.PageIndex+1 < s.PageCount
}

// Pending is the snapshot of a table whose first fetch for query has not
// finished. Pages render it before a live controller takes over.
func Pending[R any](codec *tablestate.Codec, query url.Values) Snapshot[R] {
	st := codec.Decode(query)
	return Snapshot[R]{
		State:       st,
		Query:       tablestate.Merge(query, nil),
		Status:      StatusFetching,
		SearchInput: st.Search,
	}
}
