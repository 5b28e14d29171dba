package datasource

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/clinicdesk/console/pkg/tablestate"
)

// Field reads a named column from a row as a string. It returns false when
// the row has no such column.
type Field[R any] func(row R, column string) (string, bool)

// Static serves pages from an in-memory slice. It applies search, filters,
// sorting and pagination the way the backend does and is meant for demos
// and tests.
type Static[R any] struct {
	rows       []R
	field      Field[R]
	searchCols []string
	wildcards  map[string]string
}

// NewStatic creates a static source. Search matches case-insensitively
// against searchCols.
func NewStatic[R any](rows []R, field Field[R], searchCols ...string) *Static[R] {
	return &Static[R]{
		rows:       rows,
		field:      field,
		searchCols: searchCols,
		wildcards:  map[string]string{"status": "all"},
	}
}

// FetchPage implements Source.
func (s *Static[R]) FetchPage(ctx context.Context, st tablestate.TableState) (Page[R], error) {
	if err := ctx.Err(); err != nil {
		return Page[R]{}, err
	}

	matched := make([]R, 0, len(s.rows))
	for _, row := range s.rows {
		if s.matches(row, st) {
			matched = append(matched, row)
		}
	}

	if st.Sorted() {
		slices.SortStableFunc(matched, func(a, b R) int {
			av, _ := s.field(a, st.SortColumn)
			bv, _ := s.field(b, st.SortColumn)
			c := cmp.Compare(strings.ToLower(av), strings.ToLower(bv))
			if st.SortDir == tablestate.Descending {
				c = -c
			}
			return c
		})
	}

	total := len(matched)
	start, end := tablestate.RowRange(st.PageIndex, st.PageSize, total)
	if start < 1 || start > end {
		return Page[R]{Rows: []R{}, Total: total}, nil
	}
	return Page[R]{Rows: slices.Clone(matched[start-1 : end]), Total: total}, nil
}

func (s *Static[R]) matches(row R, st tablestate.TableState) bool {
	for key, want := range st.Filters {
		if want == "" || s.wildcards[key] == want {
			continue
		}
		got, ok := s.field(row, key)
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	if st.Search == "" {
		return true
	}
	needle := strings.ToLower(st.Search)
	for _, col := range s.searchCols {
		if v, ok := s.field(row, col); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
