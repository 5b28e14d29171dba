// Package view turns a table snapshot into a display model and renders it
// as HTML. Every interactive element carries data-intent attributes which
// the browser client forwards to the server unchanged.
package view

import (
	"strconv"

	"golang.org/x/text/message"

	"github.com/clinicdesk/console/pkg/tablectl"
	"github.com/clinicdesk/console/pkg/tablestate"
)

// Sort indicators.
const (
	IndicatorAsc  = "↑"
	IndicatorDesc = "↓"
	IndicatorNone = "↕"
)

// Column describes one table column. Header is a message key.
type Column[R any] struct {
	Key      string
	Header   string
	Sortable bool
	Cell     func(p *message.Printer, row R) string
}

// Filter describes a select in the toolbar. Labels are message keys.
type Filter struct {
	Key     string
	Label   string
	Options []FilterOption
}

// FilterOption is one choice of a Filter.
type FilterOption struct {
	Value string
	Label string
}

// Table is the static definition of a table.
type Table[R any] struct {
	ID        string
	Columns   []Column[R]
	Filters   []Filter
	PageSizes []int
}

// HeaderCell is a rendered column header.
type HeaderCell struct {
	Column    string
	Label     string
	Sortable  bool
	Indicator string
	AriaSort  string
}

// PageLink is one entry of the page window.
type PageLink struct {
	Index   int
	Label   string
	Current bool
	Gap     bool
}

// Control is a first/previous/next/last button.
type Control struct {
	Label    string
	Page     int
	Disabled bool
}

// Option is a select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Select is a labelled select box.
type Select struct {
	Key     string
	Label   string
	Options []Option
}

// Model is everything the renderer needs. It holds no behaviour.
type Model struct {
	ID      string
	Headers []HeaderCell
	Rows    [][]string

	Loading bool
	Empty   bool
	Failed  bool
	Notice  string
	Retry   string

	Summary     Summary
	SummaryText string
	PageOfText  string
	Pages       []PageLink
	First       Control
	Prev        Control
	Next        Control
	Last        Control

	PageSizeLabel string
	PageSizes     []Option

	Search            string
	SearchPlaceholder string
	Filters           []Select
}

// NewModel builds the display model for snap.
func NewModel[R any](t Table[R], snap tablectl.Snapshot[R], p *message.Printer) Model {
	st := snap.State
	total := 0
	if snap.HasPage {
		total = snap.Page.Total
	}
	sum := Summarize(st.PageIndex, st.PageSize, total)

	m := Model{
		ID:                t.ID,
		Summary:           sum,
		SummaryText:       p.Sprintf("table.summary", sum.Start, sum.End, sum.Total),
		PageOfText:        p.Sprintf("table.page_of", sum.PageIndex+1, sum.PageCount),
		PageSizeLabel:     p.Sprintf("table.rows_per_page"),
		Search:            snap.SearchInput,
		SearchPlaceholder: p.Sprintf("search.placeholder"),
		Retry:             p.Sprintf("table.retry"),
	}

	for _, col := range t.Columns {
		m.Headers = append(m.Headers, header(col.Key, p.Sprintf(col.Header), col.Sortable, st))
	}

	m.Loading = snap.Loading() || (snap.Status == tablectl.StatusIdle && !snap.HasPage)
	m.Failed = snap.Status == tablectl.StatusFailed
	if !m.Loading && snap.HasPage {
		m.Rows = make([][]string, 0, len(snap.Page.Rows))
		for _, row := range snap.Page.Rows {
			cells := make([]string, len(t.Columns))
			for i, col := range t.Columns {
				if col.Cell != nil {
					cells[i] = col.Cell(p, row)
				}
			}
			m.Rows = append(m.Rows, cells)
		}
	}
	m.Empty = !m.Loading && len(m.Rows) == 0

	switch {
	case m.Loading:
		m.Notice = p.Sprintf("table.loading")
	case m.Failed:
		m.Notice = p.Sprintf("table.failed")
	case m.Empty:
		m.Notice = p.Sprintf("table.empty")
	}

	for _, idx := range PageWindow(sum.PageCount, sum.PageIndex) {
		if idx == Gap {
			m.Pages = append(m.Pages, PageLink{Index: Gap, Label: "…", Gap: true})
			continue
		}
		m.Pages = append(m.Pages, PageLink{
			Index:   idx,
			Label:   strconv.Itoa(idx + 1),
			Current: idx == sum.PageIndex,
		})
	}
	m.First = Control{Label: p.Sprintf("pager.first"), Page: 0, Disabled: !sum.CanPrev}
	m.Prev = Control{Label: p.Sprintf("pager.prev"), Page: max(sum.PageIndex-1, 0), Disabled: !sum.CanPrev}
	m.Next = Control{Label: p.Sprintf("pager.next"), Page: sum.PageIndex + 1, Disabled: !sum.CanNext}
	m.Last = Control{Label: p.Sprintf("pager.last"), Page: sum.PageCount - 1, Disabled: !sum.CanNext}

	sizes := t.PageSizes
	if len(sizes) == 0 {
		sizes = tablestate.DefaultPageSizes
	}
	for _, n := range sizes {
		v := strconv.Itoa(n)
		m.PageSizes = append(m.PageSizes, Option{Value: v, Label: v, Selected: n == st.PageSize})
	}

	for _, f := range t.Filters {
		current := st.Filter(f.Key)
		sel := Select{Key: f.Key, Label: p.Sprintf(f.Label)}
		sel.Options = append(sel.Options, Option{Value: "", Label: p.Sprintf(f.Label), Selected: current == ""})
		for _, o := range f.Options {
			sel.Options = append(sel.Options, Option{
				Value:    o.Value,
				Label:    p.Sprintf(o.Label),
				Selected: current != "" && current == o.Value,
			})
		}
		m.Filters = append(m.Filters, sel)
	}
	return m
}

func header(key, label string, sortable bool, st tablestate.TableState) HeaderCell {
	h := HeaderCell{Column: key, Label: label, Sortable: sortable}
	if !sortable {
		return h
	}
	h.Indicator, h.AriaSort = IndicatorNone, "none"
	if st.SortColumn == key {
		if st.SortDir == tablestate.Descending {
			h.Indicator, h.AriaSort = IndicatorDesc, "descending"
		} else {
			h.Indicator, h.AriaSort = IndicatorAsc, "ascending"
		}
	}
	return h
}
