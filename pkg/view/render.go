package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Intent names understood by the live session.
const (
	IntentSort    = "sort"
	IntentPage    = "page"
	IntentSize    = "size"
	IntentFilter  = "filter"
	IntentSearch  = "search"
	IntentRefresh = "refresh"
)

// TableFragment renders the table with its pager. It is replaced wholesale
// on every update.
func TableFragment(m Model) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		renderTable(h, m)
		return h.err
	})
}

// Toolbar renders the search box and filter selects.
func Toolbar(m Model) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		renderToolbar(h, m)
		return h.err
	})
}

func renderToolbar(h *htmlWriter, m Model) {
	h.open("form", "class", "table-toolbar", "data-toolbar", m.ID, "role", "search")
	h.open("input",
		"type", "search",
		"name", "search",
		"value", m.Search,
		"placeholder", m.SearchPlaceholder,
		"aria-label", m.SearchPlaceholder,
		"autocomplete", "off",
		"data-intent", IntentSearch)
	for _, f := range m.Filters {
		h.open("select", "name", f.Key, "aria-label", f.Label, "data-intent", IntentFilter, "data-key", f.Key)
		for _, o := range f.Options {
			attrs := append([]string{"value", o.Value}, flag("selected", o.Selected)...)
			h.element("option", o.Label, attrs...)
		}
		h.close("select")
	}
	h.close("form")
}

func renderTable(h *htmlWriter, m Model) {
	busy := "false"
	if m.Loading {
		busy = "true"
	}
	h.open("div", "id", m.ID, "class", "data-table", "aria-busy", busy)

	if m.Failed {
		h.open("div", "class", "table-alert", "role", "alert")
		h.element("span", m.Notice)
		h.element("button", m.Retry, "type", "button", "data-intent", IntentRefresh)
		h.close("div")
	}

	h.open("table")
	h.open("thead")
	h.open("tr")
	for _, c := range m.Headers {
		if !c.Sortable {
			h.element("th", c.Label, "scope", "col")
			continue
		}
		h.open("th", "scope", "col", "aria-sort", c.AriaSort)
		h.open("button", "type", "button", "data-intent", IntentSort, "data-column", c.Column)
		h.text(c.Label)
		h.raw(" ")
		h.element("span", c.Indicator, "aria-hidden", "true")
		h.close("button")
		h.close("th")
	}
	h.close("tr")
	h.close("thead")

	h.open("tbody")
	switch {
	case len(m.Rows) > 0:
		for _, row := range m.Rows {
			h.open("tr")
			for _, cell := range row {
				h.element("td", cell)
			}
			h.close("tr")
		}
	default:
		h.open("tr")
		h.element("td", m.Notice, "colspan", strconv.Itoa(max(len(m.Headers), 1)), "class", "table-notice")
		h.close("tr")
	}
	h.close("tbody")
	h.close("table")

	renderFooter(h, m)
	h.close("div")
}

func renderFooter(h *htmlWriter, m Model) {
	h.open("div", "class", "table-footer")

	h.open("div", "class", "table-summary")
	h.element("span", m.SummaryText)
	h.open("select", "name", "limit", "aria-label", m.PageSizeLabel, "data-intent", IntentSize)
	for _, o := range m.PageSizes {
		attrs := append([]string{"value", o.Value}, flag("selected", o.Selected)...)
		h.element("option", o.Label, attrs...)
	}
	h.close("select")
	h.close("div")

	h.open("nav", "class", "table-pager", "aria-label", m.PageOfText)
	control(h, m.First, "«")
	control(h, m.Prev, "‹")
	for _, p := range m.Pages {
		if p.Gap {
			h.element("span", p.Label, "class", "pager-gap")
			continue
		}
		attrs := []string{"type", "button", "data-intent", IntentPage, "data-page", strconv.Itoa(p.Index)}
		if p.Current {
			attrs = append(attrs, "aria-current", "page")
		}
		h.element("button", p.Label, attrs...)
	}
	control(h, m.Next, "›")
	control(h, m.Last, "»")
	h.close("nav")

	h.close("div")
}

func control(h *htmlWriter, c Control, glyph string) {
	attrs := []string{
		"type", "button",
		"aria-label", c.Label,
		"data-intent", IntentPage,
		"data-page", strconv.Itoa(c.Page),
	}
	attrs = append(attrs, flag("disabled", c.Disabled)...)
	h.element("button", glyph, attrs...)
}
