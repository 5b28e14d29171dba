// Package tablectl keeps a server-paginated table in step with the page URL.
//
// The URL is the source of truth. A Controller decodes the current query
// into a TableState, fetches the matching page, and turns user intents
// (page, page size, sort, filter, search) into URL updates. It is the only
// component that starts fetches, and it keeps at most one in flight: every
// new state cancels the previous request and bumps a generation counter, so
// a response that arrives late is dropped instead of overwriting newer data.
//
// A Controller is not safe for concurrent use. All methods must run on the
// event loop it dispatches to (see WithDispatcher and Do).
package tablectl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/debounce"
	"github.com/clinicdesk/console/pkg/eventloop"
	"github.com/clinicdesk/console/pkg/tablestate"
)

// OutcomeSuperseded labels a fetch whose result was dropped because a newer
// state was requested.
const OutcomeSuperseded = "superseded"

var (
	ErrClosed          = errors.New("tablectl: controller closed")
	ErrUnknownFilter   = errors.New("tablectl: unknown filter")
	ErrNotSortable     = errors.New("tablectl: column is not sortable")
	ErrInvalidPageSize = errors.New("tablectl: page size not allowed")
)

type searchIntent struct {
	seq  uint64
	text string
}

// Controller drives one table. R is the row type.
type Controller[R any] struct {
	codec  *tablestate.Codec
	source datasource.Source[R]
	opts   options
	logger *slog.Logger

	ownLoop *eventloop.Loop
	stopRun context.CancelFunc

	query    url.Values
	state    tablestate.TableState
	observed bool

	status  Status
	page    datasource.Page[R]
	hasPage bool
	err     error

	gen     uint64
	cancel  context.CancelFunc
	started time.Time

	search      *debounce.Debouncer[searchIntent]
	searchInput string
	searchSeq   uint64

	closed bool
}

// New creates a controller. It does nothing until the first Observe.
func New[R any](codec *tablestate.Codec, source datasource.Source[R], opts ...Option) *Controller[R] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if codec == nil {
		codec = tablestate.NewCodec()
	}

	c := &Controller[R]{
		codec:  codec,
		source: source,
		opts:   o,
		logger: o.logger.With("component", "tablectl"),
		state:  codec.Default(),
		query:  url.Values{},
	}

	if c.opts.dispatcher == nil {
		loop := eventloop.New(64, eventloop.WithLogger(c.logger))
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = loop.Run(ctx) }()
		c.ownLoop = loop
		c.stopRun = cancel
		c.opts.dispatcher = loop
	}

	c.search = debounce.New(o.searchDelay, func(in searchIntent) {
		c.opts.dispatcher.Dispatch(func() { c.commitSearch(in) })
	}, debounce.WithClock(o.clock))

	return c
}

// Do runs fn on the controller's event loop. It reports false if the loop
// has shut down.
func (c *Controller[R]) Do(fn func()) bool {
	return c.opts.dispatcher.Dispatch(fn)
}

// Codec returns the codec used to read and write the URL.
func (c *Controller[R]) Codec() *tablestate.Codec {
	return c.codec
}

// Observe reports the current page URL query, for the initial load and for
// every navigation the controller did not cause itself (back, forward, a
// pasted link). A pending search is discarded. If the decoded state is
// unchanged nothing is fetched.
func (c *Controller[R]) Observe(query url.Values) error {
	if c.closed {
		return ErrClosed
	}
	c.searchSeq++
	c.search.Cancel()
	st := c.apply(query)
	c.searchInput = st.Search
	c.notify()
	return nil
}

// ObserveQuery is Observe for a raw query string. A malformed query yields
// the default state.
func (c *Controller[R]) ObserveQuery(raw string) error {
	values, err := tablestate.ParseQuery(raw)
	if err != nil {
		c.logger.Debug("malformed query, using defaults", "query", raw, "error", err)
		values = url.Values{}
	}
	return c.Observe(values)
}

// apply records query as current and fetches if the table state changed.
func (c *Controller[R]) apply(query url.Values) tablestate.TableState {
	c.query = tablestate.Merge(query, nil)
	st := c.codec.Decode(c.query)
	if c.observed && st.Equal(c.state) {
		return st
	}
	c.state = st
	c.observed = true
	c.fetch()
	return st
}

// SetPage moves to a 0-based page index.
func (c *Controller[R]) SetPage(index int) error {
	return c.change(func(st *tablestate.TableState) {
		st.PageIndex = max(index, 0)
	}, false)
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller[R]) SetPageSize(size int) error {
	if !c.codec.AllowsPageSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return c.change(func(st *tablestate.TableState) {
		st.PageSize = size
	}, true)
}

// SetPagination applies a page index and size together, as a pager widget
// reports them. A size change wins and resets to the first page.
func (c *Controller[R]) SetPagination(index, size int) error {
	if size != c.state.PageSize {
		return c.SetPageSize(size)
	}
	return c.SetPage(index)
}

// ToggleSort advances the sort cycle for col.
func (c *Controller[R]) ToggleSort(col string) error {
	if !c.codec.IsSortable(col) {
		return fmt.Errorf("%w: %q", ErrNotSortable, col)
	}
	return c.change(func(st *tablestate.TableState) {
		st.SortColumn, st.SortDir = c.opts.cycle.next(*st, col)
	}, true)
}

// SetSort sorts by col in direction dir.
func (c *Controller[R]) SetSort(col string, dir tablestate.SortDirection) error {
	if !c.codec.IsSortable(col) {
		return fmt.Errorf("%w: %q", ErrNotSortable, col)
	}
	return c.change(func(st *tablestate.TableState) {
		st.SortColumn, st.SortDir = col, dir
	}, true)
}

// ClearSort removes sorting.
func (c *Controller[R]) ClearSort() error {
	return c.change(func(st *tablestate.TableState) {
		st.SortColumn, st.SortDir = "", tablestate.Ascending
	}, true)
}

// SetFilter sets a registered filter. An empty or wildcard value removes it.
func (c *Controller[R]) SetFilter(key, value string) error {
	if !c.codec.IsFilterKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}
	return c.change(func(st *tablestate.TableState) {
		if st.Filters == nil {
			st.Filters = make(map[string]string)
		}
		st.Filters[key] = value
	}, true)
}

// SetSearchInput records search box text. The search is committed to the
// URL once input has been quiet for the search delay.
func (c *Controller[R]) SetSearchInput(text string) error {
	if c.closed {
		return ErrClosed
	}
	c.searchSeq++
	c.searchInput = text
	in := searchIntent{seq: c.searchSeq, text: text}
	if c.opts.searchDelay <= 0 {
		c.commitSearch(in)
		return nil
	}
	c.search.Push(in)
	c.notify()
	return nil
}

// FlushSearch commits a pending search immediately, as when the user
// presses enter.
func (c *Controller[R]) FlushSearch() error {
	if c.closed {
		return ErrClosed
	}
	c.search.Flush()
	return nil
}

func (c *Controller[R]) commitSearch(in searchIntent) {
	if c.closed || in.seq != c.searchSeq {
		return
	}
	if err := c.change(func(st *tablestate.TableState) {
		st.Search = strings.TrimSpace(in.text)
	}, true); err != nil {
		c.logger.Debug("search not applied", "error", err)
	}
	c.notify()
}

// Refresh refetches the current state, cancelling any fetch in flight.
func (c *Controller[R]) Refresh() error {
	if c.closed {
		return ErrClosed
	}
	c.observed = true
	c.fetch()
	return nil
}

// change derives the next state with mutate and navigates to it. With
// resetPage, a real change also returns to the first page; a mutation that
// leaves the table as it is does nothing.
func (c *Controller[R]) change(mutate func(*tablestate.TableState), resetPage bool) error {
	if c.closed {
		return ErrClosed
	}

	next := c.state.Clone()
	mutate(&next)
	next = c.codec.Normalize(next)
	if resetPage {
		if sameIgnoringPage(next, c.state) {
			return nil
		}
		next.PageIndex = 0
	}

	query := c.codec.Encode(next, c.query)
	if query.Encode() == c.query.Encode() {
		return nil
	}
	if c.opts.nav != nil {
		c.opts.nav.Navigate(tablestate.Merge(query, nil), c.opts.mode)
	}
	c.apply(query)
	c.notify()
	return nil
}

func sameIgnoringPage(a, b tablestate.TableState) bool {
	a.PageIndex, b.PageIndex = 0, 0
	return a.Equal(b)
}

// fetch starts a request for the current state, superseding any other.
func (c *Controller[R]) fetch() {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	st := c.state.Clone()

	ctx, cancel := context.WithCancel(c.opts.baseCtx)
	c.cancel = cancel
	c.status = StatusFetching
	c.err = nil
	c.started = time.Now()
	if c.opts.observer != nil {
		c.opts.observer.FetchStarted()
	}

	c.logger.Debug("fetching page",
		"generation", gen,
		"page", st.PageIndex+1,
		"limit", st.PageSize,
		"sort_by", st.SortColumn)

	started := c.started
	go func() {
		page, err := c.source.FetchPage(ctx, st)
		if !c.opts.dispatcher.Dispatch(func() { c.complete(gen, started, page, err) }) {
			cancel()
			c.observe(OutcomeSuperseded, time.Since(started))
		}
	}()
}

func (c *Controller[R]) complete(gen uint64, started time.Time, page datasource.Page[R], err error) {
	elapsed := time.Since(started)
	if gen != c.gen || c.closed {
		c.logger.Debug("dropping superseded fetch", "generation", gen, "current", c.gen)
		c.observe(OutcomeSuperseded, elapsed)
		return
	}

	c.cancel()
	c.cancel = nil
	c.observe(datasource.Outcome(err), elapsed)

	switch {
	case err == nil:
		c.status = StatusSucceeded
		c.page = page
		c.hasPage = true
		c.err = nil
	case datasource.IsCancelled(err):
		c.logger.Debug("fetch cancelled", "generation", gen)
		c.status = StatusCancelled
	default:
		c.logger.Warn("fetch failed", "generation", gen, "error", err)
		c.status = StatusFailed
		c.err = err
	}
	c.notify()
}

func (c *Controller[R]) observe(outcome string, elapsed time.Duration) {
	if c.opts.observer != nil {
		c.opts.observer.FetchFinished(outcome, elapsed)
	}
}

func (c *Controller[R]) notify() {
	if c.opts.onChange != nil && !c.closed {
		c.opts.onChange()
	}
}

// Snapshot returns what the table should currently show.
func (c *Controller[R]) Snapshot() Snapshot[R] {
	total := 0
	if c.hasPage {
		total = c.page.Total
	}
	start, end := tablestate.RowRange(c.state.PageIndex, c.state.PageSize, total)
	return Snapshot[R]{
		State:         c.state.Clone(),
		Query:         c.Query(),
		Status:        c.status,
		Page:          c.page,
		HasPage:       c.hasPage,
		Err:           c.err,
		SearchInput:   c.searchInput,
		SearchPending: c.search.Pending(),
		PageCount:     tablestate.PageCount(total, c.state.PageSize),
		StartRow:      start,
		EndRow:        end,
	}
}

// State returns the current table state.
func (c *Controller[R]) State() tablestate.TableState {
	return c.state.Clone()
}

// Query returns a copy of the current URL query.
func (c *Controller[R]) Query() url.Values {
	return tablestate.Merge(c.query, nil)
}

// Close cancels the fetch in flight and any pending search. Completions
// that arrive afterwards are dropped.
func (c *Controller[R]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.search.Stop()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.status == StatusFetching {
		c.status = StatusCancelled
	}
	if c.stopRun != nil {
		c.stopRun()
	}
}
