package tablectl

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/debounce/debouncetest"
	"github.com/clinicdesk/console/pkg/eventloop"
	"github.com/clinicdesk/console/pkg/tablestate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type row struct{ ID int }

type result struct {
	page datasource.Page[row]
	err  error
}

type call struct {
	st   tablestate.TableState
	ctx  context.Context
	resp chan result
}

func (c *call) reply(ids []int, total int) {
	rows := make([]row, len(ids))
	for i, id := range ids {
		rows[i] = row{ID: id}
	}
	c.resp <- result{page: datasource.Page[row]{Rows: rows, Total: total}}
}

func (c *call) fail(err error) {
	c.resp <- result{err: err}
}

// fakeSource hands every request to the test. Unless ignoreCancel is set a
// request returns as soon as its context is cancelled.
type fakeSource struct {
	calls        chan *call
	ignoreCancel bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(chan *call, 16)}
}

func (f *fakeSource) FetchPage(ctx context.Context, st tablestate.TableState) (datasource.Page[row], error) {
	c := &call{st: st, ctx: ctx, resp: make(chan result, 1)}
	f.calls <- c
	if f.ignoreCancel {
		r := <-c.resp
		return r.page, r.err
	}
	select {
	case r := <-c.resp:
		return r.page, r.err
	case <-ctx.Done():
		return datasource.Page[row]{}, ctx.Err()
	}
}

func (f *fakeSource) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("no fetch started")
		return nil
	}
}

func (f *fakeSource) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch for %+v", c.st)
	case <-time.After(20 * time.Millisecond):
	}
}

// drain waits for at least one queued completion and runs everything queued.
func drain(t *testing.T, m *eventloop.Manual) {
	t.Helper()
	deadline := time.After(time.Second)
	for m.Len() == 0 {
		select {
		case <-m.Wait():
		case <-deadline:
			t.Fatal("nothing dispatched")
		}
	}
	m.Drain()
}

type navRecorder struct {
	queries []string
	modes   []NavigationMode
}

func (n *navRecorder) Navigate(q url.Values, mode NavigationMode) {
	n.queries = append(n.queries, q.Encode())
	n.modes = append(n.modes, mode)
}

func (n *navRecorder) last() string {
	if len(n.queries) == 0 {
		return ""
	}
	return n.queries[len(n.queries)-1]
}

type obsRecorder struct {
	mu       sync.Mutex
	started  int
	outcomes []string
}

func (o *obsRecorder) FetchStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *obsRecorder) FetchFinished(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func testCodec() *tablestate.Codec {
	return tablestate.NewCodec(
		tablestate.WithFilterKeys("role", "status"),
		tablestate.WithWildcard("status", "all"),
		tablestate.WithSortableColumns("userName", "role"),
	)
}

type harness struct {
	ctl *Controller[row]
	src *fakeSource
	m   *eventloop.Manual
	nav *navRecorder
	obs *obsRecorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		src: newFakeSource(),
		m:   eventloop.NewManual(),
		nav: &navRecorder{},
		obs: &obsRecorder{},
	}
	opts = append([]Option{
		WithDispatcher(h.m),
		WithNavigator(h.nav),
		WithObserver(h.obs),
		WithSearchDelay(0),
	}, opts...)
	h.ctl = New[row](testCodec(), h.src, opts...)
	t.Cleanup(func() {
		h.ctl.Close()
		h.m.Close()
	})
	return h
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestObserveFetchesDecodedState(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=2&limit=10&sortBy=userName&sortDir=desc&lang=ar")))
	assert.Equal(t, StatusFetching, h.ctl.Snapshot().Status)

	c := h.src.next(t)
	want := tablestate.TableState{PageIndex: 1, PageSize: 10, SortColumn: "userName", SortDir: tablestate.Descending}
	if diff := cmp.Diff(want, c.st); diff != "" {
		t.Fatalf("fetched state mismatch (-want +got):\n%s", diff)
	}

	c.reply([]int{11, 12}, 95)
	drain(t, h.m)

	snap := h.ctl.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, 10, snap.PageCount)
	assert.Equal(t, 11, snap.StartRow)
	assert.Equal(t, 20, snap.EndRow)
	assert.True(t, snap.CanPrev())
	assert.True(t, snap.CanNext())
	assert.Len(t, snap.Page.Rows, 2)
	assert.Empty(t, h.nav.queries, "observing never navigates")
	assert.Equal(t, []string{datasource.OutcomeOK}, h.obs.outcomes)
}

func TestMalformedQueryUsesDefaults(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.ObserveQuery("page=%zz&limit=10"))
	c := h.src.next(t)
	assert.True(t, c.st.Equal(testCodec().Default()))
	c.reply(nil, 0)
	drain(t, h.m)

	snap := h.ctl.Snapshot()
	assert.Equal(t, 1, snap.PageCount)
	assert.Zero(t, snap.StartRow)
	assert.Zero(t, snap.EndRow)
	assert.True(t, snap.Empty())
}

func TestStaleResponseIsDropped(t *testing.T) {
	h := newHarness(t)
	h.src.ignoreCancel = true

	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=1&limit=10")))
	a := h.src.next(t)

	require.NoError(t, h.ctl.SetPage(1))
	b := h.src.next(t)
	assert.Error(t, a.ctx.Err(), "superseded request is cancelled")
	assert.NoError(t, b.ctx.Err())

	b.reply([]int{11}, 95)
	drain(t, h.m)
	a.reply([]int{1}, 95)
	drain(t, h.m)

	snap := h.ctl.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, []row{{ID: 11}}, snap.Page.Rows)
	assert.Equal(t, 1, snap.State.PageIndex)
	assert.Equal(t, []string{datasource.OutcomeOK, OutcomeSuperseded}, h.obs.outcomes)
}

func TestPageSizeChangeResetsPage(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=4&limit=10&lang=ar")))
	h.src.next(t).reply([]int{31}, 95)
	drain(t, h.m)

	require.NoError(t, h.ctl.SetPageSize(20))
	assert.Equal(t, "lang=ar&limit=20&page=1", h.nav.last())
	assert.Equal(t, []NavigationMode{Replace}, h.nav.modes)

	c := h.src.next(t)
	assert.Equal(t, 0, c.st.PageIndex)
	assert.Equal(t, 20, c.st.PageSize)

	assert.ErrorIs(t, h.ctl.SetPageSize(15), ErrInvalidPageSize)
}

func TestSetPaginationSizeWins(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=3&limit=10")))
	h.src.next(t)

	require.NoError(t, h.ctl.SetPagination(5, 30))
	assert.Equal(t, "limit=30&page=1", h.nav.last())
	h.src.next(t)

	require.NoError(t, h.ctl.SetPagination(5, 30))
	assert.Equal(t, "limit=30&page=6", h.nav.last())
	assert.Equal(t, 5, h.src.next(t).st.PageIndex)
}

func TestQueryChangesResetPage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=3&limit=10")))
	h.src.next(t)

	require.NoError(t, h.ctl.SetFilter("role", "staff"))
	assert.Equal(t, "limit=10&page=1&role=staff", h.nav.last())
	h.src.next(t)

	require.NoError(t, h.ctl.SetPage(2))
	h.src.next(t)
	require.NoError(t, h.ctl.ToggleSort("userName"))
	assert.Equal(t, "limit=10&page=1&role=staff&sortBy=userName&sortDir=asc", h.nav.last())
	h.src.next(t)

	require.NoError(t, h.ctl.SetPage(4))
	h.src.next(t)
	require.NoError(t, h.ctl.SetSearchInput("  dr "))
	assert.Equal(t, "limit=10&page=1&role=staff&search=dr&sortBy=userName&sortDir=asc", h.nav.last())
	h.src.next(t)

	require.NoError(t, h.ctl.SetFilter("role", ""))
	assert.Equal(t, "limit=10&page=1&search=dr&sortBy=userName&sortDir=asc", h.nav.last())
	h.src.next(t)
}

func TestSortCycles(t *testing.T) {
	tests := []struct {
		name  string
		cycle SortCycle
		want  []string
	}{
		{"tristate", SortCycleTriState, []string{"userName asc", "userName desc", " asc", "userName asc"}},
		{"toggle", SortCycleToggle, []string{"userName asc", "userName desc", "userName asc", "userName desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, WithSortCycle(tt.cycle))
			require.NoError(t, h.ctl.Observe(url.Values{}))
			h.src.next(t)

			var got []string
			for range tt.want {
				require.NoError(t, h.ctl.ToggleSort("userName"))
				h.src.next(t)
				st := h.ctl.State()
				got = append(got, st.SortColumn+" "+st.SortDir.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggleSortNewColumnStartsAscending(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(mustQuery(t, "sortBy=userName&sortDir=desc")))
	h.src.next(t)

	require.NoError(t, h.ctl.ToggleSort("role"))
	st := h.ctl.State()
	assert.Equal(t, "role", st.SortColumn)
	assert.Equal(t, tablestate.Ascending, st.SortDir)
	h.src.next(t)

	require.NoError(t, h.ctl.ClearSort())
	assert.Equal(t, "limit=10&page=1", h.nav.last())
	h.src.next(t)

	require.NoError(t, h.ctl.SetSort("userName", tablestate.Descending))
	assert.Equal(t, "limit=10&page=1&sortBy=userName&sortDir=desc", h.nav.last())
	h.src.next(t)
}

func TestNoOpMutations(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=2&limit=10&role=staff")))
	h.src.next(t)

	require.NoError(t, h.ctl.SetPage(1))
	require.NoError(t, h.ctl.SetPageSize(10))
	require.NoError(t, h.ctl.SetFilter("role", "staff"))
	require.NoError(t, h.ctl.SetFilter("status", "all"))
	require.NoError(t, h.ctl.ClearSort())
	require.NoError(t, h.ctl.SetSearchInput(""))
	require.NoError(t, h.ctl.Observe(mustQuery(t, "role=staff&limit=10&page=2")))

	assert.Empty(t, h.nav.queries)
	assert.Equal(t, 1, h.obs.started)
	h.src.none(t)
}

func TestInvalidIntents(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t)

	assert.ErrorIs(t, h.ctl.SetFilter("clinic", "x"), ErrUnknownFilter)
	assert.ErrorIs(t, h.ctl.ToggleSort("password"), ErrNotSortable)
	assert.ErrorIs(t, h.ctl.SetSort("", tablestate.Ascending), ErrNotSortable)
	assert.Empty(t, h.nav.queries)
}

func TestFailureKeepsLastPage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t).reply([]int{1, 2, 3}, 3)
	drain(t, h.m)

	require.NoError(t, h.ctl.Refresh())
	assert.Equal(t, StatusFetching, h.ctl.Snapshot().Status)
	h.src.next(t).fail(&apiclient.Error{Kind: apiclient.KindServer, Status: 500})
	drain(t, h.m)

	snap := h.ctl.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	require.Error(t, snap.Err)
	assert.Equal(t, datasource.OutcomeServer, datasource.Outcome(snap.Err))
	assert.Len(t, snap.Page.Rows, 3, "previous rows stay visible")

	require.NoError(t, h.ctl.Refresh())
	assert.NoError(t, h.ctl.Snapshot().Err, "error clears when a new fetch starts")
	h.src.next(t).reply([]int{4}, 1)
	drain(t, h.m)
	assert.Equal(t, StatusSucceeded, h.ctl.Snapshot().Status)
}

func TestCancellationIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := newHarness(t, WithBaseContext(ctx))

	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t)
	cancel()
	drain(t, h.m)

	snap := h.ctl.Snapshot()
	assert.Equal(t, StatusCancelled, snap.Status)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{datasource.OutcomeCancelled}, h.obs.outcomes)
}

func TestSearchIsDebounced(t *testing.T) {
	clock := debouncetest.NewClock()
	h := newHarness(t, WithSearchDelay(time.Second), WithClock(clock))
	require.NoError(t, h.ctl.Observe(mustQuery(t, "page=3&limit=10")))
	h.src.next(t)

	require.NoError(t, h.ctl.SetSearchInput("d"))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, h.ctl.SetSearchInput("dr"))

	snap := h.ctl.Snapshot()
	assert.True(t, snap.SearchPending)
	assert.Equal(t, "dr", snap.SearchInput)
	assert.Empty(t, snap.State.Search)

	clock.Advance(999 * time.Millisecond)
	assert.Zero(t, h.m.Len())
	assert.Empty(t, h.nav.queries)

	clock.Advance(time.Millisecond)
	require.Equal(t, 1, h.m.Len())
	h.m.Drain()

	assert.Equal(t, []string{"limit=10&page=1&search=dr"}, h.nav.queries)
	c := h.src.next(t)
	assert.Equal(t, "dr", c.st.Search)
	assert.Equal(t, 0, c.st.PageIndex)
}

func TestNavigationDiscardsPendingSearch(t *testing.T) {
	clock := debouncetest.NewClock()
	h := newHarness(t, WithSearchDelay(time.Second), WithClock(clock))
	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t).reply(nil, 0)
	drain(t, h.m)

	t.Run("before the timer fires", func(t *testing.T) {
		require.NoError(t, h.ctl.SetSearchInput("x"))
		require.NoError(t, h.ctl.Observe(mustQuery(t, "page=2")))
		h.src.next(t).reply(nil, 0)
		drain(t, h.m)

		clock.Advance(2 * time.Second)
		assert.Zero(t, h.m.Len())
		assert.Empty(t, h.ctl.Snapshot().SearchInput)
	})

	t.Run("after the timer fires", func(t *testing.T) {
		require.NoError(t, h.ctl.SetSearchInput("y"))
		clock.Advance(time.Second)
		require.Equal(t, 1, h.m.Len())

		require.NoError(t, h.ctl.Observe(mustQuery(t, "page=3&search=z")))
		h.src.next(t)
		h.m.Drain()
		assert.Equal(t, "z", h.ctl.State().Search)
		assert.Equal(t, "z", h.ctl.Snapshot().SearchInput)
		assert.Empty(t, h.nav.queries)
	})
}

func TestFlushSearch(t *testing.T) {
	clock := debouncetest.NewClock()
	h := newHarness(t, WithSearchDelay(time.Second), WithClock(clock))
	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t)

	require.NoError(t, h.ctl.SetSearchInput("amal"))
	require.NoError(t, h.ctl.FlushSearch())
	require.Equal(t, 1, h.m.Len())
	h.m.Drain()
	assert.Equal(t, "amal", h.ctl.State().Search)
	h.src.next(t)
}

func TestCloseDropsCompletions(t *testing.T) {
	h := newHarness(t)
	h.src.ignoreCancel = true
	require.NoError(t, h.ctl.Observe(url.Values{}))
	c := h.src.next(t)

	h.ctl.Close()
	assert.Equal(t, StatusCancelled, h.ctl.Snapshot().Status)
	c.reply([]int{1}, 1)
	drain(t, h.m)

	assert.False(t, h.ctl.Snapshot().HasPage)
	assert.ErrorIs(t, h.ctl.SetPage(2), ErrClosed)
	assert.ErrorIs(t, h.ctl.Observe(url.Values{}), ErrClosed)
}

func TestOnChange(t *testing.T) {
	var statuses []Status
	var h *harness
	h = newHarness(t, WithOnChange(func() {
		statuses = append(statuses, h.ctl.Snapshot().Status)
	}))

	require.NoError(t, h.ctl.Observe(url.Values{}))
	h.src.next(t).reply(nil, 0)
	drain(t, h.m)

	assert.Equal(t, []Status{StatusFetching, StatusSucceeded}, statuses)
}

func TestOwnEventLoop(t *testing.T) {
	src := datasource.SourceFunc[row](func(ctx context.Context, st tablestate.TableState) (datasource.Page[row], error) {
		return datasource.Page[row]{Rows: []row{{ID: st.PageIndex}}, Total: 42}, nil
	})

	done := make(chan Snapshot[row], 1)
	var ctl *Controller[row]
	ctl = New[row](testCodec(), src, WithOnChange(func() {
		if snap := ctl.Snapshot(); snap.Status == StatusSucceeded {
			select {
			case done <- snap:
			default:
			}
		}
	}))

	require.True(t, ctl.Do(func() { _ = ctl.ObserveQuery("?page=2&limit=20") }))

	select {
	case snap := <-done:
		assert.Equal(t, 42, snap.Page.Total)
		assert.Equal(t, 3, snap.PageCount)
		assert.Equal(t, []row{{ID: 1}}, snap.Page.Rows)
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}

	closed := make(chan struct{})
	require.True(t, ctl.Do(func() {
		ctl.Close()
		close(closed)
	}))
	<-closed
}

func TestPending(t *testing.T) {
	q := url.Values{"page": {"3"}, "search": {"ali"}, "lang": {"ar"}}
	snap := Pending[row](testCodec(), q)

	assert.Equal(t, StatusFetching, snap.Status)
	assert.True(t, snap.Loading())
	assert.False(t, snap.HasPage)
	assert.Equal(t, 2, snap.State.PageIndex)
	assert.Equal(t, "ali", snap.SearchInput)
	assert.Equal(t, "ar", snap.Query.Get("lang"))

	q.Set("lang", "en")
	assert.Equal(t, "ar", snap.Query.Get("lang"))
}
