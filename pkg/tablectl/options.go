package tablectl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/clinicdesk/console/pkg/debounce"
	"github.com/clinicdesk/console/pkg/eventloop"
)

// DefaultSearchDelay is how long the search box must stay quiet before the
// search is committed to the URL.
const DefaultSearchDelay = time.Second

// NavigationMode says how a new URL enters the browser history.
type NavigationMode int

const (
	// Replace swaps the current history entry.
	Replace NavigationMode = iota
	// Push adds a new history entry.
	Push
)

func (m NavigationMode) String() string {
	if m == Push {
		return "push"
	}
	return "replace"
}

// Navigator writes a query string back to the page URL.
type Navigator interface {
	Navigate(query url.Values, mode NavigationMode)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(query url.Values, mode NavigationMode)

// Navigate calls f(query, mode).
func (f NavigatorFunc) Navigate(query url.Values, mode NavigationMode) {
	f(query, mode)
}

// Observer is told about fetch lifecycles, typically to record metrics.
// Every FetchStarted is matched by one FetchFinished, which may arrive off
// the dispatcher when the loop has already stopped.
type Observer interface {
	FetchStarted()
	FetchFinished(outcome string, elapsed time.Duration)
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	nav         Navigator
	dispatcher  eventloop.Dispatcher
	searchDelay time.Duration
	cycle       SortCycle
	logger      *slog.Logger
	observer    Observer
	onChange    func()
	baseCtx     context.Context
	clock       debounce.Clock
	mode        NavigationMode
}

func defaultOptions() options {
	return options{
		searchDelay: DefaultSearchDelay,
		cycle:       SortCycleTriState,
		logger:      slog.Default(),
		baseCtx:     context.Background(),
		clock:       debounce.RealClock(),
		mode:        Replace,
	}
}

// WithNavigator sets where URL updates are written.
func WithNavigator(nav Navigator) Option {
	return func(o *options) {
		o.nav = nav
	}
}

// WithDispatcher runs fetch completions and debounced searches on an
// existing event loop. Without it the controller starts its own loop and
// callers must reach it through Controller.Do.
func WithDispatcher(d eventloop.Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// WithSearchDelay sets the search debounce. Zero commits every keystroke.
func WithSearchDelay(d time.Duration) Option {
	return func(o *options) {
		o.searchDelay = d
	}
}

// WithSortCycle selects how repeated header clicks cycle the sort.
func WithSortCycle(c SortCycle) Option {
	return func(o *options) {
		o.cycle = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver registers a fetch observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithOnChange registers a callback run on the event loop after every
// change visible in Snapshot.
func WithOnChange(fn func()) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// WithBaseContext sets the parent of every fetch context. Cancelling it
// cancels the fetch in flight.
func WithBaseContext(ctx context.Context) Option {
	return func(o *options) {
		o.baseCtx = ctx
	}
}

// WithClock replaces the wall clock used by the search debounce.
func WithClock(c debounce.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithNavigationMode sets the history mode for table mutations.
func WithNavigationMode(m NavigationMode) Option {
	return func(o *options) {
		o.mode = m
	}
}
