// Package eventloop runs callbacks one at a time on a single goroutine.
//
// Table controllers are not safe for concurrent use. Everything that touches
// one (user intents, fetch completions, debounce timers) is funnelled through
// a Loop so state changes are serialized in arrival order and no locks are
// needed inside the controller.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Run when the loop was closed before it started.
var ErrClosed = errors.New("eventloop: closed")

// Dispatcher queues a function to run on an event loop. Dispatch reports
// false when the function was discarded because the loop is shutting down.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func()) bool

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) bool {
	return f(fn)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithAfter registers a hook that runs on the loop after every callback,
// for example to flush pending output.
func WithAfter(fn func()) Option {
	return func(l *Loop) {
		l.after = fn
	}
}

// task is a queued callback. Whoever takes it first (Run, or a Dispatch
// that lost the race with Close) decides whether it runs.
type task struct {
	fn    func()
	taken atomic.Bool
}

func (t *task) take() bool {
	return t.taken.CompareAndSwap(false, true)
}

// Loop is a single-goroutine callback executor.
type Loop struct {
	queue  chan *task
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	logger *slog.Logger
	after  func()
}

// New creates a loop with the given queue capacity.
func New(capacity int, opts ...Option) *Loop {
	if capacity <= 0 {
		capacity = 256
	}
	l := &Loop{
		queue:  make(chan *task, capacity),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn. It blocks while the queue is full and returns false if
// the loop closes first. A true result means Run executes fn exactly once;
// false means fn never runs. Do not call Dispatch from a callback on a full loop.
func (l *Loop) Dispatch(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	t := &task{fn: fn}
	select {
	case l.queue <- t:
	case <-l.done:
		return false
	}
	if l.closed.Load() && t.take() {
		return false
	}
	return true
}

// Run executes queued callbacks until ctx is done or Close is called.
// Callbacks accepted before the loop closed still run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	for {
		select {
		case t := <-l.queue:
			l.run(t)
		case <-ctx.Done():
			l.Close()
			l.drain()
			return ctx.Err()
		case <-l.done:
			l.drain()
			return nil
		}
	}
}

func (l *Loop) drain() {
	for {
		select {
		case t := <-l.queue:
			l.run(t)
		default:
			return
		}
	}
}

func (l *Loop) run(t *task) {
	if t.take() {
		l.execute(t.fn)
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	fn()

	if l.after != nil {
		l.after()
	}
}

// Close stops the loop and rejects later dispatches. A running Run still
// executes the callbacks it had accepted.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done returns a channel closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	return l.closed.Load()
}
