// Package debounce stabilizes a rapidly changing value: a value is emitted
// only after the configured delay passes with no newer value.
//
// Example:
//
//	d := debounce.New(300*time.Millisecond, func(q string) {
//	    loop.Dispatch(func() { ctrl.ApplySearch(q) })
//	})
//	d.Push("d")
//	d.Push("dr")   // restarts the timer; only "dr" is emitted
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer a Debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock wraps time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

// Option configures a Debouncer.
type Option func(*config)

type config struct {
	clock Clock
}

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// Debouncer delays values of type T until input pauses. It is safe for
// concurrent use. emit runs on the clock's goroutine.
type Debouncer[T any] struct {
	delay time.Duration
	emit  func(T)
	clock Clock

	mu      sync.Mutex
	timer   Timer
	gen     uint64 // bumped on every Push/Stop; a timer only emits for its own generation
	pending bool
	value   T
	stopped bool
}

// New creates a Debouncer. A non-positive delay emits synchronously on Push.
func New[T any](delay time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	cfg := config{clock: realClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Debouncer[T]{
		delay: delay,
		emit:  emit,
		clock: cfg.clock,
	}
}

// Push records a new value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	if d.delay <= 0 {
		d.pending = false
		d.mu.Unlock()
		d.emit(v)
		return
	}
	gen := d.gen
	d.value = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}

// Pending reports whether a value is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush emits the pending value immediately. It reports whether a value was
// emitted.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v := d.value
	d.pending = false
	d.mu.Unlock()

	d.emit(v)
	return true
}

// Cancel drops the pending value without emitting it. The Debouncer stays
// usable.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

// Stop cancels any pending value and ignores later pushes.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.stopped = true
}
