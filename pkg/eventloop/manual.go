package eventloop

import "sync"

// Manual is a Dispatcher whose callbacks run only when Drain is called. It
// gives tests and one-shot tools full control over interleaving: a fetch
// completion can be held back while newer intents are applied.
type Manual struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	signal chan struct{}
}

// NewManual creates an empty manual dispatcher.
func NewManual() *Manual {
	return &Manual{signal: make(chan struct{}, 1)}
}

// Dispatch implements Dispatcher.
func (m *Manual) Dispatch(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of queued callbacks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain runs queued callbacks, including ones queued while draining, and
// returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// Wait returns a channel that receives after a Dispatch. Use it to block
// until an asynchronous producer has queued work.
func (m *Manual) Wait() <-chan struct{} {
	return m.signal
}

// Close discards queued callbacks and rejects later ones.
func (m *Manual) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
}
