package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/middleware"
)

// ErrShuttingDown is returned by Add once Shutdown has begun.
var ErrShuttingDown = errors.New("server: shutting down")

// SessionManager tracks open sessions and enforces the session limit.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	closing  bool
	wg       sync.WaitGroup
	metrics  *middleware.Metrics
}

// NewSessionManager creates a manager. max <= 0 means no limit.
func NewSessionManager(max int, metrics *middleware.Metrics) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		max:      max,
		metrics:  metrics,
	}
}

// Add registers s. It fails with a C301 error at the limit.
func (m *SessionManager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return ErrShuttingDown
	}
	if m.max > 0 && len(m.sessions) >= m.max {
		return cerrors.New("C301").WithDetail(fmt.Sprintf("%d sessions are already open", m.max))
	}
	m.sessions[s.ID] = s
	m.wg.Add(1)
	m.metrics.RecordSessionOpen()
	return nil
}

// Remove forgets the session with id.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return
	}
	delete(m.sessions, id)
	m.wg.Done()
	m.metrics.RecordSessionClose()
}

// Get returns the session with id, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown refuses new sessions, asks every open one to close and waits
// until all are gone or ctx is done.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Stop(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
