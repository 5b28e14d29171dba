package server

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/eventloop"
	"github.com/clinicdesk/console/pkg/middleware"
	"github.com/clinicdesk/console/pkg/tablectl"
	"github.com/clinicdesk/console/pkg/users"
	"github.com/clinicdesk/console/pkg/view"
)

var errSessionClosed = errors.New("server: session closed")

// Session is one live table on one WebSocket. The controller and the
// render cache belong to the session's event loop; socket writes are
// serialized by writeMu.
type Session struct {
	ID string

	conn    *websocket.Conn
	cfg     SessionConfig
	loop    *eventloop.Loop
	ctrl    *tablectl.Controller[users.Row]
	table   view.Table[users.Row]
	printer *message.Printer
	metrics *middleware.Metrics
	logger  *slog.Logger

	// loop only
	lastTable   string
	lastToolbar string

	writeMu sync.Mutex
	closed  bool

	stopMu    sync.Mutex
	stop      context.CancelFunc
	stopped   bool
	closeCode int
	closeText string
}

func newSession(ctx context.Context, id string, conn *websocket.Conn, s *Server, printer *message.Printer) *Session {
	logger := s.logger.With("session_id", id)
	sess := &Session{
		ID:        id,
		conn:      conn,
		cfg:       s.cfg.Session.withDefaults(),
		table:     s.table,
		printer:   printer,
		metrics:   s.metrics,
		logger:    logger,
		closeCode: websocket.CloseNormalClosure,
	}
	sess.loop = eventloop.New(sess.cfg.EventQueue, eventloop.WithLogger(logger))
	sess.ctrl = tablectl.New(s.codec, s.source,
		tablectl.WithDispatcher(sess.loop),
		tablectl.WithNavigator(tablectl.NavigatorFunc(sess.navigate)),
		tablectl.WithOnChange(sess.render),
		tablectl.WithObserver(s.metrics.FetchRecorder()),
		tablectl.WithBaseContext(ctx),
		tablectl.WithSearchDelay(s.cfg.SearchDelay),
		tablectl.WithSortCycle(s.cfg.SortCycle),
		tablectl.WithLogger(logger),
	)
	return sess
}

// Run serves the socket until the client leaves, a write fails, ctx is
// done or Stop is called. query is the page URL's query at connect time.
func (s *Session) Run(ctx context.Context, query string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.stopMu.Lock()
	s.stop = cancel
	if s.stopped {
		cancel()
	}
	s.stopMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return s.readLoop()
	})
	g.Go(func() error {
		return s.pingLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeConn()
		return nil
	})

	s.loop.Dispatch(func() {
		if err := s.ctrl.ObserveQuery(query); err != nil {
			s.logger.Debug("observe failed", "error", err)
		}
	})

	err := g.Wait()
	s.loop.Close()
	s.ctrl.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends the session, closing the socket with code and reason.
func (s *Session) Stop(code int, reason string) {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if !s.stopped {
		s.stopped = true
		s.closeCode = code
		s.closeText = reason
	}
	if s.stop != nil {
		s.stop()
	}
}

func (s *Session) readLoop() error {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				s.metrics.RecordWebSocketError(err)
				return err
			}
			s.logger.Debug("read loop done", "error", err)
			return nil
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		in, err := DecodeIntent(msg)
		if err != nil {
			s.logger.Debug("malformed intent", "error", err)
			s.metrics.RecordWebSocketError(err)
			_ = s.write(errorFrame(err))
			continue
		}
		s.metrics.RecordIntent(in.Intent)
		if !s.loop.Dispatch(func() { s.handle(in) }) {
			return nil
		}
	}
}

func (s *Session) pingLoop(ctx context.Context) error {
	if s.cfg.PingInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(s.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout))
			if err != nil {
				s.metrics.RecordWebSocketError(err)
				return err
			}
		}
	}
}

// handle runs on the loop.
func (s *Session) handle(in Intent) {
	if err := s.apply(in); err != nil {
		s.logger.Debug("intent rejected", "intent", in.Intent, "error", err)
		if !errors.Is(err, tablectl.ErrClosed) {
			_ = s.write(errorFrame(cerrors.New("C300").WithDetail(err.Error())))
		}
	}
}

func (s *Session) apply(in Intent) error {
	switch in.Intent {
	case view.IntentSort:
		return s.ctrl.ToggleSort(in.Column)
	case view.IntentPage:
		return s.ctrl.SetPage(*in.Page)
	case view.IntentSize:
		return s.ctrl.SetPageSize(in.Size)
	case view.IntentFilter:
		return s.ctrl.SetFilter(in.Key, in.Value)
	case view.IntentSearch:
		return s.ctrl.SetSearchInput(in.Text)
	case IntentFlush:
		return s.ctrl.FlushSearch()
	case view.IntentRefresh:
		return s.ctrl.Refresh()
	case IntentNavigate:
		return s.ctrl.ObserveQuery(in.Query)
	}
	return nil
}

// navigate runs on the loop.
func (s *Session) navigate(query url.Values, mode tablectl.NavigationMode) {
	_ = s.write(Frame{Type: FrameURL, Query: query.Encode(), Mode: mode.String()})
}

// render runs on the loop. Unchanged HTML is not resent.
func (s *Session) render() {
	snap := s.ctrl.Snapshot()
	m := view.NewModel(s.table, snap, s.printer)

	var table, toolbar strings.Builder
	ctx := context.Background()
	if err := view.TableFragment(m).Render(ctx, &table); err != nil {
		s.logger.Error("render table", "error", err)
		return
	}
	if err := view.Toolbar(m).Render(ctx, &toolbar); err != nil {
		s.logger.Error("render toolbar", "error", err)
		return
	}
	if table.String() == s.lastTable && toolbar.String() == s.lastToolbar {
		return
	}
	s.lastTable, s.lastToolbar = table.String(), toolbar.String()

	_ = s.write(Frame{
		Type:    FrameRender,
		Table:   s.lastTable,
		Toolbar: s.lastToolbar,
		Status:  snap.Status.String(),
	})
}

func (s *Session) write(f Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteJSON(f); err != nil {
		s.metrics.RecordWebSocketError(err)
		s.logger.Debug("write failed", "type", f.Type, "error", err)
		go s.Stop(websocket.CloseAbnormalClosure, "")
		return err
	}
	return nil
}

// closeConn sends the close frame once and drops the connection.
func (s *Session) closeConn() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	s.stopMu.Lock()
	code, text := s.closeCode, s.closeText
	s.stopMu.Unlock()
	if code != websocket.CloseAbnormalClosure {
		msg := websocket.FormatCloseMessage(code, text)
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
	}
	_ = s.conn.Close()
}

// reject tells a client it cannot be served and closes the socket.
func (s *Session) reject(err error) {
	_ = s.write(errorFrame(err))
	s.stopMu.Lock()
	if errors.Is(err, ErrShuttingDown) {
		s.closeCode, s.closeText = websocket.CloseGoingAway, "server shutting down"
	} else {
		s.closeCode, s.closeText = websocket.CloseTryAgainLater, "session limit reached"
	}
	s.stopMu.Unlock()
	s.closeConn()
	s.loop.Close()
	s.ctrl.Close()
}
