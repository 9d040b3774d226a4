package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/middleware"
	"github.com/GriffinCanCode/FileMaster/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileMaster/internal/utils"
)

const (
	// DefaultMaxMatches caps one streamed search.
	DefaultMaxMatches = 10000
	// DefaultSearchTimeout bounds one streamed search.
	DefaultSearchTimeout = 2 * time.Minute

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Tool clients are not browsers; CORS has no say here
	},
}

// Handler manages WebSocket connections
type Handler struct {
	files   *files.Service
	metrics *monitoring.Metrics
	logger  *logging.Logger

	maxMatches int
	timeout    time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records connection and message counts.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the connection logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l.Named("ws")
		}
	}
}

// WithMaxMatches caps matches per search.
func WithMaxMatches(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMatches = n
		}
	}
}

// WithSearchTimeout bounds each search.
func WithSearchTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler creates a new WebSocket handler
func NewHandler(svc *files.Service, opts ...Option) *Handler {
	h := &Handler{
		files:      svc,
		logger:     logging.NewNop(),
		maxMatches: DefaultMaxMatches,
		timeout:    DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// session is one connection. Writes are serialized; at most one search runs
// at a time.
type session struct {
	h      *Handler
	id     string
	actor  string
	conn   *websocket.Conn
	logger *logging.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(utils.MaxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	s := &session{h: h, id: uuid.New().String(), conn: conn}
	s.actor = "ws:" + s.id
	if c.GetHeader(middleware.HeaderActor) != "" {
		s.actor = middleware.ActorFrom(c)
	}
	s.logger = h.logger.With(zap.String("session_id", s.id), zap.String("actor", s.actor))

	// The request context ends when the handler returns, not when the peer
	// goes away, so the session owns its own.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer func() {
		cancel()
		s.wg.Wait()
	}()

	s.logger.Debug("WebSocket session opened")
	s.send(Message{Type: TypeConnected, SessionID: s.id})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("WebSocket read error", zap.Error(err))
			}
			break
		}
		h.count("in", msg.Type)

		switch msg.Type {
		case TypeSearch:
			s.startSearch(ctx, msg)
		case TypeCancel:
			s.stopSearch()
		case TypePing:
			s.send(Message{Type: TypePong, ID: msg.ID})
		default:
			s.sendError(msg.ID, "unknown message type")
		}
	}
	s.logger.Debug("WebSocket session closed")
}

func (s *session) startSearch(parent context.Context, msg Message) {
	req, err := filesystem.DecodeSearch(msg.Params)
	if err != nil {
		s.send(failure(msg.ID, err))
		return
	}
	limit := req.MaxResults
	if limit <= 0 || limit > s.h.maxMatches {
		limit = s.h.maxMatches
	}
	// One extra match tells a full page from a truncated one.
	req.MaxResults = limit + 1

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.sendError(msg.ID, "a search is already running")
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.h.timeout)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		final, ok := s.runSearch(ctx, msg.ID, req, limit)

		// Free the slot before the final frame goes out.
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()

		if ok {
			s.send(final)
		}
	}()
}

func (s *session) stopSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// runSearch streams matches and returns the frame that ends the search.
// ok is false when the peer is gone.
func (s *session) runSearch(ctx context.Context, reqID string, req files.SearchRequest, limit int) (final Message, ok bool) {
	timer := monitoring.NewTimer(s.h.metrics, files.OpSearchFiles)
	call := access.Call{Operation: files.OpSearchFiles, Actor: s.actor}

	seq, err := s.h.files.Search(ctx, call, req)
	if err != nil {
		timer.Stop(access.OutcomeOf(err))
		return failure(reqID, err), true
	}

	count, truncated := 0, false
	for m, err := range seq {
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			timer.Stop(audit.OutcomeIOFailure)
			return failure(reqID, err), true
		}
		if count == limit {
			truncated = true
			break
		}
		count++
		if err := s.send(Message{Type: TypeMatch, ID: reqID, Match: &m}); err != nil {
			timer.Stop(audit.OutcomeSuccess)
			return Message{}, false
		}
	}
	timer.Stop(audit.OutcomeSuccess)

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return Message{Type: TypeCancelled, ID: reqID, Count: count}, true
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Message{Type: TypeError, ID: reqID, Error: "search timed out", Count: count}, true
	}
	return Message{Type: TypeComplete, ID: reqID, Count: count, Truncated: truncated}, true
}

func (s *session) send(msg Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	s.h.count("out", msg.Type)
	return nil
}

func (s *session) sendError(reqID, message string) {
	s.send(Message{Type: TypeError, ID: reqID, Error: message})
}

// failure reports err with the same public message a tool call would.
func failure(reqID string, err error) Message {
	res, _ := filesystem.FailureFrom(err)
	msg := Message{Type: TypeError, ID: reqID, Kind: res.Kind, Outcome: res.Outcome}
	if res.Error != nil {
		msg.Error = *res.Error
	}
	return msg
}

func (h *Handler) count(direction, msgType string) {
	if h.metrics == nil {
		return
	}
	if !knownType(msgType) {
		msgType = "unknown"
	}
	h.metrics.RecordWSMessage(direction, msgType)
}
