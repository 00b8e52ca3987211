package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"backend-pedalhub/internal/auth"
	"backend-pedalhub/internal/db"
	"backend-pedalhub/internal/metrics"
	"backend-pedalhub/internal/shared/geo"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
)

const (
	gatheringStatus = "Gathering initial points..."
	finalizeTimeout = 10 * time.Second
)

type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAuthFailed
	StateBootstrapped
	StateStreaming
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthFailed:
		return "AUTH_FAILED"
	case StateBootstrapped:
		return "BOOTSTRAPPED"
	case StateStreaming:
		return "STREAMING"
	case StateFinalizing:
		return "FINALIZING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

type Authenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

type Corrector interface {
	Trace(ctx context.Context, points []geo.Point) []geo.Point
}

// Store is the persistence a session drives. It is built per session on top
// of the session's own connection.
type Store interface {
	CreatePlaceholder(ctx context.Context, userID string) (routeID, reportID string, err error)
	Finalize(ctx context.Context, routeID, reportID string, g Geometry, r FinalReport) error
	DeletePlaceholder(ctx context.Context, routeID, reportID string) error
}

type StoreFactory func(q db.TxQuerier) Store

type Broadcaster interface {
	Broadcast(routeID string, payload []byte)
}

type Notifier interface {
	Send(ctx context.Context, userID, title, body string) error
}

// Conn is the duplex transport of one recording.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v interface{}) error
}

type Deps struct {
	Auth       Authenticator
	Sessions   db.SessionSource
	NewStore   StoreFactory
	Corrector  Corrector
	Broadcast  Broadcaster
	Notifier   Notifier
	WindowSize int
	Now        func() time.Time
}

// Controller runs live recording sessions. Each call to Serve owns its own
// window, accumulator and database session; nothing is shared between calls.
type Controller struct {
	deps Deps
}

func NewController(deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps}
}

type fixMessage struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Ele *float64 `json:"ele,omitempty"`
}

type statusMessage struct {
	Status   string `json:"status"`
	RouteID  string `json:"route_id,omitempty"`
	ReportID string `json:"report_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type liveMessage struct {
	LiveStats
	CorrectedCoordinate geo.Point `json:"corrected_coordinate"`
}

type session struct {
	*Controller
	conn     Conn
	store    Store
	userID   string
	routeID  string
	reportID string
	window   *Window
	acc      *Accumulator
	state    State
}

// Serve drives one connection to completion and returns the terminal state.
func (c *Controller) Serve(ctx context.Context, conn Conn, token string) State {
	s := &session{Controller: c, conn: conn, state: StateConnecting}
	s.state = StateAuthenticating

	identity, err := c.deps.Auth.Authenticate(token)
	if err != nil {
		metrics.LiveSessions.WithLabelValues(metrics.OutcomeAuthFailed).Inc()
		s.close(websocket.ClosePolicyViolation, "invalid token")
		s.state = StateAuthFailed
		return s.state
	}
	s.userID = identity.UserID

	dbSession, err := c.deps.Sessions.Acquire(ctx)
	if err != nil {
		log.Printf("tracking: acquire session for %s: %v", s.userID, err)
		metrics.LiveSessions.WithLabelValues(metrics.OutcomeError).Inc()
		s.close(websocket.CloseInternalServerErr, "database unavailable")
		s.state = StateClosed
		return s.state
	}
	defer dbSession.Release()

	s.store = c.deps.NewStore(dbSession)
	s.routeID, s.reportID, err = s.store.CreatePlaceholder(ctx, s.userID)
	if err != nil {
		log.Printf("tracking: create placeholder for %s: %v", s.userID, err)
		metrics.LiveSessions.WithLabelValues(metrics.OutcomeError).Inc()
		s.close(websocket.CloseInternalServerErr, "could not start session")
		s.state = StateClosed
		return s.state
	}

	s.state = StateBootstrapped
	metrics.LiveSessionsActive.Inc()
	defer metrics.LiveSessionsActive.Dec()

	s.window = NewWindow(c.deps.WindowSize)
	s.acc = NewAccumulator(c.deps.Now)

	if err := conn.WriteJSON(statusMessage{Status: "session_started", RouteID: s.routeID, ReportID: s.reportID}); err == nil {
		s.stream(ctx)
	}

	s.state = StateFinalizing
	s.finalize(ctx)
	s.state = StateClosed
	return s.state
}

func (s *session) stream(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.state = StateStreaming
		if err := s.handle(ctx, data); err != nil {
			return
		}
	}
}

// handle processes one inbound frame. Only transport errors are returned;
// a bad fix is answered and the session continues.
func (s *session) handle(ctx context.Context, data []byte) error {
	metrics.FixesReceived.Inc()

	fix, err := parseFix(data)
	if err != nil {
		metrics.FixesRejected.Inc()
		return s.conn.WriteJSON(statusMessage{Status: "error", Detail: err.Error()})
	}

	s.window.Push(fix)
	if s.window.Len() < 2 {
		return s.conn.WriteJSON(statusMessage{Status: gatheringStatus})
	}

	snapshot := s.window.Snapshot()
	shape := make([]geo.Point, len(snapshot))
	for i, f := range snapshot {
		shape[i] = geo.Point{Lat: f.Lat, Lon: f.Lon}
	}

	corrected := s.deps.Corrector.Trace(ctx, shape)
	if len(corrected) == 0 {
		metrics.Corrections.WithLabelValues("empty").Inc()
		return nil
	}
	metrics.Corrections.WithLabelValues("ok").Inc()

	last := corrected[len(corrected)-1]
	point := s.acc.AddPoint(last.Lat, last.Lon, fix.Ele)

	msg := liveMessage{LiveStats: s.acc.LiveStats(), CorrectedCoordinate: point.Point()}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if s.deps.Broadcast != nil {
		s.deps.Broadcast.Broadcast(s.routeID, payload)
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) finalize(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	report, ok := s.acc.FinalReport()
	if !ok {
		if err := s.store.DeletePlaceholder(ctx, s.routeID, s.reportID); err != nil {
			log.Printf("tracking: discard route %s: %v", s.routeID, err)
			metrics.LiveSessions.WithLabelValues(metrics.OutcomeError).Inc()
			return
		}
		metrics.LiveSessions.WithLabelValues(metrics.OutcomeDiscarded).Inc()
		return
	}

	if err := s.store.Finalize(ctx, s.routeID, s.reportID, s.acc.Geometry(), report); err != nil {
		log.Printf("tracking: finalize route %s: %v", s.routeID, err)
		metrics.LiveSessions.WithLabelValues(metrics.OutcomeError).Inc()
		// placeholders must not outlive a failed finalize
		if err := s.store.DeletePlaceholder(ctx, s.routeID, s.reportID); err != nil {
			log.Printf("tracking: discard route %s after failed finalize: %v", s.routeID, err)
		}
		return
	}
	metrics.LiveSessions.WithLabelValues(metrics.OutcomeFinalized).Inc()

	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Send(ctx, s.userID, "PedalHub", "ride saved"); err != nil {
			log.Printf("tracking: notify %s: %v", s.userID, err)
		}
	}
}

func (s *session) close(code int, reason string) {
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

var validate = validator.New()

var errBadShape = errors.New("fix must be a JSON object with lat and lon")

func parseFix(data []byte) (Fix, error) {
	var msg fixMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Fix{}, errBadShape
	}
	if err := validate.Struct(msg); err != nil {
		return Fix{}, err
	}
	return Fix{Lat: *msg.Lat, Lon: *msg.Lon, Ele: msg.Ele}, nil
}

// StartSession creates placeholder records outside a socket, for clients that
// bootstrap before connecting.
func (c *Controller) StartSession(ctx context.Context, userID string) (string, string, error) {
	dbSession, err := c.deps.Sessions.Acquire(ctx)
	if err != nil {
		return "", "", err
	}
	defer dbSession.Release()
	return c.deps.NewStore(dbSession).CreatePlaceholder(ctx, userID)
}
