package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/instaplanner/internal/domain"
)

// --- Mock implementations ---

type recorder struct {
	calls []string
}

func (r *recorder) record(call string) {
	r.calls = append(r.calls, call)
}

type mockPaths struct {
	rec *recorder
}

func (m *mockPaths) Parse(rawPath string) domain.Path {
	m.rec.record("path")
	var segments []string
	for _, s := range strings.Split(rawPath, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return domain.NewPath("", segments...)
}

type mockSession struct {
	userID  uuid.UUID
	flashes []string
}

func (s *mockSession) ID() string { return "sid" }

func (s *mockSession) UserID() (uuid.UUID, bool) {
	return s.userID, s.userID != uuid.Nil
}

func (s *mockSession) SetUserID(id uuid.UUID) { s.userID = id }
func (s *mockSession) Clear()                 { s.userID = uuid.Nil }
func (s *mockSession) AddFlash(m string)      { s.flashes = append(s.flashes, m) }

func (s *mockSession) Flashes() []string {
	f := s.flashes
	s.flashes = nil
	return f
}

func (s *mockSession) Save() error { return nil }

type mockSessions struct {
	rec    *recorder
	openFn func() (domain.Session, error)
}

func (m *mockSessions) Open(_ context.Context, _ http.ResponseWriter, _ *http.Request) (domain.Session, error) {
	m.rec.record("session")
	if m.openFn != nil {
		return m.openFn()
	}
	return &mockSession{}, nil
}

type mockConn struct{}

func (mockConn) Options() domain.OptionRepository { return nil }
func (mockConn) Users() domain.UserRepository     { return nil }
func (mockConn) Ping(context.Context) error       { return nil }

type mockConnections struct {
	rec       *recorder
	connectFn func(params domain.ConnectionParams) (domain.Connection, error)
}

func (m *mockConnections) Connect(_ context.Context, params domain.ConnectionParams) (domain.Connection, error) {
	m.rec.record("connect")
	if m.connectFn != nil {
		return m.connectFn(params)
	}
	return mockConn{}, nil
}

// mapOptions serves stored values only when bound to a connection.
type mapOptions struct {
	conn   domain.Connection
	values map[string]string
}

func (o *mapOptions) Get(_ context.Context, key, def string) (string, error) {
	if o.conn == nil {
		return def, nil
	}
	if v, ok := o.values[key]; ok {
		return v, nil
	}
	return def, nil
}

type mockOptionsFactory struct {
	rec    *recorder
	values map[string]string
	bound  domain.Connection
}

func (m *mockOptionsFactory) New(conn domain.Connection) domain.Options {
	m.rec.record("options")
	m.bound = conn
	return &mapOptions{conn: conn, values: m.values}
}

type mockUsers struct {
	rec  *recorder
	seen *Instance
}

func (m *mockUsers) Resolve(_ context.Context, inst *Instance) (*domain.User, error) {
	m.rec.record("user")
	m.seen = inst
	return domain.Anonymous(), nil
}

type mockRouter struct {
	handled  *Instance
	handleFn func(inst *Instance) error
}

func (m *mockRouter) Handle(_ context.Context, inst *Instance) error {
	m.handled = inst
	if m.handleFn != nil {
		return m.handleFn(inst)
	}
	return nil
}

type renderCall struct {
	route, display, version string
}

type recordingRenderer struct {
	calls []renderCall
	err   error
}

func (r *recordingRenderer) Render(_ context.Context, _ *Instance, route, display, version string) error {
	r.calls = append(r.calls, renderCall{route: route, display: display, version: version})
	return r.err
}

type recordingObserver struct {
	outcomes  []Outcome
	terminals []State
}

func (o *recordingObserver) ObserveOutcome(outcome Outcome) { o.outcomes = append(o.outcomes, outcome) }
func (o *recordingObserver) ObserveTerminal(state State)    { o.terminals = append(o.terminals, state) }
