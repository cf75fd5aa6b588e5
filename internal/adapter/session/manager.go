// Package session implements domain.SessionManager on gorilla/sessions
// cookie storage.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/instaplanner/internal/domain"
)

const (
	CookieName = "instaplanner_session"

	keySessionID = "sid"
	keyUserID    = "user_id"
	keyOpenedAt  = "opened_at"
)

// NewCookieStore builds the signed cookie store shared by all requests.
func NewCookieStore(secret string, maxAge time.Duration, secure bool, path string) *sessions.CookieStore {
	if path == "" {
		path = "/"
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

type Manager struct {
	store *sessions.CookieStore
	clock clockwork.Clock
}

func NewManager(store *sessions.CookieStore, clock clockwork.Clock) *Manager {
	return &Manager{store: store, clock: clock}
}

// Open resumes the cookie session or starts a fresh one. A cookie that no
// longer decodes (rotated secret, tampering) is replaced rather than
// reported.
func (m *Manager) Open(ctx context.Context, w http.ResponseWriter, r *http.Request) (domain.Session, error) {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		slog.DebugContext(ctx, "Discarding unreadable session cookie", "error", err)
		sess = sessions.NewSession(m.store, CookieName)
		opts := *m.store.Options
		sess.Options = &opts
		sess.IsNew = true
	}

	s := &cookieSession{raw: sess, r: r, w: w}
	if s.ID() == "" {
		sess.Values[keySessionID] = uuid.NewString()
		sess.Values[keyOpenedAt] = m.clock.Now().Unix()
		if err := s.Save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type cookieSession struct {
	raw *sessions.Session
	r   *http.Request
	w   http.ResponseWriter
}

func (s *cookieSession) ID() string {
	id, _ := s.raw.Values[keySessionID].(string)
	return id
}

func (s *cookieSession) UserID() (uuid.UUID, bool) {
	raw, ok := s.raw.Values[keyUserID].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetUserID signs the user in and rotates the session ID.
func (s *cookieSession) SetUserID(userID uuid.UUID) {
	s.raw.Values[keyUserID] = userID.String()
	s.raw.Values[keySessionID] = uuid.NewString()
}

func (s *cookieSession) Clear() {
	delete(s.raw.Values, keyUserID)
	s.raw.Values[keySessionID] = uuid.NewString()
}

func (s *cookieSession) AddFlash(message string) {
	s.raw.AddFlash(message)
}

// Flashes drains pending flash messages. Call Save afterwards to persist the
// removal.
func (s *cookieSession) Flashes() []string {
	raw := s.raw.Flashes()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (s *cookieSession) Save() error {
	if err := s.raw.Save(s.r, s.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
