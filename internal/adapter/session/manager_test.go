package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret-0123456789ab"

func newTestManager() *Manager {
	store := NewCookieStore(testSecret, time.Hour, false, "/")
	return NewManager(store, clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
}

// carryCookies copies Set-Cookie headers from a response onto a new request.
func carryCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestManager_NewSessionIsPersistedImmediately(t *testing.T) {
	m := newTestManager()
	rec := httptest.NewRecorder()

	sess, err := m.Open(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	resumed, err := m.Open(context.Background(), httptest.NewRecorder(), carryCookies(t, rec))
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), resumed.ID())
}

func TestManager_ResumedSessionIsNotRewritten(t *testing.T) {
	m := newTestManager()
	first := httptest.NewRecorder()
	_, err := m.Open(context.Background(), first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	second := httptest.NewRecorder()
	_, err = m.Open(context.Background(), second, carryCookies(t, first))
	require.NoError(t, err)
	assert.Empty(t, second.Result().Cookies())
}

func TestManager_UserRoundTrip(t *testing.T) {
	m := newTestManager()
	rec := httptest.NewRecorder()
	sess, err := m.Open(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	anonID := sess.ID()

	_, ok := sess.UserID()
	assert.False(t, ok)

	userID := uuid.New()
	sess.SetUserID(userID)
	assert.NotEqual(t, anonID, sess.ID(), "sign-in rotates the session id")

	rec2 := httptest.NewRecorder()
	sess2, err := m.Open(context.Background(), rec2, carryCookies(t, rec))
	require.NoError(t, err)
	sess2.SetUserID(userID)
	require.NoError(t, sess2.Save())

	sess3, err := m.Open(context.Background(), httptest.NewRecorder(), carryCookies(t, rec2))
	require.NoError(t, err)
	got, ok := sess3.UserID()
	require.True(t, ok)
	assert.Equal(t, userID, got)

	sess3.Clear()
	_, ok = sess3.UserID()
	assert.False(t, ok)
}

func TestManager_Flashes(t *testing.T) {
	m := newTestManager()
	rec := httptest.NewRecorder()
	sess, err := m.Open(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	sess.AddFlash("Invalid username or password")
	require.NoError(t, sess.Save())

	next, err := m.Open(context.Background(), httptest.NewRecorder(), carryCookies(t, rec))
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid username or password"}, next.Flashes())
	assert.Empty(t, next.Flashes())
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	m := newTestManager()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()

	sess, err := m.Open(context.Background(), rec, req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID())
	assert.Len(t, rec.Result().Cookies(), 1)
}
