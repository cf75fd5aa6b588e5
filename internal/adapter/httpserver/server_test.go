package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/domain"
	"github.com/pscheid92/instaplanner/internal/platform/config"
)

type mockDispatcher struct {
	serveFn func(ctx context.Context, w http.ResponseWriter, r *http.Request) (app.Result, error)
	paths   []string
}

func (m *mockDispatcher) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) (app.Result, error) {
	m.paths = append(m.paths, r.URL.Path)
	if m.serveFn != nil {
		return m.serveFn(ctx, w, r)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("page"))
	return app.Result{State: app.StateRendered}, nil
}

var testAssets = fstest.MapFS{
	"style.css": {Data: []byte("body{}")},
}

func testConfig(basePath string) *config.Config {
	return &config.Config{
		Port:          "0",
		BasePath:      basePath,
		SessionMaxAge: time.Hour,
		RateLimit:     10,
		RateBurst:     30,
	}
}

func newTestServer(t *testing.T, d Dispatcher, basePath string) *Server {
	t.Helper()
	return NewServer(testConfig(basePath), d, testAssets)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDispatch_AllPathsReachKernel(t *testing.T) {
	d := &mockDispatcher{}
	s := newTestServer(t, d, "")

	for _, path := range []string{"/", "/dashboard", "/dashboard/settings", "/anything/else"} {
		rec := get(s, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "page", rec.Body.String(), path)
	}
	assert.Equal(t, []string{"/", "/dashboard", "/dashboard/settings", "/anything/else"}, d.paths)
}

func TestDispatch_RouteNotFoundIsPlainText(t *testing.T) {
	d := &mockDispatcher{serveFn: func(context.Context, http.ResponseWriter, *http.Request) (app.Result, error) {
		return app.Result{State: app.StateTerminatedNotFound}, &domain.RouteNotFoundError{Name: "404"}
	}}
	s := newTestServer(t, d, "")

	rec := get(s, "/missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Unable to find model '404'", rec.Body.String())
}

func TestDispatch_CollaboratorErrorIsStructured(t *testing.T) {
	d := &mockDispatcher{serveFn: func(context.Context, http.ResponseWriter, *http.Request) (app.Result, error) {
		return app.Result{}, errors.New("open session: boom")
	}}
	s := newTestServer(t, d, "")

	rec := get(s, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error","type":"internal"}`, rec.Body.String())
}

func TestAssetsBypassKernel(t *testing.T) {
	d := &mockDispatcher{}
	s := newTestServer(t, d, "")

	rec := get(s, "/assets/style.css")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Empty(t, d.paths)
}

func TestBasePath(t *testing.T) {
	d := &mockDispatcher{}
	s := newTestServer(t, d, "/planner")

	assert.Equal(t, http.StatusOK, get(s, "/planner").Code)
	assert.Equal(t, http.StatusOK, get(s, "/planner/login").Code)
	assert.Equal(t, "body{}", get(s, "/planner/assets/style.css").Body.String())
	assert.Equal(t, http.StatusNotFound, get(s, "/elsewhere").Code)
	assert.Equal(t, []string{"/planner", "/planner/login"}, d.paths)
}

func TestCSRFTokenReachesDispatcher(t *testing.T) {
	var token string
	d := &mockDispatcher{serveFn: func(ctx context.Context, w http.ResponseWriter, _ *http.Request) (app.Result, error) {
		token = app.CSRFToken(ctx)
		w.WriteHeader(http.StatusOK)
		return app.Result{State: app.StateRendered}, nil
	}}
	s := newTestServer(t, d, "")

	rec := get(s, "/login")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, token)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "csrf_token="+token)
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	d := &mockDispatcher{}
	s := newTestServer(t, d, "")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=ana"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.Empty(t, d.paths)
}

func TestSecurityHeaders(t *testing.T) {
	rec := get(newTestServer(t, &mockDispatcher{}, ""), "/")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
