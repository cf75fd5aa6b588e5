package httpserver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/platform/config"
)

// Dispatcher runs one request through bootstrap and dispatch.
type Dispatcher interface {
	Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) (app.Result, error)
}

// Server is the public listener. Every page goes through the dispatcher;
// only theme assets are served directly.
type Server struct {
	echo   *echo.Echo
	config *config.Config

	dispatcher Dispatcher
	assets     fs.FS
	middleware []echo.MiddlewareFunc
}

type Option func(*Server)

// WithMiddleware appends middleware that runs after the built-in stack,
// for example request metrics.
func WithMiddleware(mw ...echo.MiddlewareFunc) Option {
	return func(s *Server) { s.middleware = append(s.middleware, mw...) }
}

func NewServer(cfg *config.Config, dispatcher Dispatcher, assets fs.FS, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:       e,
		config:     cfg,
		dispatcher: dispatcher,
		assets:     assets,
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "base_path", s.config.BasePath)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
