package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/instaplanner/internal/platform/version"
)

const readinessCheckTimeout = 5 * time.Second

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsServer serves health checks, build info and metrics on a separate port.
type OpsServer struct {
	echo         *echo.Echo
	port         string
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewOpsServer(port string, metricsHandler http.Handler, healthChecks ...HealthCheck) *OpsServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &OpsServer{
		echo:         e,
		port:         port,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	e.GET("/health/live", s.handleLiveness)
	e.GET("/health/ready", s.handleReadiness)
	e.GET("/version", s.handleVersion)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}
	return s
}

func (s *OpsServer) Start() error {
	slog.Info("Starting ops server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil {
		return fmt.Errorf("failed to start ops server: %w", err)
	}
	return nil
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown ops server: %w", err)
	}
	return nil
}

func (s *OpsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *OpsServer) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *OpsServer) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessCheckTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		err := hc.Check(ctx)
		if err == nil {
			continue
		}

		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": hc.Name,
			"error":        err.Error(),
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *OpsServer) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
