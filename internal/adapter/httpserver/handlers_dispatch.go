package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// handleDispatch hands the request to the kernel. A route miss is the one
// error answered here, as a plain-text 404.
func (s *Server) handleDispatch(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := s.dispatcher.Serve(ctx, c.Response(), c.Request())
	if err == nil {
		return nil
	}

	var notFound *domain.RouteNotFoundError
	if errors.As(err, &notFound) {
		if c.Response().Committed {
			return nil
		}
		if err := c.String(http.StatusNotFound, notFound.Error()); err != nil {
			return fmt.Errorf("failed to write not found response: %w", err)
		}
		return nil
	}

	slog.DebugContext(ctx, "Dispatch failed", "state", res.State.String(), "error", err)
	return err
}
