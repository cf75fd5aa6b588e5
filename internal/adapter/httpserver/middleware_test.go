package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/platform/correlation"
	apperrors "github.com/pscheid92/instaplanner/internal/platform/errors"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/test")

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return apperrors.ValidationError("invalid input")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/test")

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return errors.New("standard error")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, apperrors.TypeInternal, resp.Type)
}

func TestMiddlewarePassesHTTPErrors(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/test")
	httpErr := echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return httpErr
	})

	assert.Same(t, httpErr, handler(c))
}

func TestMiddlewareSkipsCommittedResponse(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/test")

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		_ = c.String(http.StatusOK, "partial")
		return errors.New("late failure")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestMiddlewareAllErrorTypes(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperrors.Error
		wantStatus int
	}{
		{"validation", apperrors.ValidationError("invalid"), http.StatusBadRequest},
		{"forbidden", apperrors.ForbiddenError("no"), http.StatusForbidden},
		{"not_found", apperrors.NotFoundError("missing"), http.StatusNotFound},
		{"conflict", apperrors.ConflictError("duplicate"), http.StatusConflict},
		{"internal", apperrors.InternalError("failed", errors.New("cause")), http.StatusInternalServerError},
		{"external", apperrors.ExternalError("db down", errors.New("timeout")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/test")

			handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
				return tt.err
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.Type, resp.Type)
		})
	}
}

func TestCorrelationMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"propagates valid id", "abc-123", true},
		{"replaces invalid id", "bad id!", false},
		{"generates missing id", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/")
			if tt.header != "" {
				c.Request().Header.Set(correlation.Header, tt.header)
			}

			var seen string
			handler := correlationMiddleware(func(c echo.Context) error {
				seen, _ = correlation.ID(c.Request().Context())
				return nil
			})

			require.NoError(t, handler(c))
			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(correlation.Header))
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestCSRFContextMiddleware(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/")
	c.Set("csrf", "tok")

	var seen string
	handler := csrfContextMiddleware(func(c echo.Context) error {
		seen = app.CSRFToken(c.Request().Context())
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "tok", seen)
}
