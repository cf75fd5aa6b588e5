package app

import (
	"context"
	"net/http"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Instance is the per-request application aggregate. It is created by
// Kernel.Bootstrap and never outlives the request that created it.
type Instance struct {
	Path    domain.Path
	Session domain.Session
	// Conn is nil when the store is not configured or could not be reached.
	Conn    domain.Connection
	Options domain.Options
	User    *domain.User

	// Configured is derived from the connection parameters, not from Conn.
	Configured bool

	Request  *http.Request
	Response http.ResponseWriter
}

// Option resolves a named option for this request.
func (i *Instance) Option(ctx context.Context, key, def string) (string, error) {
	return i.Options.Get(ctx, key, def)
}

// UserResolver resolves the current user from a fully initialized instance.
type UserResolver interface {
	Resolve(ctx context.Context, inst *Instance) (*domain.User, error)
}

// SubRouter takes over the response for the authenticated areas.
type SubRouter interface {
	Handle(ctx context.Context, inst *Instance) error
}

type csrfKey struct{}

// WithCSRFToken returns a context carrying the request's CSRF token.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

// CSRFToken extracts the CSRF token from ctx, or "" if there is none.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}
