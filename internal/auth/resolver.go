// Package auth resolves the signed-in user and checks credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/domain"
)

// Resolver implements app.UserResolver.
type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

// Resolve returns the session's user, or the anonymous user when nobody is
// signed in or there is no connection. A session pointing at a deleted user
// is signed out.
func (Resolver) Resolve(ctx context.Context, inst *app.Instance) (*domain.User, error) {
	userID, ok := inst.Session.UserID()
	if !ok || inst.Conn == nil {
		return domain.Anonymous(), nil
	}

	user, err := inst.Conn.Users().GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		slog.WarnContext(ctx, "Session references unknown user, signing out", "user_id", userID)
		inst.Session.Clear()
		if err := inst.Session.Save(); err != nil {
			return nil, err
		}
		return domain.Anonymous(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	if user.Role == "" {
		role, err := inst.Options.Get(ctx, domain.OptionDefaultRole, string(domain.RoleEditor))
		if err != nil {
			return nil, err
		}
		user.Role = domain.Role(role)
	}
	return user, nil
}
