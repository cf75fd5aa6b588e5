package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrOptionNotFound     = errors.New("option not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RouteNotFoundError is returned when neither a full model nor a themed page
// exists for a route. It ends the request.
type RouteNotFoundError struct {
	Name string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("Unable to find model '%s'", e.Name)
}
