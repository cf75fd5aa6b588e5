package domain

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Session is the per-request view of the visitor's session.
type Session interface {
	ID() string
	UserID() (uuid.UUID, bool)
	SetUserID(userID uuid.UUID)
	// Clear drops the signed-in user and rotates the session ID.
	Clear()
	AddFlash(message string)
	Flashes() []string
	Save() error
}

type SessionManager interface {
	// Open resumes the visitor's session or starts a new one. A new session
	// is persisted immediately so its ID survives the request.
	Open(ctx context.Context, w http.ResponseWriter, r *http.Request) (Session, error)
}
