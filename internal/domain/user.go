package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

type Permission string

const (
	PermissionSchedulePosts  Permission = "schedule_posts"
	PermissionManageSettings Permission = "manage_settings"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:  {PermissionSchedulePosts, PermissionManageSettings},
	RoleEditor: {PermissionSchedulePosts},
}

type User struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	PasswordHash string
	// Role is empty when the account uses the site's default role.
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Anonymous returns the user of a visitor that has not signed in.
func Anonymous() *User {
	return &User{}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == uuid.Nil
}

func (u *User) Can(p Permission) bool {
	if u.IsAnonymous() {
		return false
	}
	for _, granted := range rolePermissions[u.Role] {
		if granted == p {
			return true
		}
	}
	return false
}

func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Upsert(ctx context.Context, username, displayName, passwordHash string, role Role) (*User, error)
}
