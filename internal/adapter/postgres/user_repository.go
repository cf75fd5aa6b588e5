package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/instaplanner/internal/domain"
)

const userColumns = `id, username, display_name, password_hash, role, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row, "by ID")
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row, "by username")
}

// Upsert creates the user or replaces display name, hash and role of an
// existing one. The ID of an existing user is kept.
func (r *UserRepo) Upsert(ctx context.Context, username, displayName, passwordHash string, role domain.Role) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    password_hash = EXCLUDED.password_hash,
		    role = EXCLUDED.role,
		    updated_at = NOW()
		RETURNING `+userColumns,
		uuid.New(), username, displayName, passwordHash, string(role))
	return scanUser(row, "upsert")
}

func scanUser(row pgx.Row, op string) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", op, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}
