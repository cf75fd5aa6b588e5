package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/instaplanner/internal/domain"
)

type OptionRepo struct {
	pool *pgxpool.Pool
}

func NewOptionRepo(pool *pgxpool.Pool) *OptionRepo {
	return &OptionRepo{pool: pool}
}

func (r *OptionRepo) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrOptionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get option %s: %w", name, err)
	}
	return value, nil
}

func (r *OptionRepo) Set(ctx context.Context, name, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO options (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		name, value)
	if err != nil {
		return fmt.Errorf("failed to set option %s: %w", name, err)
	}
	return nil
}
