// Package postgres is the persistent store: connection handling, schema
// migrations and the option and user repositories.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/pscheid92/instaplanner/internal/domain"
)

//go:embed schemas/*.sql
var migrationFiles embed.FS

// DSN renders params as a postgres:// URL.
func DSN(params domain.ConnectionParams) string {
	host := params.Host
	if params.Port != "" {
		host = net.JoinHostPort(params.Host, params.Port)
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + params.Name,
	}
	if params.Password != "" {
		u.User = url.UserPassword(params.User, params.Password)
	} else {
		u.User = url.User(params.User)
	}
	if params.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {params.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens and pings a pool. tracer may be nil.
func Connect(ctx context.Context, databaseURL string, tracer pgx.QueryTracer) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if tracer != nil {
		poolCfg.ConnConfig.Tracer = tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

const (
	// "instapl" in ASCII hex
	migrationLockID             = 0x696e737461706c
	migrationLockReleaseTimeout = 5 * time.Second
)

// RunMigrationsWithLock migrates under a session advisory lock so that
// several processes connecting at once migrate exactly once.
func RunMigrationsWithLock(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	unlock, err := migrationLock(ctx, conn.Conn())
	if err != nil {
		return err
	}
	defer unlock()

	return runMigrations(ctx, conn.Conn())
}

func runMigrations(ctx context.Context, conn *pgx.Conn) error {
	migrationFS, err := fs.Sub(migrationFiles, "schemas")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, "public.schema_version")
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.LoadMigrations(migrationFS); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	from, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		slog.Debug("Could not read schema version, assuming fresh database", "error", err)
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if to := int32(len(migrator.Migrations)); to != from {
		slog.Info("Database migrated", "from_version", from, "to_version", to)
	}
	return nil
}

func migrationLock(ctx context.Context, conn *pgx.Conn) (func(), error) {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), migrationLockReleaseTimeout)
		defer cancel()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("Failed to release migration lock", "error", err)
		}
	}, nil
}
