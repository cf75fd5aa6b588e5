// Command useradd creates a dashboard user, or resets the password and role
// of an existing one, in the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/instaplanner/internal/adapter/postgres"
	"github.com/pscheid92/instaplanner/internal/auth"
	"github.com/pscheid92/instaplanner/internal/domain"
	"github.com/pscheid92/instaplanner/internal/platform/config"
	"github.com/pscheid92/instaplanner/internal/platform/logging"
	"github.com/pscheid92/instaplanner/internal/platform/retry"
)

const timeout = time.Minute

func main() {
	var (
		username    = flag.String("username", "", "Username to create or update (required)")
		password    = flag.String("password", os.Getenv("USERADD_PASSWORD"), "Password (or set USERADD_PASSWORD env)")
		displayName = flag.String("display-name", "", "Name shown in the dashboard")
		role        = flag.String("role", "", "admin or editor; empty uses the site's default role")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}
	if err := validateRole(*role); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, cfg.LogFormat)

	params, err := config.NewParamsSource(cfg).Params()
	if err != nil {
		log.Fatalf("Failed to resolve database parameters: %v", err)
	}
	if !params.Configured() {
		log.Fatal("Database is not configured (set DB_HOST, DB_NAME and DB_USER or DB_CONFIG_FILE)")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Invalid password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	user, err := upsertUser(ctx, params, *username, *displayName, hash, domain.Role(*role))
	if err != nil {
		log.Fatalf("Failed to save user: %v", err)
	}
	slog.Info("User saved", "user_id", user.ID, "username", user.Username, "role", user.Role)
}

func validateRole(role string) error {
	switch domain.Role(role) {
	case "", domain.RoleAdmin, domain.RoleEditor:
		return nil
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

func upsertUser(ctx context.Context, params domain.ConnectionParams, username, displayName, hash string, role domain.Role) (*domain.User, error) {
	policy := retry.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Database not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	pool, err := retry.Do(ctx, policy, retry.Always, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, postgres.DSN(params), nil)
	})
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		return nil, err
	}

	return postgres.NewUserRepo(pool).Upsert(ctx, username, displayName, hash, role)
}
