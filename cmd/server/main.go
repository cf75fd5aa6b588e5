package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/instaplanner/internal/adapter/httpserver"
	"github.com/pscheid92/instaplanner/internal/adapter/metrics"
	"github.com/pscheid92/instaplanner/internal/adapter/postgres"
	"github.com/pscheid92/instaplanner/internal/adapter/redis"
	"github.com/pscheid92/instaplanner/internal/adapter/session"
	"github.com/pscheid92/instaplanner/internal/adapter/uri"
	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/auth"
	"github.com/pscheid92/instaplanner/internal/models"
	"github.com/pscheid92/instaplanner/internal/options"
	"github.com/pscheid92/instaplanner/internal/platform/config"
	"github.com/pscheid92/instaplanner/internal/platform/logging"
	"github.com/pscheid92/instaplanner/internal/platform/retry"
	"github.com/pscheid92/instaplanner/internal/platform/version"
	"github.com/pscheid92/instaplanner/internal/router"
	"github.com/pscheid92/instaplanner/internal/theme"
	"github.com/pscheid92/instaplanner/web"
)

const (
	shutdownTimeout     = 10 * time.Second
	cacheEvictInterval  = time.Minute
	breakerDelay        = 10 * time.Second
	redisStartupTimeout = 30 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupRedis returns nil when no REDIS_URL is set; the option cache then
// runs on its in-process layer only.
func setupRedis(ctx context.Context, cfg *config.Config, cacheMetrics *metrics.CacheMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, option cache is process-local")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisStartupTimeout)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Redis not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	client, err := retry.Do(ctx, policy, retry.Always, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL,
			redis.NewMetricsHook(cacheMetrics),
			redis.NewCircuitBreakerHook(breakerDelay, cacheMetrics.ObserveCircuitState),
		)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupTheme(cfg *config.Config) *theme.Theme {
	th, err := theme.Load(web.Themes, "themes/"+cfg.Theme)
	if err != nil {
		slog.Error("Failed to load theme", "theme", cfg.Theme, "error", err)
		os.Exit(1)
	}
	slog.Info("Theme loaded", "theme", th.Manifest.Name, "pages", th.Pages())
	return th
}

func runGracefulShutdown(cancel context.CancelFunc, srv *httpserver.Server, ops *httpserver.OpsServer) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := ops.Shutdown(shutdownCtx); err != nil {
			slog.Error("Ops server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)
	cacheMetrics := metrics.NewCacheMetrics(registry)
	dbMetrics := metrics.NewDBMetrics(registry)

	redisClient := setupRedis(ctx, cfg, cacheMetrics)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	optionCache := redis.NewOptionCache(redisClient, clock, cfg.OptionsCacheTTL, redis.WithLookupObserver(cacheMetrics.ObserveLookup))
	stopEviction := optionCache.StartEvictionTimer(cacheEvictInterval)
	defer stopEviction()
	go optionCache.Subscribe(ctx)

	provider := postgres.NewProvider(clock,
		postgres.WithOptionDecorator(optionCache.Decorate),
		postgres.WithQueryTracer(postgres.NewQueryTracer(dbMetrics, clock)),
	)
	defer provider.Close()

	cookiePath := cfg.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}
	sessions := session.NewManager(session.NewCookieStore(cfg.SessionSecret, cfg.SessionMaxAge, cfg.IsProduction(), cookiePath), clock)

	th := setupTheme(cfg)
	pages := theme.NewPageRenderer(th)

	routes := app.NewRegistry()
	routes.RegisterPages(th.Pages()...)
	models.Register(routes, pages)

	loader := app.NewModelLoader(routes, pages, version.Get().String(), app.WithLoadObserver(dispatchMetrics.ObserveModelLoad))

	kernel := app.NewKernel(
		app.Collaborators{
			Paths:       uri.NewResolver(cfg.BasePath),
			Sessions:    sessions,
			Connections: provider,
			Options:     options.NewFactory(),
			Users:       auth.NewResolver(),
		},
		config.NewParamsSource(cfg).Params,
		loader,
		router.New(loader),
		app.WithObserver(dispatchMetrics),
	)

	srv := httpserver.NewServer(cfg, kernel, th.Assets(), httpserver.WithMiddleware(httpMetrics.Middleware()))

	healthChecks := []httpserver.HealthCheck{{Name: "postgres", Check: provider.Ping}}
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	ops := httpserver.NewOpsServer(cfg.OpsPort, metrics.Handler(registry), healthChecks...)

	done := runGracefulShutdown(cancel, srv, ops)

	go func() {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
