package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// OptionDecorator wraps the option repository of a new connection, for
// example with a cache. namespace identifies the database.
type OptionDecorator func(namespace string, repo domain.OptionRepository) domain.OptionRepository

type failedAttempt struct {
	at  time.Time
	err error
}

// Provider implements domain.ConnectionProvider. Pools are opened lazily on
// first use, migrated once, and shared by all later requests with the same
// parameters. A failed attempt is remembered for retryAfter so that an
// unreachable database does not stall every request.
//
// Concurrent requests for the same parameters share one dial. The dial is
// detached from the request context, so a cancelled request neither aborts
// it nor gets its cancellation remembered as a failure.
type Provider struct {
	mu       sync.Mutex
	conns    map[string]*Conn
	failures map[string]failedAttempt
	group    singleflight.Group

	clock          clockwork.Clock
	connectTimeout time.Duration
	retryAfter     time.Duration
	decorate       OptionDecorator
	tracer         pgx.QueryTracer
}

type ProviderOption func(*Provider)

func WithOptionDecorator(d OptionDecorator) ProviderOption {
	return func(p *Provider) { p.decorate = d }
}

func WithQueryTracer(t pgx.QueryTracer) ProviderOption {
	return func(p *Provider) { p.tracer = t }
}

func WithConnectTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) { p.connectTimeout = d }
}

func WithRetryAfter(d time.Duration) ProviderOption {
	return func(p *Provider) { p.retryAfter = d }
}

func NewProvider(clock clockwork.Clock, opts ...ProviderOption) *Provider {
	p := &Provider{
		conns:          make(map[string]*Conn),
		failures:       make(map[string]failedAttempt),
		clock:          clock,
		connectTimeout: 5 * time.Second,
		retryAfter:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Connect(ctx context.Context, params domain.ConnectionParams) (domain.Connection, error) {
	dsn := DSN(params)
	if conn, ok, err := p.cached(dsn); ok {
		return conn, err
	}

	ch := p.group.DoChan(dsn, func() (any, error) {
		if conn, ok, err := p.cached(dsn); ok {
			return conn, err
		}

		conn, err := p.open(context.WithoutCancel(ctx), dsn, params.Host+"/"+params.Name)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.failures[dsn] = failedAttempt{at: p.clock.Now(), err: err}
			return nil, err
		}
		delete(p.failures, dsn)
		p.conns[dsn] = conn
		return conn, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Conn), nil
	}
}

// cached reports an open pool or a failure that is still within retryAfter.
func (p *Provider) cached(dsn string) (*Conn, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[dsn]; ok {
		return conn, true, nil
	}
	if f, ok := p.failures[dsn]; ok && p.clock.Since(f.at) < p.retryAfter {
		return nil, true, f.err
	}
	return nil, false, nil
}

func (p *Provider) open(ctx context.Context, dsn, namespace string) (*Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	pool, err := Connect(ctx, dsn, p.tracer)
	if err != nil {
		return nil, err
	}
	if err := RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", namespace, err)
	}

	var options domain.OptionRepository = NewOptionRepo(pool)
	if p.decorate != nil {
		options = p.decorate(namespace, options)
	}
	return &Conn{pool: pool, options: options, users: NewUserRepo(pool)}, nil
}

// Ping checks every open pool. With no open pool there is nothing to check.
func (p *Provider) Ping(ctx context.Context) error {
	p.mu.Lock()
	conns := make([]*Conn, 0, len(p.conns))
	for _, c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for dsn, c := range p.conns {
		c.pool.Close()
		delete(p.conns, dsn)
	}
	slog.Info("Database pools closed")
}

// Conn implements domain.Connection on a pgx pool.
type Conn struct {
	pool    *pgxpool.Pool
	options domain.OptionRepository
	users   *UserRepo
}

func (c *Conn) Options() domain.OptionRepository { return c.options }
func (c *Conn) Users() domain.UserRepository     { return c.users }

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
