package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
)

// QueryObserver receives the outcome of every query run through a traced pool.
type QueryObserver interface {
	ObserveQuery(operation string, seconds float64, err error)
}

// QueryTracer implements pgx.QueryTracer. Queries are labeled by their
// leading SQL keyword to keep label cardinality low.
type QueryTracer struct {
	observer QueryObserver
	clock    clockwork.Clock
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(observer QueryObserver, clock clockwork.Clock) *QueryTracer {
	return &QueryTracer{observer: observer, clock: clock}
}

type queryContextKey struct{}

type queryStart struct {
	at        time.Time
	operation string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryStart{at: t.clock.Now(), operation: operationOf(data.SQL)})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryContextKey{}).(queryStart)
	if !ok {
		return
	}
	t.observer.ObserveQuery(start.operation, t.clock.Since(start.at).Seconds(), data.Err)
}

func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	op := strings.ToLower(fields[0])
	switch op {
	case "select", "insert", "update", "delete", "with", "begin", "commit", "rollback":
		return op
	default:
		return "other"
	}
}
