package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedQuery struct {
	operation string
	seconds   float64
	err       error
}

type recordingQueryObserver struct {
	queries []observedQuery
}

func (r *recordingQueryObserver) ObserveQuery(operation string, seconds float64, err error) {
	r.queries = append(r.queries, observedQuery{operation: operation, seconds: seconds, err: err})
}

func TestQueryTracer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	obs := &recordingQueryObserver{}
	tracer := NewQueryTracer(obs, clock)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT value FROM options WHERE name = $1"})
	clock.Advance(25 * time.Millisecond)
	queryErr := errors.New("boom")
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: queryErr})

	require.Len(t, obs.queries, 1)
	assert.Equal(t, "select", obs.queries[0].operation)
	assert.InDelta(t, 0.025, obs.queries[0].seconds, 1e-9)
	assert.Same(t, queryErr, obs.queries[0].err)
}

func TestQueryTracer_EndWithoutStart(t *testing.T) {
	obs := &recordingQueryObserver{}
	NewQueryTracer(obs, clockwork.NewFakeClock()).TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Empty(t, obs.queries)
}

func TestOperationOf(t *testing.T) {
	tests := map[string]string{
		"":                                     "unknown",
		"  \n\tINSERT INTO users VALUES ($1)":  "insert",
		"update options set value = $2":        "update",
		"WITH x AS (SELECT 1) SELECT * FROM x": "with",
		"TRUNCATE options":                     "other",
	}
	for sql, want := range tests {
		assert.Equal(t, want, operationOf(sql), sql)
	}
}
