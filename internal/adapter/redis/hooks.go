package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"
)

// StateListener is told about circuit breaker transitions.
type StateListener func(from, to circuitbreaker.State)

// CircuitBreakerHook fails Redis commands fast while Redis is unhealthy.
// Callers treat a failed command as a cache miss, so an open breaker only
// costs the L2 layer.
type CircuitBreakerHook struct {
	cb circuitbreaker.CircuitBreaker[any]
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// NewCircuitBreakerHook opens after 5 consecutive failures, waits delay, then
// lets one trial request through.
func NewCircuitBreakerHook(delay time.Duration, listener StateListener) *CircuitBreakerHook {
	cb := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(5).
		WithDelay(delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed", "component", "redis", "from", e.OldState.String(), "to", e.NewState.String())
			if listener != nil {
				listener(e.OldState, e.NewState)
			}
		}).
		Build()
	return &CircuitBreakerHook{cb: cb}
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !h.cb.TryAcquirePermit() {
			return nil, fmt.Errorf("redis dial: %w", circuitbreaker.ErrOpen)
		}
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.cb.RecordError(err)
			return nil, err
		}
		h.cb.RecordSuccess()
		return conn, nil
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			err := fmt.Errorf("redis %s: %w", cmd.Name(), circuitbreaker.ErrOpen)
			cmd.SetErr(err)
			return err
		}

		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, goredis.Nil) {
			h.cb.RecordError(err)
		} else {
			h.cb.RecordSuccess()
		}
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			return fmt.Errorf("redis pipeline: %w", circuitbreaker.ErrOpen)
		}
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, goredis.Nil) {
			h.cb.RecordError(err)
			return err
		}
		h.cb.RecordSuccess()
		return err
	}
}

func (h *CircuitBreakerHook) State() circuitbreaker.State {
	return h.cb.State()
}

// CommandObserver receives the outcome and latency of every command.
type CommandObserver interface {
	ObserveRedisCommand(command, status string, seconds float64)
}

// MetricsHook reports commands to a CommandObserver.
type MetricsHook struct {
	observer CommandObserver
}

var _ goredis.Hook = (*MetricsHook)(nil)

func NewMetricsHook(observer CommandObserver) *MetricsHook {
	return &MetricsHook{observer: observer}
}

func (h *MetricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return next
}

func (h *MetricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observer.ObserveRedisCommand(cmd.Name(), commandStatus(err), time.Since(start).Seconds())
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observer.ObserveRedisCommand("pipeline", commandStatus(err), time.Since(start).Seconds())
		return err
	}
}

func commandStatus(err error) string {
	switch {
	case err == nil, errors.Is(err, goredis.Nil):
		return "success"
	case errors.Is(err, circuitbreaker.ErrOpen):
		return "rejected"
	default:
		return "error"
	}
}
