package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommandObserver struct {
	mu       sync.Mutex
	statuses []string
}

func (o *recordingCommandObserver) ObserveRedisCommand(_, status string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func TestCircuitBreakerHook_OpensOnUnreachableRedis(t *testing.T) {
	var transitions []circuitbreaker.State
	hook := NewCircuitBreakerHook(time.Minute, func(_, to circuitbreaker.State) {
		transitions = append(transitions, to)
	})
	observer := &recordingCommandObserver{}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	rdb.AddHook(NewMetricsHook(observer))
	rdb.AddHook(hook)
	t.Cleanup(func() { _ = rdb.Close() })

	for range 6 {
		_ = rdb.Get(context.Background(), "k").Err()
	}
	require.Equal(t, circuitbreaker.OpenState, hook.State())
	assert.Contains(t, transitions, circuitbreaker.OpenState)

	err := rdb.Get(context.Background(), "k").Err()
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen), "got %v", err)
	assert.Contains(t, observer.statuses, "rejected")
	assert.Contains(t, observer.statuses, "error")
}

func TestCommandStatus(t *testing.T) {
	assert.Equal(t, "success", commandStatus(nil))
	assert.Equal(t, "success", commandStatus(goredis.Nil))
	assert.Equal(t, "rejected", commandStatus(circuitbreaker.ErrOpen))
	assert.Equal(t, "error", commandStatus(errors.New("boom")))
}
