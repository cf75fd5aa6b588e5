package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedisURL string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(runWithContainer(m))
}

func runWithContainer(m *testing.M) int {
	ctx := context.Background()
	container, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		return 1
	}
	testRedisURL = "redis://" + endpoint
	return m.Run()
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL, NewCircuitBreakerHook(time.Second, nil))
	require.NoError(t, err)
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestOptionCache_RedisLayerIsShared(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()
	repo := newMockOptionRepo(map[string]string{"site_name": "Planner"})

	var layers []string
	observe := WithLookupObserver(func(l string) { layers = append(layers, l) })
	first := NewOptionCache(rdb, clockwork.NewRealClock(), time.Minute, observe).Decorate("db/planner", repo)
	second := NewOptionCache(rdb, clockwork.NewRealClock(), time.Minute, observe).Decorate("db/planner", repo)

	v, err := first.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "Planner", v)

	v, err = second.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "Planner", v)

	assert.Equal(t, []string{LayerStore, LayerRedis}, layers)
	assert.Equal(t, int32(1), repo.gets.Load())

	raw, err := rdb.Get(ctx, "option:db/planner:site_name").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"Planner","found":true}`, raw)
}

func TestOptionCache_InvalidationReachesOtherProcesses(t *testing.T) {
	rdb := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	repo := newMockOptionRepo(map[string]string{"site_name": "A"})
	writerCache := NewOptionCache(rdb, clockwork.NewRealClock(), time.Hour)
	readerCache := NewOptionCache(rdb, clockwork.NewRealClock(), time.Hour)
	writer := writerCache.Decorate("db/planner", repo)
	reader := readerCache.Decorate("db/planner", repo)

	go readerCache.Subscribe(ctx)

	v, err := reader.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	// The subscription is asynchronous; keep writing until the reader sees it.
	require.Eventually(t, func() bool {
		_ = writer.Set(ctx, "site_name", "B")
		got, err := reader.Get(ctx, "site_name")
		return err == nil && got == "B"
	}, 5*time.Second, 50*time.Millisecond)
}
