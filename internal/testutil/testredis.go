package testutil

import (
	"context"
	"testing"
	"time"

	"shinetwoplay/internal/config"
	"shinetwoplay/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// OpenTestStore returns a store on an in-process miniredis. The returned
// server lets tests fast-forward TTLs.
func OpenTestStore(t *testing.T, opts store.Options) (*store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := store.NewWithClient(rdb, opts)
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

// OpenContainerStore starts a real Redis through testcontainers. It skips
// unless REDIS_IT is set.
func OpenContainerStore(t *testing.T, opts store.Options) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip redis container: %v", err)
	}
	if !cfg.RedisIT {
		t.Skip("set REDIS_IT=1 to run against a redis container")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	container, err := tcredis.Run(ctx, cfg.RedisImage)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	st := store.New(config.RedisConfig{Addr: addr, PoolSize: 10, DialTimeout: 5 * time.Second}, opts)
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return st
}
