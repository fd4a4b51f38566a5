package store

import (
	"context"
	"time"

	"shinetwoplay/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRoomTTL     = time.Hour
	DefaultGracePeriod = 30 * time.Second
	MaxMessages        = 100
	MaxPlayers         = 2
	typingTTL          = 3 * time.Second
)

type Options struct {
	RoomTTL     time.Duration
	GracePeriod time.Duration
}

// Store is the typed view over the shared Redis keyspace. All rooms share
// one client; per-room keys are the unit of isolation.
type Store struct {
	rdb   *redis.Client
	ttl   time.Duration
	grace time.Duration
	now   func() time.Time
	ids   *messageIDs
}

func New(cfg config.RedisConfig, opts Options) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	return NewWithClient(rdb, opts)
}

func NewWithClient(rdb *redis.Client, opts Options) *Store {
	if opts.RoomTTL <= 0 {
		opts.RoomTTL = DefaultRoomTTL
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &Store{rdb: rdb, ttl: opts.RoomTTL, grace: opts.GracePeriod, now: time.Now, ids: newMessageIDs()}
}

// Client exposes the underlying connection for side channels that share it.
func (s *Store) Client() *redis.Client { return s.rdb }

func (s *Store) GracePeriod() time.Duration { return s.grace }

func (s *Store) RoomTTL() time.Duration { return s.ttl }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func ttlSeconds(d time.Duration) int64 {
	sec := int64(d / time.Second)
	if sec < 1 {
		sec = 1
	}
	return sec
}
