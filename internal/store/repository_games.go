package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// LoadGameState returns the raw game blob for the room or ErrNoGameState.
func (s *Store) LoadGameState(ctx context.Context, code string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, gameKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoGameState
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SaveGameState replaces the blob wholesale and refreshes the room group.
func (s *Store) SaveGameState(ctx context.Context, code string, blob []byte) error {
	if err := s.rdb.Set(ctx, gameKey(code), blob, s.ttl).Err(); err != nil {
		return err
	}
	return s.RefreshTTL(ctx, code)
}

func (s *Store) ClearGameState(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, gameKey(code)).Err()
}
