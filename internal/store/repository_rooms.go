package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CreateRoom claims code and writes the room metadata. It fails with
// ErrRoomExists when the code is taken; callers pick another code.
func (s *Store) CreateRoom(ctx context.Context, code, owner string) (*Room, error) {
	ok, err := s.rdb.SetNX(ctx, existsKey(code), "1", s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim room %s: %w", code, err)
	}
	if !ok {
		return nil, ErrRoomExists
	}
	room := &Room{
		Code:      code,
		Owner:     owner,
		Rounds:    DefaultRounds,
		Status:    StatusWaiting,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, infoKey(code), map[string]any{
			"owner":         room.Owner,
			"selected_game": "",
			"rounds":        strconv.Itoa(room.Rounds),
			"status":        string(room.Status),
			"created_at":    room.CreatedAt,
		})
		p.Expire(ctx, infoKey(code), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write room %s: %w", code, err)
	}
	return room, nil
}

func (s *Store) RoomExists(ctx context.Context, code string) (bool, error) {
	n, err := s.rdb.Exists(ctx, existsKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetRoom(ctx context.Context, code string) (*Room, error) {
	exists, err := s.RoomExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	raw, err := s.rdb.HGetAll(ctx, infoKey(code)).Result()
	if err != nil {
		return nil, err
	}
	room := &Room{
		Code:         code,
		Owner:        raw["owner"],
		SelectedGame: raw["selected_game"],
		Rounds:       DefaultRounds,
		Status:       StatusWaiting,
		CreatedAt:    raw["created_at"],
	}
	if n, err := strconv.Atoi(raw["rounds"]); err == nil {
		room.Rounds = n
	}
	if v := raw["status"]; v != "" {
		room.Status = RoomStatus(v)
	}
	return room, nil
}

var roomFields = map[string]bool{
	"selected_game": true,
	"rounds":        true,
	"status":        true,
}

// UpdateRoomField writes one metadata field. Owner changes go through
// TransferOwnership so the player flags follow.
func (s *Store) UpdateRoomField(ctx context.Context, code, field, value string) error {
	if !roomFields[field] {
		return ErrInvalidField
	}
	if err := s.rdb.HSet(ctx, infoKey(code), field, value).Err(); err != nil {
		return err
	}
	return s.RefreshTTL(ctx, code)
}

// RefreshTTL pushes the expiry of every key in the room group forward.
func (s *Store) RefreshTTL(ctx context.Context, code string) error {
	err := refreshScript.Run(ctx, s.rdb, groupKeys(code), ttlSeconds(s.ttl), playerPrefix(code)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("refresh ttl %s: %w", code, err)
	}
	return nil
}

// DestroyRoom deletes every key of the room and returns the media paths
// that were tracked for it so the caller can remove the files.
func (s *Store) DestroyRoom(ctx context.Context, code string) ([]string, error) {
	media, err := s.rdb.SMembers(ctx, mediaKey(code)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, roomPrefix(code)+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return media, fmt.Errorf("scan room %s: %w", code, err)
	}
	if len(keys) == 0 {
		return media, nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return media, fmt.Errorf("delete room %s: %w", code, err)
	}
	return media, nil
}

func (s *Store) TrackMedia(ctx context.Context, code, path string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, mediaKey(code), path)
		p.Expire(ctx, mediaKey(code), s.ttl)
		return nil
	})
	return err
}

func (s *Store) MediaFiles(ctx context.Context, code string) ([]string, error) {
	return s.rdb.SMembers(ctx, mediaKey(code)).Result()
}
