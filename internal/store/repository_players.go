package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"shinetwoplay/internal/validate"

	"github.com/redis/go-redis/v9"
)

// AddPlayer seats username in the room. The capacity, duplicate and kick
// checks and the write happen in one script, so two racing joins can never
// push the room past MaxPlayers.
func (s *Store) AddPlayer(ctx context.Context, code, username, gender string) (*Player, JoinOutcome, error) {
	if err := validate.Gender(gender); err != nil {
		return nil, 0, err
	}
	nowMs := s.now().UnixMilli()
	res, err := addPlayerScript.Run(ctx, s.rdb,
		[]string{
			existsKey(code),
			infoKey(code),
			membersKey(code),
			playerKey(code, username),
			disconnectedKey(code, username),
			kickedKey(code),
		},
		username, gender, validate.Avatar(gender), nowMs, ttlSeconds(s.ttl),
	).Int64Slice()
	if err != nil {
		return nil, 0, fmt.Errorf("add player %s/%s: %w", code, username, err)
	}
	if len(res) != 2 {
		return nil, 0, fmt.Errorf("add player %s/%s: unexpected reply %v", code, username, res)
	}
	var outcome JoinOutcome
	switch res[0] {
	case 1:
		outcome = JoinedFresh
	case 2:
		outcome = JoinReclaimed
	case -1:
		return nil, 0, ErrRoomFull
	case -2:
		return nil, 0, ErrDuplicateUsername
	case -3:
		return nil, 0, ErrRoomNotFound
	case -5:
		return nil, 0, ErrPlayerKicked
	default:
		return nil, 0, fmt.Errorf("add player %s/%s: status %d", code, username, res[0])
	}
	if err := s.RefreshTTL(ctx, code); err != nil {
		return nil, 0, err
	}
	p, err := s.GetPlayer(ctx, code, username)
	if err != nil {
		return nil, 0, err
	}
	return p, outcome, nil
}

func (s *Store) GetPlayer(ctx context.Context, code, username string) (*Player, error) {
	raw, err := s.rdb.HGetAll(ctx, playerKey(code, username)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrPlayerNotFound
	}
	p := decodePlayer(username, raw)
	return &p, nil
}

// ListPlayers returns the seated players in join order.
func (s *Store) ListPlayers(ctx context.Context, code string) ([]Player, error) {
	names, err := s.rdb.ZRange(ctx, membersKey(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = p.HGetAll(ctx, playerKey(code, name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Player, 0, len(names))
	for i, name := range names {
		raw := cmds[i].Val()
		if len(raw) == 0 {
			continue
		}
		out = append(out, decodePlayer(name, raw))
	}
	return out, nil
}

func decodePlayer(username string, raw map[string]string) Player {
	p := Player{
		Username:    username,
		Gender:      raw["gender"],
		Avatar:      raw["avatar"],
		IsOwner:     raw["is_owner"] == "1",
		IsReady:     raw["is_ready"] == "1",
		IsConnected: raw["is_connected"] == "1",
	}
	if v, err := strconv.ParseInt(raw["joined_at"], 10, 64); err == nil {
		p.JoinedAt = v
	}
	if p.Avatar == "" {
		p.Avatar = validate.Avatar(p.Gender)
	}
	return p
}

func (s *Store) PlayerExists(ctx context.Context, code, username string) (bool, error) {
	_, err := s.rdb.ZScore(ctx, membersKey(code), username).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) PlayerCount(ctx context.Context, code string) (int, error) {
	n, err := s.rdb.ZCard(ctx, membersKey(code)).Result()
	return int(n), err
}

func (s *Store) ConnectedCount(ctx context.Context, code string) (int, error) {
	players, err := s.ListPlayers(ctx, code)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range players {
		if p.IsConnected {
			n++
		}
	}
	return n, nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (s *Store) SetPlayerReady(ctx context.Context, code, username string, ready bool) error {
	return s.setPlayerHash(ctx, code, username, "is_ready", boolFlag(ready))
}

// SetPlayerField updates gender (re-deriving the avatar) or readiness.
// Ownership and connection flags have dedicated operations.
func (s *Store) SetPlayerField(ctx context.Context, code, username, field, value string) error {
	switch field {
	case "gender":
		if err := validate.Gender(value); err != nil {
			return err
		}
		return s.setPlayerHash(ctx, code, username, "gender", value, "avatar", validate.Avatar(value))
	case "is_ready":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ErrInvalidField
		}
		return s.SetPlayerReady(ctx, code, username, b)
	default:
		return ErrInvalidField
	}
}

func (s *Store) setPlayerHash(ctx context.Context, code, username string, values ...any) error {
	key := playerKey(code, username)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlayerNotFound
	}
	if err := s.rdb.HSet(ctx, key, values...).Err(); err != nil {
		return err
	}
	return s.RefreshTTL(ctx, code)
}

// ClearReadiness resets is_ready on every seated player, used when a game
// finishes and the room drops back to waiting.
func (s *Store) ClearReadiness(ctx context.Context, code string) error {
	names, err := s.rdb.ZRange(ctx, membersKey(code), 0, -1).Result()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, name := range names {
			p.HSet(ctx, playerKey(code, name), "is_ready", "0")
		}
		return nil
	})
	return err
}

func (s *Store) RemovePlayer(ctx context.Context, code, username string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, playerKey(code, username))
		p.ZRem(ctx, membersKey(code), username)
		p.Del(ctx, typingKey(code, username))
		return nil
	})
	return err
}

// TransferOwnership moves the owner flag and info.owner together and returns
// the previous owner.
func (s *Store) TransferOwnership(ctx context.Context, code, newOwner string) (string, error) {
	res, err := transferOwnerScript.Run(ctx, s.rdb,
		[]string{infoKey(code), playerKey(code, newOwner)},
		newOwner, playerPrefix(code),
	).Slice()
	if err != nil {
		return "", fmt.Errorf("transfer owner %s: %w", code, err)
	}
	if len(res) != 2 {
		return "", fmt.Errorf("transfer owner %s: unexpected reply %v", code, res)
	}
	if ok, _ := res[0].(int64); ok != 1 {
		return "", ErrPlayerNotFound
	}
	old, _ := res[1].(string)
	return old, s.RefreshTTL(ctx, code)
}

// NextOwner picks the successor for exclude: the first connected player in
// join order, else the first remaining one, else "".
func (s *Store) NextOwner(ctx context.Context, code, exclude string) (string, error) {
	players, err := s.ListPlayers(ctx, code)
	if err != nil {
		return "", err
	}
	fallback := ""
	for _, p := range players {
		if p.Username == exclude {
			continue
		}
		if p.IsConnected {
			return p.Username, nil
		}
		if fallback == "" {
			fallback = p.Username
		}
	}
	return fallback, nil
}

// KickPlayer adds username to the kick list before removing the seat, so a
// live grace marker can no longer be used to come back.
func (s *Store) KickPlayer(ctx context.Context, code, username string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, kickedKey(code), username)
		p.Expire(ctx, kickedKey(code), s.ttl)
		p.Del(ctx, disconnectedKey(code, username))
		p.Del(ctx, playerKey(code, username))
		p.ZRem(ctx, membersKey(code), username)
		p.Del(ctx, typingKey(code, username))
		return nil
	})
	if err != nil {
		return fmt.Errorf("kick %s/%s: %w", code, username, err)
	}
	return nil
}

func (s *Store) IsKicked(ctx context.Context, code, username string) (bool, error) {
	return s.rdb.SIsMember(ctx, kickedKey(code), username).Result()
}
