package store

import (
	"context"
	"fmt"
)

// MarkDisconnected starts the grace window: the seat is kept and flagged as
// not connected, and a marker that expires after the grace period is set.
// A player removed in the meantime yields ErrPlayerNotFound and no writes.
func (s *Store) MarkDisconnected(ctx context.Context, code, username string) error {
	ok, err := markDisconnectedScript.Run(ctx, s.rdb,
		[]string{membersKey(code), playerKey(code, username), disconnectedKey(code, username), typingKey(code, username)},
		username, s.now().UnixMilli(), s.grace.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("mark disconnected %s/%s: %w", code, username, err)
	}
	if ok == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (s *Store) InGracePeriod(ctx context.Context, code, username string) (bool, error) {
	n, err := s.rdb.Exists(ctx, disconnectedKey(code, username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reconnect consumes the grace marker and restores the retained seat with
// its owner and ready flags. Only the caller that deletes the marker wins.
func (s *Store) Reconnect(ctx context.Context, code, username string) (*Player, error) {
	res, err := reconnectScript.Run(ctx, s.rdb,
		[]string{disconnectedKey(code, username), playerKey(code, username), kickedKey(code)},
		username,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("reconnect %s/%s: %w", code, username, err)
	}
	switch res {
	case 1:
	case -1:
		return nil, ErrPlayerKicked
	default:
		return nil, ErrGraceExpired
	}
	if err := s.RefreshTTL(ctx, code); err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, code, username)
}

func (s *Store) ClearDisconnectMarker(ctx context.Context, code, username string) error {
	return s.rdb.Del(ctx, disconnectedKey(code, username)).Err()
}

// FinalizeDisconnect closes an expired grace window. While the marker is
// still live, or the player came back, it only reports the room counts.
func (s *Store) FinalizeDisconnect(ctx context.Context, code, username string) (*Finalization, error) {
	res, err := finalizeScript.Run(ctx, s.rdb,
		[]string{disconnectedKey(code, username), playerKey(code, username), membersKey(code), infoKey(code)},
		username, playerPrefix(code),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("finalize %s/%s: %w", code, username, err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("finalize %s/%s: unexpected reply %v", code, username, res)
	}
	removed, _ := res[0].(int64)
	newOwner, _ := res[1].(string)
	remaining, _ := res[2].(int64)
	connected, _ := res[3].(int64)
	return &Finalization{
		Removed:   removed == 1,
		NewOwner:  newOwner,
		Remaining: int(remaining),
		Connected: int(connected),
	}, nil
}
