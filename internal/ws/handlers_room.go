package ws

import (
	"context"
	"strconv"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/store"
	"shinetwoplay/internal/validate"
)

func (s *Server) requireOwner(ctx context.Context, c *Client) (*store.Room, error) {
	room, err := s.store.GetRoom(ctx, c.room)
	if err != nil {
		return nil, err
	}
	if room.Owner != c.username {
		return nil, ErrNotOwner
	}
	return room, nil
}

func (s *Server) handleReady(ctx context.Context, c *Client, in Inbound) error {
	room, err := s.store.GetRoom(ctx, c.room)
	if err != nil {
		return err
	}
	if room.Owner == c.username {
		return ErrOwnerReady
	}
	if err := s.store.SetPlayerReady(ctx, c.room, c.username, in.Ready); err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evReadyState, ReadyState{User: c.username, Ready: in.Ready}, "")
	return nil
}

func (s *Server) handleSelectGame(ctx context.Context, c *Client, in Inbound) error {
	if _, err := s.requireOwner(ctx, c); err != nil {
		return err
	}
	entry, ok := game.LookupCatalog(in.Game)
	if !ok {
		return game.ErrGameNotFound
	}
	if err := s.store.UpdateRoomField(ctx, c.room, "selected_game", entry.GameID); err != nil {
		return err
	}
	s.systemMessage(ctx, c.room, "Game selected: "+entry.Name, "game_selected")
	s.hub.Broadcast(ctx, c.room, evGameSelected, GameSelected{
		GameID:   entry.GameID,
		GameName: entry.Name,
		ImageURL: entry.ImageURL,
	}, "")
	return nil
}

func (s *Server) handleRoundChange(ctx context.Context, c *Client, in Inbound) error {
	if _, err := s.requireOwner(ctx, c); err != nil {
		return err
	}
	if err := validate.Rounds(in.Round); err != nil {
		return err
	}
	if err := s.store.UpdateRoomField(ctx, c.room, "rounds", strconv.Itoa(in.Round)); err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evRoundUpdate, RoundUpdate{Rounds: in.Round}, "")
	return nil
}

func (s *Server) handleTransferOwnership(ctx context.Context, c *Client, in Inbound) error {
	if in.TargetUser == "" {
		return ErrMissingTarget
	}
	if _, err := s.requireOwner(ctx, c); err != nil {
		return err
	}
	if in.TargetUser == c.username {
		return nil
	}
	old, err := s.store.TransferOwnership(ctx, c.room, in.TargetUser)
	if err != nil {
		return err
	}
	s.systemMessage(ctx, c.room, in.TargetUser+" is now the room owner", "owner_changed")
	s.hub.Broadcast(ctx, c.room, evOwnerChanged, OwnerChanged{
		OldOwner: old,
		NewOwner: in.TargetUser,
		Players:  s.playerMap(ctx, c.room),
	}, "")
	return nil
}

// handleKick removes the target for good. Its own connection is told
// directly and then closed, since it must not linger in the group.
func (s *Server) handleKick(ctx context.Context, c *Client, in Inbound) error {
	if in.TargetUser == "" {
		return ErrMissingTarget
	}
	if _, err := s.requireOwner(ctx, c); err != nil {
		return err
	}
	if in.TargetUser == c.username {
		return ErrKickSelf
	}
	present, err := s.store.PlayerExists(ctx, c.room, in.TargetUser)
	if err != nil {
		return err
	}
	if !present {
		return store.ErrPlayerNotFound
	}
	if err := s.store.KickPlayer(ctx, c.room, in.TargetUser); err != nil {
		return err
	}
	s.janitor.Cancel(c.room, in.TargetUser)
	s.systemMessage(ctx, c.room, in.TargetUser+" was kicked from the room", "player_kicked")

	notice := PlayerKicked{User: in.TargetUser, KickedBy: c.username, ShouldDisconnect: true}
	for _, target := range s.hub.Clients(c.room, in.TargetUser) {
		target.kicked.Store(true)
		target.enqueue(encode(evPlayerKicked, notice))
		target.shutdown(ClosePlayerKicked, "PLAYER_KICKED")
	}
	notice.ShouldDisconnect = false
	s.hub.Broadcast(ctx, c.room, evPlayerKicked, notice, in.TargetUser)
	s.activity.Record(activity.Event{Kind: activity.PlayerKicked, Room: c.room, User: in.TargetUser, Detail: c.username})

	s.forfeit(ctx, c.room, in.TargetUser)
	return nil
}

func (s *Server) handleSyncState(ctx context.Context, c *Client, _ Inbound) error {
	s.sendRoomState(ctx, c)
	return nil
}

func (s *Server) handlePing(_ context.Context, c *Client, _ Inbound) error {
	c.enqueue(encode(evPong, nil))
	return nil
}
