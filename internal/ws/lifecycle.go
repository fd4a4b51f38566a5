package ws

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/store"
)

func (s *Server) afterJoin(ctx context.Context, c *Client, p *store.Player, mode joinMode) {
	if mode == joinFresh {
		s.systemMessage(ctx, c.room, c.username+" joined the room", "join")
		s.sendRoomState(ctx, c)
		s.hub.Broadcast(ctx, c.room, evPlayerJoin, PlayerJoin{
			User:    p.Username,
			Gender:  p.Gender,
			Avatar:  p.Avatar,
			IsOwner: p.IsOwner,
			Players: s.playerMap(ctx, c.room),
		}, "")
		s.activity.Record(activity.Event{Kind: activity.PlayerJoined, Room: c.room, User: c.username})
		return
	}

	wasPaused := false
	if snap, err := s.engine.Snapshot(ctx, c.room); err == nil {
		wasPaused = snap.Paused()
	}
	snap, err := s.engine.OnReconnect(ctx, c.room, c.username)
	if err != nil {
		log.Error().Err(err).Str("room", c.room).Str("user", c.username).Msg("game_reconnect_failed")
	}
	s.systemMessage(ctx, c.room, c.username+" reconnected", "reconnect")
	s.sendRoomState(ctx, c)
	s.hub.Broadcast(ctx, c.room, evPlayerReconnected, PlayerEvent{User: c.username, Players: s.playerMap(ctx, c.room)}, "")
	if wasPaused && snap != nil && !snap.Paused() {
		s.hub.Broadcast(ctx, c.room, evGameResumed, GameResumed{User: c.username, GameState: snap.State}, "")
	}
}

// afterLeave opens the grace window of a dropped connection.
func (s *Server) afterLeave(c *Client) {
	s.hub.Leave(c)
	if c.kicked.Load() {
		return
	}
	ctx := s.ctx()
	present, err := s.store.PlayerExists(ctx, c.room, c.username)
	if err != nil || !present {
		return
	}
	if err := s.store.MarkDisconnected(ctx, c.room, c.username); err != nil {
		if errors.Is(err, store.ErrPlayerNotFound) {
			return
		}
		log.Error().Err(err).Str("room", c.room).Str("user", c.username).Msg("mark_disconnected_failed")
		return
	}
	grace := s.store.GracePeriod()
	s.systemMessage(ctx, c.room, c.username+" disconnected", "disconnect")

	snap, err := s.engine.OnDisconnect(ctx, c.room, c.username)
	if err != nil {
		log.Error().Err(err).Str("room", c.room).Str("user", c.username).Msg("game_pause_failed")
	}
	if snap != nil && snap.Paused() {
		s.hub.Broadcast(ctx, c.room, evGamePaused, GamePaused{User: c.username, Countdown: int(grace / time.Second)}, "")
	}
	s.hub.Broadcast(ctx, c.room, evPlayerDisconnecting, PlayerDisconnecting{
		User:        c.username,
		GracePeriod: int(grace / time.Second),
		Players:     s.playerMap(ctx, c.room),
	}, c.username)
	s.janitor.Watch(c.room, c.username, time.Now().Add(grace))
}

// finalize closes the grace window of user. It reports false when the
// window is still open and the janitor should look again later.
func (s *Server) finalize(ctx context.Context, room, user string) bool {
	fin, err := s.store.FinalizeDisconnect(ctx, room, user)
	if err != nil {
		log.Error().Err(err).Str("room", room).Str("user", user).Msg("finalize_disconnect_failed")
		return false
	}
	if !fin.Removed {
		inGrace, err := s.store.InGracePeriod(ctx, room, user)
		return err == nil && !inGrace
	}

	log.Info().Str("room", room).Str("user", user).Int("remaining", fin.Remaining).Int("connected", fin.Connected).Msg("player_removed")
	s.activity.Record(activity.Event{Kind: activity.PlayerLeft, Room: room, User: user})
	s.systemMessage(ctx, room, user+" left the room", "leave")
	players := s.playerMap(ctx, room)
	s.hub.Broadcast(ctx, room, evPlayerLeft, PlayerEvent{User: user, Players: players}, "")
	if fin.NewOwner != "" {
		s.systemMessage(ctx, room, fin.NewOwner+" is now the room owner", "owner_changed")
		s.hub.Broadcast(ctx, room, evOwnerChanged, OwnerChanged{OldOwner: user, NewOwner: fin.NewOwner, Players: players}, "")
	}
	s.forfeit(ctx, room, user)

	if fin.Connected == 0 && !s.anyoneInGrace(ctx, room) {
		s.destroyRoom(ctx, room)
	}
	return true
}

func (s *Server) anyoneInGrace(ctx context.Context, room string) bool {
	players, err := s.store.ListPlayers(ctx, room)
	if err != nil {
		return true
	}
	for _, p := range players {
		if ok, err := s.store.InGracePeriod(ctx, room, p.Username); err != nil || ok {
			return true
		}
	}
	return false
}

func (s *Server) destroyRoom(ctx context.Context, room string) {
	s.rounds.Cancel(room)
	paths, err := s.store.DestroyRoom(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("room_destroy_failed")
		return
	}
	s.removeMedia(room, paths)
	s.engine.Forget(room)
	s.janitor.ForgetRoom(room)
	s.activity.Record(activity.Event{Kind: activity.RoomDestroyed, Room: room})
	log.Info().Str("room", room).Int("media_files", len(paths)).Msg("room_destroyed")
}

func (s *Server) removeMedia(room string, paths []string) {
	if s.cfg.MediaRoot == "" {
		return
	}
	for _, rel := range paths {
		clean := filepath.Clean("/" + rel)
		if !strings.HasPrefix(clean, string(filepath.Separator)+room+string(filepath.Separator)) {
			log.Warn().Str("room", room).Str("path", rel).Msg("media_outside_room_skipped")
			continue
		}
		full := filepath.Join(s.cfg.MediaRoot, clean)
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("room", room).Str("path", full).Msg("media_remove_failed")
		}
	}
}

// forfeit ends an active game in favour of whoever stays.
func (s *Server) forfeit(ctx context.Context, room, leaver string) {
	res, err := s.engine.Forfeit(ctx, room, leaver)
	if err != nil {
		if !errors.Is(err, game.ErrNoActiveGame) && !errors.Is(err, game.ErrGameOver) {
			log.Error().Err(err).Str("room", room).Str("user", leaver).Msg("game_forfeit_failed")
		}
		return
	}
	s.rounds.Cancel(room)
	s.hub.Broadcast(ctx, room, evGameEnded, GameEnded{
		GameWinner:  res.GameWinner,
		FinalScores: res.FinalScores,
		DisplayMS:   s.cfg.GameOverDelay.Milliseconds(),
		Reason:      "forfeit",
	}, "")
	s.activity.Record(activity.Event{Kind: activity.GameEnded, Room: room, Game: res.GameID(), Detail: "forfeit"})
	s.rounds.Schedule(room, s.cfg.GameOverDelay, func(ctx context.Context) { s.finishGame(ctx, room) })
}

// finishGame returns the room to the lobby once the game-over screen has
// been shown.
func (s *Server) finishGame(ctx context.Context, room string) {
	if err := s.engine.Cleanup(ctx, room); err != nil {
		log.Error().Err(err).Str("room", room).Msg("game_cleanup_failed")
	}
	if ok, err := s.store.RoomExists(ctx, room); err != nil || !ok {
		return
	}
	if err := s.store.UpdateRoomField(ctx, room, "status", string(store.StatusWaiting)); err != nil {
		log.Error().Err(err).Str("room", room).Msg("room_status_reset_failed")
		return
	}
	if err := s.store.ClearReadiness(ctx, room); err != nil {
		log.Error().Err(err).Str("room", room).Msg("readiness_reset_failed")
	}
	state, err := s.roomState(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("room_state_failed")
		return
	}
	s.hub.Broadcast(ctx, room, evRoomState, state, "")
}

func (s *Server) roomState(ctx context.Context, room string) (*RoomState, error) {
	info, err := s.store.GetRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, room)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.RecentMessages(ctx, room, 50)
	if err != nil {
		return nil, err
	}
	state := &RoomState{
		Room: RoomView{
			Code:         info.Code,
			Owner:        info.Owner,
			SelectedGame: info.SelectedGame,
			Rounds:       info.Rounds,
			Status:       info.Status,
		},
		Players:  store.PlayerMap(players),
		Messages: msgs,
	}
	snap, err := s.engine.Snapshot(ctx, room)
	switch {
	case err == nil:
		state.Game = gameView(snap)
	case !errors.Is(err, game.ErrNoActiveGame):
		return nil, err
	}
	return state, nil
}

func (s *Server) sendRoomState(ctx context.Context, c *Client) {
	state, err := s.roomState(ctx, c.room)
	if err != nil {
		log.Error().Err(err).Str("room", c.room).Str("user", c.username).Msg("room_state_failed")
		c.enqueue(errorFrame(err))
		return
	}
	c.enqueue(encode(evRoomState, state))
}

func (s *Server) playerMap(ctx context.Context, room string) map[string]store.Player {
	players, err := s.store.ListPlayers(ctx, room)
	if err != nil {
		log.Warn().Err(err).Str("room", room).Msg("list_players_failed")
		return map[string]store.Player{}
	}
	return store.PlayerMap(players)
}

func (s *Server) systemMessage(ctx context.Context, room, content, subtype string) {
	if _, err := s.store.AddSystemMessage(ctx, room, content, subtype); err != nil {
		log.Warn().Err(err).Str("room", room).Str("subtype", subtype).Msg("system_message_failed")
	}
}

func gameView(snap *game.Snapshot) *GameView {
	return &GameView{
		GameID:      snap.GameID(),
		GameState:   snap.State,
		Round:       snap.Round(),
		TotalRounds: snap.TotalRounds(),
	}
}
