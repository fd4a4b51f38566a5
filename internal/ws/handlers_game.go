package ws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/store"
)

func (s *Server) handleStartGame(ctx context.Context, c *Client, _ Inbound) error {
	room, err := s.requireOwner(ctx, c)
	if err != nil {
		return err
	}
	if room.SelectedGame == "" {
		return ErrNoGameSelected
	}
	active, err := s.engine.Active(ctx, c.room)
	if err != nil {
		return err
	}
	if active {
		return ErrGameInProgress
	}
	players, err := s.store.ListPlayers(ctx, c.room)
	if err != nil {
		return err
	}
	var notReady []string
	order := []string{room.Owner}
	for _, p := range players {
		if !p.IsConnected {
			return ErrPlayerAway
		}
		if p.Username == room.Owner {
			continue
		}
		order = append(order, p.Username)
		if !p.IsReady {
			notReady = append(notReady, p.Username)
		}
	}
	if len(notReady) > 0 {
		s.hub.Broadcast(ctx, c.room, evPlayersNotReady, PlayersNotReady{Players: notReady}, "")
		return ErrNotReady
	}
	if len(order) < store.MaxPlayers {
		return ErrNotReady
	}

	s.rounds.Cancel(c.room)
	h, ok := s.engine.Registry().Get(room.SelectedGame)
	var snap *game.Snapshot
	if ok {
		snap, err = s.engine.Initialize(ctx, c.room, h.ID(), order, room.Rounds)
		if err != nil {
			return err
		}
	}
	if err := s.store.UpdateRoomField(ctx, c.room, "status", string(store.StatusPlaying)); err != nil {
		return err
	}
	s.systemMessage(ctx, c.room, "Game started!", "game_started")
	s.activity.Record(activity.Event{Kind: activity.GameStarted, Room: c.room, User: c.username, Game: room.SelectedGame})
	log.Info().Str("room", c.room).Str("game", room.SelectedGame).Int("rounds", room.Rounds).Bool("handler", ok).Msg("game_started")

	if !ok {
		s.hub.Broadcast(ctx, c.room, evStartGame, StartGame{
			Game:        room.SelectedGame,
			RedirectURL: fmt.Sprintf("/games/%s/%s/", room.SelectedGame, c.room),
		}, "")
		return nil
	}
	s.hub.Broadcast(ctx, c.room, evGameLoaded, gameView(snap), "")
	return nil
}

func (s *Server) handleGameMove(ctx context.Context, c *Client, in Inbound) error {
	res, err := s.engine.HandleMove(ctx, c.room, c.username, in.Action, in.Data)
	if err != nil {
		return err
	}
	update := map[string]any{
		"game_state": res.State,
		"player":     c.username,
		"action":     in.Action,
	}
	for k, v := range res.Extra {
		update[k] = v
	}
	s.hub.Broadcast(ctx, c.room, evGameUpdate, update, "")
	if res.RoundEnded {
		s.scheduleRoundEnd(c.room, res)
	}
	return nil
}

// handleGameInput relays real-time input to the peer without touching
// stored state.
func (s *Server) handleGameInput(ctx context.Context, c *Client, in Inbound) error {
	if len(in.Data) == 0 {
		return game.ErrInvalidData
	}
	s.hub.Broadcast(ctx, c.room, evGameInput, GameInput{User: c.username, Data: in.Data}, c.username)
	return nil
}

// scheduleRoundEnd reveals the finished round after the reveal delay, then
// either starts the next round or shows the game-over screen before the
// room goes back to the lobby.
func (s *Server) scheduleRoundEnd(room string, res *game.MoveResult) {
	ended := RoundEnded{
		RoundWinner: res.RoundWinner,
		Scores:      tally(res.State.Base()),
		Round:       res.Round(),
		DisplayMS:   s.cfg.RoundDisplay.Milliseconds(),
	}
	gameID := res.GameID()
	out := res.Outcome
	s.rounds.Schedule(room, s.cfg.RevealDelay, func(ctx context.Context) {
		ended.Timestamp = time.Now().UnixMilli()
		s.hub.Broadcast(ctx, room, evRoundEnded, ended, "")
		if !out.GameEnded {
			s.rounds.Schedule(room, s.cfg.RoundDisplay, func(ctx context.Context) { s.startNextRound(ctx, room) })
			return
		}
		s.hub.Broadcast(ctx, room, evGameEnded, GameEnded{
			GameWinner:  out.GameWinner,
			FinalScores: out.FinalScores,
			DisplayMS:   s.cfg.GameOverDelay.Milliseconds(),
			Reason:      "completed",
		}, "")
		s.activity.Record(activity.Event{Kind: activity.GameEnded, Room: room, Game: gameID, User: out.GameWinner})
		s.rounds.Schedule(room, s.cfg.GameOverDelay, func(ctx context.Context) { s.finishGame(ctx, room) })
	})
}

func (s *Server) startNextRound(ctx context.Context, room string) {
	snap, err := s.engine.StartNextRound(ctx, room)
	if err != nil {
		if !errors.Is(err, game.ErrNoActiveGame) {
			log.Error().Err(err).Str("room", room).Msg("next_round_failed")
		}
		return
	}
	s.hub.Broadcast(ctx, room, evRoundStarted, RoundStarted{
		Round:       snap.Round(),
		TotalRounds: snap.TotalRounds(),
		GameState:   snap.State,
	}, "")
}

// tally is the per-player count that decides the game: round wins for the
// relayed games, scores otherwise.
func tally(c *game.Common) map[string]int {
	src := c.Scores
	if c.RoundWins != nil {
		src = c.RoundWins
	}
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
