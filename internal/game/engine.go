package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shinetwoplay/internal/errkind"
)

// StateStore persists one game blob per room.
type StateStore interface {
	LoadGameState(ctx context.Context, code string) ([]byte, error)
	SaveGameState(ctx context.Context, code string, blob []byte) error
	ClearGameState(ctx context.Context, code string) error
}

type envelope struct {
	GameID string          `json:"game_id"`
	State  json.RawMessage `json:"state"`
}

// Snapshot is a decoded game together with its handler.
type Snapshot struct {
	Handler Handler
	State   State
}

func (s *Snapshot) GameID() string   { return s.Handler.ID() }
func (s *Snapshot) Round() int       { return s.State.Base().CurrentRound }
func (s *Snapshot) TotalRounds() int { return s.State.Base().TotalRounds }
func (s *Snapshot) Paused() bool     { return s.State.Base().Paused }

type MoveResult struct {
	*Snapshot
	Outcome
}

// Engine runs handlers against the stored state of a room. Read-modify-write
// cycles on one room are serialized in-process; a rejected move is never
// saved.
type Engine struct {
	store    StateStore
	registry *Registry
	rnd      Rand
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Engine)

func WithRand(r Rand) Option { return func(e *Engine) { e.rnd = r } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store StateStore, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		registry: registry,
		rnd:      globalRand{},
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) lock(code string) func() {
	e.mu.Lock()
	l, ok := e.locks[code]
	if !ok {
		l = &sync.Mutex{}
		e.locks[code] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Forget drops the room lock once a room is gone.
func (e *Engine) Forget(code string) {
	e.mu.Lock()
	delete(e.locks, code)
	e.mu.Unlock()
}

func (e *Engine) Initialize(ctx context.Context, code, gameID string, players []string, rounds int) (*Snapshot, error) {
	h, ok := e.registry.Get(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	if rounds < 1 {
		return nil, ErrInvalidRounds
	}
	unlock := e.lock(code)
	defer unlock()

	st, err := h.Initialize(players, rounds, e.rnd)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Handler: h, State: st}
	if err := e.save(ctx, code, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Engine) HandleMove(ctx context.Context, code, player, action string, data json.RawMessage) (*MoveResult, error) {
	unlock := e.lock(code)
	defer unlock()

	snap, err := e.load(ctx, code)
	if err != nil {
		return nil, err
	}
	c := snap.State.Base()
	switch {
	case c.Paused:
		return nil, ErrGamePaused
	case c.GameWinner != "":
		return nil, ErrGameOver
	case c.RoundWinner != "":
		return nil, ErrRoundOver
	case c.RoleOf(player) == "":
		return nil, ErrNotInGame
	}
	out, err := snap.Handler.HandleMove(snap.State, Move{Player: player, Action: action, Data: data, Rand: e.rnd})
	if err != nil {
		return nil, err
	}
	if err := e.save(ctx, code, snap); err != nil {
		return nil, err
	}
	return &MoveResult{Snapshot: snap, Outcome: out}, nil
}

func (e *Engine) StartNextRound(ctx context.Context, code string) (*Snapshot, error) {
	unlock := e.lock(code)
	defer unlock()

	snap, err := e.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if snap.State.Base().GameWinner != "" {
		return nil, ErrGameOver
	}
	if err := snap.Handler.StartNextRound(snap.State); err != nil {
		return nil, err
	}
	if err := e.save(ctx, code, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// OnDisconnect pauses the active game. It returns nil, nil without a game.
func (e *Engine) OnDisconnect(ctx context.Context, code, player string) (*Snapshot, error) {
	return e.update(ctx, code, func(snap *Snapshot) {
		snap.Handler.OnDisconnect(snap.State, player, e.now())
	})
}

// OnReconnect resumes the game once nobody is missing.
func (e *Engine) OnReconnect(ctx context.Context, code, player string) (*Snapshot, error) {
	return e.update(ctx, code, func(snap *Snapshot) {
		snap.Handler.OnReconnect(snap.State, player)
	})
}

// Forfeit ends the game in favour of whoever stays when leaver is gone
// for good.
func (e *Engine) Forfeit(ctx context.Context, code, leaver string) (*MoveResult, error) {
	unlock := e.lock(code)
	defer unlock()

	snap, err := e.load(ctx, code)
	if err != nil {
		return nil, err
	}
	c := snap.State.Base()
	if c.GameWinner != "" {
		return nil, ErrGameOver
	}
	winner := c.Opponent(leaver)
	if winner == "" {
		winner = Draw
	}
	c.GameWinner = winner
	c.Paused = false
	c.PausedAt = nil
	c.DisconnectedPlayers = []string{}
	final := c.Scores
	if c.RoundWins != nil {
		final = c.RoundWins
	}
	out := Outcome{GameEnded: true, GameWinner: winner, FinalScores: copyCounts(final)}
	if err := e.save(ctx, code, snap); err != nil {
		return nil, err
	}
	return &MoveResult{Snapshot: snap, Outcome: out}, nil
}

func (e *Engine) Snapshot(ctx context.Context, code string) (*Snapshot, error) {
	unlock := e.lock(code)
	defer unlock()
	return e.load(ctx, code)
}

func (e *Engine) Active(ctx context.Context, code string) (bool, error) {
	_, err := e.Snapshot(ctx, code)
	if errors.Is(err, ErrNoActiveGame) {
		return false, nil
	}
	return err == nil, err
}

func (e *Engine) Cleanup(ctx context.Context, code string) error {
	unlock := e.lock(code)
	defer unlock()
	return e.store.ClearGameState(ctx, code)
}

func (e *Engine) update(ctx context.Context, code string, fn func(*Snapshot)) (*Snapshot, error) {
	unlock := e.lock(code)
	defer unlock()

	snap, err := e.load(ctx, code)
	if errors.Is(err, ErrNoActiveGame) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fn(snap)
	if err := e.save(ctx, code, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Engine) load(ctx context.Context, code string) (*Snapshot, error) {
	blob, err := e.store.LoadGameState(ctx, code)
	if err != nil {
		if errkind.Of(err) == errkind.NotFound {
			return nil, ErrNoActiveGame
		}
		return nil, fmt.Errorf("load game %s: %w", code, err)
	}
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedState, err)
	}
	h, ok := e.registry.Get(env.GameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	st := h.NewState()
	if err := json.Unmarshal(env.State, st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedState, err)
	}
	return &Snapshot{Handler: h, State: st}, nil
}

func (e *Engine) save(ctx context.Context, code string, snap *Snapshot) error {
	raw, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", code, err)
	}
	blob, err := json.Marshal(envelope{GameID: snap.Handler.ID(), State: raw})
	if err != nil {
		return fmt.Errorf("encode game %s: %w", code, err)
	}
	if err := e.store.SaveGameState(ctx, code, blob); err != nil {
		return fmt.Errorf("save game %s: %w", code, err)
	}
	return nil
}
