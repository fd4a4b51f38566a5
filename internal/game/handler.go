package game

import (
	"encoding/json"
	"math/rand"
	"time"
)

type Mode string

const (
	ModeTurnBased Mode = "turn_based"
	ModeRealTime  Mode = "real_time"
)

// Draw is reported as round_winner or game_winner when nobody leads.
const Draw = "draw"

// Rand is the randomness a handler may use. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) Intn(n int) int                     { return rand.Intn(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

type Move struct {
	Player string
	Action string
	Data   json.RawMessage
	Rand   Rand
}

// Outcome is what a move did beyond changing the state.
type Outcome struct {
	RoundEnded  bool
	RoundWinner string
	GameEnded   bool
	GameWinner  string
	FinalScores map[string]int
	NextRound   int
	// Extra carries game specific fields such as the ludo dice value.
	Extra map[string]any
}

// Handler is the contract every game implements. Handlers are stateless;
// all per-room data lives in the State they are handed. players passed to
// Initialize are in room order with the owner first.
type Handler interface {
	ID() string
	Name() string
	Mode() Mode
	NewState() State
	Initialize(players []string, totalRounds int, rnd Rand) (State, error)
	HandleMove(st State, mv Move) (Outcome, error)
	StartNextRound(st State) error
	OnDisconnect(st State, player string, now time.Time)
	OnReconnect(st State, player string)
}

// BaseHandler pauses the game while anyone is away.
type BaseHandler struct{}

func (BaseHandler) OnDisconnect(st State, player string, now time.Time) {
	c := st.Base()
	c.Paused = true
	ms := now.UnixMilli()
	c.PausedAt = &ms
	for _, p := range c.DisconnectedPlayers {
		if p == player {
			return
		}
	}
	c.DisconnectedPlayers = append(c.DisconnectedPlayers, player)
}

func (BaseHandler) OnReconnect(st State, player string) {
	c := st.Base()
	kept := c.DisconnectedPlayers[:0]
	for _, p := range c.DisconnectedPlayers {
		if p != player {
			kept = append(kept, p)
		}
	}
	c.DisconnectedPlayers = kept
	if len(kept) == 0 {
		c.Paused = false
		c.PausedAt = nil
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidData
	}
	return nil
}
