package game

// State is a game specific structure that embeds Common.
type State interface {
	Base() *Common
}

// Common holds the fields every game state carries. Players maps a role
// (X, red, P1, ...) to a username; Scores and RoundWins are keyed by username.
type Common struct {
	GameID              string            `json:"game_id"`
	GameMode            Mode              `json:"game_mode"`
	Players             map[string]string `json:"players"`
	CurrentRound        int               `json:"current_round"`
	TotalRounds         int               `json:"total_rounds"`
	Scores              map[string]int    `json:"scores"`
	RoundWins           map[string]int    `json:"round_wins,omitempty"`
	RoundWinner         string            `json:"round_winner,omitempty"`
	GameWinner          string            `json:"game_winner,omitempty"`
	Paused              bool              `json:"paused"`
	PausedAt            *int64            `json:"paused_at,omitempty"`
	DisconnectedPlayers []string          `json:"disconnected_players"`
}

func (c *Common) Base() *Common { return c }

func newCommon(h Handler, roles []string, users []string, totalRounds int) Common {
	c := Common{
		GameID:              h.ID(),
		GameMode:            h.Mode(),
		Players:             make(map[string]string, len(roles)),
		CurrentRound:        1,
		TotalRounds:         totalRounds,
		Scores:              make(map[string]int, len(users)),
		DisconnectedPlayers: []string{},
	}
	for i, role := range roles {
		c.Players[role] = users[i]
		c.Scores[users[i]] = 0
	}
	return c
}

// RoleOf returns the role username plays, or "".
func (c *Common) RoleOf(username string) string {
	for role, u := range c.Players {
		if u == username {
			return role
		}
	}
	return ""
}

// Opponent returns the other username in a two player game.
func (c *Common) Opponent(username string) string {
	for _, u := range c.Players {
		if u != username {
			return u
		}
	}
	return ""
}

func (c *Common) swapRoles(a, b string) {
	c.Players[a], c.Players[b] = c.Players[b], c.Players[a]
}

// finishRound records the round winner and decides whether the game is
// over, either because the last round was played or stopEarly is set.
// tally picks the game winner.
func (c *Common) finishRound(winner string, tally map[string]int, stopEarly bool) Outcome {
	c.RoundWinner = winner
	out := Outcome{RoundEnded: true, RoundWinner: winner}
	if c.CurrentRound >= c.TotalRounds || stopEarly {
		c.GameWinner = leader(tally)
		out.GameEnded = true
		out.GameWinner = c.GameWinner
		out.FinalScores = copyCounts(tally)
		return out
	}
	out.NextRound = c.CurrentRound + 1
	return out
}

func (c *Common) nextRound() {
	c.CurrentRound++
	c.RoundWinner = ""
}

func leader(tally map[string]int) string {
	best, winner, tie := -1, "", false
	for user, n := range tally {
		switch {
		case n > best:
			best, winner, tie = n, user, false
		case n == best:
			tie = true
		}
	}
	if tie || winner == "" {
		return Draw
	}
	return winner
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func shuffled(players []string, rnd Rand) []string {
	out := append([]string(nil), players...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
