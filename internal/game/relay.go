package game

type roleAssignment int

const (
	rolesListed roleAssignment = iota
	rolesShuffled
	rolesOwnerSecond
)

// RelayState is shared by the real-time games. The P1 client runs the
// simulation and reports scores; the server only keeps the books.
type RelayState struct {
	Common
}

// Relay is a real-time game whose outcomes are reported by the P1 client.
type Relay struct {
	BaseHandler
	id          string
	name        string
	roles       roleAssignment
	resetScores bool
	// winRounds ends the game early once someone has won that many rounds.
	winRounds int
}

func PaddleArena() Relay {
	return Relay{id: "paddlearena", name: "Paddle Arena", roles: rolesShuffled}
}

func BeachBall() Relay {
	return Relay{id: "beachball", name: "Beach Ball", roles: rolesOwnerSecond, winRounds: 3}
}

func Stealthering() Relay {
	return Relay{id: "stealthering", name: "Diamond Heist", roles: rolesListed, resetScores: true}
}

func TreeCutter() Relay {
	return Relay{id: "treecutter", name: "Timber Chop", roles: rolesListed, resetScores: true}
}

func Snakes() Relay {
	return Relay{id: "snakes", name: "Snakes", roles: rolesShuffled, resetScores: true}
}

func (h Relay) ID() string    { return h.id }
func (h Relay) Name() string  { return h.name }
func (Relay) Mode() Mode      { return ModeRealTime }
func (Relay) NewState() State { return &RelayState{} }

func (h Relay) Initialize(players []string, totalRounds int, rnd Rand) (State, error) {
	if len(players) != 2 {
		return nil, ErrPlayerCount
	}
	order := append([]string(nil), players...)
	switch h.roles {
	case rolesShuffled:
		order = shuffled(players, rnd)
	case rolesOwnerSecond:
		order[0], order[1] = order[1], order[0]
	}
	c := newCommon(h, []string{"P1", "P2"}, order, totalRounds)
	c.RoundWins = map[string]int{order[0]: 0, order[1]: 0}
	return &RelayState{Common: c}, nil
}

type relayReport struct {
	Winner  string `json:"winner"`
	P1Score *int   `json:"p1_score"`
	P2Score *int   `json:"p2_score"`
}

func (h Relay) HandleMove(st State, mv Move) (Outcome, error) {
	s := st.(*RelayState)
	if mv.Action != "score_update" && mv.Action != "round_end" {
		return Outcome{}, ErrInvalidAction
	}
	if s.Players["P1"] != mv.Player {
		return Outcome{}, ErrNotReporter
	}
	var r relayReport
	if err := decodeData(mv.Data, &r); err != nil {
		return Outcome{}, err
	}
	if r.P1Score != nil {
		s.Scores[s.Players["P1"]] = *r.P1Score
	}
	if r.P2Score != nil {
		s.Scores[s.Players["P2"]] = *r.P2Score
	}
	if mv.Action == "score_update" {
		return Outcome{}, nil
	}

	winner := Draw
	if user, ok := s.Players[r.Winner]; ok && (r.Winner == "P1" || r.Winner == "P2") {
		winner = user
		s.RoundWins[user]++
	}
	early := h.winRounds > 0 && winner != Draw && s.RoundWins[winner] >= h.winRounds
	return s.finishRound(winner, s.RoundWins, early), nil
}

func (h Relay) StartNextRound(st State) error {
	s := st.(*RelayState)
	s.nextRound()
	if h.resetScores {
		for user := range s.Scores {
			s.Scores[user] = 0
		}
	}
	return nil
}
