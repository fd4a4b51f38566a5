package game

const (
	ludoYard       = -1
	ludoLastShared = 50
	ludoHome       = 56
	ludoTrack      = 52
	ludoPieces     = 4
)

var (
	ludoSafeSpots = map[int]bool{0: true, 8: true, 13: true, 21: true, 26: true, 34: true, 39: true, 47: true}
	ludoStart     = map[string]int{"red": 0, "blue": 26}
)

type LudoPhase string

const (
	PhaseRoll LudoPhase = "ROLL"
	PhaseMove LudoPhase = "MOVE"
)

type Piece struct {
	Player string `json:"player"`
	ID     int    `json:"id"`
	Pos    int    `json:"pos"`
}

type LudoState struct {
	Common
	Pieces    []Piece   `json:"pieces"`
	Turn      string    `json:"turn"`
	Phase     LudoPhase `json:"phase"`
	DiceValue int       `json:"dice_value,omitempty"`
}

type Ludo struct{ BaseHandler }

func (Ludo) ID() string      { return "ludo" }
func (Ludo) Name() string    { return "Ludo" }
func (Ludo) Mode() Mode      { return ModeTurnBased }
func (Ludo) NewState() State { return &LudoState{} }

func (h Ludo) Initialize(players []string, totalRounds int, rnd Rand) (State, error) {
	if len(players) != 2 {
		return nil, ErrPlayerCount
	}
	order := shuffled(players, rnd)
	return &LudoState{
		Common: newCommon(h, []string{"red", "blue"}, order, totalRounds),
		Pieces: freshPieces(),
		Turn:   "red",
		Phase:  PhaseRoll,
	}, nil
}

func freshPieces() []Piece {
	pieces := make([]Piece, 0, 2*ludoPieces)
	for _, color := range []string{"red", "blue"} {
		for id := 0; id < ludoPieces; id++ {
			pieces = append(pieces, Piece{Player: color, ID: id, Pos: ludoYard})
		}
	}
	return pieces
}

func (Ludo) HandleMove(st State, mv Move) (Outcome, error) {
	s := st.(*LudoState)
	color := s.RoleOf(mv.Player)
	if color == "" {
		return Outcome{}, ErrNotInGame
	}
	switch mv.Action {
	case "roll":
		return s.roll(color, mv.Rand)
	case "move":
		var data struct {
			PieceID *int `json:"piece_id"`
		}
		if err := decodeData(mv.Data, &data); err != nil {
			return Outcome{}, err
		}
		if data.PieceID == nil {
			return Outcome{}, ErrInvalidData
		}
		return s.move(color, *data.PieceID)
	default:
		return Outcome{}, ErrInvalidAction
	}
}

func (s *LudoState) roll(color string, rnd Rand) (Outcome, error) {
	if s.Turn != color {
		return Outcome{}, ErrNotYourTurn
	}
	if s.Phase != PhaseRoll {
		return Outcome{}, ErrInvalidMove
	}
	dice := rnd.Intn(6) + 1
	s.DiceValue = dice
	noMoves := !s.hasMove(color, dice)
	if noMoves {
		s.Turn = otherColor(color)
		s.Phase = PhaseRoll
	} else {
		s.Phase = PhaseMove
	}
	return Outcome{Extra: map[string]any{"rolled": dice, "no_moves": noMoves}}, nil
}

func (s *LudoState) move(color string, pieceID int) (Outcome, error) {
	if s.Turn != color {
		return Outcome{}, ErrNotYourTurn
	}
	if s.Phase != PhaseMove || s.DiceValue == 0 {
		return Outcome{}, ErrInvalidMove
	}
	idx := -1
	for i, p := range s.Pieces {
		if p.Player == color && p.ID == pieceID {
			idx = i
			break
		}
	}
	dice := s.DiceValue
	if idx < 0 || !canMove(s.Pieces[idx], dice) {
		return Outcome{}, ErrInvalidMove
	}

	from := s.Pieces[idx].Pos
	to := from + dice
	if from == ludoYard {
		to = 0
	}
	s.Pieces[idx].Pos = to

	cut := false
	if to >= 0 && to <= ludoLastShared {
		abs := (ludoStart[color] + to) % ludoTrack
		if !ludoSafeSpots[abs] {
			opp := otherColor(color)
			for i, p := range s.Pieces {
				if p.Player != opp || p.Pos < 0 || p.Pos > ludoLastShared {
					continue
				}
				if (ludoStart[opp]+p.Pos)%ludoTrack == abs {
					s.Pieces[i].Pos = ludoYard
					cut = true
				}
			}
		}
	}
	bonus := dice == 6 || cut || to == ludoHome
	extra := map[string]any{
		"cut":         cut,
		"bonus":       bonus,
		"moved_piece": map[string]any{"player": color, "id": pieceID, "from": from, "to": to},
	}

	s.DiceValue = 0
	s.Phase = PhaseRoll
	if s.homeCount(color) == ludoPieces {
		user := s.Players[color]
		s.Scores[user]++
		out := s.finishRound(user, s.Scores, false)
		out.Extra = extra
		return out, nil
	}
	if !bonus {
		s.Turn = otherColor(color)
	}
	return Outcome{Extra: extra}, nil
}

func (Ludo) StartNextRound(st State) error {
	s := st.(*LudoState)
	s.nextRound()
	s.Pieces = freshPieces()
	s.DiceValue = 0
	s.Phase = PhaseRoll
	s.swapRoles("red", "blue")
	s.Turn = "red"
	return nil
}

func (s *LudoState) hasMove(color string, dice int) bool {
	for _, p := range s.Pieces {
		if p.Player == color && canMove(p, dice) {
			return true
		}
	}
	return false
}

func (s *LudoState) homeCount(color string) int {
	n := 0
	for _, p := range s.Pieces {
		if p.Player == color && p.Pos == ludoHome {
			n++
		}
	}
	return n
}

func canMove(p Piece, dice int) bool {
	if p.Pos == ludoYard {
		return dice == 6
	}
	return p.Pos+dice <= ludoHome
}

func otherColor(c string) string {
	if c == "red" {
		return "blue"
	}
	return "red"
}
