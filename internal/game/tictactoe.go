package game

var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type TicTacToeState struct {
	Common
	Board       [9]string `json:"board"`
	CurrentMark string    `json:"current_mark"`
}

type TicTacToe struct{ BaseHandler }

func (TicTacToe) ID() string      { return "tictactoe" }
func (TicTacToe) Name() string    { return "Tic Tac Toe" }
func (TicTacToe) Mode() Mode      { return ModeTurnBased }
func (TicTacToe) NewState() State { return &TicTacToeState{} }

func (h TicTacToe) Initialize(players []string, totalRounds int, rnd Rand) (State, error) {
	if len(players) != 2 {
		return nil, ErrPlayerCount
	}
	order := shuffled(players, rnd)
	return &TicTacToeState{
		Common:      newCommon(h, []string{"X", "O"}, order, totalRounds),
		CurrentMark: "X",
	}, nil
}

func (TicTacToe) HandleMove(st State, mv Move) (Outcome, error) {
	s := st.(*TicTacToeState)
	if mv.Action != "place" {
		return Outcome{}, ErrInvalidAction
	}
	var data struct {
		Cell *int `json:"cell"`
	}
	if err := decodeData(mv.Data, &data); err != nil {
		return Outcome{}, err
	}
	if data.Cell == nil || *data.Cell < 0 || *data.Cell > 8 {
		return Outcome{}, ErrInvalidMove
	}
	if s.Players[s.CurrentMark] != mv.Player {
		return Outcome{}, ErrNotYourTurn
	}
	cell := *data.Cell
	if s.Board[cell] != "" {
		return Outcome{}, ErrInvalidMove
	}
	s.Board[cell] = s.CurrentMark

	if mark := s.winner(); mark != "" {
		user := s.Players[mark]
		s.Scores[user]++
		return s.finishRound(user, s.Scores, false), nil
	}
	if s.full() {
		return s.finishRound(Draw, s.Scores, false), nil
	}
	s.CurrentMark = otherMark(s.CurrentMark)
	return Outcome{}, nil
}

func (TicTacToe) StartNextRound(st State) error {
	s := st.(*TicTacToeState)
	s.nextRound()
	s.Board = [9]string{}
	s.swapRoles("X", "O")
	s.CurrentMark = "X"
	return nil
}

func (s *TicTacToeState) winner() string {
	for _, l := range ticTacToeLines {
		a := s.Board[l[0]]
		if a != "" && a == s.Board[l[1]] && a == s.Board[l[2]] {
			return a
		}
	}
	return ""
}

func (s *TicTacToeState) full() bool {
	for _, c := range s.Board {
		if c == "" {
			return false
		}
	}
	return true
}

func otherMark(m string) string {
	if m == "X" {
		return "O"
	}
	return "X"
}
