package game

const (
	connect4Rows = 6
	connect4Cols = 7
)

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Connect4State struct {
	Common
	Board        [connect4Rows][connect4Cols]string `json:"board"`
	CurrentColor string                             `json:"current_color"`
	LastMove     *Cell                              `json:"last_move"`
	WinCells     []Cell                             `json:"win_cells"`
}

type Connect4 struct{ BaseHandler }

func (Connect4) ID() string      { return "connect4" }
func (Connect4) Name() string    { return "Connect 4" }
func (Connect4) Mode() Mode      { return ModeTurnBased }
func (Connect4) NewState() State { return &Connect4State{} }

func (h Connect4) Initialize(players []string, totalRounds int, rnd Rand) (State, error) {
	if len(players) != 2 {
		return nil, ErrPlayerCount
	}
	order := shuffled(players, rnd)
	return &Connect4State{
		Common:       newCommon(h, []string{"red", "blue"}, order, totalRounds),
		CurrentColor: "red",
	}, nil
}

func (Connect4) HandleMove(st State, mv Move) (Outcome, error) {
	s := st.(*Connect4State)
	if mv.Action != "drop" {
		return Outcome{}, ErrInvalidAction
	}
	var data struct {
		Col *int `json:"col"`
	}
	if err := decodeData(mv.Data, &data); err != nil {
		return Outcome{}, err
	}
	if data.Col == nil || *data.Col < 0 || *data.Col >= connect4Cols {
		return Outcome{}, ErrInvalidMove
	}
	if s.Players[s.CurrentColor] != mv.Player {
		return Outcome{}, ErrNotYourTurn
	}
	col := *data.Col
	row := s.lowestEmpty(col)
	if row < 0 {
		return Outcome{}, ErrInvalidMove
	}
	color := s.CurrentColor
	s.Board[row][col] = color
	s.LastMove = &Cell{Row: row, Col: col}

	if cells := s.line(row, col, color); cells != nil {
		user := s.Players[color]
		s.Scores[user]++
		s.WinCells = cells
		return s.finishRound(user, s.Scores, false), nil
	}
	if s.topRowFull() {
		s.WinCells = nil
		return s.finishRound(Draw, s.Scores, false), nil
	}
	if color == "red" {
		s.CurrentColor = "blue"
	} else {
		s.CurrentColor = "red"
	}
	return Outcome{}, nil
}

func (Connect4) StartNextRound(st State) error {
	s := st.(*Connect4State)
	s.nextRound()
	s.Board = [connect4Rows][connect4Cols]string{}
	s.LastMove = nil
	s.WinCells = nil
	s.swapRoles("red", "blue")
	s.CurrentColor = "red"
	return nil
}

func (s *Connect4State) lowestEmpty(col int) int {
	for row := connect4Rows - 1; row >= 0; row-- {
		if s.Board[row][col] == "" {
			return row
		}
	}
	return -1
}

// line returns the cells of a run of at least four through (row, col).
func (s *Connect4State) line(row, col int, color string) []Cell {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		cells := []Cell{{Row: row, Col: col}}
		for _, sign := range [2]int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < connect4Rows && c >= 0 && c < connect4Cols && s.Board[r][c] == color {
				cells = append(cells, Cell{Row: r, Col: c})
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if len(cells) >= 4 {
			return cells
		}
	}
	return nil
}

func (s *Connect4State) topRowFull() bool {
	for _, c := range s.Board[0] {
		if c == "" {
			return false
		}
	}
	return true
}
