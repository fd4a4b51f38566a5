package game

import (
	"encoding/json"
	"testing"
	"time"
)

// seqRand keeps the listed order and returns dice from a script.
type seqRand struct{ dice []int }

func (r *seqRand) Shuffle(int, func(i, j int)) {}

func (r *seqRand) Intn(n int) int {
	if len(r.dice) == 0 {
		return 0
	}
	d := r.dice[0]
	r.dice = r.dice[1:]
	return d - 1
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func place(t *testing.T, h TicTacToe, st State, player string, cell int) Outcome {
	t.Helper()
	out, err := h.HandleMove(st, Move{Player: player, Action: "place", Data: raw(t, map[string]int{"cell": cell})})
	if err != nil {
		t.Fatalf("place %s@%d: %v", player, cell, err)
	}
	return out
}

func TestTicTacToeLineWinScoresOnce(t *testing.T) {
	h := TicTacToe{}
	st, err := h.Initialize([]string{"Ann", "Bob"}, 3, &seqRand{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	s := st.(*TicTacToeState)
	if s.Players["X"] != "Ann" || s.CurrentMark != "X" {
		t.Fatalf("unexpected roles %v mark %s", s.Players, s.CurrentMark)
	}

	place(t, h, st, "Ann", 0)
	place(t, h, st, "Bob", 3)
	place(t, h, st, "Ann", 1)
	place(t, h, st, "Bob", 4)
	out := place(t, h, st, "Ann", 2)

	if !out.RoundEnded || out.RoundWinner != "Ann" {
		t.Fatalf("expected Ann to win round, got %+v", out)
	}
	if out.GameEnded || out.NextRound != 2 {
		t.Fatalf("expected next round 2, got %+v", out)
	}
	if s.Scores["Ann"] != 1 || s.Scores["Bob"] != 0 {
		t.Fatalf("unexpected scores %v", s.Scores)
	}
}

func TestTicTacToeRejectsWithoutMutation(t *testing.T) {
	h := TicTacToe{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	s := st.(*TicTacToeState)

	cases := []struct {
		name string
		mv   Move
		want error
	}{
		{"wrong turn", Move{Player: "Bob", Action: "place", Data: raw(t, map[string]int{"cell": 0})}, ErrNotYourTurn},
		{"bad action", Move{Player: "Ann", Action: "drop", Data: raw(t, map[string]int{"cell": 0})}, ErrInvalidAction},
		{"out of range", Move{Player: "Ann", Action: "place", Data: raw(t, map[string]int{"cell": 9})}, ErrInvalidMove},
		{"missing cell", Move{Player: "Ann", Action: "place"}, ErrInvalidMove},
		{"bad json", Move{Player: "Ann", Action: "place", Data: json.RawMessage(`[1]`)}, ErrInvalidData},
	}
	for _, tc := range cases {
		if _, err := h.HandleMove(st, tc.mv); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if s.Board != [9]string{} {
		t.Fatalf("board changed: %v", s.Board)
	}

	place(t, h, st, "Ann", 4)
	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "place", Data: raw(t, map[string]int{"cell": 4})}); err != ErrInvalidMove {
		t.Fatalf("expected occupied cell rejection, got %v", err)
	}
}

func TestTicTacToeDrawAndRoleSwap(t *testing.T) {
	h := TicTacToe{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	// X O X / X O O / O X X
	for i, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
		player := "Ann"
		if i%2 == 1 {
			player = "Bob"
		}
		out := place(t, h, st, player, cell)
		if i == 8 {
			if out.RoundWinner != Draw || !out.GameEnded || out.GameWinner != Draw {
				t.Fatalf("expected drawn game, got %+v", out)
			}
		}
	}

	st2, _ := h.Initialize([]string{"Ann", "Bob"}, 3, &seqRand{})
	if err := h.StartNextRound(st2); err != nil {
		t.Fatalf("next round: %v", err)
	}
	s2 := st2.(*TicTacToeState)
	if s2.Players["X"] != "Bob" || s2.CurrentRound != 2 {
		t.Fatalf("expected Bob to start round 2, got %v round %d", s2.Players, s2.CurrentRound)
	}
}

func drop(t *testing.T, h Connect4, st State, player string, col int) Outcome {
	t.Helper()
	out, err := h.HandleMove(st, Move{Player: player, Action: "drop", Data: raw(t, map[string]int{"col": col})})
	if err != nil {
		t.Fatalf("drop %s@%d: %v", player, col, err)
	}
	return out
}

func TestConnect4VerticalWin(t *testing.T) {
	h := Connect4{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	s := st.(*Connect4State)

	for i := 0; i < 3; i++ {
		drop(t, h, st, "Ann", 0)
		drop(t, h, st, "Bob", 1)
	}
	out := drop(t, h, st, "Ann", 0)
	if !out.GameEnded || out.GameWinner != "Ann" {
		t.Fatalf("expected Ann to win, got %+v", out)
	}
	if len(s.WinCells) != 4 {
		t.Fatalf("expected 4 win cells, got %v", s.WinCells)
	}
	if s.LastMove == nil || s.LastMove.Row != 2 || s.LastMove.Col != 0 {
		t.Fatalf("unexpected last move %+v", s.LastMove)
	}
}

func TestConnect4FullColumn(t *testing.T) {
	h := Connect4{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	// alternate colours in one column so nobody connects
	players := []string{"Ann", "Bob"}
	for i := 0; i < connect4Rows; i++ {
		drop(t, h, st, players[i%2], 3)
	}
	if _, err := h.HandleMove(st, Move{Player: "Ann", Action: "drop", Data: raw(t, map[string]int{"col": 3})}); err != ErrInvalidMove {
		t.Fatalf("expected full column rejection, got %v", err)
	}
}

func TestLudoRollEnterAndBonus(t *testing.T) {
	h := Ludo{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	s := st.(*LudoState)
	rnd := &seqRand{dice: []int{3, 6, 2}}

	out, err := h.HandleMove(st, Move{Player: "Ann", Action: "roll", Rand: rnd})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if out.Extra["no_moves"] != true || s.Turn != "blue" {
		t.Fatalf("expected no moves and turn to pass, got %+v turn %s", out.Extra, s.Turn)
	}

	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "move", Data: raw(t, map[string]int{"piece_id": 0})}); err != ErrInvalidMove {
		t.Fatalf("expected move before roll to fail, got %v", err)
	}
	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "roll", Rand: rnd}); err != nil {
		t.Fatalf("roll 6: %v", err)
	}
	if s.Phase != PhaseMove {
		t.Fatalf("expected MOVE phase after a 6, got %s", s.Phase)
	}
	out, err = h.HandleMove(st, Move{Player: "Bob", Action: "move", Data: raw(t, map[string]int{"piece_id": 0})})
	if err != nil {
		t.Fatalf("enter piece: %v", err)
	}
	if out.Extra["bonus"] != true || s.Turn != "blue" {
		t.Fatalf("expected bonus turn for blue, got %+v turn %s", out.Extra, s.Turn)
	}
	if s.Pieces[4].Pos != 0 {
		t.Fatalf("expected blue piece 0 at start, got %d", s.Pieces[4].Pos)
	}
}

func TestLudoCaptureSendsHome(t *testing.T) {
	h := Ludo{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	s := st.(*LudoState)
	s.Pieces[4].Pos = 27 // blue, absolute square 1
	s.Pieces[0].Pos = 3  // red, absolute square 3
	s.Turn = "blue"

	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "roll", Rand: &seqRand{dice: []int{2}}}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	out, err := h.HandleMove(st, Move{Player: "Bob", Action: "move", Data: raw(t, map[string]int{"piece_id": 0})})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if out.Extra["cut"] != true || s.Pieces[0].Pos != ludoYard {
		t.Fatalf("expected capture, got %+v red pos %d", out.Extra, s.Pieces[0].Pos)
	}
	if s.Turn != "blue" {
		t.Fatalf("capture should grant a bonus turn, turn is %s", s.Turn)
	}
}

func TestLudoSafeSpotBlocksCapture(t *testing.T) {
	h := Ludo{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	s := st.(*LudoState)
	s.Pieces[4].Pos = 30 // blue, absolute square 4
	s.Pieces[0].Pos = 8  // red, absolute square 8 (safe)
	s.Turn = "blue"

	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "roll", Rand: &seqRand{dice: []int{4}}}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	out, err := h.HandleMove(st, Move{Player: "Bob", Action: "move", Data: raw(t, map[string]int{"piece_id": 0})})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if out.Extra["cut"] != false || s.Pieces[0].Pos != 8 {
		t.Fatalf("safe square must not capture, got %+v", out.Extra)
	}
	if s.Turn != "red" {
		t.Fatalf("expected turn to pass, got %s", s.Turn)
	}
}

func TestLudoFourHomeWinsRound(t *testing.T) {
	h := Ludo{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 3, &seqRand{})
	s := st.(*LudoState)
	for i := 0; i < 3; i++ {
		s.Pieces[i].Pos = ludoHome
	}
	s.Pieces[3].Pos = 53

	if _, err := h.HandleMove(st, Move{Player: "Ann", Action: "roll", Rand: &seqRand{dice: []int{4}}}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if s.Phase != PhaseRoll || s.Turn != "blue" {
		t.Fatalf("overshooting home is not a move; expected turn to pass")
	}
	s.Turn = "red"
	if _, err := h.HandleMove(st, Move{Player: "Ann", Action: "roll", Rand: &seqRand{dice: []int{3}}}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	out, err := h.HandleMove(st, Move{Player: "Ann", Action: "move", Data: raw(t, map[string]int{"piece_id": 3})})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !out.RoundEnded || out.RoundWinner != "Ann" || out.NextRound != 2 {
		t.Fatalf("expected Ann to win round 1, got %+v", out)
	}
	if s.Scores["Ann"] != 1 {
		t.Fatalf("expected score 1, got %v", s.Scores)
	}

	if err := h.StartNextRound(st); err != nil {
		t.Fatalf("next round: %v", err)
	}
	if s.Players["red"] != "Bob" || s.Pieces[0].Pos != ludoYard || s.CurrentRound != 2 {
		t.Fatalf("expected fresh board with swapped colours, got %v", s.Players)
	}
}

func TestRelayOnlyP1Reports(t *testing.T) {
	h := Stealthering()
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 3, &seqRand{})
	s := st.(*RelayState)
	if s.Players["P1"] != "Ann" {
		t.Fatalf("listed order expected, got %v", s.Players)
	}

	if _, err := h.HandleMove(st, Move{Player: "Bob", Action: "round_end", Data: raw(t, map[string]any{"winner": "P2"})}); err != ErrNotReporter {
		t.Fatalf("expected P2 report to be refused, got %v", err)
	}
	if _, err := h.HandleMove(st, Move{Player: "Ann", Action: "jump"}); err != ErrInvalidAction {
		t.Fatalf("expected unknown action, got %v", err)
	}

	if _, err := h.HandleMove(st, Move{Player: "Ann", Action: "score_update", Data: raw(t, map[string]int{"p1_score": 2, "p2_score": 1})}); err != nil {
		t.Fatalf("score update: %v", err)
	}
	if s.Scores["Ann"] != 2 || s.Scores["Bob"] != 1 {
		t.Fatalf("unexpected scores %v", s.Scores)
	}
	out, err := h.HandleMove(st, Move{Player: "Ann", Action: "round_end", Data: raw(t, map[string]any{"winner": "P2", "p1_score": 2, "p2_score": 3})})
	if err != nil {
		t.Fatalf("round end: %v", err)
	}
	if out.RoundWinner != "Bob" || s.RoundWins["Bob"] != 1 || out.NextRound != 2 {
		t.Fatalf("unexpected outcome %+v wins %v", out, s.RoundWins)
	}
	if err := h.StartNextRound(st); err != nil {
		t.Fatalf("next round: %v", err)
	}
	if s.Scores["Ann"] != 0 || s.Scores["Bob"] != 0 {
		t.Fatalf("per-round scores should reset, got %v", s.Scores)
	}
}

func TestRelayWinnerByRoundWins(t *testing.T) {
	h := PaddleArena()
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 2, &seqRand{})
	s := st.(*RelayState)

	report := func(winner string, p1, p2 int) Outcome {
		out, err := h.HandleMove(st, Move{Player: "Ann", Action: "round_end", Data: raw(t, map[string]any{"winner": winner, "p1_score": p1, "p2_score": p2})})
		if err != nil {
			t.Fatalf("round end: %v", err)
		}
		return out
	}
	report("P1", 1, 0)
	_ = h.StartNextRound(st)
	out := report("P2", 0, 9)
	if !out.GameEnded || out.GameWinner != Draw {
		t.Fatalf("one round each should be a draw regardless of raw scores, got %+v", out)
	}
	if out.FinalScores["Ann"] != 1 || out.FinalScores["Bob"] != 1 {
		t.Fatalf("final scores should be round wins, got %v", out.FinalScores)
	}
	if s.Scores["Bob"] != 9 {
		t.Fatalf("paddle arena keeps raw scores, got %v", s.Scores)
	}
}

func TestBeachBallOwnerIsP2AndEndsAtThreeWins(t *testing.T) {
	h := BeachBall()
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 5, &seqRand{})
	s := st.(*RelayState)
	if s.Players["P2"] != "Ann" || s.Players["P1"] != "Bob" {
		t.Fatalf("owner should be P2, got %v", s.Players)
	}
	var out Outcome
	for i := 0; i < 3; i++ {
		var err error
		out, err = h.HandleMove(st, Move{Player: "Bob", Action: "round_end", Data: raw(t, map[string]string{"winner": "P1"})})
		if err != nil {
			t.Fatalf("round end: %v", err)
		}
		if i < 2 {
			if out.GameEnded {
				t.Fatalf("game ended early after %d wins", i+1)
			}
			_ = h.StartNextRound(st)
		}
	}
	if !out.GameEnded || out.GameWinner != "Bob" {
		t.Fatalf("expected Bob to win at 3 round wins, got %+v", out)
	}
}

func TestPauseOverlay(t *testing.T) {
	h := TicTacToe{}
	st, _ := h.Initialize([]string{"Ann", "Bob"}, 1, &seqRand{})
	c := st.Base()
	now := time.Unix(1700000000, 0)

	h.OnDisconnect(st, "Ann", now)
	h.OnDisconnect(st, "Ann", now)
	h.OnDisconnect(st, "Bob", now)
	if !c.Paused || len(c.DisconnectedPlayers) != 2 || c.PausedAt == nil {
		t.Fatalf("expected paused with two players away, got %+v", c)
	}
	h.OnReconnect(st, "Ann")
	if !c.Paused {
		t.Fatalf("should stay paused while Bob is away")
	}
	h.OnReconnect(st, "Bob")
	if c.Paused || c.PausedAt != nil || len(c.DisconnectedPlayers) != 0 {
		t.Fatalf("expected resume, got %+v", c)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry(TicTacToe{}, TicTacToe{}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	r := DefaultRegistry()
	for _, id := range []string{"tictactoe", "connect4", "ludo", "paddlearena", "beachball", "stealthering", "treecutter", "snakes"} {
		if _, ok := r.Get(id); !ok {
			t.Fatalf("missing handler %s", id)
		}
		if _, ok := LookupCatalog(id); !ok {
			t.Fatalf("handler %s missing from catalog", id)
		}
	}
	if _, ok := r.Get("carrom"); ok {
		t.Fatalf("carrom has no server handler")
	}
	if len(Catalog()) != 11 {
		t.Fatalf("expected 11 catalog entries, got %d", len(Catalog()))
	}
}
