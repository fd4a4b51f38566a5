package game

import "shinetwoplay/internal/errkind"

var (
	ErrGameNotFound   = errkind.New(errkind.NotFound, "GAME_NOT_FOUND", "game not found")
	ErrNoActiveGame   = errkind.New(errkind.NotFound, "NO_ACTIVE_GAME", "no game in progress")
	ErrGamePaused     = errkind.New(errkind.Validation, "GAME_PAUSED", "game is paused")
	ErrGameOver       = errkind.New(errkind.Validation, "INVALID_MOVE", "game is over")
	ErrRoundOver      = errkind.New(errkind.Validation, "INVALID_MOVE", "round is over")
	ErrNotYourTurn    = errkind.New(errkind.Authorization, "NOT_YOUR_TURN", "not your turn")
	ErrNotInGame      = errkind.New(errkind.Authorization, "NOT_ALLOWED", "player not in this game")
	ErrNotReporter    = errkind.New(errkind.Authorization, "NOT_ALLOWED", "only P1 reports results")
	ErrInvalidMove    = errkind.New(errkind.Validation, "INVALID_MOVE", "invalid move")
	ErrInvalidAction  = errkind.New(errkind.Validation, "INVALID_ACTION", "unknown action")
	ErrInvalidData    = errkind.New(errkind.Validation, "INVALID_DATA", "malformed move data")
	ErrPlayerCount    = errkind.New(errkind.Validation, "INVALID_DATA", "game needs exactly 2 players")
	ErrInvalidRounds  = errkind.New(errkind.Validation, "INVALID_ROUNDS", "rounds must be positive")
	ErrDuplicateGame  = errkind.New(errkind.Conflict, "DUPLICATE_GAME", "game id registered twice")
	ErrCorruptedState = errkind.New(errkind.Infrastructure, "SERVER_ERROR", "stored game state is unreadable")
)
