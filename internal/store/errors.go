package store

import "shinetwoplay/internal/errkind"

var (
	ErrRoomExists        = errkind.New(errkind.Conflict, "ROOM_EXISTS", "room code already in use")
	ErrRoomNotFound      = errkind.New(errkind.NotFound, "ROOM_NOT_FOUND", "room does not exist")
	ErrRoomFull          = errkind.New(errkind.Capacity, "ROOM_FULL", "room is full (2/2 players)")
	ErrDuplicateUsername = errkind.New(errkind.Conflict, "DUPLICATE_USERNAME", "username already taken in this room")
	ErrPlayerKicked      = errkind.New(errkind.Conflict, "PLAYER_KICKED", "player was kicked from this room")
	ErrPlayerNotFound    = errkind.New(errkind.NotFound, "PLAYER_NOT_FOUND", "player not in room")
	ErrGraceExpired      = errkind.New(errkind.NotFound, "GRACE_EXPIRED", "reconnection window has closed")
	ErrInvalidField      = errkind.New(errkind.Validation, "INVALID_FIELD", "field cannot be updated")
	ErrNoGameState       = errkind.New(errkind.NotFound, "NO_ACTIVE_GAME", "no game in progress")
)
