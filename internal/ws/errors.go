package ws

import (
	"errors"

	"shinetwoplay/internal/errkind"
	"shinetwoplay/internal/store"
	"shinetwoplay/internal/validate"
)

// Close codes sent when a connection is refused or ended by the server.
const (
	CloseUsernameTooLong   = 4000
	CloseDuplicateUsername = 4001
	CloseInvalidUsername   = 4002
	CloseRoomFull          = 4003
	CloseRoomNotFound      = 4004
	ClosePlayerKicked      = 4005
	CloseInternalError     = 4500
)

var (
	ErrNotOwner        = errkind.New(errkind.Authorization, "NOT_OWNER", "only the room owner can do that")
	ErrOwnerReady      = errkind.New(errkind.Authorization, "NOT_ALLOWED", "owner cannot set ready state")
	ErrNoGameSelected  = errkind.New(errkind.Validation, "NO_GAME", "select a game first")
	ErrNotReady        = errkind.New(errkind.Validation, "NOT_READY", "all players must be ready")
	ErrPlayerAway      = errkind.New(errkind.Validation, "NOT_READY", "all players must be connected")
	ErrGameInProgress  = errkind.New(errkind.Validation, "GAME_IN_PROGRESS", "a game is already running")
	ErrUnknownEvent    = errkind.New(errkind.Validation, "INVALID_EVENT", "unknown event")
	ErrBadJSON         = errkind.New(errkind.Validation, "INVALID_JSON", "invalid JSON format")
	ErrRateLimited     = errkind.New(errkind.RateLimit, "RATE_LIMIT", "too many requests")
	ErrMissingURL      = errkind.New(errkind.Validation, "INVALID_DATA", "url required")
	ErrMediaScope      = errkind.New(errkind.Validation, "INVALID_DATA", "media url does not belong to this room")
	ErrMissingReaction = errkind.New(errkind.Validation, "INVALID_DATA", "message_id and emoji required")
	ErrMissingTarget   = errkind.New(errkind.Validation, "INVALID_DATA", "target_user required")
	ErrKickSelf        = errkind.New(errkind.Validation, "INVALID_ACTION", "cannot kick yourself")
)

// closeFor maps a refused admission to its close code and reason.
func closeFor(err error) (int, string) {
	switch {
	case errors.Is(err, validate.ErrUsernameTooLong):
		return CloseUsernameTooLong, "USERNAME_TOO_LONG"
	case errors.Is(err, validate.ErrUsernameRequired),
		errors.Is(err, validate.ErrUsernameChars):
		return CloseInvalidUsername, "INVALID_USERNAME"
	case errors.Is(err, validate.ErrGender):
		return CloseInvalidUsername, "INVALID_GENDER"
	case errors.Is(err, store.ErrDuplicateUsername):
		return CloseDuplicateUsername, "DUPLICATE_USERNAME"
	case errors.Is(err, store.ErrRoomFull):
		return CloseRoomFull, "ROOM_FULL"
	case errors.Is(err, store.ErrRoomNotFound):
		return CloseRoomNotFound, "ROOM_NOT_FOUND"
	case errors.Is(err, store.ErrPlayerKicked):
		return ClosePlayerKicked, "PLAYER_KICKED"
	default:
		return CloseInternalError, "INTERNAL_ERROR"
	}
}

// errorFrame renders err as an in-band error event. Unclassified errors
// surface as SERVER_ERROR without their text.
func errorFrame(err error) []byte {
	if errkind.Of(err) == errkind.Infrastructure {
		return encodeError("SERVER_ERROR", "internal error")
	}
	return encodeError(errkind.Code(err, "SERVER_ERROR"), errkind.Message(err))
}
