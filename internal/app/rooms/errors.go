package rooms

import "shinetwoplay/internal/errkind"

var (
	ErrCodeSpaceExhausted = errkind.New(errkind.Infrastructure, "SERVER_ERROR", "could not generate a unique room code")
	ErrUsernameTaken      = errkind.New(errkind.Conflict, "USERNAME_TAKEN", "username already taken in this room")
)
