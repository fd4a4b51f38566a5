package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"shinetwoplay/internal/errkind"
)

const (
	MaxUsernameLen   = 8
	RoomCodeLen      = 4
	MaxChatLen       = 500
	MaxVoiceDuration = 60
)

var (
	ErrUsernameRequired = errkind.New(errkind.Validation, "INVALID_USERNAME", "username is required")
	ErrUsernameTooLong  = errkind.New(errkind.Validation, "USERNAME_TOO_LONG", "username must be 8 characters or less")
	ErrUsernameChars    = errkind.New(errkind.Validation, "INVALID_USERNAME", "username must contain only letters, numbers, and spaces")
	ErrGender           = errkind.New(errkind.Validation, "INVALID_GENDER", "gender must be 'male' or 'female'")
	ErrRoomCode         = errkind.New(errkind.Validation, "INVALID_ROOM_CODE", "room code must be 4 characters A-Z or 0-9")
	ErrRounds           = errkind.New(errkind.Validation, "INVALID_ROUNDS", "rounds must be 1, 3, or 5")
	ErrMessage          = errkind.New(errkind.Validation, "INVALID_MESSAGE", "message must be 1-500 characters")
	ErrDuration         = errkind.New(errkind.Validation, "INVALID_DURATION", "voice messages are limited to 60 seconds")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
	roomCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
)

func Username(name string) error {
	if name == "" || strings.TrimSpace(name) == "" {
		return ErrUsernameRequired
	}
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	if !usernamePattern.MatchString(name) {
		return ErrUsernameChars
	}
	return nil
}

func Gender(g string) error {
	switch g {
	case "male", "female":
		return nil
	}
	return ErrGender
}

func RoomCode(code string) error {
	if len(code) != RoomCodeLen || !roomCodePattern.MatchString(code) {
		return ErrRoomCode
	}
	return nil
}

func Rounds(n int) error {
	switch n {
	case 1, 3, 5:
		return nil
	}
	return ErrRounds
}

// ChatText trims msg and checks its length.
func ChatText(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" || utf8.RuneCountInString(msg) > MaxChatLen {
		return "", ErrMessage
	}
	return msg, nil
}

func VoiceDuration(seconds float64) error {
	if seconds <= 0 || seconds > MaxVoiceDuration {
		return ErrDuration
	}
	return nil
}

// Avatar maps a gender to the emoji shown next to the player.
func Avatar(gender string) string {
	if gender == "female" {
		return "👩"
	}
	return "👨"
}
