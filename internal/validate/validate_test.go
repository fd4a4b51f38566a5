package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"simple", "Ann", nil},
		{"with space", "Ann B", nil},
		{"eight chars", "abcdefgh", nil},
		{"empty", "", ErrUsernameRequired},
		{"blank", "   ", ErrUsernameRequired},
		{"too long", "abcdefghi", ErrUsernameTooLong},
		{"symbols", "ann!", ErrUsernameChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Username(tt.in))
		})
	}
}

func TestRoomCode(t *testing.T) {
	assert.NoError(t, RoomCode("AB12"))
	assert.ErrorIs(t, RoomCode("ab12"), ErrRoomCode)
	assert.ErrorIs(t, RoomCode("AB1"), ErrRoomCode)
	assert.ErrorIs(t, RoomCode("AB12C"), ErrRoomCode)
}

func TestRounds(t *testing.T) {
	for _, n := range []int{1, 3, 5} {
		assert.NoError(t, Rounds(n))
	}
	for _, n := range []int{0, 2, 4, 6, -1} {
		assert.ErrorIs(t, Rounds(n), ErrRounds)
	}
}

func TestChatText(t *testing.T) {
	got, err := ChatText("  hi there ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)

	_, err = ChatText("   ")
	assert.ErrorIs(t, err, ErrMessage)

	_, err = ChatText(strings.Repeat("x", MaxChatLen+1))
	assert.ErrorIs(t, err, ErrMessage)
}

func TestGenderAndAvatar(t *testing.T) {
	assert.NoError(t, Gender("male"))
	assert.NoError(t, Gender("female"))
	assert.ErrorIs(t, Gender("robot"), ErrGender)
	assert.Equal(t, "👨", Avatar("male"))
	assert.Equal(t, "👩", Avatar("female"))
}

func TestVoiceDuration(t *testing.T) {
	assert.NoError(t, VoiceDuration(12.5))
	assert.ErrorIs(t, VoiceDuration(61), ErrDuration)
	assert.ErrorIs(t, VoiceDuration(-1), ErrDuration)
	assert.ErrorIs(t, VoiceDuration(0), ErrDuration)
	assert.NoError(t, VoiceDuration(MaxVoiceDuration))
}
