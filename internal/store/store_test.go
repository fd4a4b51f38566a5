package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"shinetwoplay/internal/store"
	"shinetwoplay/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(t *testing.T, st *store.Store, code string) {
	t.Helper()
	_, err := st.CreateRoom(context.Background(), code, "")
	require.NoError(t, err)
}

func TestCreateRoomRejectsExistingCode(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()

	room, err := st.CreateRoom(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.Equal(t, store.StatusWaiting, room.Status)
	assert.Equal(t, store.DefaultRounds, room.Rounds)

	_, err = st.CreateRoom(ctx, "AB12", "Bob")
	require.ErrorIs(t, err, store.ErrRoomExists)

	got, err := st.GetRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Owner)

	_, err = st.GetRoom(ctx, "ZZZZ")
	require.ErrorIs(t, err, store.ErrRoomNotFound)
}

func TestUpdateRoomFieldWhitelist(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	require.NoError(t, st.UpdateRoomField(ctx, "AB12", "rounds", "5"))
	require.NoError(t, st.UpdateRoomField(ctx, "AB12", "selected_game", "tictactoe"))
	require.ErrorIs(t, st.UpdateRoomField(ctx, "AB12", "owner", "Eve"), store.ErrInvalidField)

	room, err := st.GetRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, 5, room.Rounds)
	assert.Equal(t, "tictactoe", room.SelectedGame)
}

func TestAddPlayerFirstJoinerOwnsRoom(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	ann, outcome, err := st.AddPlayer(ctx, "AB12", "Ann", "female")
	require.NoError(t, err)
	assert.Equal(t, store.JoinedFresh, outcome)
	assert.True(t, ann.IsOwner)
	assert.True(t, ann.IsConnected)
	assert.Equal(t, "👩", ann.Avatar)

	bob, _, err := st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, err)
	assert.False(t, bob.IsOwner)
	assert.Equal(t, "👨", bob.Avatar)

	room, err := st.GetRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, "Ann", room.Owner)

	players, err := st.ListPlayers(ctx, "AB12")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Ann", players[0].Username)
	assert.Equal(t, "Bob", players[1].Username)
}

func TestAddPlayerRejections(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()

	_, _, err := st.AddPlayer(ctx, "NONE", "Ann", "female")
	require.ErrorIs(t, err, store.ErrRoomNotFound)

	newRoom(t, st, "AB12")
	_, _, err = st.AddPlayer(ctx, "AB12", "Ann", "robot")
	require.Error(t, err)

	_, _, err = st.AddPlayer(ctx, "AB12", "Ann", "female")
	require.NoError(t, err)
	_, _, err = st.AddPlayer(ctx, "AB12", "Ann", "female")
	require.ErrorIs(t, err, store.ErrDuplicateUsername)

	_, _, err = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, err)
	_, _, err = st.AddPlayer(ctx, "AB12", "Cat", "female")
	require.ErrorIs(t, err, store.ErrRoomFull)
}

func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := st.AddPlayer(ctx, "AB12", fmt.Sprintf("p%d", i), "male")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case assert.ErrorIs(t, err, store.ErrRoomFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, store.MaxPlayers, joined)
	assert.Equal(t, 10, full)
	n, err := st.PlayerCount(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, store.MaxPlayers, n)
}

func TestSetPlayerFieldRederivesAvatar(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, err := st.AddPlayer(ctx, "AB12", "Ann", "female")
	require.NoError(t, err)

	require.NoError(t, st.SetPlayerField(ctx, "AB12", "Ann", "gender", "male"))
	p, err := st.GetPlayer(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "male", p.Gender)
	assert.Equal(t, "👨", p.Avatar)

	require.ErrorIs(t, st.SetPlayerField(ctx, "AB12", "Ann", "avatar", "🦄"), store.ErrInvalidField)
	require.ErrorIs(t, st.SetPlayerReady(ctx, "AB12", "Ghost", true), store.ErrPlayerNotFound)
}

func TestTransferOwnershipKeepsFlagsInSync(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")

	old, err := st.TransferOwnership(ctx, "AB12", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Ann", old)

	room, _ := st.GetRoom(ctx, "AB12")
	assert.Equal(t, "Bob", room.Owner)
	ann, _ := st.GetPlayer(ctx, "AB12", "Ann")
	bob, _ := st.GetPlayer(ctx, "AB12", "Bob")
	assert.False(t, ann.IsOwner)
	assert.True(t, bob.IsOwner)

	_, err = st.TransferOwnership(ctx, "AB12", "Ghost")
	require.ErrorIs(t, err, store.ErrPlayerNotFound)
}

func TestReconnectKeepsOwnerAndReady(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, st.SetPlayerReady(ctx, "AB12", "Bob", true))

	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Ann"))
	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Bob"))
	in, err := st.InGracePeriod(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.True(t, in)

	ann, err := st.Reconnect(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.True(t, ann.IsOwner)
	assert.True(t, ann.IsConnected)

	bob, err := st.Reconnect(ctx, "AB12", "Bob")
	require.NoError(t, err)
	assert.True(t, bob.IsReady)

	_, err = st.Reconnect(ctx, "AB12", "Bob")
	require.ErrorIs(t, err, store.ErrGraceExpired)

	n, _ := st.PlayerCount(ctx, "AB12")
	assert.Equal(t, 2, n)
}

func TestKickIsFinal(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Bob"))

	require.NoError(t, st.KickPlayer(ctx, "AB12", "Bob"))

	kicked, err := st.IsKicked(ctx, "AB12", "Bob")
	require.NoError(t, err)
	assert.True(t, kicked)

	_, err = st.Reconnect(ctx, "AB12", "Bob")
	require.ErrorIs(t, err, store.ErrPlayerKicked)
	_, _, err = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.ErrorIs(t, err, store.ErrPlayerKicked)

	exists, _ := st.PlayerExists(ctx, "AB12", "Bob")
	assert.False(t, exists)
}

func TestFinalizeWaitsForGraceThenTransfersOwner(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{GracePeriod: 30 * time.Second})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Ann"))

	fin, err := st.FinalizeDisconnect(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.False(t, fin.Removed)
	room, _ := st.GetRoom(ctx, "AB12")
	assert.Equal(t, "Ann", room.Owner)

	mr.FastForward(31 * time.Second)

	fin, err = st.FinalizeDisconnect(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.True(t, fin.Removed)
	assert.Equal(t, "Bob", fin.NewOwner)
	assert.Equal(t, 1, fin.Remaining)
	assert.Equal(t, 1, fin.Connected)

	room, _ = st.GetRoom(ctx, "AB12")
	assert.Equal(t, "Bob", room.Owner)
	bob, _ := st.GetPlayer(ctx, "AB12", "Bob")
	assert.True(t, bob.IsOwner)
}

func TestFinalizeSkipsReconnectedPlayer(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{GracePeriod: 30 * time.Second})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Ann"))
	_, err := st.Reconnect(ctx, "AB12", "Ann")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)
	fin, err := st.FinalizeDisconnect(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.False(t, fin.Removed)
	assert.Equal(t, 1, fin.Connected)
}

func TestNextOwnerPrefersConnected(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")

	next, err := st.NextOwner(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "Bob", next)

	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Bob"))
	next, err = st.NextOwner(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "Bob", next)

	next, err = st.NextOwner(ctx, "AB12", "")
	require.NoError(t, err)
	assert.Equal(t, "Ann", next)
}

func TestStaleSeatIsReclaimed(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{GracePeriod: 30 * time.Second})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Bob"))
	mr.FastForward(31 * time.Second)

	bob, outcome, err := st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, err)
	assert.Equal(t, store.JoinReclaimed, outcome)
	assert.True(t, bob.IsConnected)
}

func TestMessageLogIsBoundedAndNewestFirst(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	for i := 0; i < 130; i++ {
		_, err := st.AddTextMessage(ctx, "AB12", "Ann", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}
	all, err := st.RecentMessages(ctx, "AB12", 500)
	require.NoError(t, err)
	assert.Len(t, all, store.MaxMessages)

	recent, err := st.RecentMessages(ctx, "AB12", 50)
	require.NoError(t, err)
	require.Len(t, recent, 50)
	for i, m := range recent {
		assert.Equal(t, fmt.Sprintf("m%d", 129-i), m.Content)
	}
}

func TestSystemMessageHasNullSender(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	msg, err := st.AddSystemMessage(ctx, "AB12", "Ann joined", "join")
	require.NoError(t, err)
	assert.Nil(t, msg.Sender)
	assert.Contains(t, msg.ID, "msg_")

	got, err := st.RecentMessages(ctx, "AB12", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Sender)
	assert.Equal(t, "join", got[0].Subtype)
}

func TestToggleReaction(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	msg, err := st.AddTextMessage(ctx, "AB12", "Ann", "hi")
	require.NoError(t, err)

	steps := []struct {
		emoji  string
		action store.ReactionAction
		old    string
		final  map[string][]string
	}{
		{"👍", store.ReactionAdded, "", map[string][]string{"👍": {"Bob"}}},
		{"❤️", store.ReactionReplaced, "👍", map[string][]string{"❤️": {"Bob"}}},
		{"❤️", store.ReactionRemoved, "❤️", map[string][]string{}},
		{"❤️", store.ReactionAdded, "", map[string][]string{"❤️": {"Bob"}}},
	}
	for _, step := range steps {
		res, err := st.ToggleReaction(ctx, "AB12", msg.ID, step.emoji, "Bob")
		require.NoError(t, err)
		assert.Equal(t, step.action, res.Action)
		assert.Equal(t, step.old, res.OldEmoji)
		got, err := st.Reactions(ctx, "AB12", msg.ID)
		require.NoError(t, err)
		assert.Equal(t, step.final, got)
	}

	recent, err := st.RecentMessages(ctx, "AB12", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, recent[0].Reactions["❤️"])
}

func TestAllowFixedWindow(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := st.Allow(ctx, "chat", "Ann", 3, 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := st.Allow(ctx, "chat", "Ann", 3, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = st.Allow(ctx, "voice", "Ann", 3, 10*time.Second)
	assert.True(t, ok)

	mr.FastForward(11 * time.Second)
	ok, _ = st.Allow(ctx, "chat", "Ann", 3, 10*time.Second)
	assert.True(t, ok)
}

func TestGameStateBlob(t *testing.T) {
	st, _ := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")

	_, err := st.LoadGameState(ctx, "AB12")
	require.ErrorIs(t, err, store.ErrNoGameState)

	require.NoError(t, st.SaveGameState(ctx, "AB12", []byte(`{"game_id":"tictactoe"}`)))
	b, err := st.LoadGameState(ctx, "AB12")
	require.NoError(t, err)
	assert.JSONEq(t, `{"game_id":"tictactoe"}`, string(b))

	require.NoError(t, st.ClearGameState(ctx, "AB12"))
	_, err = st.LoadGameState(ctx, "AB12")
	require.ErrorIs(t, err, store.ErrNoGameState)
}

func TestRefreshTTLTouchesPlayers(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{RoomTTL: time.Minute})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")

	mr.FastForward(50 * time.Second)
	require.NoError(t, st.RefreshTTL(ctx, "AB12"))
	mr.FastForward(50 * time.Second)

	exists, err := st.RoomExists(ctx, "AB12")
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = st.GetPlayer(ctx, "AB12", "Ann")
	require.NoError(t, err)
}

func TestDestroyRoomRemovesAllKeys(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	newRoom(t, st, "CD34")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	msg, _ := st.AddTextMessage(ctx, "AB12", "Ann", "hi")
	_, _ = st.ToggleReaction(ctx, "AB12", msg.ID, "👍", "Ann")
	require.NoError(t, st.TrackMedia(ctx, "AB12", "media/voice/a.webm"))
	require.NoError(t, st.SetTyping(ctx, "AB12", "Ann"))

	media, err := st.DestroyRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []string{"media/voice/a.webm"}, media)

	for _, k := range mr.Keys() {
		assert.NotContains(t, k, "room:AB12:")
	}
	exists, _ := st.RoomExists(ctx, "CD34")
	assert.True(t, exists)
}

func TestTypingMarkerExpires(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()

	require.NoError(t, st.SetTyping(ctx, "AB12", "Ann"))
	on, _ := st.IsTyping(ctx, "AB12", "Ann")
	assert.True(t, on)
	mr.FastForward(4 * time.Second)
	on, _ = st.IsTyping(ctx, "AB12", "Ann")
	assert.False(t, on)
}

func TestMarkDisconnectedSkipsRemovedPlayer(t *testing.T) {
	st, mr := testutil.OpenTestStore(t, store.Options{})
	ctx := context.Background()
	newRoom(t, st, "AB12")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Ann", "female")
	_, _, _ = st.AddPlayer(ctx, "AB12", "Bob", "male")
	require.NoError(t, st.KickPlayer(ctx, "AB12", "Bob"))

	err := st.MarkDisconnected(ctx, "AB12", "Bob")
	require.ErrorIs(t, err, store.ErrPlayerNotFound)
	assert.False(t, mr.Exists("room:AB12:player:Bob"))
	inGrace, err := st.InGracePeriod(ctx, "AB12", "Bob")
	require.NoError(t, err)
	assert.False(t, inGrace)

	require.NoError(t, st.MarkDisconnected(ctx, "AB12", "Ann"))
	ann, err := st.GetPlayer(ctx, "AB12", "Ann")
	require.NoError(t, err)
	assert.False(t, ann.IsConnected)
}
