package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func member(room, user string) *Client {
	return newClient(nil, room, user, rate.NewLimiter(rate.Inf, 1))
}

func next(t *testing.T, c *Client) Outbound {
	t.Helper()
	select {
	case raw := <-c.send:
		var out Outbound
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame for %s", c.username)
		return Outbound{}
	}
}

func TestHubBroadcastExcludesAndScopesRooms(t *testing.T) {
	hub := NewHub()
	ann, bob, other := member("AB12", "Ann"), member("AB12", "Bob"), member("ZZ99", "Cy")
	hub.Join(ann)
	hub.Join(bob)
	hub.Join(other)

	hub.Broadcast(context.Background(), "AB12", evTyping, UserOnly{User: "Ann"}, "Ann")
	assert.Equal(t, evTyping, next(t, bob).Event)
	assert.Empty(t, ann.send)
	assert.Empty(t, other.send)

	hub.Leave(bob)
	assert.Equal(t, 1, hub.Size("AB12"))
	assert.Len(t, hub.Clients("AB12", "Ann"), 1)
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ann := member("AB12", "Ann")
	hub.Join(ann)
	for i := 0; i < sendBuffer+5; i++ {
		hub.Broadcast(context.Background(), "AB12", evPong, nil, "")
	}
	assert.Len(t, ann.send, sendBuffer)
}

func TestRedisBusDeliversThroughPubSub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	bus := NewRedisBus(rdb, hub)
	hub.UseBus(bus)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	<-bus.Run(ctx)

	ann, bob := member("AB12", "Ann"), member("AB12", "Bob")
	hub.Join(ann)
	hub.Join(bob)

	hub.Broadcast(ctx, "AB12", evReadyState, ReadyState{User: "Bob", Ready: true}, "Bob")
	out := next(t, ann)
	assert.Equal(t, evReadyState, out.Event)
	assert.Empty(t, bob.send)
}

func TestRoundTimersReplaceAndCancel(t *testing.T) {
	r := newRoundTimers()
	var first, second, cancelled atomic.Int32

	r.Schedule("AB12", 20*time.Millisecond, func(context.Context) { first.Add(1) })
	r.Schedule("AB12", 20*time.Millisecond, func(context.Context) { second.Add(1) })
	r.Schedule("CD34", 20*time.Millisecond, func(context.Context) { cancelled.Add(1) })
	r.Cancel("CD34")

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, first.Load())
	assert.Zero(t, cancelled.Load())
	assert.False(t, r.Pending("AB12"))
}

func TestRoundTimersChainFromCallback(t *testing.T) {
	r := newRoundTimers()
	done := make(chan struct{})
	r.Schedule("AB12", time.Millisecond, func(context.Context) {
		r.Schedule("AB12", time.Millisecond, func(context.Context) { close(done) })
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chained timer never fired")
	}
}

func TestCloseForMapsAdmissionErrors(t *testing.T) {
	code, reason := closeFor(context.DeadlineExceeded)
	assert.Equal(t, CloseInternalError, code)
	assert.Equal(t, "INTERNAL_ERROR", reason)
}
