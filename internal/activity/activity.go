// Package activity keeps a bounded feed of room lifecycle events in Redis.
// It is a side channel: recording never blocks a caller and failures are
// only logged.
package activity

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	eventsKey     = "activity:events"
	countsPrefix  = "activity:counts:"
	MaxEvents     = 1000
	countsTTL     = 30 * 24 * time.Hour
	defaultBuffer = 256
)

type Kind string

const (
	RoomCreated   Kind = "room_created"
	PlayerJoined  Kind = "player_joined"
	PlayerLeft    Kind = "player_left"
	PlayerKicked  Kind = "player_kicked"
	GameStarted   Kind = "game_started"
	GameEnded     Kind = "game_ended"
	RoomDestroyed Kind = "room_destroyed"
)

type Event struct {
	Kind   Kind      `json:"kind"`
	Room   string    `json:"room"`
	User   string    `json:"user,omitempty"`
	Game   string    `json:"game,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type Recorder struct {
	rdb *redis.Client
	ch  chan Event
	now func() time.Time

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func NewRecorder(rdb *redis.Client, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Recorder{
		rdb:  rdb,
		ch:   make(chan Event, buffer),
		now:  time.Now,
		done: make(chan struct{}),
	}
}

// Start runs the writer until ctx is cancelled. Events still queued at that
// point are flushed on a short deadline.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()
	go r.worker(ctx)
}

// Done is closed once the worker has exited.
func (r *Recorder) Done() <-chan struct{} { return r.done }

// Record queues ev. It drops the event when the queue is full.
func (r *Recorder) Record(ev Event) {
	if r == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = r.now().UTC()
	}
	select {
	case r.ch <- ev:
		metricActivityQueued.Add(1)
	default:
		metricActivityDropped.Add(1)
	}
}

func (r *Recorder) worker(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case ev := <-r.ch:
			r.write(context.WithoutCancel(ctx), ev)
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-r.ch:
			r.write(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) write(parent context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()
	payload, err := json.Marshal(ev)
	if err != nil {
		metricActivityFailed.Add(1)
		return
	}
	day := countsPrefix + ev.At.Format("20060102")
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, eventsKey, payload)
		p.LTrim(ctx, eventsKey, 0, MaxEvents-1)
		p.HIncrBy(ctx, day, string(ev.Kind), 1)
		p.Expire(ctx, day, countsTTL)
		return nil
	})
	if err != nil {
		metricActivityFailed.Add(1)
		log.Warn().Err(err).Str("kind", string(ev.Kind)).Str("room", ev.Room).Msg("activity_write_failed")
		return
	}
	metricActivityWritten.Add(1)
}

// Recent returns up to n events, newest first.
func (r *Recorder) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 || n > MaxEvents {
		n = MaxEvents
	}
	raw, err := r.rdb.LRange(ctx, eventsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var ev Event
		if json.Unmarshal([]byte(item), &ev) == nil {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Counts returns the per-kind totals for the day containing at.
func (r *Recorder) Counts(ctx context.Context, at time.Time) (map[string]int64, error) {
	raw, err := r.rdb.HGetAll(ctx, countsPrefix+at.UTC().Format("20060102")).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out, nil
}
