package ws

import (
	"context"
	"sync"
	"time"
)

type roundTimer struct {
	t   *time.Timer
	gen uint64
}

// roundTimers holds at most one pending transition per room. Scheduling
// replaces the pending one; a replaced or cancelled callback never runs.
type roundTimers struct {
	mu     sync.Mutex
	ctx    context.Context
	seq    uint64
	timers map[string]roundTimer
}

func newRoundTimers() *roundTimers {
	return &roundTimers{ctx: context.Background(), timers: map[string]roundTimer{}}
}

func (r *roundTimers) setContext(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()
}

func (r *roundTimers) Schedule(room string, d time.Duration, fn func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.timers[room]; ok {
		old.t.Stop()
	}
	r.seq++
	gen := r.seq
	t := time.AfterFunc(d, func() {
		r.mu.Lock()
		cur, ok := r.timers[room]
		if !ok || cur.gen != gen {
			r.mu.Unlock()
			return
		}
		delete(r.timers, room)
		ctx := r.ctx
		r.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	r.timers[room] = roundTimer{t: t, gen: gen}
}

func (r *roundTimers) Cancel(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.timers[room]; ok {
		cur.t.Stop()
		delete(r.timers, room)
	}
}

func (r *roundTimers) Pending(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[room]
	return ok
}
