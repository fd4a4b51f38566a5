package ws

import (
	"context"
	"sync"
	"time"
)

type graceKey struct {
	room string
	user string
}

// Janitor closes grace windows that ran out. It is owned by the server, so
// a window closes even though the connection that opened it is long gone.
type Janitor struct {
	srv   *Server
	every time.Duration

	mu      sync.Mutex
	pending map[graceKey]time.Time
}

func newJanitor(srv *Server, every time.Duration) *Janitor {
	return &Janitor{srv: srv, every: every, pending: map[graceKey]time.Time{}}
}

func (j *Janitor) Watch(room, user string, deadline time.Time) {
	j.mu.Lock()
	j.pending[graceKey{room, user}] = deadline
	j.mu.Unlock()
}

func (j *Janitor) Cancel(room, user string) {
	j.mu.Lock()
	delete(j.pending, graceKey{room, user})
	j.mu.Unlock()
}

func (j *Janitor) ForgetRoom(room string) {
	j.mu.Lock()
	for k := range j.pending {
		if k.room == room {
			delete(j.pending, k)
		}
	}
	j.mu.Unlock()
}

func (j *Janitor) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.sweep(ctx, now)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context, now time.Time) {
	j.mu.Lock()
	due := make(map[graceKey]time.Time)
	for k, deadline := range j.pending {
		if !deadline.After(now) {
			due[k] = deadline
		}
	}
	j.mu.Unlock()

	for k, deadline := range due {
		if !j.srv.finalize(ctx, k.room, k.user) {
			continue
		}
		j.mu.Lock()
		if cur, ok := j.pending[k]; ok && cur.Equal(deadline) {
			delete(j.pending, k)
		}
		j.mu.Unlock()
	}
}
