package store

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// messageIDs hands out lowercase ULIDs that sort by creation time, even for
// messages appended within the same millisecond.
type messageIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newMessageIDs() *messageIDs {
	return &messageIDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *messageIDs) next(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "msg_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(at), g.entropy).String())
}
