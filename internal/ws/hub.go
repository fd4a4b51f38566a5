package ws

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Frame is one broadcast addressed to a room group.
type Frame struct {
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
	// Exclude skips the connection of that username.
	Exclude string `json:"exclude,omitempty"`
}

// Bus carries frames to the hub that delivers them.
type Bus interface {
	Publish(ctx context.Context, f Frame) error
}

type localBus struct{ hub *Hub }

func (b localBus) Publish(_ context.Context, f Frame) error {
	b.hub.Deliver(f)
	return nil
}

// Hub keeps the per-room broadcast groups of this process. Delivery holds
// the hub lock for the whole group, so every member sees frames in the same
// order.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
	bus   Bus
}

func NewHub() *Hub {
	h := &Hub{rooms: map[string]map[*Client]struct{}{}}
	h.bus = localBus{hub: h}
	return h
}

// UseBus routes broadcasts through b. b must eventually call Deliver.
func (h *Hub) UseBus(b Bus) {
	h.mu.Lock()
	h.bus = b
	h.mu.Unlock()
}

func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[c.room]
	if group == nil {
		group = map[*Client]struct{}{}
		h.rooms[c.room] = group
	}
	group[c] = struct{}{}
	metricConnections.Inc()
}

func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[c.room]
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.rooms, c.room)
	}
	metricConnections.Dec()
}

// Broadcast publishes event to every member of room except the exclude user.
func (h *Hub) Broadcast(ctx context.Context, room, event string, data any, exclude string) {
	h.mu.Lock()
	bus := h.bus
	h.mu.Unlock()
	f := Frame{Room: room, Payload: encode(event, data), Exclude: exclude}
	if err := bus.Publish(ctx, f); err != nil {
		log.Warn().Err(err).Str("room", room).Str("event", event).Msg("broadcast_publish_failed")
		return
	}
	metricBroadcasts.WithLabelValues(event).Inc()
}

func (h *Hub) Deliver(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[f.Room] {
		if f.Exclude != "" && c.username == f.Exclude {
			continue
		}
		c.enqueue(f.Payload)
	}
}

// Clients returns the local connections of username in room.
func (h *Hub) Clients(room, username string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*Client
	for c := range h.rooms[room] {
		if c.username == username {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) Size(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
