package ws

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBus fans frames out through Redis pub/sub on room:<code>:events.
type RedisBus struct {
	rdb *redis.Client
	hub *Hub
}

func NewRedisBus(rdb *redis.Client, hub *Hub) *RedisBus {
	return &RedisBus{rdb: rdb, hub: hub}
}

func (b *RedisBus) Publish(ctx context.Context, f Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, eventsChannel(f.Room), raw).Err()
}

// Run delivers subscribed frames to the hub until ctx is done. The returned
// channel is closed once the subscription is live.
func (b *RedisBus) Run(ctx context.Context) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		pubsub := b.rdb.PSubscribe(ctx, eventsChannel("*"))
		defer pubsub.Close()
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Error().Err(err).Msg("broadcast_subscribe_failed")
			close(ready)
			return
		}
		close(ready)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var f Frame
				if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil || f.Room == "" {
					log.Warn().Str("channel", msg.Channel).Msg("broadcast_frame_invalid")
					continue
				}
				if !strings.HasPrefix(msg.Channel, "room:"+f.Room+":") {
					continue
				}
				b.hub.Deliver(f)
			}
		}
	}()
	return ready
}

func eventsChannel(room string) string { return "room:" + room + ":events" }
