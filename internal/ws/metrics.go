package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "room_ws_connections",
		Help: "Open websocket connections admitted into a room.",
	})
	metricRejectedJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_ws_rejected_joins_total",
		Help: "Websocket joins refused with a close code.",
	}, []string{"reason"})
	metricEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_ws_events_total",
		Help: "Inbound client events by name.",
	}, []string{"event"})
	metricEventsLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_ws_events_throttled_total",
		Help: "Inbound events refused by the per-connection flood guard.",
	})
	metricRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_rate_limited_total",
		Help: "Events refused by the per-user fixed windows.",
	}, []string{"category"})
	metricBroadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_broadcasts_total",
		Help: "Frames published to room groups by event.",
	}, []string{"event"})
	metricDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_ws_dropped_frames_total",
		Help: "Outbound frames dropped because a client was too slow.",
	})
)
