package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RoomConfig carries the timing knobs of the room lifecycle.
type RoomConfig struct {
	TTL            time.Duration `env:"ROOM_TTL" envDefault:"1h"`
	GracePeriod    time.Duration `env:"ROOM_GRACE_PERIOD" envDefault:"30s"`
	JanitorEvery   time.Duration `env:"ROOM_JANITOR_INTERVAL" envDefault:"1s"`
	RevealDelay    time.Duration `env:"GAME_REVEAL_DELAY" envDefault:"1s"`
	RoundDisplay   time.Duration `env:"GAME_ROUND_DISPLAY" envDefault:"3s"`
	GameOverDelay  time.Duration `env:"GAME_OVER_DISPLAY" envDefault:"5s"`
	EventsPerSec   float64       `env:"WS_EVENTS_PER_SEC" envDefault:"30"`
	EventBurst     int           `env:"WS_EVENT_BURST" envDefault:"60"`
	ActivityBuffer int           `env:"ACTIVITY_BUFFER" envDefault:"256"`
}

func LoadRoom() (RoomConfig, error) {
	var cfg RoomConfig
	err := env.Parse(&cfg)
	return cfg, err
}
