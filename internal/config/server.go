package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Origins allowed to open a websocket; empty accepts any origin.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`

	BroadcastBus string `env:"BROADCAST_BUS" envDefault:"local"`

	MediaRoot      string `env:"MEDIA_ROOT" envDefault:"media"`
	MediaURLPrefix string `env:"MEDIA_URL_PREFIX" envDefault:"/media/"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
