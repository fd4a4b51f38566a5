package config

import "github.com/caarlos0/env/v11"

type TestConfig struct {
	RedisIT    bool   `env:"REDIS_IT" envDefault:"false"`
	RedisImage string `env:"REDIS_IT_IMAGE" envDefault:"redis:7-alpine"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
