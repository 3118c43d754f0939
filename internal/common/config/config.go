package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Ops struct {
		Port   int    `env:"OPS_PORT" envDefault:"8080"`
		Origin string `env:"OPS_ORIGIN" envDefault:"*"`
	}

	Telegram struct {
		BotToken       string `env:"BOT_TOKEN,required"`
		PollTimeoutSec int    `env:"POLL_TIMEOUT_SEC" envDefault:"30"`
	}
}

func Load() *Config {
	// .env не обязателен, в production переменные устанавливаются напрямую.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
