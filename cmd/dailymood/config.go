package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds CLI settings. Environment variables use the DAILYMOOD_
// prefix and are overridden by flags.
type Config struct {
	Store       string `envconfig:"STORE" default:"badger"`
	BadgerDir   string `envconfig:"BADGER_DIR" default:"./dailymood-data"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"dailymood"`

	Contract string `envconfig:"CONTRACT" default:""`
	Key      string `envconfig:"KEY" default:""`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// loadConfig reads DAILYMOOD_* variables.
func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("DAILYMOOD", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case "memory", "badger", "badger-mem", "redis":
	default:
		return fmt.Errorf("unsupported store %q (memory, badger, badger-mem, redis)", c.Store)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q (console, json)", c.LogFormat)
	}
	return nil
}
