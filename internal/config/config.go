// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable; defaults keep the service runnable with no env set.
type Config struct {
	Port          string        // HTTP port to listen on
	SweepInterval time.Duration // how often the lifecycle scheduler sweeps expired auctions
	LockTimeout   time.Duration // how long a request waits for an auction's lock before Busy
	AMQPURL       string        // RabbitMQ URL for the event publisher; empty disables it
	LogLevel      string        // logrus level name
}

// Load reads configuration from the environment. A local .env file is loaded
// first when present; a missing one is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8080"),
		SweepInterval: getDuration("SWEEP_INTERVAL", 60*time.Second),
		LockTimeout:   getDuration("LOCK_TIMEOUT", 2*time.Second),
		AMQPURL:       os.Getenv("AMQP_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
