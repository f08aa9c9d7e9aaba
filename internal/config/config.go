package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full server configuration, bound from the environment.
// DB_DSN and REDIS_ADDR are optional: without them the server falls back to
// in-memory stores, which is only suitable for local development.
type Config struct {
	Addr      string        `envconfig:"ADDR" default:":8080"`
	DBDSN     string        `envconfig:"DB_DSN"`
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	BlobPath  string        `envconfig:"BLOB_PATH" default:"data/blobs"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
