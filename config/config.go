package config

import (
	"fmt"
	"strings"
	"time"

	"run-leaderboard-service/logger"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ReplayStoreR2    = "r2"
	ReplayStoreLocal = "local"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"5200"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	Logger         logger.Config `envPrefix:"LOGGER_"`

	Database DatabaseConfig `envPrefix:"DATABASE_"`

	JWTSecret string `env:"JWT_SECRET,notEmpty"`

	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"10m"`

	ReplayStore    string   `env:"REPLAY_STORE" envDefault:"local"`
	UploadDir      string   `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxReplayBytes int      `env:"MAX_REPLAY_BYTES" envDefault:"83886080"` // 80MB
	R2             R2Config
}

type DatabaseConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
	URL    string `env:"URL,notEmpty"`
}

type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func ReadEnvConfig(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	switch c.ReplayStore {
	case ReplayStoreLocal:
	case ReplayStoreR2:
		if c.R2.AccountID == "" || c.R2.Bucket == "" {
			return fmt.Errorf("config: REPLAY_STORE=r2 needs CLOUDFLARE_ACCOUNT_ID and R2_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("config: REPLAY_STORE must be %q or %q, got %q", ReplayStoreR2, ReplayStoreLocal, c.ReplayStore)
	}

	if c.SessionTTL < 0 {
		return fmt.Errorf("config: SESSION_TTL must not be negative")
	}
	if c.SessionTTL > 0 && c.SessionReapInterval <= 0 {
		return fmt.Errorf("config: SESSION_REAP_INTERVAL must be positive when SESSION_TTL is set")
	}
	if c.MaxReplayBytes <= 0 {
		return fmt.Errorf("config: MAX_REPLAY_BYTES must be positive")
	}

	for i, origin := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return nil
}
