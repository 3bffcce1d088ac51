package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvPrefix = "KASUGAI_"

	// DateLayout is the accepted format of the duedate option, e.g. 03/24/2022.
	DateLayout = "01/02/2006"
	// TimeLayout is the accepted format of the time option, e.g. 11:59 PM.
	TimeLayout = "3:04 PM"
)

type Environment string

const (
	EnvironmentDev  Environment = "DEV"
	EnvironmentProd Environment = "PROD"
)

type Bot struct {
	Token       string      `env:"TOKEN,required"`
	DatabaseURL string      `env:"DATABASE_URL,required"`
	SentryDSN   string      `env:"SENTRY_DSN"`
	Environment Environment `env:"ENVIRONMENT" envDefault:"DEV"`
	LogLevel    slog.Level  `env:"LOG_LEVEL" envDefault:"INFO"`

	// ReminderInterval is the delay between two reminder DMs for one assignment.
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"24h"`
	SyncCommands     bool          `env:"SYNC_COMMANDS"`
	QueueSize        int           `env:"QUEUE_SIZE" envDefault:"100"`
}

func (b Bot) Production() bool {
	return b.Environment == EnvironmentProd
}

// Load reads the bot configuration from KASUGAI_ prefixed environment variables.
func Load() (Bot, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

func parse(opts env.Options) (cfg Bot, err error) {
	if err = env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if cfg.ReminderInterval <= 0 {
		return cfg, fmt.Errorf("config: reminder interval must be positive, got %s", cfg.ReminderInterval)
	}
	return cfg, nil
}
