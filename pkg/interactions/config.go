package interactions

import "log/slog"

const defaultQueueSize = 100

// Config configures a Manager.
type Config struct {
	Logger       *slog.Logger
	QueueSize    int
	ErrorHandler ErrorHandler
}

// ConfigOpt is a functional option for a Manager.
type ConfigOpt func(config *Config)

func defaultConfig() Config {
	return Config{
		Logger:    slog.Default(),
		QueueSize: defaultQueueSize,
	}
}

func (c *Config) apply(opts []ConfigOpt) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func WithLogger(logger *slog.Logger) ConfigOpt {
	return func(config *Config) {
		config.Logger = logger
	}
}

// WithQueueSize sets how many events may wait for dispatch before the
// gateway listener blocks.
func WithQueueSize(size int) ConfigOpt {
	return func(config *Config) {
		config.QueueSize = size
	}
}

// WithErrorHandler sets a hook called for every listener error, after it is logged.
func WithErrorHandler(handler ErrorHandler) ConfigOpt {
	return func(config *Config) {
		config.ErrorHandler = handler
	}
}
