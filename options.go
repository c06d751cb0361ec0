package rxcache

import "go.uber.org/zap"

type config struct {
	logger   *zap.Logger
	observer Observer
}

func defaultConfig() config {
	return config{logger: zap.NewNop()}
}

// Option configures a cache at construction time.
type Option func(*config)

// WithLogger attaches a zap logger for lifecycle and panic diagnostics.
// The default is a no-op logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver attaches an Observer that receives init, reuse, reject, and
// dispose events for the lifetime of the cache.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
