package storage

import "time"

// PostgresConfig describes how the repository initialises its Postgres
// connection pool.
type PostgresConfig struct {
	DSN                 string
	MaxConnections      int32
	MinConnections      int32
	MaxConnLifetime     time.Duration
	MaxConnIdleTime     time.Duration
	HealthCheckInterval time.Duration
	AcquireTimeout      time.Duration
	ApplicationName     string
	Media               MediaConfig
}

// PostgresOption mutates the Postgres configuration.
type PostgresOption func(*PostgresConfig)

// WithPostgresPoolLimits bounds the connection pool size.
func WithPostgresPoolLimits(min, max int32) PostgresOption {
	return func(cfg *PostgresConfig) {
		if min >= 0 {
			cfg.MinConnections = min
		}
		if max > 0 {
			cfg.MaxConnections = max
		}
	}
}

// WithPostgresConnLifetimes bounds how long pooled connections live and idle.
func WithPostgresConnLifetimes(lifetime, idle time.Duration) PostgresOption {
	return func(cfg *PostgresConfig) {
		if lifetime > 0 {
			cfg.MaxConnLifetime = lifetime
		}
		if idle > 0 {
			cfg.MaxConnIdleTime = idle
		}
	}
}

// WithPostgresHealthCheckInterval sets the pool health check period.
func WithPostgresHealthCheckInterval(interval time.Duration) PostgresOption {
	return func(cfg *PostgresConfig) {
		if interval > 0 {
			cfg.HealthCheckInterval = interval
		}
	}
}

// WithPostgresAcquireTimeout bounds how long connection establishment may
// take.
func WithPostgresAcquireTimeout(timeout time.Duration) PostgresOption {
	return func(cfg *PostgresConfig) {
		if timeout > 0 {
			cfg.AcquireTimeout = timeout
		}
	}
}

// WithPostgresApplicationName labels pool connections in pg_stat_activity.
func WithPostgresApplicationName(name string) PostgresOption {
	return func(cfg *PostgresConfig) {
		if name != "" {
			cfg.ApplicationName = name
		}
	}
}

// WithPostgresMedia configures the media store attached to the repository.
func WithPostgresMedia(media MediaConfig) PostgresOption {
	return func(cfg *PostgresConfig) {
		cfg.Media = media
	}
}

func newPostgresConfig(dsn string, opts ...PostgresOption) PostgresConfig {
	cfg := PostgresConfig{DSN: dsn}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
