package config

import (
	"github.com/maxviazov/sideline-rotation/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	HTTP     HTTPConfig          `mapstructure:"http"`
	Match    MatchConfig         `mapstructure:"match"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// PostgresConfig durations are whole seconds.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"min=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"min=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type HTTPConfig struct {
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout"`
	WriteTimeoutSeconds    int      `mapstructure:"write_timeout"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins         []string `mapstructure:"allowed_origins"`
}

// MatchConfig holds defaults applied to new matches that omit them.
type MatchConfig struct {
	NumPeriods            int `mapstructure:"num_periods" validate:"min=1,max=10"`
	PeriodDurationMinutes int `mapstructure:"period_duration_minutes" validate:"min=1,max=90"`
}
