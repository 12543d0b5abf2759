package config

import (
	"fmt"
	"time"

	"github.com/example/ride-dispatch/pkg/configparser"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		RabbitMQ RabbitMQConfig
		Auth     AuthConfig
		Location LocationConfig
		Matcher  MatcherConfig

		LogLevel string `env:"LOG_LEVEL" default:"DEBUG"`
	}

	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"0.0.0.0"`
		Port string `env:"SERVER_PORT" default:"3000"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"dispatch_user"`
		Password string `env:"DATABASE_PASSWORD" default:"dispatch_pass"`
		Database string `env:"DATABASE_DATABASE" default:"dispatch_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RedisConfig struct {
		Host     string `env:"REDIS_HOST" default:"localhost"`
		Port     string `env:"REDIS_PORT" default:"6379"`
		Password string `env:"REDIS_PASSWORD" default:""`
		DB       int    `env:"REDIS_DB" default:"0"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	AuthConfig struct {
		// The auth subsystem issues tokens; we only verify them.
		JWTSecret string `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	LocationConfig struct {
		// Latest-position cache entries expire after CacheTTL; durable
		// history is kept for Retention and swept every SweepInterval.
		CacheTTL      time.Duration `env:"LOCATION_CACHE_TTL" default:"5m"`
		Retention     time.Duration `env:"LOCATION_RETENTION" default:"720h"`
		SweepInterval time.Duration `env:"LOCATION_SWEEP_INTERVAL" default:"1h"`
	}

	MatcherConfig struct {
		RadiusMeters  float64 `env:"MATCHER_RADIUS_METERS" default:"5000"`
		MaxCandidates int     `env:"MATCHER_MAX_CANDIDATES" default:"10"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading environment variables and parsing into the config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
