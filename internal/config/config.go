package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the relay and the CLI.
type Config struct {
	Colorizer ColorizerConfig
	Poll      PollConfig
	Server    ServerConfig
	Upload    UploadConfig
	Worker    WorkerConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	Redis     RedisConfig
}

type ColorizerConfig struct {
	BaseURL     string        `mapstructure:"COLORIZE_BASE_URL"`
	HTTPTimeout time.Duration `mapstructure:"COLORIZE_HTTP_TIMEOUT"`
}

type PollConfig struct {
	MaxAttempts int           `mapstructure:"POLL_MAX_ATTEMPTS"`
	Interval    time.Duration `mapstructure:"POLL_INTERVAL"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"RELAY_PORT"`
	ReadTimeout  time.Duration `mapstructure:"RELAY_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"RELAY_WRITE_TIMEOUT"`
	RateLimit    int           `mapstructure:"RELAY_RATE_LIMIT"`
	GinMode      string        `mapstructure:"GIN_MODE"`
}

type UploadConfig struct {
	MaxBytes          int64    `mapstructure:"UPLOAD_MAX_BYTES"`
	AllowedExtensions []string `mapstructure:"UPLOAD_ALLOWED_EXTENSIONS"`
}

type WorkerConfig struct {
	PoolSize  int `mapstructure:"WORKER_POOL_SIZE"`
	QueueSize int `mapstructure:"WORKER_QUEUE_SIZE"`
}

// Backend URLs below are optional. An empty value disables the backend.

type DatabaseConfig struct {
	URL string `mapstructure:"DATABASE_URL"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"RABBITMQ_URL"`
}

type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL"`
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("COLORIZE_BASE_URL", "http://localhost:8000")
	v.SetDefault("COLORIZE_HTTP_TIMEOUT", "30s")
	v.SetDefault("POLL_MAX_ATTEMPTS", 30)
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("RELAY_PORT", 8080)
	v.SetDefault("RELAY_READ_TIMEOUT", "30s")
	v.SetDefault("RELAY_WRITE_TIMEOUT", "90s")
	v.SetDefault("RELAY_RATE_LIMIT", 30)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.bmp,.tiff")
	v.SetDefault("WORKER_POOL_SIZE", 4)
	v.SetDefault("WORKER_QUEUE_SIZE", 64)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")

	// Attempt to read .env file (non-fatal if missing)
	_ = v.ReadInConfig()

	cfg := &Config{}
	cfg.Colorizer.BaseURL = strings.TrimRight(v.GetString("COLORIZE_BASE_URL"), "/")
	cfg.Colorizer.HTTPTimeout = v.GetDuration("COLORIZE_HTTP_TIMEOUT")
	cfg.Poll.MaxAttempts = v.GetInt("POLL_MAX_ATTEMPTS")
	cfg.Poll.Interval = v.GetDuration("POLL_INTERVAL")
	cfg.Server.Port = v.GetInt("RELAY_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("RELAY_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("RELAY_WRITE_TIMEOUT")
	cfg.Server.RateLimit = v.GetInt("RELAY_RATE_LIMIT")
	cfg.Server.GinMode = v.GetString("GIN_MODE")
	cfg.Upload.MaxBytes = v.GetInt64("UPLOAD_MAX_BYTES")
	cfg.Upload.AllowedExtensions = splitList(v.GetString("UPLOAD_ALLOWED_EXTENSIONS"))
	cfg.Worker.PoolSize = v.GetInt("WORKER_POOL_SIZE")
	cfg.Worker.QueueSize = v.GetInt("WORKER_QUEUE_SIZE")
	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.RabbitMQ.URL = v.GetString("RABBITMQ_URL")
	cfg.Redis.URL = v.GetString("REDIS_URL")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Colorizer.BaseURL == "":
		return fmt.Errorf("COLORIZE_BASE_URL must not be empty")
	case c.Poll.MaxAttempts <= 0:
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive, got %d", c.Poll.MaxAttempts)
	case c.Poll.Interval <= 0:
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	case c.Worker.PoolSize <= 0:
		return fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", c.Worker.PoolSize)
	}
	return nil
}

// PollBudget is the longest a single job can spend polling. Every attempt
// may wait out both the poll interval and a full HTTP timeout.
func (c *Config) PollBudget() time.Duration {
	return time.Duration(c.Poll.MaxAttempts) * (c.Poll.Interval + c.Colorizer.HTTPTimeout)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
