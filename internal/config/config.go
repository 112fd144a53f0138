package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Presence PresenceConfig `yaml:"presence"`
	Canvas   CanvasConfig   `yaml:"canvas"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	// AllowedOrigins is a comma-separated CORS origin list.
	AllowedOrigins string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type PresenceConfig struct {
	// LivenessTimeout is the maximum silence before a participant is
	// considered departed.
	LivenessTimeout time.Duration `yaml:"liveness_timeout"`
	// SweepInterval drives the in-room eviction tick. Must not exceed
	// LivenessTimeout, otherwise a vanished participant can stay listed
	// for more than one extra cycle.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// CleanupCron schedules deletion of stale participant rows.
	CleanupCron string `yaml:"cleanup_cron"`
}

type CanvasConfig struct {
	HistoryLimit int           `yaml:"history_limit"`
	SaveDebounce time.Duration `yaml:"save_debounce"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           8002,
			BasePath:       "/api/boards",
			Env:            "dev",
			LogLevel:       "info",
			AllowedOrigins: "*",
		},
		Presence: PresenceConfig{
			LivenessTimeout: 30 * time.Second,
			SweepInterval:   15 * time.Second,
			CleanupCron:     "@every 1m",
		},
		Canvas: CanvasConfig{
			HistoryLimit: 50,
			SaveDebounce: 500 * time.Millisecond,
		},
	}

	// Load from yaml file if exists
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if basePath := os.Getenv("SERVER_BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = origins
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if v := os.Getenv("LIVENESS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Presence.LivenessTimeout = d
		}
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Presence.SweepInterval = d
		}
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Canvas.HistoryLimit = n
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Presence.LivenessTimeout <= 0 {
		return fmt.Errorf("presence.liveness_timeout must be positive, got %v", c.Presence.LivenessTimeout)
	}
	if c.Presence.SweepInterval <= 0 || c.Presence.SweepInterval > c.Presence.LivenessTimeout {
		return fmt.Errorf("presence.sweep_interval must be in (0, liveness_timeout], got %v with timeout %v",
			c.Presence.SweepInterval, c.Presence.LivenessTimeout)
	}
	if c.Canvas.HistoryLimit < 1 {
		return fmt.Errorf("canvas.history_limit must be at least 1, got %d", c.Canvas.HistoryLimit)
	}
	if c.Canvas.SaveDebounce < 0 {
		return fmt.Errorf("canvas.save_debounce must not be negative, got %v", c.Canvas.SaveDebounce)
	}
	return nil
}
