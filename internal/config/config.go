package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Remote auth API (external collaborator)
	AuthAPIURL string `mapstructure:"AUTH_API_URL"`

	// Redis — durable session substrate + logout-notify queue
	RedisURL string `mapstructure:"REDIS_URL"`

	// Session
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"` // 0 = no expiry
	LoginRoute      string `mapstructure:"LOGIN_ROUTE"`

	// Workers
	WorkerPoolSize int `mapstructure:"WORKER_POOL_SIZE"`

	// Business
	Domain string `mapstructure:"DOMAIN"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("AUTH_API_URL", "http://localhost:8001")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SESSION_TTL_HOURS", 0)
	viper.SetDefault("LOGIN_ROUTE", "/login")
	viper.SetDefault("WORKER_POOL_SIZE", 3)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
