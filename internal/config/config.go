package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the addon server.
type Config struct {
	Server    ServerConfig
	Workspace WorkspaceConfig
	Esphome   EsphomeConfig
	Runner    RunnerConfig
}

type ServerConfig struct {
	Port         int           `mapstructure:"API_PORT"`
	ReadTimeout  time.Duration `mapstructure:"API_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"API_WRITE_TIMEOUT"`
	RateLimit    int           `mapstructure:"API_RATE_LIMIT"`
	MaxBodyBytes int64         `mapstructure:"API_MAX_BODY_BYTES"`
	GinMode      string        `mapstructure:"GIN_MODE"`
}

type WorkspaceConfig struct {
	Dir string `mapstructure:"WORKSPACE_DIR"`
}

type EsphomeConfig struct {
	BinPath         string        `mapstructure:"ESPHOME_BIN"`
	JobTimeout      time.Duration `mapstructure:"JOB_TIMEOUT"`
	ValidateTimeout time.Duration `mapstructure:"VALIDATE_TIMEOUT"`
}

type RunnerConfig struct {
	PoolSize   int `mapstructure:"RUNNER_POOL_SIZE"`
	QueueDepth int `mapstructure:"RUNNER_QUEUE_DEPTH"`
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_READ_TIMEOUT", "10s")
	viper.SetDefault("API_WRITE_TIMEOUT", "30s")
	viper.SetDefault("API_RATE_LIMIT", 100)
	viper.SetDefault("API_MAX_BODY_BYTES", 2<<20)
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("WORKSPACE_DIR", "/data/workspace")
	viper.SetDefault("ESPHOME_BIN", "esphome")
	viper.SetDefault("JOB_TIMEOUT", "600s")
	viper.SetDefault("VALIDATE_TIMEOUT", "120s")
	viper.SetDefault("RUNNER_POOL_SIZE", 4)
	viper.SetDefault("RUNNER_QUEUE_DEPTH", 16)

	// Attempt to read .env (non-fatal if missing)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	cfg.Server.Port = viper.GetInt("API_PORT")
	cfg.Server.ReadTimeout = viper.GetDuration("API_READ_TIMEOUT")
	cfg.Server.WriteTimeout = viper.GetDuration("API_WRITE_TIMEOUT")
	cfg.Server.RateLimit = viper.GetInt("API_RATE_LIMIT")
	cfg.Server.MaxBodyBytes = viper.GetInt64("API_MAX_BODY_BYTES")
	cfg.Server.GinMode = viper.GetString("GIN_MODE")
	cfg.Workspace.Dir = viper.GetString("WORKSPACE_DIR")
	cfg.Esphome.BinPath = viper.GetString("ESPHOME_BIN")
	cfg.Esphome.JobTimeout = viper.GetDuration("JOB_TIMEOUT")
	cfg.Esphome.ValidateTimeout = viper.GetDuration("VALIDATE_TIMEOUT")
	cfg.Runner.PoolSize = viper.GetInt("RUNNER_POOL_SIZE")
	cfg.Runner.QueueDepth = viper.GetInt("RUNNER_QUEUE_DEPTH")

	return cfg, nil
}
