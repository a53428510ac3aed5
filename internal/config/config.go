// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backend selectors.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	UnisatAPIKey     string `envconfig:"UNISAT_API_KEY"`

	MempoolBaseURL string `envconfig:"MEMPOOL_BASE_URL" default:"https://mempool.space"`
	UnisatBaseURL  string `envconfig:"UNISAT_BASE_URL" default:"https://open-api.unisat.io"`

	StorageBackend  string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageFilePath string `envconfig:"STORAGE_FILE_PATH" default:"users.json"`
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisUsername   string `envconfig:"REDIS_USERNAME"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`

	TrackInterval     time.Duration `envconfig:"TRACK_INTERVAL" default:"1m"`
	FeeInterval       time.Duration `envconfig:"FEE_INTERVAL" default:"5m"`
	FlowSweepInterval time.Duration `envconfig:"FLOW_SWEEP_INTERVAL" default:"30s"`
	AccountTimeout    time.Duration `envconfig:"ACCOUNT_TIMEOUT" default:"45s"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"satwatch"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
