package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	ChannelToken  string `envconfig:"LINE_CHANNEL_ACCESS_TOKEN" required:"true"`
	ChannelSecret string `envconfig:"LINE_CHANNEL_SECRET" required:"true"`
	APIBase       string `envconfig:"LINE_API_BASE"` // empty = production endpoint

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBDSN    string `envconfig:"DB_DSN" default:"./data/firealert.db"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	BroadcastWorkers int `envconfig:"BROADCAST_WORKERS" default:"4"`
	BroadcastPerSec  int `envconfig:"BROADCAST_PER_SEC" default:"25"` // 0 = unlimited
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
