package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// HTTP configuration
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Raffle configuration
	EntranceFee   int64         `env:"ENTRANCE_FEE" envDefault:"100"`
	DrawInterval  time.Duration `env:"DRAW_INTERVAL" envDefault:"24h"`
	PullPayouts   bool          `env:"PULL_PAYOUTS" envDefault:"false"`
	KeyParams     string        `env:"ORACLE_KEY_PARAMS"`
	Confirmations uint16        `env:"ORACLE_CONFIRMATIONS" envDefault:"3"`
	CallbackLimit uint32        `env:"ORACLE_CALLBACK_LIMIT" envDefault:"500000"`

	// Oracle transport. An empty NATS URL selects the in-process dev oracle.
	NATSURL            string        `env:"NATS_URL"`
	RequestSubject     string        `env:"ORACLE_REQUEST_SUBJECT" envDefault:"oracle.randomness.request"`
	FulfillmentSubject string        `env:"ORACLE_FULFILLMENT_SUBJECT" envDefault:"oracle.randomness.fulfilled"`
	LocalOracleDelay   time.Duration `env:"LOCAL_ORACLE_DELAY" envDefault:"3s"`

	// Discord announcer configuration
	DiscordToken     string `env:"DISCORD_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	// Account configuration
	StartingBalance int64 `env:"STARTING_BALANCE" envDefault:"0"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// IsProduction returns true in production environments
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AnnouncerEnabled returns true when the Discord announcer is configured
func (c *Config) AnnouncerEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}
