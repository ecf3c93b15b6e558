package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	Country    string `mapstructure:"COUNTRY"`
	MachineID  string `mapstructure:"MACHINE_ID"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	Headless          bool `mapstructure:"HEADLESS"`
	QueryConcurrency  int  `mapstructure:"QUERY_CONCURRENCY"`
	DetailConcurrency int  `mapstructure:"DETAIL_CONCURRENCY"`
	EmailConcurrency  int  `mapstructure:"EMAIL_CONCURRENCY"`

	NavTimeoutSeconds  int `mapstructure:"NAV_TIMEOUT_SECONDS"`
	WaitTimeoutSeconds int `mapstructure:"WAIT_TIMEOUT_SECONDS"`
	EmailTimeoutSecs   int `mapstructure:"EMAIL_TIMEOUT_SECONDS"`
	ScrollDelayMs      int `mapstructure:"SCROLL_DELAY_MS"`
	StableChecks       int `mapstructure:"STABLE_CHECKS"`

	ChunkSize            int `mapstructure:"CHUNK_SIZE"`
	SubmitMaxAttempts    int `mapstructure:"SUBMIT_MAX_ATTEMPTS"`
	SubmitBackoffSeconds int `mapstructure:"SUBMIT_BACKOFF_SECONDS"`

	PollIntervalSeconds int `mapstructure:"POLL_INTERVAL_SECONDS"`
	DedupTTLDays        int `mapstructure:"DEDUP_TTL_DAYS"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables in production.
	_ = viper.ReadInConfig()

	viper.SetDefault("API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("COUNTRY", "usa_blockdata")
	viper.SetDefault("MACHINE_ID", "1")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("QUERY_CONCURRENCY", 2)
	viper.SetDefault("DETAIL_CONCURRENCY", 10)
	viper.SetDefault("EMAIL_CONCURRENCY", 5)
	viper.SetDefault("NAV_TIMEOUT_SECONDS", 120)
	viper.SetDefault("WAIT_TIMEOUT_SECONDS", 60)
	viper.SetDefault("EMAIL_TIMEOUT_SECONDS", 20)
	viper.SetDefault("SCROLL_DELAY_MS", 1500)
	viper.SetDefault("STABLE_CHECKS", 1)
	viper.SetDefault("CHUNK_SIZE", 20)
	viper.SetDefault("SUBMIT_MAX_ATTEMPTS", 3)
	viper.SetDefault("SUBMIT_BACKOFF_SECONDS", 10)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 60)
	viper.SetDefault("DEDUP_TTL_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
