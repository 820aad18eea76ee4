package config

import "time"

// Config holds client configuration values.
type Config struct {
	// ServerURL is the http(s) base of the chat server. The WebSocket
	// endpoint is derived from it.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// CachePath is the sqlite file for the local message cache.
	// Empty disables caching.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`

	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	ReconnectBaseDelay   time.Duration `mapstructure:"reconnect_base_delay" yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `mapstructure:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	ReconnectMaxAttempts int           `mapstructure:"reconnect_max_attempts" yaml:"reconnect_max_attempts"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:            "http://localhost:8080",
		LogLevel:             "info",
		DialTimeout:          10 * time.Second,
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxDelay:    10 * time.Second,
		ReconnectMaxAttempts: 5,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.CachePath != "" {
		c.CachePath = other.CachePath
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.ReconnectBaseDelay != 0 {
		c.ReconnectBaseDelay = other.ReconnectBaseDelay
	}
	if other.ReconnectMaxDelay != 0 {
		c.ReconnectMaxDelay = other.ReconnectMaxDelay
	}
	if other.ReconnectMaxAttempts != 0 {
		c.ReconnectMaxAttempts = other.ReconnectMaxAttempts
	}
}
