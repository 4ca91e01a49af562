package katana

import (
	"errors"
	"time"
)

// Config holds the settings for the Katana API client
type Config struct {
	// BaseURL is the root of the Katana REST API
	BaseURL string
	// APIKey is the bearer token for every request
	APIKey string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes int64
}

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 10 * 1024 * 1024
)

// Errors for Katana client configuration
var (
	ErrConfigMissingBaseURL = errors.New("katana: base URL is required")
	ErrConfigMissingAPIKey  = errors.New("katana: API key is required")
)

// Validate checks required fields and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}
