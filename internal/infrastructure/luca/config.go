package luca

import (
	"errors"
	"time"
)

// Config holds the settings for the Luca API client
type Config struct {
	// BaseURL is the root of the Luca REST API
	BaseURL string
	// Username and Password authenticate the login call
	Username string
	Password string
	// CompanyID selects the Luca company ledger to work in
	CompanyID string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// SessionTTL bounds how long a cached session is reused before a
	// fresh login, independent of the server-side expiry
	SessionTTL time.Duration
	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes int64
}

const (
	defaultTimeout          = 30 * time.Second
	defaultSessionTTL       = 20 * time.Minute
	defaultMaxResponseBytes = 10 * 1024 * 1024
)

// Errors for Luca client configuration
var (
	ErrConfigMissingBaseURL  = errors.New("luca: base URL is required")
	ErrConfigMissingUsername = errors.New("luca: username is required")
	ErrConfigMissingPassword = errors.New("luca: password is required")
)

// Validate checks required fields and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Username == "" {
		return ErrConfigMissingUsername
	}
	if c.Password == "" {
		return ErrConfigMissingPassword
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}
