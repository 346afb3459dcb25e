package ui

import (
	"time"
)

// Default configuration values.
const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultPageSize        = 25

	// MaxPageSize bounds the limit query parameter.
	MaxPageSize = 500
)

// Config holds UI package configuration.
type Config struct {
	// BasePath is the URL prefix where the UI is mounted.
	// For example, if mounted at "/ui/", set BasePath to "/ui".
	// All navigation links will be prefixed with this path.
	// Defaults to empty string (root mount).
	BasePath string

	// Title is shown in the page header.
	// Defaults to "agentctx".
	Title string

	// Logger for structured logging.
	// If nil, logging is disabled.
	Logger Logger

	// RefreshInterval for page auto-refresh. Zero keeps the default;
	// a negative value disables auto-refresh.
	RefreshInterval time.Duration

	// PageSize for pagination.
	// Defaults to 25.
	PageSize int
}

// Logger interface for structured logging.
// Compatible with agentctx.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Title:           "agentctx",
		RefreshInterval: DefaultRefreshInterval,
		PageSize:        DefaultPageSize,
	}
}

// applyDefaults fills in default values for zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "agentctx"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return ErrInvalidConfig
	}
	if c.RefreshInterval > 0 && c.RefreshInterval < time.Second {
		return ErrInvalidConfig
	}
	return nil
}
