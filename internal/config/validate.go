package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation constants define acceptable bounds for configuration values
const (
	minTokenLength = 50 // Discord tokens are typically 50+ characters

	maxSyncDelay = 1 * time.Hour
)

// Validate checks if the configuration values are valid and within acceptable
// ranges. All failures are reported at once using errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateToken(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateSyncDelay(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateMetricsAddr(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %w", errors.Join(errs...))
	}

	return nil
}

// validateToken ensures the Discord token is present and has valid length
func (c *Config) validateToken() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required but not set")
	}

	if len(c.Token) < minTokenLength {
		return fmt.Errorf(
			"DISCORD_TOKEN appears invalid (too short: %d chars, expected %d+)",
			len(c.Token), minTokenLength,
		)
	}

	return nil
}

// validateSyncDelay ensures the command sync delay is within sane bounds
func (c *Config) validateSyncDelay() error {
	if c.SyncDelay < 0 {
		return fmt.Errorf("SYNC_DELAY must not be negative, got %v", c.SyncDelay)
	}

	if c.SyncDelay > maxSyncDelay {
		return fmt.Errorf(
			"SYNC_DELAY must be at most %v, got %v (hint: a few seconds is plenty)",
			maxSyncDelay, c.SyncDelay,
		)
	}

	return nil
}

// validateMetricsAddr ensures the metrics listen address looks like host:port
func (c *Config) validateMetricsAddr() error {
	if c.MetricsAddr == "" {
		return nil // metrics endpoint disabled
	}

	if !strings.Contains(c.MetricsAddr, ":") {
		return fmt.Errorf("METRICS_ADDR must be a host:port listen address, got %q", c.MetricsAddr)
	}

	return nil
}
