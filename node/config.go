// Package node wires the evaluation registry into a runnable host:
// configuration, the event bus bridging registry events to subscribers,
// and optional metrics exposition.
package node

import (
	"errors"
	"fmt"

	"github.com/evalchain/evalchain/core/types"
)

// Config holds all configuration for an evalchain node.
type Config struct {
	// Name is a human-readable node identifier (used in logs).
	Name string

	// Admin is the hex address allowed to create tasks, update dataset
	// roots, and reset evaluations.
	Admin string

	// MetricsAddr is the listen address for the metrics HTTP endpoint.
	// Empty disables metrics exposition.
	MetricsAddr string

	// EventBuffer is the channel buffer size for event bus subscribers.
	EventBuffer int

	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string

	// LogFormat selects the log output format: "json" or "text".
	LogFormat string
}

// DefaultConfig returns a Config with sensible defaults. Admin has no
// default and must be set by the operator.
func DefaultConfig() Config {
	return Config{
		Name:        "evalchain",
		EventBuffer: 64,
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("config: name must not be empty")
	}
	if c.Admin == "" {
		return errors.New("config: admin address must be set")
	}
	if c.AdminAddress().IsZero() {
		return fmt.Errorf("config: invalid admin address: %q", c.Admin)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("config: negative event buffer: %d", c.EventBuffer)
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: unknown log format: %q", c.LogFormat)
	}
	return nil
}

// AdminAddress parses the configured admin identity. Returns the zero
// address if the string is not a valid hex address.
func (c *Config) AdminAddress() types.Address {
	return types.HexToAddress(c.Admin)
}
