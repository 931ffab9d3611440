package demoserver

import "time"

// Config holds configuration for the demo authorization server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// Realm is reported in the WWW-Authenticate challenge.
	Realm string

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     9999,
		Realm:    "demo",
		TokenTTL: 5 * time.Minute,
	}
}
