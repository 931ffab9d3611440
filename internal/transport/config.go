package transport

import "time"

// Config holds construction options for the net/http backed session.
type Config struct {
	// Timeout applies to the underlying http.Client when one is not supplied.
	Timeout time.Duration

	// Delegate, when set, receives task lifecycle callbacks.
	Delegate SessionDelegate
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}
