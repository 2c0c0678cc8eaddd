package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string  // Endpoint path pattern (supports prefix matching)
	Method string  // HTTP method
	Rate   float64 // Tokens refilled per second; 0 means unlimited
	Burst  int     // Bucket capacity (defaults to 1 if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// Limits for endpoints with no EndpointConfig; a zero rate leaves them
	// unlimited.
	DefaultRate     float64
	DefaultBurst    int
	CleanupInterval time.Duration
	// Buckets idle for longer than IdleTTL are dropped by cleanup.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig limits each client to rate requests per second, with the given
// burst, on the ranking and expansion endpoints. Everything else is
// unlimited. A non-positive rate disables limiting.
func NewConfig(rate float64, burst int) *Config {
	if rate <= 0 {
		return &Config{Enabled: false}
	}
	if burst < 1 {
		burst = 1
	}
	return &Config{
		Enabled:         true,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: []EndpointConfig{
			{Path: "/rank", Method: http.MethodPost, Rate: rate, Burst: burst},
			{Path: "/expand", Method: http.MethodPost, Rate: rate, Burst: burst},
		},
	}
}
