package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// EndpointConfig limits one endpoint. Paths ending in "/" match by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	IdleTTL         time.Duration
	EndpointConfigs []EndpointConfig
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
		IdleTTL:         getEnvDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		EndpointConfigs: DefaultEndpointConfigs(getEnvInt("RATE_LIMIT_CLONES_PER_HOUR", 30)),
	}
}

// DefaultEndpointConfigs limits the endpoints that drive a browser or delete data.
// Page previews and artifact reads are unlimited.
func DefaultEndpointConfigs(clonesPerHour int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/clone", Method: "POST", Limit: clonesPerHour, Window: time.Hour, Burst: 2},
		{Path: "/api/runs/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
