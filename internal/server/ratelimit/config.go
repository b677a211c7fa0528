package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultLimit = 1000

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	writeLimit := getEnvInt("RATE_LIMIT_WRITE_LIMIT", 60)
	writeBurst := getEnvInt("RATE_LIMIT_WRITE_BURST", 10)

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", defaultLimit),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         getEnvDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		Rules:           WriteRules(writeLimit, time.Minute, writeBurst),
	}
}

// WriteRules limits the endpoints that mutate stories or progress.
// Reads fall through to the default limit.
func WriteRules(limit int, window time.Duration, burst int) []Rule {
	return []Rule{
		{Path: "/api/stories", Method: "POST", Limit: limit, Window: window, Burst: burst},
		{Path: "/api/stories/", Method: "DELETE", Limit: limit, Window: window, Burst: burst},
		{Path: "/api/progress", Method: "PUT", Limit: limit, Window: window, Burst: burst},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of client addresses.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
