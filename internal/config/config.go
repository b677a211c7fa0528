// Package config provides configuration loading and validation for the
// server, the CLI and the writing app.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Prompt policies for story starters.
const (
	PromptPolicyFirst  = "first"
	PromptPolicyRandom = "random"
)

const (
	defaultPort           = 8080
	defaultAPIURL         = "http://localhost:8080/api"
	defaultDatabaseURL    = "sqlite://story_master.db"
	defaultRequestTimeout = "15s"
	defaultLogLevel       = "info"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment or defaults.
type Config struct {
	// Server
	Port        int      `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string   `json:"database_url,omitempty"` // postgres://... or sqlite://path
	CORSOrigins []string `json:"cors_origins,omitempty"` // Allowed origins, "*" for any

	// Client
	APIURL         string `json:"api_url,omitempty"`         // Base URL of the story API, including /api
	RequestTimeout string `json:"request_timeout,omitempty"` // Transport timeout, Go duration syntax

	// Writing workflow
	PromptPolicy string `json:"prompt_policy,omitempty"` // "first" or "random"
	ReactiveGate bool   `json:"reactive_gate,omitempty"` // Re-evaluate the lesson gate on progress changes
	CatalogPath  string `json:"catalog_path,omitempty"`  // Optional catalog override file
	ShowSamples  *bool  `json:"show_samples,omitempty"`  // Merge bundled sample stories into the gallery

	// Logging
	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave
// fields empty so they can be merged with defaults.
func FromEnv() Config {
	cfg := Config{
		Port:           getEnvInt("PORT", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		APIURL:         os.Getenv("STORY_MASTER_API_URL"),
		RequestTimeout: os.Getenv("STORY_MASTER_REQUEST_TIMEOUT"),
		PromptPolicy:   os.Getenv("STORY_MASTER_PROMPT_POLICY"),
		ReactiveGate:   getEnvBool("STORY_MASTER_REACTIVE_GATE", false),
		CatalogPath:    os.Getenv("STORY_MASTER_CATALOG"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if v := os.Getenv("STORY_MASTER_SHOW_SAMPLES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ShowSamples = &b
		}
	}
	return cfg
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	show := true
	return Config{
		Port:           defaultPort,
		DatabaseURL:    defaultDatabaseURL,
		CORSOrigins:    []string{"*"},
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		PromptPolicy:   PromptPolicyFirst,
		ShowSamples:    &show,
		LogLevel:       defaultLogLevel,
	}
}

// Load resolves the effective configuration: the optional file overrides the
// environment, which overrides the defaults.
func Load(path string) (*Config, error) {
	env := FromEnv()
	merged := env.MergeWithDefaults(Defaults())

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = fileCfg.MergeWithDefaults(merged)
		merged.ReactiveGate = fileCfg.ReactiveGate || env.ReactiveGate
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.PromptPolicy {
	case "", PromptPolicyFirst, PromptPolicyRandom:
	default:
		return fmt.Errorf("config error: unknown 'prompt_policy' %q", c.PromptPolicy)
	}

	if c.RequestTimeout != "" {
		d, err := time.ParseDuration(c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'request_timeout': %w", err)
		}
		if d < 0 {
			return fmt.Errorf("config error: 'request_timeout' must be non-negative")
		}
	}

	if c.DatabaseURL != "" && !SupportedDatabaseURL(c.DatabaseURL) {
		return fmt.Errorf("config error: unsupported 'database_url' scheme in %q", c.DatabaseURL)
	}

	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if len(result.CORSOrigins) == 0 {
		result.CORSOrigins = defaults.CORSOrigins
	}
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.RequestTimeout == "" {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.PromptPolicy == "" {
		result.PromptPolicy = defaults.PromptPolicy
	}
	if result.CatalogPath == "" {
		result.CatalogPath = defaults.CatalogPath
	}
	if result.ShowSamples == nil {
		result.ShowSamples = defaults.ShowSamples
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}

	// Bool fields: cannot distinguish unset from false, so callers merge
	// ReactiveGate explicitly.

	return result
}

// Timeout returns the parsed request timeout, or zero when unset.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// SamplesEnabled reports whether bundled sample stories are shown.
func (c *Config) SamplesEnabled() bool {
	return c.ShowSamples == nil || *c.ShowSamples
}

// SupportedDatabaseURL reports whether the URL names a supported backend.
func SupportedDatabaseURL(url string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://", "sqlite://", "file:"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return url == ":memory:"
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
