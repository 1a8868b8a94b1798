// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/pkg/logging"
)

type Config struct {
	// Remote API
	APIURL  string
	Timeout time.Duration

	// Local session storage
	DBPath string
	Secret string

	// Observability
	LogLevel       string
	PushgatewayURL string
}

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		APIURL:  strings.TrimRight(getEnv("EVENLY_API_URL", "http://localhost:5000"), "/"),
		Timeout: getEnvDuration("EVENLY_TIMEOUT", 15*time.Second),

		DBPath: getEnv("EVENLY_DB_PATH", defaultDBPath()),
		Secret: os.Getenv("EVENLY_SECRET"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PushgatewayURL: os.Getenv("EVENLY_PUSHGATEWAY_URL"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if err := validateHTTPURL(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid EVENLY_API_URL '%s': %v", c.APIURL, err))
	}
	if c.PushgatewayURL != "" {
		if err := validateHTTPURL(c.PushgatewayURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid EVENLY_PUSHGATEWAY_URL '%s': %v", c.PushgatewayURL, err))
		}
	}

	if c.Timeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid EVENLY_TIMEOUT %s: must be positive", c.Timeout))
	}

	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "EVENLY_DB_PATH must not be empty")
	}

	if c.Secret != "" && len(c.Secret) < auth.MinSecretLength {
		errors = append(errors, fmt.Sprintf("EVENLY_SECRET must be at least %d bytes", auth.MinSecretLength))
	}

	if !logging.KnownLevel(c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".evenly", "session.db")
	}
	return filepath.Join(home, ".evenly", "session.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Keep the raw problem visible to Validate.
		return -1
	}
	return d
}
