// Package config provides SDK configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all SDK configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	APIURL         string        // Base URL of the control plane API
	AppName        string        // Application name announced on every request
	InstanceID     string        // Caller-supplied instance identifier
	Authorization  string        // API token sent as the Authorization header (optional)
	Interval       time.Duration // Poll interval; UNLEASH_INTERVAL is in milliseconds
	DisableMetrics bool          // Skip metrics submission after each rotation
	StrictParsing  bool          // Reject catalogue documents with unknown fields
	BootstrapFile  string        // Optional local catalogue file loaded before the first poll

	// Sidecar-only settings; the library ignores them.
	SidecarHTTPAddr      string // Sidecar HTTP bind address
	SidecarMetricsAddr   string // Sidecar Prometheus bind address
	SidecarRateLimit     int    // Per-IP request limit per minute on the sidecar
	SidecarAllowedOrigin string // CORS origin allowed to call the sidecar

	instanceIDGenerated bool // internal: tracks if the instance id was auto-generated
}

const instanceIDByteSize = 8 // 8 bytes = 16 hex chars, unique enough per process

// generateInstanceID creates a random hex instance identifier for callers
// that did not supply one. Uniqueness per process start is all that is
// needed; the control plane keys metrics by it.
func generateInstanceID() string {
	bytes := make([]byte, instanceIDByteSize)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("ERROR: Failed to generate instance id: %v. Using fallback.", err)
		return "generated-instance"
	}
	return "generated-" + hex.EncodeToString(bytes)
}

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Returns a Config struct with all values populated (either from env or defaults).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = v.ReadInConfig()    // Ignore error - .env is optional
	v.AutomaticEnv()

	setConfigDefaults(v)

	instanceID := strings.TrimSpace(v.GetString("UNLEASH_INSTANCE_ID"))
	instanceIDGenerated := false
	if instanceID == "" {
		instanceID = generateInstanceID()
		instanceIDGenerated = true
		log.Printf("[config] UNLEASH_INSTANCE_ID not set, generated %s. Set it to keep metrics continuity across restarts.", instanceID)
	}

	cfg := &Config{
		APIURL:         strings.TrimSpace(v.GetString("UNLEASH_API_URL")),
		AppName:        strings.TrimSpace(v.GetString("UNLEASH_APP_NAME")),
		InstanceID:     instanceID,
		Authorization:  strings.TrimSpace(v.GetString("UNLEASH_AUTHORIZATION")),
		Interval:       time.Duration(v.GetInt64("UNLEASH_INTERVAL")) * time.Millisecond,
		DisableMetrics: v.GetBool("UNLEASH_DISABLE_METRICS"),
		StrictParsing:  v.GetBool("UNLEASH_STRICT_PARSING"),
		BootstrapFile:  strings.TrimSpace(v.GetString("UNLEASH_BOOTSTRAP_FILE")),

		SidecarHTTPAddr:      strings.TrimSpace(v.GetString("SIDECAR_HTTP_ADDR")),
		SidecarMetricsAddr:   strings.TrimSpace(v.GetString("SIDECAR_METRICS_ADDR")),
		SidecarRateLimit:     v.GetInt("SIDECAR_RATE_LIMIT_PER_IP"),
		SidecarAllowedOrigin: strings.TrimSpace(v.GetString("SIDECAR_ALLOWED_ORIGIN")),

		instanceIDGenerated: instanceIDGenerated,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setConfigDefaults sets default values for all configuration options.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("UNLEASH_INTERVAL", 15000)
	v.SetDefault("UNLEASH_DISABLE_METRICS", false)
	v.SetDefault("UNLEASH_STRICT_PARSING", false)
	v.SetDefault("SIDECAR_HTTP_ADDR", ":8080")
	v.SetDefault("SIDECAR_METRICS_ADDR", ":9090")
	v.SetDefault("SIDECAR_RATE_LIMIT_PER_IP", 300)
	v.SetDefault("SIDECAR_ALLOWED_ORIGIN", "*")
}

func validateConfig(cfg *Config) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("UNLEASH_API_URL must not be empty")
	}
	parsed, err := url.Parse(cfg.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("UNLEASH_API_URL %q is not an absolute URL", cfg.APIURL)
	}
	if cfg.AppName == "" {
		return fmt.Errorf("UNLEASH_APP_NAME must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("UNLEASH_INTERVAL must be a positive number of milliseconds")
	}
	return nil
}
