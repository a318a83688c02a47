// ABOUTME: Configuration loading and parsing for the rental console clients
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration shared by
// rental-chat and rental-admin.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Media   MediaConfig   `yaml:"media"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig holds the rental backend endpoint configuration
type BackendConfig struct {
	// BaseURL is the API root, e.g. https://example.ngrok-free.app/api
	BaseURL string `yaml:"base_url"`

	// DevHost is the development host that document locators may still
	// point at. Locators on this host are rewritten to BaseURL's origin
	// before fetching (deployment normalization, not a security boundary).
	DevHost string `yaml:"dev_host"`

	// SkipTunnelWarning adds the header that suppresses the tunnel
	// provider's browser interstitial on media fetches.
	SkipTunnelWarning bool `yaml:"skip_tunnel_warning"`
}

// SessionConfig holds durable session identity storage configuration
type SessionConfig struct {
	Path string `yaml:"path"`
}

// MediaConfig holds protected media loader configuration
type MediaConfig struct {
	// CacheDir is where fetched documents are staged. Empty means the
	// system temp directory.
	CacheDir string `yaml:"cache_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultPath returns the first config file location that exists:
// $RENTAL_CONFIG, ./rental.yaml, then ~/.config/rental/config.yaml.
// The last candidate is returned even if absent so the caller can report
// a useful path in its error.
func DefaultPath() string {
	if p := os.Getenv("RENTAL_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("rental.yaml"); err == nil {
		return "rental.yaml"
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "rental.yaml"
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "rental", "config.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Session.Path == "" {
		c.Session.Path = defaultSessionPath()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}
	return nil
}

func defaultSessionPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "rental", "session.db")
}
