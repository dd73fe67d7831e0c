package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds connection and security parameters shared by the dispatch binaries.
type Config struct {
	// ListenAddress is the TCP address the HTTP server binds to.
	ListenAddress string `yaml:"listen_addr"`
	// ServerURL is the base URL CLI clients use to reach the server.
	ServerURL string `yaml:"server_url"`
	// StateFile is the path to the JSON snapshot of coordinator state.
	StateFile string `yaml:"state_file"`
	// AdminIdentity is the root identity that manages authorized personnel.
	AdminIdentity string `yaml:"admin_identity"`
	// JWTSecret signs and verifies bearer tokens. Overridable via
	// DISPATCH_JWT_SECRET so it can be kept out of the settings file.
	JWTSecret string `yaml:"jwt_secret"`
	// BootstrapSecret gates the token issuance endpoint. Overridable via
	// DISPATCH_BOOTSTRAP_SECRET.
	BootstrapSecret string `yaml:"bootstrap_secret"`
	// TokenTTL is the lifetime of issued bearer tokens.
	TokenTTL time.Duration `yaml:"token_ttl"`
	// Timeout is the duration for network operations and API calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel sets the minimum level for the global logger.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for dispatch settings.
	DefaultConfigFilename = "dispatch-settings.yaml"

	// DefaultStateFilename is the default filename for coordinator state JSON.
	DefaultStateFilename = "dispatch-state.json"

	// DefaultListenAddress is the default HTTP listen address.
	DefaultListenAddress = ":8080"

	// DefaultAdminIdentity is the root identity used when none is configured.
	DefaultAdminIdentity = "admin"

	// DefaultTokenTTL is the default lifetime of issued bearer tokens.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates essential fields. A .env file next to the process,
// if present, is loaded first so deployments can keep secrets out of YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	// Missing .env is the normal case.
	_ = godotenv.Load()

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	cfg.applyEnv()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file may carry secrets.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.ServerURL != "" {
		if _, err := url.ParseRequestURI(cfg.ServerURL); err != nil {
			return fmt.Errorf("invalid server URL: %w", err)
		}
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.AdminIdentity == "" {
		cfg.AdminIdentity = DefaultAdminIdentity
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// applyEnv overrides secret material from the environment when present.
func (c *Config) applyEnv() {
	if v := os.Getenv("DISPATCH_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}

	if v := os.Getenv("DISPATCH_BOOTSTRAP_SECRET"); v != "" {
		c.BootstrapSecret = v
	}

	if v := os.Getenv("DISPATCH_ADMIN_IDENTITY"); v != "" {
		c.AdminIdentity = v
	}
}
