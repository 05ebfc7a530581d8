// Package config loads the server configuration.
//
// Sources, lowest to highest precedence: built-in defaults, rowstore.yaml in
// the data directory (created with defaults when missing), the .env file in
// the data directory (ROWSTORE_* keys), then command line flags applied by the
// caller. The result is validated once and not modified afterwards.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file stored in the data directory.
const FileName = "rowstore.yaml"

// EnvPrefix prefixes every key read from the .env file.
const EnvPrefix = "ROWSTORE_"

// Config is the complete server configuration.
type Config struct {
	// DataDir holds the database directories, rowstore.yaml and .env.
	DataDir string `yaml:"-"`

	// Generation labels the database directory db<generation>.
	Generation string `yaml:"generation"`

	// HTTP is the listen address.
	HTTP string `yaml:"http"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Backups enables throttled snapshots before writes.
	Backups bool `yaml:"backups"`

	// BackupCooldown is the minimum delay between two snapshots of one artifact.
	BackupCooldown time.Duration `yaml:"backup_cooldown"`

	// CacheBytes bounds the artifact cache. Negative disables it.
	CacheBytes int64 `yaml:"cache_bytes"`

	// VerifyInserts reads inserted rows back and logs when missing.
	VerifyInserts bool `yaml:"verify_inserts"`

	// JWTSecret enables bearer token authentication when set.
	JWTSecret string `yaml:"jwt_secret"`

	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `yaml:"rate_limits"`
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// ReadRatePerMin limits GET requests. 0 means unlimited.
	ReadRatePerMin int `yaml:"read_rate_per_min"`

	// WriteRatePerMin limits mutating requests. 0 means unlimited.
	WriteRatePerMin int `yaml:"write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ReadRatePerMin < 0 {
		return errors.New("read_rate_per_min must be non-negative")
	}
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:             "./data",
		HTTP:                "localhost:8080",
		LogLevel:            "info",
		Backups:             true,
		BackupCooldown:      5 * time.Second,
		CacheBytes:          64 << 20,
		MaxRequestBodyBytes: 10 << 20,
		RateLimits: RateLimits{
			ReadRatePerMin:  6000,
			WriteRatePerMin: 600,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}
	if strings.ContainsAny(c.Generation, `/\:`) {
		return fmt.Errorf("generation %q must not contain path separators", c.Generation)
	}
	if c.HTTP == "" {
		return errors.New("http address is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.BackupCooldown < 0 {
		return errors.New("backup_cooldown must be non-negative")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return errors.New("max_request_body_bytes must be positive")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	return nil
}

// Load reads dataDir/rowstore.yaml on top of the defaults, creating the file
// when missing, then applies dataDir/.env. The result is not validated so
// the caller can apply flags first.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	cfg.DataDir = dataDir
	path := filepath.Join(dataDir, FileName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	case os.IsNotExist(err):
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	env, err := LoadDotEnv(dataDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, fmt.Errorf(".env: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to DataDir/rowstore.yaml.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.DataDir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// ApplyEnv overrides fields from ROWSTORE_* keys. Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	for key, val := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok || val == "" {
			continue
		}
		if err := c.Set(strings.ToLower(name), val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Set assigns one field by its yaml name, e.g. "cache_bytes". It is used for
// .env keys and command line flags.
func (c *Config) Set(name, val string) error {
	var err error
	switch name {
	case "data_dir":
		c.DataDir = val
	case "generation":
		c.Generation = val
	case "http":
		c.HTTP = val
	case "log_level":
		c.LogLevel = val
	case "backups":
		c.Backups, err = strconv.ParseBool(val)
	case "backup_cooldown":
		c.BackupCooldown, err = time.ParseDuration(val)
	case "cache_bytes":
		c.CacheBytes, err = strconv.ParseInt(val, 10, 64)
	case "verify_inserts":
		c.VerifyInserts, err = strconv.ParseBool(val)
	case "jwt_secret":
		c.JWTSecret = val
	case "max_request_body_bytes":
		c.MaxRequestBodyBytes, err = strconv.ParseInt(val, 10, 64)
	case "read_rate_per_min":
		c.RateLimits.ReadRatePerMin, err = strconv.Atoi(val)
	case "write_rate_per_min":
		c.RateLimits.WriteRatePerMin, err = strconv.Atoi(val)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return err
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}
