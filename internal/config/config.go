// Package config loads server settings from defaults, an optional YAML file,
// a .env file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BaiduAV/DividaFacil/pkg/logging"
)

// Config is the complete server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// JWTSecret signs session tokens. Required.
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTL is how long a session token stays valid.
	TokenTTL time.Duration `yaml:"token_ttl"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// RecomputeWorkers bounds how many groups are recomputed in parallel.
	RecomputeWorkers int `yaml:"recompute_workers"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:             8080,
		DBPath:           "./data/dividafacil.db",
		TokenTTL:         24 * time.Hour,
		LogLevel:         "info",
		RecomputeWorkers: 4,
	}
}

// Load builds the configuration. path is an optional YAML file; envFile is an
// optional .env file whose variables are added to the environment without
// overriding ones already set. Missing files are skipped when their path is
// the default ("" for YAML, ".env" for envFile).
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !(envFile == ".env" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.TokenTTL = ttl
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RECOMPUTE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RECOMPUTE_WORKERS %q: %w", v, err)
		}
		c.RecomputeWorkers = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required (set JWT_SECRET)")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RecomputeWorkers < 1 {
		return fmt.Errorf("recompute_workers must be at least 1, got %d", c.RecomputeWorkers)
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
