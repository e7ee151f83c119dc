package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	App    AppConfig    `yaml:"app"`
	Auth   AuthConfig   `yaml:"auth"`
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

type AppConfig struct {
	Env               string        `yaml:"env"` // development, test or production
	Addr              string        `yaml:"addr"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	PasswordSalt string        `yaml:"password_salt"`
}

type LedgerConfig struct {
	StartingBalance int64  `yaml:"starting_balance"`
	AdminUsername   string `yaml:"admin_username"`
	AdminEmail      string `yaml:"admin_email"`
	AdminPassword   string `yaml:"admin_password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:               "development",
			Addr:              ":8080",
			AllowedOrigins:    []string{"*"},
			BroadcastInterval: 5 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:    "my-secret-key",
			TokenTTL:     24 * time.Hour,
			PasswordSalt: "ligabets-dev-salt",
		},
		Ledger: LedgerConfig{
			StartingBalance: 1000,
			AdminUsername:   "admin",
			AdminEmail:      "admin@ligabets.local",
			AdminPassword:   "adminpassword",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml at %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Warnf("Config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideWithEnv(cfg *Config) {
	if val := os.Getenv(EnvAppEnv); val != "" {
		cfg.App.Env = val
	}
	if val := os.Getenv(EnvAddr); val != "" {
		cfg.App.Addr = val
	}

	// Auth
	if val := os.Getenv(EnvJWTSecret); val != "" {
		cfg.Auth.JWTSecret = val
	}
	if val := os.Getenv(EnvPasswordSalt); val != "" {
		cfg.Auth.PasswordSalt = val
	}

	// Ledger
	if val := os.Getenv(EnvStartingBalance); val != "" {
		if b, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Ledger.StartingBalance = b
		}
	}
	if val := os.Getenv(EnvAdminUsername); val != "" {
		cfg.Ledger.AdminUsername = val
	}
	if val := os.Getenv(EnvAdminEmail); val != "" {
		cfg.Ledger.AdminEmail = val
	}
	if val := os.Getenv(EnvAdminPassword); val != "" {
		cfg.Ledger.AdminPassword = val
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.Log.Level = val
	}
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.Ledger.StartingBalance < 0 {
		return fmt.Errorf("starting balance cannot be negative")
	}
	if c.Ledger.AdminUsername == "" || c.Ledger.AdminEmail == "" || c.Ledger.AdminPassword == "" {
		return fmt.Errorf("admin username, email and password are required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.App.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast interval must be positive")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.App.Env == "production" {
		if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == Default().Auth.JWTSecret {
			return fmt.Errorf("%s must be set in production", EnvJWTSecret)
		}
		if c.Auth.PasswordSalt == Default().Auth.PasswordSalt {
			return fmt.Errorf("%s must be set in production", EnvPasswordSalt)
		}
	}
	return nil
}

// ConfigureLogger applies the log level and format to the standard logrus logger
func (c *Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
