// Package config loads process configuration from defaults, an optional YAML
// file and WEARABLES_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the persistence backend: postgres or memory.
	Storage     string `koanf:"storage"`
	DatabaseURL string `koanf:"database_url"`

	// LogMode is "development" or "production"; LogLevel is debug, info, warn or error.
	LogMode  string `koanf:"log_mode"`
	LogLevel string `koanf:"log_level"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTIssuer string        `koanf:"jwt_issuer"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// OIDC settings enable SSO login when all four are set.
	OIDCIssuer       string `koanf:"oidc_issuer"`
	OIDCClientID     string `koanf:"oidc_client_id"`
	OIDCClientSecret string `koanf:"oidc_client_secret"`
	OIDCRedirectURL  string `koanf:"oidc_redirect_url"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Storage:         StoragePostgres,
		LogMode:         "development",
		LogLevel:        "info",
		JWTIssuer:       "wearables",
		JWTTTL:          24 * time.Hour,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load layers configuration sources, lowest precedence first:
//  1. defaults
//  2. YAML file named by WEARABLES_CONFIG, if set
//  3. env vars with prefix WEARABLES_ (WEARABLES_DATABASE_URL -> database_url)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("WEARABLES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("WEARABLES_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "wearables_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if c.JWTTTL <= 0 {
		return errors.New("jwt_ttl must be positive")
	}

	oidc := []string{c.OIDCIssuer, c.OIDCClientID, c.OIDCClientSecret, c.OIDCRedirectURL}
	set := 0
	for _, v := range oidc {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(oidc) {
		return errors.New("oidc_issuer, oidc_client_id, oidc_client_secret and oidc_redirect_url must be set together")
	}
	return nil
}

// SSOEnabled reports whether OIDC login is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != ""
}
