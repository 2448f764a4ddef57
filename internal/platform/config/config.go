// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. Local `.env` files are
loaded first through 'joho/godotenv' so developers do not need to export anything.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, session store) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the sessiongate server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) holding session records and volatile tokens
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Session cookie signing and lifetime
	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL    time.Duration `env:"SESSION_TTL"   envDefault:"720h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`

	// Two-factor policy: accounts holding one of these roles must enroll a second factor.
	TwoFactorRequiredRoles []string `env:"TWO_FACTOR_REQUIRED_ROLES" envSeparator:"," envDefault:"admin"`
	TOTPIssuer             string   `env:"TOTP_ISSUER"               envDefault:"sessiongate"`

	// External identity providers, each configured under OAUTH_<NAME>_*.
	OAuthProviderNames []string         `env:"OAUTH_PROVIDERS" envSeparator:","`
	OAuthProviders     map[string]OAuth `env:"-"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// OAuth configures one OpenID Connect provider.
type OAuth struct {
	Issuer       string   `env:"ISSUER,required,notEmpty"`
	ClientID     string   `env:"CLIENT_ID,required,notEmpty"`
	ClientSecret string   `env:"CLIENT_SECRET,required,notEmpty"`
	RedirectURL  string   `env:"REDIRECT_URL,required,notEmpty"`
	Scopes       []string `env:"SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Local overrides; missing files are not an error.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing or, with 'notEmpty', blank.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("config: SESSION_SECRET must be at least 32 bytes")
	}

	cfg.OAuthProviders = make(map[string]OAuth, len(cfg.OAuthProviderNames))
	for _, rawName := range cfg.OAuthProviderNames {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if name == "" {
			continue
		}

		provider := OAuth{}
		prefix := "OAUTH_" + strings.ToUpper(name) + "_"
		if err := env.ParseWithOptions(&provider, env.Options{Prefix: prefix}); err != nil {
			return nil, fmt.Errorf("config: oauth provider %q: %w", name, err)
		}
		cfg.OAuthProviders[name] = provider
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsAllowedOrigin reports whether a cross-origin caller may use credentials.
func (c *Config) IsAllowedOrigin(origin string) bool {
	return slices.Contains(c.AllowedOrigins, origin)
}
