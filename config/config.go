// Package config loads go-signup settings from SIGNUP_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-signup/client"
)

// Config holds every runtime setting. Command line flags may override the
// values after loading.
type Config struct {
	BaseURL       string        `env:"SIGNUP_BASE_URL"        envDefault:"http://localhost:3000"`
	StoreUserPath string        `env:"SIGNUP_STORE_USER_PATH" envDefault:"/api/storeUser"`
	SignInPath    string        `env:"SIGNUP_SIGN_IN_PATH"    envDefault:"/api/auth/callback/credentials"`
	HomePath      string        `env:"SIGNUP_HOME_PATH"       envDefault:"/"`
	SignInLink    string        `env:"SIGNUP_SIGN_IN_LINK"    envDefault:"/signin"`
	Timeout       time.Duration `env:"SIGNUP_HTTP_TIMEOUT"    envDefault:"10s"`

	// SigningKey verifies (web) or signs (backend) HS256 session tokens.
	SigningKey string `env:"SIGNUP_SIGNING_KEY"`
	// JWKSURL takes precedence over SigningKey for verification.
	JWKSURL string `env:"SIGNUP_JWKS_URL"`

	ListenAddr  string        `env:"SIGNUP_LISTEN_ADDR"   envDefault:":8080"`
	BackendAddr string        `env:"SIGNUP_BACKEND_ADDR"  envDefault:":3000"`
	DatabaseDSN string        `env:"SIGNUP_DATABASE_DSN"  envDefault:"file::memory:?cache=shared"`
	Issuer      string        `env:"SIGNUP_ISSUER"        envDefault:"go-signup"`
	TokenTTL    time.Duration `env:"SIGNUP_TOKEN_TTL"     envDefault:"24h"`
	UseHashid   bool          `env:"SIGNUP_USE_HASHID"`

	Debug bool `env:"SIGNUP_DEBUG"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.StoreUserPath, validation.Required),
		validation.Field(&c.SignInPath, validation.Required),
		validation.Field(&c.HomePath, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// Client returns the endpoint configuration for the HTTP collaborators.
func (c Config) Client() client.Config {
	return client.Config{
		BaseURL:       c.BaseURL,
		StoreUserPath: c.StoreUserPath,
		SignInPath:    c.SignInPath,
		Timeout:       c.Timeout,
	}
}
