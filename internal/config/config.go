package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Secret is a string type that redacts itself when printed.
type Secret string

// String implements fmt.Stringer to redact the secret.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StorageKind selects the durable backend for tokens and state.
type StorageKind string

const (
	StorageMemory    StorageKind = "memory"
	StorageFirestore StorageKind = "firestore"
)

// Default Schwab production endpoints. Overridable for sandbox setups
// and for tests pointed at a local fake provider.
const (
	DefaultAuthorizeURL = "https://api.schwabapi.com/v1/oauth/authorize"
	DefaultTokenURL     = "https://api.schwabapi.com/v1/oauth/token"
)

// Config is the process-wide configuration, loaded once at startup from
// environment variables.
type Config struct {
	Addr string `env:"BROKER_ADDR" envDefault:":8080"`
	Env  string `env:"BROKER_ENV" envDefault:"production"`

	ClientID     string `env:"OAUTH_CLIENT_ID"`
	ClientSecret Secret `env:"OAUTH_CLIENT_SECRET"`

	DefaultRedirectURI  string   `env:"OAUTH_DEFAULT_REDIRECT_URI"`
	AllowedRedirectURIs []string `env:"OAUTH_ALLOWED_REDIRECT_URIS" envSeparator:","`
	RedirectAllowAny    bool     `env:"OAUTH_REDIRECT_ALLOW_ANY" envDefault:"false"`

	AuthorizeURL string `env:"OAUTH_AUTHORIZE_URL" envDefault:"https://api.schwabapi.com/v1/oauth/authorize"`
	TokenURL     string `env:"OAUTH_TOKEN_URL" envDefault:"https://api.schwabapi.com/v1/oauth/token"`

	EnforceState         bool          `env:"OAUTH_ENFORCE_STATE" envDefault:"true"`
	StateTTL             time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	StateCleanupInterval time.Duration `env:"STATE_CLEANUP_INTERVAL" envDefault:"1m"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`

	Storage            StorageKind `env:"STORAGE_KIND" envDefault:"memory"`
	GCPProjectID       string      `env:"GCP_PROJECT_ID"`
	FirestoreDatabase  string      `env:"FIRESTORE_DATABASE"`
	TokenEncryptionKey Secret      `env:"TOKEN_ENCRYPTION_KEY"`

	OperatorAlertEmail string `env:"OPERATOR_ALERT_EMAIL"`
}

// Load parses configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether the broker runs in development mode, where the
// frontend origin requirement is relaxed.
func (c Config) IsDev() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// Validate checks required settings. Missing client credentials or redirect
// configuration is fatal at startup rather than surfaced per-request.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("OAUTH_CLIENT_SECRET is required")
	}
	if c.DefaultRedirectURI == "" {
		return fmt.Errorf("OAUTH_DEFAULT_REDIRECT_URI is required")
	}
	if _, err := url.Parse(c.DefaultRedirectURI); err != nil {
		return fmt.Errorf("OAUTH_DEFAULT_REDIRECT_URI is not a valid URI: %w", err)
	}
	if c.FrontendOrigin == "" && !c.IsDev() {
		return fmt.Errorf("FRONTEND_ORIGIN is required outside development mode")
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("OAUTH_STATE_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	switch c.Storage {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required for firestore storage")
		}
		if c.TokenEncryptionKey == "" {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY is required for firestore storage")
		}
		if _, err := c.EncryptionKeyBytes(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORAGE_KIND %q", c.Storage)
	}

	// The allow-list always contains the default, even when unset the set
	// degenerates to just the default.
	if !slices.Contains(c.AllowedRedirectURIs, c.DefaultRedirectURI) {
		c.AllowedRedirectURIs = append(c.AllowedRedirectURIs, c.DefaultRedirectURI)
	}

	return nil
}

// EncryptionKeyBytes decodes the configured token encryption key.
func (c Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(string(c.TokenEncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
