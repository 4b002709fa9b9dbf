package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override Spotify credentials. Loaded from .env when present.
const (
	EnvSpotifyClientID     = "SPOTIPY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIPY_CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "SPOTIPY_REDIRECT_URI"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Streaming   StreamingConfig   `toml:"streaming"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	LogLevel    string   `toml:"log_level"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Address returns host:port for [net/http.Server].
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the token cache location.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// Configured reports whether client credentials are present.
func (c SpotifyConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// CatalogConfig configures the anime/manga catalog client.
type CatalogConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Timeout returns the per-request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StreamingConfig configures the music streaming client.
type StreamingConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ReleaseWorkers int    `toml:"release_workers"`
}

// Timeout returns the per-request timeout.
func (c StreamingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return fmt.Errorf("%w: server: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
		validation.Field(&c.Database.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.Database.MaxIdleConns, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("%w: database: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Credentials.Spotify,
		validation.Field(&c.Credentials.Spotify.TokenPath, validation.Required),
		validation.Field(&c.Credentials.Spotify.RedirectURI, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: credentials.spotify: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Catalog,
		validation.Field(&c.Catalog.BaseURL, validation.Required),
		validation.Field(&c.Catalog.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.Catalog.RequestsPerSecond, validation.Min(0.0)),
	); err != nil {
		return fmt.Errorf("%w: catalog: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Streaming,
		validation.Field(&c.Streaming.BaseURL, validation.Required),
		validation.Field(&c.Streaming.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.Streaming.ReleaseWorkers, validation.Required, validation.Min(1), validation.Max(20)),
	); err != nil {
		return fmt.Errorf("%w: streaming: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides Spotify credentials from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvSpotifyClientID)); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpotifyClientSecret)); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpotifyRedirectURI)); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// LoadConfig reads a TOML configuration file over the embedded defaults, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
//
// A file that exists but cannot be parsed is still an error.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		config := DefaultConfig()
		config.ApplyEnv()
		return config, nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
