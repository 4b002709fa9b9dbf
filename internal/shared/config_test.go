package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./mtrack.db" {
			t.Errorf("expected database path ./mtrack.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8080/callback" {
			t.Errorf("unexpected redirect URI %s", config.Credentials.Spotify.RedirectURI)
		}
		if config.Credentials.Spotify.TokenPath != ".spotify_cache" {
			t.Errorf("expected token path .spotify_cache, got %s", config.Credentials.Spotify.TokenPath)
		}
		if config.Catalog.Timeout() != 10*time.Second {
			t.Errorf("expected 10s catalog timeout, got %v", config.Catalog.Timeout())
		}
		if config.Streaming.ReleaseWorkers != 5 {
			t.Errorf("expected 5 release workers, got %d", config.Streaming.ReleaseWorkers)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 9090

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[catalog]
timeout_seconds = 3
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Address() != "0.0.0.0:9090" {
			t.Errorf("expected address 0.0.0.0:9090, got %s", config.Server.Address())
		}
		if !config.Credentials.Spotify.Configured() {
			t.Error("expected spotify credentials to be configured")
		}
		if config.Catalog.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Catalog.Timeout())
		}
		if config.Catalog.BaseURL != "https://api.jikan.moe/v4" {
			t.Errorf("omitted keys should keep defaults, got base url %q", config.Catalog.BaseURL)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nport = 70000\n"), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Environment overrides credentials", func(t *testing.T) {
		t.Setenv(EnvSpotifyClientID, "env_id")
		t.Setenv(EnvSpotifyClientSecret, "env_secret")

		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected defaults for a missing file, got %v", err)
		}
		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected client id from env, got %q", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected client secret from env, got %q", config.Credentials.Spotify.ClientSecret)
		}
	})
}
