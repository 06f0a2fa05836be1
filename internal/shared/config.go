package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Sessions    SessionsConfig    `toml:"sessions"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Mix         MixConfig         `toml:"mix"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application credentials used for the
// authorization-code and refresh-token grants.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains HTTP server settings, including the browser-facing
// pieces (frontend redirect target, CORS origins, session cookie).
type ServerConfig struct {
	Host                   string   `toml:"host"`
	Port                   int      `toml:"port"`
	FrontendURL            string   `toml:"frontend_url"`
	AllowedOrigins         []string `toml:"allowed_origins"`
	CookieName             string   `toml:"cookie_name"`
	CookieSecure           bool     `toml:"cookie_secure"`
	UpstreamTimeoutSeconds int      `toml:"upstream_timeout_seconds"`
	LogLevel               string   `toml:"log_level"`
}

// Addr returns the host:port string the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionsConfig selects the session store backend and its record lifetime.
type SessionsConfig struct {
	Backend  string `toml:"backend"` // "sqlite", "memory", or "redis"
	TTLHours int    `toml:"ttl_hours"`
}

// DatabaseConfig contains SQLite connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MixConfig tunes the generated playlist: its metadata, candidate limits, and
// the related-artist discovery expansion.
type MixConfig struct {
	Name           string  `toml:"name"`
	Description    string  `toml:"description"`
	Public         bool    `toml:"public"`
	Size           int     `toml:"size"`
	TopLimit       int     `toml:"top_limit"`
	RecentLimit    int     `toml:"recent_limit"`
	TimeRange      string  `toml:"time_range"`
	Discover       bool    `toml:"discover"`
	SeedArtists    int     `toml:"seed_artists"`
	RelatedPerSeed int     `toml:"related_per_seed"`
	Workers        int     `toml:"workers"`
	RateLimit      float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the pieces required to run the server are present.
//
// The placeholder values from the embedded template count as missing so a
// fresh install fails with a useful message instead of opaque upstream 401s.
func (c *Config) Validate() error {
	spotify := c.Credentials.Spotify
	switch {
	case spotify.ClientID == "" || spotify.ClientID == "your_spotify_client_id":
		return fmt.Errorf("%w: credentials.spotify.client_id", ErrMissingCredentials)
	case spotify.ClientSecret == "" || spotify.ClientSecret == "your_spotify_client_secret":
		return fmt.Errorf("%w: credentials.spotify.client_secret", ErrMissingCredentials)
	case spotify.RedirectURI == "":
		return fmt.Errorf("%w: credentials.spotify.redirect_uri", ErrMissingCredentials)
	}

	switch c.Sessions.Backend {
	case "sqlite", "memory", "redis":
	default:
		return fmt.Errorf("%w: sessions.backend must be sqlite, memory, or redis", ErrInvalidConfig)
	}

	return nil
}
