package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration for the client.
type Config struct {
	Env     string        `yaml:"env"`
	API     APIConfig     `yaml:"api"`
	Stream  StreamConfig  `yaml:"stream"`
	History HistoryConfig `yaml:"history"`
	Player  PlayerConfig  `yaml:"player"`
}

type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMS int    `yaml:"timeout_ms"`

	// DefaultPersona is used when a call request carries no persona.
	DefaultPersona string `yaml:"default_persona"`

	Timeout time.Duration `yaml:"-"`
}

type StreamConfig struct {
	// BaseURL is the push-stream endpoint root. Derived from API.BaseURL
	// when empty.
	BaseURL     string `yaml:"base_url"`
	ReconnectMS int    `yaml:"reconnect_ms"`
	HandshakeMS int    `yaml:"handshake_ms"`

	ReconnectDelay   time.Duration `yaml:"-"`
	HandshakeTimeout time.Duration `yaml:"-"`
}

type HistoryConfig struct {
	PageSize  int    `yaml:"page_size"`
	CachePath string `yaml:"cache_path"`
	WarmLimit int    `yaml:"warm_limit"`
}

type PlayerConfig struct {
	Command string `yaml:"command"`
}

// Load resolves configuration from an optional YAML file overlaid with
// environment variables and defaults. The file path comes from
// DIALDESK_CONFIG or defaults to ~/.config/dialdesk/config.yaml; a missing
// file is not an error.
func Load() (Config, error) {
	var cfg Config

	path := strings.TrimSpace(os.Getenv("DIALDESK_CONFIG"))
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".config", "dialdesk", "config.yaml")
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Env = envOrDefault("DIALDESK_ENV", cfg.Env)
	cfg.API.BaseURL = envOrDefault("DIALDESK_API_BASE", cfg.API.BaseURL)
	cfg.API.DefaultPersona = envOrDefault("DIALDESK_AI_PERSONA", cfg.API.DefaultPersona)
	cfg.Stream.BaseURL = envOrDefault("DIALDESK_WS_BASE", cfg.Stream.BaseURL)
	cfg.History.CachePath = envOrDefault("DIALDESK_HISTORY_CACHE", cfg.History.CachePath)
	cfg.Player.Command = envOrDefault("DIALDESK_PLAYER_COMMAND", cfg.Player.Command)

	cfg.API.TimeoutMS = envInt("DIALDESK_API_TIMEOUT_MS", cfg.API.TimeoutMS)
	cfg.Stream.ReconnectMS = envInt("DIALDESK_RECONNECT_MS", cfg.Stream.ReconnectMS)
	if n := envInt("DIALDESK_PAGE_SIZE", 0); n > 0 {
		cfg.History.PageSize = n
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000/api/v1"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.API.Timeout = time.Duration(cfg.API.TimeoutMS) * time.Millisecond
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.DefaultPersona == "" {
		cfg.API.DefaultPersona = "customer_support"
	}
	if cfg.Stream.BaseURL == "" {
		cfg.Stream.BaseURL = deriveStreamBase(cfg.API.BaseURL)
	}
	cfg.Stream.BaseURL = strings.TrimRight(cfg.Stream.BaseURL, "/")
	cfg.Stream.ReconnectDelay = time.Duration(cfg.Stream.ReconnectMS) * time.Millisecond
	if cfg.Stream.ReconnectDelay <= 0 {
		cfg.Stream.ReconnectDelay = 3 * time.Second
	}
	cfg.Stream.HandshakeTimeout = time.Duration(cfg.Stream.HandshakeMS) * time.Millisecond
	if cfg.Stream.HandshakeTimeout <= 0 {
		cfg.Stream.HandshakeTimeout = 5 * time.Second
	}
	if cfg.History.PageSize <= 0 {
		cfg.History.PageSize = 20
	}
	if cfg.History.WarmLimit <= 0 {
		cfg.History.WarmLimit = 50
	}
	if cfg.History.CachePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.History.CachePath = filepath.Join(home, ".local", "share", "dialdesk", "history.db")
		}
	}
	if cfg.Player.Command == "" {
		cfg.Player.Command = "ffplay"
	}
}

// deriveStreamBase maps the REST base URL onto the websocket root: the
// scheme flips to ws/wss and any API version prefix is dropped, matching
// how the backend advertises its websocket endpoint.
func deriveStreamBase(apiBase string) string {
	base := apiBase
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if idx := strings.Index(base, "/api/"); idx >= 0 {
		base = base[:idx]
	}
	return strings.TrimRight(base, "/")
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
