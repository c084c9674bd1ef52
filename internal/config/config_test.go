package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DIALDESK_CONFIG", "")
	t.Setenv("DIALDESK_API_BASE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("unexpected api base: %q", cfg.API.BaseURL)
	}
	if cfg.Stream.BaseURL != "ws://localhost:8000" {
		t.Fatalf("unexpected stream base: %q", cfg.Stream.BaseURL)
	}
	if cfg.Stream.ReconnectDelay != 3*time.Second {
		t.Fatalf("unexpected reconnect delay: %v", cfg.Stream.ReconnectDelay)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected api timeout: %v", cfg.API.Timeout)
	}
	if cfg.History.PageSize != 20 {
		t.Fatalf("unexpected page size: %d", cfg.History.PageSize)
	}
	if cfg.API.DefaultPersona != "customer_support" {
		t.Fatalf("unexpected persona: %q", cfg.API.DefaultPersona)
	}
	if cfg.Player.Command != "ffplay" {
		t.Fatalf("unexpected player command: %q", cfg.Player.Command)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "" +
		"env: dev\n" +
		"api:\n" +
		"  base_url: https://calls.example.com/api/v1\n" +
		"history:\n" +
		"  page_size: 5\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("HOME", dir)
	t.Setenv("DIALDESK_CONFIG", path)
	t.Setenv("DIALDESK_RECONNECT_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env != "dev" {
		t.Fatalf("unexpected env: %q", cfg.Env)
	}
	if cfg.API.BaseURL != "https://calls.example.com/api/v1" {
		t.Fatalf("unexpected api base: %q", cfg.API.BaseURL)
	}
	if cfg.Stream.BaseURL != "wss://calls.example.com" {
		t.Fatalf("unexpected stream base: %q", cfg.Stream.BaseURL)
	}
	if cfg.History.PageSize != 5 {
		t.Fatalf("unexpected page size: %d", cfg.History.PageSize)
	}
	if cfg.Stream.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("unexpected reconnect delay: %v", cfg.Stream.ReconnectDelay)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DIALDESK_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api: [broken"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DIALDESK_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDeriveStreamBase(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"http://localhost:8000/api/v1":     "ws://localhost:8000",
		"https://calls.example.com/api/v1": "wss://calls.example.com",
		"https://calls.example.com":        "wss://calls.example.com",
	}
	for in, want := range cases {
		if got := deriveStreamBase(in); got != want {
			t.Fatalf("deriveStreamBase(%q) = %q, want %q", in, got, want)
		}
	}
}
