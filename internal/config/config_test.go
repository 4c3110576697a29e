package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Server.Addr != ":7700" || cfg.Discovery.Port != 7701 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.UsersFile != "users.txt" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coolchat.toml")
	content := `
[server]
addr = ":8800"
replay_lines = 10

[discovery]
enabled = false

[storage]
users_file = "/var/lib/coolchat/users.txt"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8800" || cfg.Server.ReplayLines != 10 {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Discovery.Enabled {
		t.Fatal("discovery should be disabled")
	}
	if cfg.Storage.UsersFile != "/var/lib/coolchat/users.txt" {
		t.Fatalf("storage section not applied: %+v", cfg.Storage)
	}
	// Untouched sections keep their defaults.
	if cfg.Storage.HistoryFile != "chat_history.txt" || cfg.Metrics.Addr != ":9090" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[server\naddr="), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"negative replay", func(c *Config) { c.Server.ReplayLines = -1 }},
		{"bad discovery port", func(c *Config) { c.Discovery.Port = 70000 }},
		{"empty users file", func(c *Config) { c.Storage.UsersFile = "" }},
		{"empty history file", func(c *Config) { c.Storage.HistoryFile = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestValidateAllowsAnyDiscoveryPortWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Discovery.Enabled = false
	cfg.Discovery.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled discovery should not validate its port: %v", err)
	}
}
