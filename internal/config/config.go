// Package config holds the server's TOML configuration with defaults and
// validation. Flags on the command line override file values.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Storage   StorageConfig   `toml:"storage"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

type ServerConfig struct {
	// Addr is the TCP listen address for chat connections.
	Addr string `toml:"addr"`
	// ReplayLines is how many history lines a joining client receives;
	// 0 disables replay.
	ReplayLines int `toml:"replay_lines"`
}

type DiscoveryConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type StorageConfig struct {
	UsersFile   string `toml:"users_file"`
	HistoryFile string `toml:"history_file"`
}

type MetricsConfig struct {
	// Addr serves the status page and /metrics; empty disables it.
	Addr string `toml:"addr"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":7700",
			ReplayLines: 0,
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
			Port:    7701,
		},
		Storage: StorageConfig{
			UsersFile:   "users.txt",
			HistoryFile: "chat_history.txt",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	if c.Server.ReplayLines < 0 {
		return fmt.Errorf("replay_lines cannot be negative")
	}
	if c.Discovery.Enabled && (c.Discovery.Port <= 0 || c.Discovery.Port > 65535) {
		return fmt.Errorf("discovery port must be between 1 and 65535")
	}
	if c.Storage.UsersFile == "" {
		return fmt.Errorf("users_file cannot be empty")
	}
	if c.Storage.HistoryFile == "" {
		return fmt.Errorf("history_file cannot be empty")
	}
	return nil
}
