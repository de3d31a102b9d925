// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; secrets go to OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"querydesk/cli/internal/xdg"
)

// Defaults applied when the config file or a field is missing.
const (
	DefaultLogLevel       = "info"
	DefaultMaxConns       = 10
	DefaultConnectTimeout = 10 * time.Second
	DefaultListen         = "127.0.0.1:7431"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel string       `json:"log_level"`
	Pool     PoolConfig   `json:"pool"`
	Server   ServerConfig `json:"server"`
}

// PoolConfig sizes the database connection pool.
type PoolConfig struct {
	MaxConns       int32    `json:"max_conns"`
	ConnectTimeout Duration `json:"connect_timeout"`
}

// ServerConfig holds settings for `querydesk serve`.
type ServerConfig struct {
	Listen string `json:"listen"`
}

// Duration is a time.Duration stored as a string such as "10s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Pool: PoolConfig{
			MaxConns:       DefaultMaxConns,
			ConnectTimeout: Duration(DefaultConnectTimeout),
		},
		Server: ServerConfig{Listen: DefaultListen},
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Default(), err
	}
	return loadFile(p)
}

func loadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", p, err)
	}
	c.fillDefaults()
	return c, nil
}

// fillDefaults replaces zero values left by a partial file.
func (c *Config) fillDefaults() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Pool.MaxConns <= 0 {
		c.Pool.MaxConns = d.Pool.MaxConns
	}
	if c.Pool.ConnectTimeout <= 0 {
		c.Pool.ConnectTimeout = d.Pool.ConnectTimeout
	}
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	return saveFile(p, c)
}

func saveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
