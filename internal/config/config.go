package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/lazypower/entropyd/internal/decay"
)

// Config holds all entropyd configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Device   DeviceConfig   `toml:"device"`
}

type ServerConfig struct {
	Bind string `toml:"bind" env:"ENTROPYD_BIND"`
	Port int    `toml:"port" env:"ENTROPYD_PORT"`
}

type DatabaseConfig struct {
	Path string `toml:"path" env:"ENTROPYD_DB"`
}

type DeviceConfig struct {
	Path string `toml:"path" env:"ENTROPYD_DEVICE"`
	// ForceSimulation skips kernel device binding for every value the
	// daemon creates.
	ForceSimulation bool `toml:"force_simulation" env:"ENTROPYD_FORCE_SIM"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37878,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Device: DeviceConfig{
			Path: decay.DefaultDevicePath,
		},
	}
}

// Load returns the defaults with ENTROPYD_* environment overrides applied.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// DecayConfig maps the device section onto a decay.Config.
func (c *Config) DecayConfig() decay.Config {
	return decay.Config{
		DevicePath:      c.Device.Path,
		ForceSimulation: c.Device.ForceSimulation,
	}
}
