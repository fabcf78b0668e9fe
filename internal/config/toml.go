// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Grid     GridConfig     `toml:"grid"`
	Layout   LayoutConfig   `toml:"layout"`
	Log      LogConfig      `toml:"log"`
	Simulate SimulateConfig `toml:"simulate"`
}

// GridConfig maps the proximity grid resolution.
type GridConfig struct {
	Width  *int `toml:"width"`
	Height *int `toml:"height"`
}

// LayoutConfig selects the layout used when none is given on the command line.
type LayoutConfig struct {
	Path *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// SimulateConfig maps touch simulation settings.
type SimulateConfig struct {
	Samples  *int     `toml:"samples"`
	Sigma    *float64 `toml:"sigma"`
	Seed     *int64   `toml:"seed"`
	WordList *string  `toml:"wordlist"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
