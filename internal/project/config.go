// Package project loads tool configuration from cinder.toml.
package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigName is the manifest filename looked up next to the
// artifacts being processed.
const DefaultConfigName = "cinder.toml"

// OptimizeConfig holds the [optimize] section.
type OptimizeConfig struct {
	Jobs    int  `toml:"jobs"`
	Timings bool `toml:"timings"`
}

// Config is the parsed tool configuration.
type Config struct {
	Optimize OptimizeConfig `toml:"optimize"`
}

// LoadConfig parses a cinder.toml file. A missing file yields the zero
// configuration without an error; a malformed one is reported.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if len(meta.Undecoded()) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, meta.Undecoded()[0].String())
	}
	if cfg.Optimize.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [optimize].jobs must not be negative", path)
	}
	return cfg, nil
}
