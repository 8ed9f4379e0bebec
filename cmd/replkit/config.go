package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Config is the optional shell configuration, loaded from a TOML file.
type Config struct {
	// Prompt is printed before each new fragment.
	Prompt string `toml:"prompt"`

	// Continuation is printed while a fragment is incomplete.
	Continuation string `toml:"continuation"`

	// Modules are the reference modules offered to the session.
	Modules []string `toml:"modules"`

	// Imports are applied at bootstrap, promoting module members to
	// unqualified visibility.
	Imports []string `toml:"imports"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Prompt:       ">>> ",
		Continuation: "... ",
		Modules:      []string{"json", "math", "time"},
		Imports:      []string{"math"},
	}
}

// LoadConfig reads a TOML config file, falling back to defaults when the
// file does not exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}
