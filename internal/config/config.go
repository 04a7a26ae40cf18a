// Package config loads the optional converter configuration file. Flags
// override anything set here; every field has a working default so the tool
// runs with no file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	InputDir      string `yaml:"input_dir"`
	OutputDir     string `yaml:"output_dir"`
	AttachmentDir string `yaml:"attachment_dir"`
	Verbose       bool   `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AttachmentDir: "attachments",
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "zoho-to-obsidian", "config.yaml")
}

// Load reads the config at path, falling back to DefaultPath when path is
// empty. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.AttachmentDir == "" {
		cfg.AttachmentDir = Default().AttachmentDir
	}
	return cfg, nil
}
