// Package kfconfig loads keyforge's optional on-disk configuration: the
// vault data directory and the Argon2id parameter profile. Follows the
// version-gated YAML loader pattern used for shurli's node configs.
package kfconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
)

// CurrentConfigVersion is the latest configuration schema version.
const CurrentConfigVersion = 1

// ErrConfigVersionTooNew is returned when a config file declares a version
// newer than this build understands.
var ErrConfigVersionTooNew = errors.New("kfconfig: config version is newer than supported")

// Config is keyforge's on-disk configuration.
type Config struct {
	Version      int    `yaml:"version,omitempty"`
	DataDir      string `yaml:"data_dir,omitempty"`
	KDFProfile   string `yaml:"kdf_profile,omitempty"` // "production" (default) or "fast"
	CacheListing bool   `yaml:"cache_listing,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:      CurrentConfigVersion,
		DataDir:      defaultDataDir(),
		KDFProfile:   "production",
		CacheListing: true,
	}
}

// KDFParams resolves the configured profile name to concrete Argon2id
// parameters.
func (c *Config) KDFParams() cryptoutil.KDFParams {
	if c.KDFProfile == "fast" {
		return cryptoutil.FastTestParams
	}
	return cryptoutil.ProductionParams
}

// Load reads configuration from path. A missing file is not an error; it
// yields Default(). A present file with overly permissive mode is
// rejected, matching shurli's config-loader permission check.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kfconfig: stat %s: %w", path, err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return nil, fmt.Errorf("kfconfig: config file %s has overly permissive mode %04o; expected 0600", path, mode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kfconfig: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("kfconfig: parse YAML: %w", err)
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version > CurrentConfigVersion {
		return nil, fmt.Errorf("%w: version %d", ErrConfigVersionTooNew, cfg.Version)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}

// Save writes cfg to path with 0600 permissions.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("kfconfig: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("kfconfig: mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("kfconfig: write %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".keyforge"
	}
	return filepath.Join(dir, "keyforge")
}

// DefaultPath returns the config file location the CLI loads from absent an
// explicit path: config.yaml inside the default data directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("kfconfig: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "keyforge", "config.yaml"), nil
}
