// Package config handles loading and saving keyspan configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/keyspan/config.yaml
//   - Data:    ~/.local/share/keyspan/ (exported snapshots, layout DBs)
//   - State:   ~/.local/state/keyspan/ (last-bank cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/keyspan/pkg/interval"
)

// SnapshotConfig holds layout snapshot preferences.
type SnapshotConfig struct {
	Preset string `yaml:"preset,omitempty"` // compact, roomy
	Format string `yaml:"format,omitempty"` // svg, png
}

// AxisConfig restricts the rendered note window.
type AxisConfig struct {
	Low  int `yaml:"low,omitempty"`  // lowest note drawn
	High int `yaml:"high,omitempty"` // highest note drawn
}

// WatchConfig controls live-reload behaviour.
type WatchConfig struct {
	DebounceMS int  `yaml:"debounce_ms,omitempty"` // settle time after a bank write
	ForcePoll  bool `yaml:"force_poll,omitempty"`  // skip fsnotify, always poll
}

// Config is the top-level configuration for keyspan.
type Config struct {
	BankDir  string         `yaml:"bank_dir,omitempty"` // default directory to scan for banks
	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`
	Axis     AxisConfig     `yaml:"axis,omitempty"`
	Watch    WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Snapshot: SnapshotConfig{
			Preset: "compact",
			Format: "svg",
		},
		Axis: AxisConfig{
			Low:  interval.MinNote,
			High: interval.MaxNote,
		},
		Watch: WatchConfig{
			DebounceMS: 250,
		},
	}
}

// ConfigDir returns the XDG config directory for keyspan.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "keyspan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "keyspan")
}

// DataDir returns the XDG data directory for keyspan.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "keyspan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "keyspan")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.BankDir = expandHome(cfg.BankDir)

	// Clamp the axis window to the note range.
	if cfg.Axis.Low < interval.MinNote {
		cfg.Axis.Low = interval.MinNote
	}
	if cfg.Axis.High > interval.MaxNote || cfg.Axis.High == 0 {
		cfg.Axis.High = interval.MaxNote
	}
	if cfg.Axis.Low > cfg.Axis.High {
		cfg.Axis.Low, cfg.Axis.High = interval.MinNote, interval.MaxNote
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
