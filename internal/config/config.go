// Package config loads the fallwatch YAML configuration and the small
// state file that remembers the last device name.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	defaults "github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device   DeviceConfig `yaml:"device"`
	Poll     PollConfig   `yaml:"poll"`
	Fall     FallConfig   `yaml:"fall"`
	Notify   NotifyConfig `yaml:"notify"`
	Sensor   SensorConfig `yaml:"sensor"`
	Alarm    AlarmConfig  `yaml:"alarm"`
	Alert    AlertConfig  `yaml:"alert"`
	Hotkey   HotkeyConfig `yaml:"hotkey"`
	LogLevel string       `yaml:"log_level" default:"info"`
}

// DeviceConfig selects the peripheral to connect to.
type DeviceConfig struct {
	Name string `yaml:"name" default:"Dave"` // exact advertised local name
}

// PollConfig controls the status poll loop.
type PollConfig struct {
	Interval time.Duration `yaml:"interval" default:"500ms"`
}

// FallConfig holds fall detection settings.
type FallConfig struct {
	Threshold float64 `yaml:"threshold" default:"5.5"`
}

// NotifyConfig holds the case-intake endpoint settings.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled" default:"true"`
	Endpoint string `yaml:"endpoint" default:"https://www.salesforce.com/servlet/servlet.WebToCase"`
	OrgID    string `yaml:"org_id" default:"00D24000000dWDe"`
	Email    string `yaml:"email" default:"alerts@example.com"`
}

// SensorConfig selects where acceleration samples come from.
// Path is a file or FIFO with one "x,y,z" sample per line; "-" reads stdin.
// An empty path disables fall detection input.
type SensorConfig struct {
	Path   string `yaml:"path"`
	RateHz int    `yaml:"rate_hz" default:"50"`
}

// AlarmConfig holds the local audible alarm settings.
type AlarmConfig struct {
	Enabled    bool    `yaml:"enabled" default:"false"`
	WAVPath    string  `yaml:"wav_path"` // empty plays a sine tone
	ToneHz     float64 `yaml:"tone_hz" default:"880"`
	SampleRate uint32  `yaml:"sample_rate" default:"44100"`
}

// AlertConfig controls the desktop dialog shown for fall events.
type AlertConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
}

// HotkeyConfig holds the global connect hotkey settings.
type HotkeyConfig struct {
	Enabled bool     `yaml:"enabled" default:"false"`
	Keys    []string `yaml:"keys"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fallwatch")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with the values declared in the struct tags.
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	defaults.SetDefaults(&cfg.Device)
	defaults.SetDefaults(&cfg.Poll)
	defaults.SetDefaults(&cfg.Fall)
	defaults.SetDefaults(&cfg.Notify)
	defaults.SetDefaults(&cfg.Sensor)
	defaults.SetDefaults(&cfg.Alarm)
	defaults.SetDefaults(&cfg.Alert)
	defaults.SetDefaults(&cfg.Hotkey)
	cfg.Hotkey.Keys = []string{"ctrl", "shift", "c"}
	return cfg
}

// Load reads and parses a YAML config file. Missing fields keep their
// defaults. A leading ~ in sensor.path and alarm.wav_path is expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Sensor.Path = expandTilde(cfg.Sensor.Path)
	cfg.Alarm.WAVPath = expandTilde(cfg.Alarm.WAVPath)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return errors.New("device.name must not be empty")
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be > 0, got %s", c.Poll.Interval)
	}

	if c.Fall.Threshold <= 0 {
		return fmt.Errorf("fall.threshold must be > 0, got %g", c.Fall.Threshold)
	}

	if c.Notify.Enabled {
		u, err := url.Parse(c.Notify.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("notify.endpoint must be an absolute URL, got %q", c.Notify.Endpoint)
		}
		if c.Notify.Email == "" {
			return errors.New("notify.email must not be empty")
		}
	}

	if c.Sensor.RateHz <= 0 {
		return fmt.Errorf("sensor.rate_hz must be > 0, got %d", c.Sensor.RateHz)
	}

	if c.Alarm.Enabled {
		if c.Alarm.SampleRate == 0 {
			return errors.New("alarm.sample_rate must be > 0")
		}
		if c.Alarm.WAVPath == "" && c.Alarm.ToneHz <= 0 {
			return errors.New("alarm.tone_hz must be > 0 when no wav_path is set")
		}
	}

	if c.Hotkey.Enabled && len(c.Hotkey.Keys) == 0 {
		return errors.New("hotkey.keys must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

const defaultHeader = `# fallwatch configuration
# Generated with default values. Edit and restart to apply.
`

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet. It returns the written path, or "" when a config was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
