package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Dave", cfg.Device.Name)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 5.5, cfg.Fall.Threshold)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "https://www.salesforce.com/servlet/servlet.WebToCase", cfg.Notify.Endpoint)
	assert.Equal(t, "00D24000000dWDe", cfg.Notify.OrgID)
	assert.Equal(t, "alerts@example.com", cfg.Notify.Email)
	assert.Equal(t, "", cfg.Sensor.Path)
	assert.Equal(t, 50, cfg.Sensor.RateHz)
	assert.False(t, cfg.Alarm.Enabled)
	assert.Equal(t, 880.0, cfg.Alarm.ToneHz)
	assert.Equal(t, uint32(44100), cfg.Alarm.SampleRate)
	assert.False(t, cfg.Alert.Enabled)
	assert.False(t, cfg.Hotkey.Enabled)
	assert.Equal(t, []string{"ctrl", "shift", "c"}, cfg.Hotkey.Keys)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad(t *testing.T) {
	yamlContent := `
device:
  name: Bob
poll:
  interval: 250ms
fall:
  threshold: 4.2
notify:
  enabled: false
  email: someone@example.org
sensor:
  path: /tmp/accel.csv
  rate_hz: 100
alarm:
  enabled: true
  tone_hz: 440
alert:
  enabled: true
log_level: debug
`
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "Bob", cfg.Device.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 4.2, cfg.Fall.Threshold)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, "someone@example.org", cfg.Notify.Email)
	assert.Equal(t, "00D24000000dWDe", cfg.Notify.OrgID, "unset fields keep defaults")
	assert.Equal(t, "/tmp/accel.csv", cfg.Sensor.Path)
	assert.Equal(t, 100, cfg.Sensor.RateHz)
	assert.True(t, cfg.Alarm.Enabled)
	assert.Equal(t, 440.0, cfg.Alarm.ToneHz)
	assert.True(t, cfg.Alert.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
sensor:
  path: ~/data/accel.csv
alarm:
  wav_path: ~/sounds/siren.wav
`
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data/accel.csv"), cfg.Sensor.Path)
	assert.Equal(t, filepath.Join(home, "sounds/siren.wav"), cfg.Alarm.WAVPath)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("device: [unclosed"), 0644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty device name",
			modify:  func(c *Config) { c.Device.Name = "" },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			modify:  func(c *Config) { c.Poll.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "negative threshold",
			modify:  func(c *Config) { c.Fall.Threshold = -1 },
			wantErr: true,
		},
		{
			name:    "relative notify endpoint",
			modify:  func(c *Config) { c.Notify.Endpoint = "/servlet" },
			wantErr: true,
		},
		{
			name:    "empty email",
			modify:  func(c *Config) { c.Notify.Email = "" },
			wantErr: true,
		},
		{
			name: "bad endpoint ignored when notify disabled",
			modify: func(c *Config) {
				c.Notify.Enabled = false
				c.Notify.Endpoint = ""
			},
			wantErr: false,
		},
		{
			name:    "zero sensor rate",
			modify:  func(c *Config) { c.Sensor.RateHz = 0 },
			wantErr: true,
		},
		{
			name: "alarm without tone or wav",
			modify: func(c *Config) {
				c.Alarm.Enabled = true
				c.Alarm.ToneHz = 0
			},
			wantErr: true,
		},
		{
			name: "alarm with wav and no tone",
			modify: func(c *Config) {
				c.Alarm.Enabled = true
				c.Alarm.ToneHz = 0
				c.Alarm.WAVPath = "/tmp/siren.wav"
			},
			wantErr: false,
		},
		{
			name: "hotkey without keys",
			modify: func(c *Config) {
				c.Hotkey.Enabled = true
				c.Hotkey.Keys = nil
			},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpHome, ".config", "fallwatch", "config.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# fallwatch"), "written config should start with header comment")

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "Dave", cfg.Device.Name)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.NoError(t, loaded.Validate())
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "fallwatch")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	existing := []byte("device:\n  name: Custom\n")
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, existing, 0644))

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Empty(t, path)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, string(existing), string(data))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())
			assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
		})
	}

	_, err := NewLogger("verbose")
	assert.Error(t, err)
}
