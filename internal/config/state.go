package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State is the value remembered between runs. The key name matches the
// one the mobile app used for its local storage.
type State struct {
	DeviceName string `yaml:"deviceName"`
}

// DeviceOr returns the remembered device name, or configured when no
// name is remembered.
func (s *State) DeviceOr(configured string) string {
	if s == nil || s.DeviceName == "" {
		return configured
	}
	return s.DeviceName
}

// DefaultStatePath returns the default state file path.
func DefaultStatePath() string {
	return filepath.Join(DefaultConfigDir(), "state.yaml")
}

// LoadState reads the state file. A missing file yields an empty State.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return &st, nil
}

// SaveState writes the state file, replacing it atomically.
func SaveState(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving state file: %w", err)
	}
	return nil
}

// RememberDevice records name in the state file at path, keeping any other
// state already there.
func RememberDevice(path, name string) error {
	st, err := LoadState(path)
	if err != nil {
		return err
	}
	st.DeviceName = name
	return SaveState(path, st)
}
