// Command fallwatch connects to a wearable alert peripheral, watches an
// accelerometer stream for falls and raises alerts on the peripheral and
// with a remote case-intake service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/chaz8081/fallwatch/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// formatVersion adds a 'v' prefix if version starts with a digit.
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

var rootCmd = &cobra.Command{
	Use:   "fallwatch",
	Short: "Fall detection with a BLE alert peripheral",
	Long: `fallwatch connects to a Bluetooth Low Energy alert peripheral by name,
reads accelerometer samples and, when a fall is detected, tells the
peripheral to raise its alert and files a case with the intake service.
Pressing a button on the peripheral cancels the alert.`,
	Version: formatVersion(version) + " (" + commit + ")",
	RunE:    runMonitor,
}

var (
	configPath   string
	logLevelFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit.
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initConfigCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/fallwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
	initMonitorFlags(rootCmd)
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. The second return
// value describes where the config came from.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, "Config loaded from " + path, nil
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, "Config loaded from " + defaultPath, nil
	}

	return config.Default(), "No config file found, using defaults", nil
}

// resolveDeviceName picks the peripheral name: an explicit flag wins, then
// the name remembered from an earlier --device, then the configured one.
func resolveDeviceName(configured string, st *config.State, fromFlag bool) string {
	if fromFlag {
		return configured
	}
	return st.DeviceOr(configured)
}

// rememberDevice stores a name given with --device so later runs use it
// without the flag. Names from the config file are not stored.
func rememberDevice(statePath, name string, fromFlag bool) error {
	if !fromFlag {
		return nil
	}
	return config.RememberDevice(statePath, name)
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	sensor := cfg.Sensor.Path
	if sensor == "" {
		sensor = "(none)"
	}
	notify := "off"
	if cfg.Notify.Enabled {
		notify = cfg.Notify.Email
	}
	hotkey := "off"
	if cfg.Hotkey.Enabled {
		hotkey = strings.Join(cfg.Hotkey.Keys, "+")
	}

	fmt.Println("=== fallwatch ===")
	fmt.Printf("  Device:    %s\n", cfg.Device.Name)
	fmt.Printf("  Sensor:    %s (%d Hz)\n", sensor, cfg.Sensor.RateHz)
	fmt.Printf("  Threshold: %.2f g\n", cfg.Fall.Threshold)
	fmt.Printf("  Poll:      %s\n", cfg.Poll.Interval)
	fmt.Printf("  Notify:    %s\n", notify)
	fmt.Printf("  Alarm:     %t\n", cfg.Alarm.Enabled)
	fmt.Printf("  Desktop:   %t\n", cfg.Alert.Enabled)
	fmt.Printf("  Hotkey:    %s\n", hotkey)
	fmt.Printf("  Log:       %s\n", cfg.LogLevel)
	fmt.Println("=================")
}
