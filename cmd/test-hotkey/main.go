// Command test-hotkey checks the reconnect hotkey without touching
// Bluetooth. It reads the fallwatch config and state the same way the
// monitor does and, for each press, prints the device a reconnect would
// scan for.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--config path] [--keys ctrl,shift,c]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/fallwatch/internal/config"
	"github.com/chaz8081/fallwatch/internal/hotkey"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	keysFlag := flag.String("keys", "", "comma-separated key combo (default: hotkey.keys from config)")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	st, err := config.LoadState(config.DefaultStatePath())
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	target := st.DeviceOr(cfg.Device.Name)

	keys := cfg.Hotkey.Keys
	if *keysFlag != "" {
		keys = strings.Split(*keysFlag, ",")
	}
	if !cfg.Hotkey.Enabled {
		fmt.Println("Note: hotkey.enabled is false, fallwatch will not listen for it.")
	}
	fmt.Printf("Press %s to simulate a reconnect to %q. Ctrl+C to exit.\n", strings.Join(keys, "+"), target)

	listener := hotkey.NewListener(keys)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		listener.Stop()
	}()

	go func() {
		presses := 0
		for ev := range listener.Events() {
			if ev.Type != hotkey.EventConnect {
				continue
			}
			presses++
			fmt.Printf("[%d] would stop scanning, disconnect and scan for %q\n", presses, target)
		}
	}()

	listener.Start()
	fmt.Println("Done.")
}
