package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/fallwatch/internal/ble"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby named BLE devices",
	Long: `Scan for Bluetooth Low Energy devices and list every one that
advertises a local name. Use it to find the name to pass to --device.`,
	RunE: runScan,
}

var scanDuration time.Duration

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 5*time.Second, "scan duration")
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanDuration <= 0 {
		return fmt.Errorf("invalid duration %s: must be > 0", scanDuration)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, scanDuration)
	defer cancel()

	adapter := ble.NewTinyGoAdapter()
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Scanning for %s...\n", scanDuration)
	devices, err := ble.ListNamed(ctx, adapter)
	if err != nil {
		return err
	}
	return writeDevices(cmd.OutOrStdout(), devices)
}

func writeDevices(out io.Writer, devices []ble.Device) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No named devices found.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%d\n", d.Name, d.Address, d.RSSI)
	}
	return w.Flush()
}
