package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/fallwatch/internal/alarm"
	"github.com/chaz8081/fallwatch/internal/ble"
	"github.com/chaz8081/fallwatch/internal/config"
	"github.com/chaz8081/fallwatch/internal/desktop"
	"github.com/chaz8081/fallwatch/internal/fall"
	"github.com/chaz8081/fallwatch/internal/hotkey"
	"github.com/chaz8081/fallwatch/internal/monitor"
	"github.com/chaz8081/fallwatch/internal/notify"
	"github.com/chaz8081/fallwatch/internal/sensor"
	"github.com/chaz8081/fallwatch/internal/ui"
)

const notifyTimeout = 10 * time.Second

var (
	deviceFlag    string
	emailFlag     string
	sensorFlag    string
	noConnectFlag bool
)

func initMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&deviceFlag, "device", "n", "", "advertised name of the peripheral")
	cmd.Flags().StringVar(&emailFlag, "email", "", "email address attached to filed cases")
	cmd.Flags().StringVarP(&sensorFlag, "sensor", "s", "", `accelerometer stream, one "x,y,z" per line ("-" for stdin)`)
	cmd.Flags().BoolVar(&noConnectFlag, "no-connect", false, "do not connect at startup; wait for the hotkey")
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device.Name = deviceFlag
	}
	if flags.Changed("email") {
		cfg.Notify.Email = emailFlag
	}
	if flags.Changed("sensor") {
		cfg.Sensor.Path = sensorFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, source, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, cfg)

	statePath := config.DefaultStatePath()
	st, stateErr := config.LoadState(statePath)
	if stateErr != nil {
		st = &config.State{}
	}
	fromFlag := cmd.Flags().Changed("device")
	cfg.Device.Name = resolveDeviceName(cfg.Device.Name, st, fromFlag)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Info(source)
	if stateErr != nil {
		logger.WithError(stateErr).Warn("ignoring unreadable state file")
	}
	if err := rememberDevice(statePath, cfg.Device.Name, fromFlag); err != nil {
		logger.WithError(err).Warn("could not remember device name")
	}

	printBanner(cfg)
	console := ui.NewConsole(os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := ble.NewManager(ble.NewTinyGoAdapter(), logger)
	defer manager.Close()

	opts := monitor.Options{
		PollInterval: cfg.Poll.Interval,
		Threshold:    cfg.Fall.Threshold,
		Reporter:     console,
	}
	if cfg.Notify.Enabled {
		opts.Notifier = notify.New(notify.Options{
			Endpoint: cfg.Notify.Endpoint,
			OrgID:    cfg.Notify.OrgID,
			Email:    cfg.Notify.Email,
			Client:   &http.Client{Timeout: notifyTimeout},
		}, logger)
	}
	if cfg.Alert.Enabled {
		opts.Desktop = desktop.NewPopup(logger)
	}
	if cfg.Alarm.Enabled {
		sounder, err := alarm.Open(alarm.Options{
			WAVPath:    cfg.Alarm.WAVPath,
			ToneHz:     cfg.Alarm.ToneHz,
			SampleRate: cfg.Alarm.SampleRate,
		}, logger)
		if err != nil {
			return fmt.Errorf("alarm: %w", err)
		}
		defer sounder.Close()
		opts.Alarm = sounder
	}
	mon := monitor.New(manager, opts, logger)

	var samples <-chan fall.Sample
	if cfg.Sensor.Path != "" {
		r, err := sensor.Open(cfg.Sensor.Path)
		if err != nil {
			return err
		}
		defer r.Close()
		samples = sensor.NewLineSource(r, cfg.Sensor.RateHz, logger).Samples(ctx)
	} else {
		logger.Warn("No sensor configured, fall detection has no input")
	}

	connect := func() {
		mon.RequestConnect(cfg.Device.Name)
	}

	if !noConnectFlag {
		connect()
	}

	if cfg.Hotkey.Enabled {
		// The listener is never stopped: gohook's C cleanup crashes on
		// shutdown, and process exit reclaims the hook.
		listener := hotkey.NewListener(cfg.Hotkey.Keys)
		go listener.Start()
		go func() {
			for range listener.Events() {
				connect()
			}
		}()
		logger.Infof("Press %s to reconnect", cfg.Hotkey.Keys)
	}

	logger.Info("Ready! Ctrl+C to quit.")
	if err := mon.Run(ctx, samples); err != nil {
		return err
	}
	logger.Info("Goodbye!")
	return nil
}
