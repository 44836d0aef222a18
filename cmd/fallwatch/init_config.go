package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/fallwatch/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default config file",
	Long:  `Write the default configuration to ~/.config/fallwatch/config.yaml unless a config file already exists there.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.WriteDefault()
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", config.DefaultConfigPath())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "A name passed with --device is remembered in %s and takes precedence over device.name.\n", config.DefaultStatePath())
		return nil
	},
}
