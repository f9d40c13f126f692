package main

import (
	"fmt"
	"os"

	"github.com/Its-donkey/rel8/internal/config"
	"github.com/spf13/cobra"
)

var configInitFlags struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the rel8-server configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitFlags.force, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(configPath); err == nil && !configInitFlags.force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}
	cfg := config.Default()
	cfg.Dev.Seed = true
	if err := config.Write(cfg, configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}
