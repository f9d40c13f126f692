package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set via ldflags during build.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "rel8-server",
	Short:         "Serve the REL8 community web app",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rel8.yml", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		// A second signal forces exit.
		<-sigCh
		fmt.Fprintln(os.Stderr, "second interrupt received, forcing shutdown")
		os.Exit(1)
	}()

	err := rootCmd.ExecuteContext(ctx)
	signal.Stop(sigCh)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rel8-server: %v\n", err)
		os.Exit(1)
	}
}
