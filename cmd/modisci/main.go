// Package main provides the modisci command line tool and HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go.ngs.io/modisci/internal/config"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "modisci",
	Short: "Retrieve MODIS clumping-index rasters on arbitrary grids",
	Long: `modisci loads the global MODIS clumping-index product onto a target grid,
either by mosaicking local sinusoidal tiles or by reading the global GeoTIFF
from the ORNL DAAC archive (Earthdata Login credentials from the config,
MODISCI_ARCHIVE_USERNAME/PASSWORD or ~/.netrc).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
