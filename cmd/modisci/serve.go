package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	httpHandler "go.ngs.io/modisci/internal/http"
	"go.ngs.io/modisci/internal/usecase"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		port := cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}

		log.Info("Starting clumping-index API server...")
		log.Infof("Tiles directory: %s", a.store.DataDir())
		log.Infof("Archive cache: %s", a.fetcher.Path())

		handler := httpHandler.NewHandler(a.loader, a.sources, usecase.NewPointSampler(a.sources))
		router := httpHandler.SetupRouter(handler, cfg.CORS.AllowedOrigins)

		addr := fmt.Sprintf(":%s", port)
		log.Infof("Server listening on %s", addr)
		log.Infof("Health check: http://localhost:%s/health", port)
		log.Info("API endpoints:")
		log.Info("  - GET /v1/tiles")
		log.Info("  - GET /v1/clumping-index")
		log.Info("  - GET /v1/clumping-index/point")

		if err := router.Run(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "Port to listen on (overrides config)")
}
