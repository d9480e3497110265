package main

import (
	"fmt"
	"os"

	"github.com/curatime/portal/internal/config"
	"github.com/curatime/portal/internal/logger"
	"github.com/curatime/portal/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("api", cfg.API.BaseURL).
		Msg("Starting CuraTime portal...")

	// Start HTTP server (this blocks until shutdown)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		logger.Close()
		os.Exit(1)
	}
}
