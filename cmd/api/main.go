package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/doubtmate/doubtmate/internal/pkg/logger"
	"github.com/doubtmate/doubtmate/internal/server"
)

// @title DoubtMate API
// @version 1.0
// @description Peer-to-peer academic help platform: doubts, responses, chat and reputation

// @contact.name API Support
// @contact.email support@doubtmate.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	// Optional .env overrides for local development
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("Loaded environment from .env file")
	}

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
