// Package cli provides common initialization shared by cmd/ledger and
// cmd/ledger-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/storage"
)

// SetupLogger initializes structured logging with default settings and sets
// the result as the process default.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStateStore opens the SQLite state store, running migrations.
// Exits the process on failure.
func InitStateStore(logger *slog.Logger, dbPath string) *storage.SQLiteStateStore {
	state, err := storage.NewSQLiteStateStore(dbPath)
	if err != nil {
		logger.Error("Failed to initialize state store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return state
}
