// Command cleanup removes conversations older than the configured retention
// window. It is intended to run on a schedule (cron or a container job), so
// it does one pass and exits.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/database"
	"chatrelay/backend/internal/repository"
	"chatrelay/backend/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cleanup := service.NewCleanupService(repository.NewSQLiteRepository(db), cfg.DataRetentionDays)
	if _, err := cleanup.Run(ctx); err != nil {
		slog.Error("Cleanup failed", "error", err)
		return 1
	}
	return 0
}
