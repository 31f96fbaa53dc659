package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"qrdine-backend/internal/config"
	"qrdine-backend/internal/database"
	"qrdine-backend/internal/logging"
)

func main() {
	if !config.LoadDotEnv() {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	ctx := context.Background()
	waiters, err := database.CountWaiters(ctx, db)
	if err != nil {
		logger.Fatal("Failed to query summary", zap.Error(err))
	}

	history, err := database.NewHistoryStore(database.NewKVStore(db)).Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load order history", zap.Error(err))
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Driver:                  %s\n", cfg.DatabaseDriver)
	fmt.Printf("Waiters:                 %d\n", waiters)
	fmt.Printf("Served orders on file:   %d\n", len(history))
	fmt.Println("============================================================")
}
