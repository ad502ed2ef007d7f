package main

import (
	"log"
	"os"

	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	logg.Info("Starting database migration...", "driver", cfg.Database.Driver)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logg.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logg.Error("Failed to get database instance", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logg.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db, logg); err != nil {
		logg.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	logg.Info("Database migration completed successfully!")
}
