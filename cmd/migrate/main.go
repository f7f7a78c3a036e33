package main

import (
	"context"
	"log"
	"time"

	"github.com/proxynest/proxynest/internal/config"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logr.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := postgres.ApplySchema(ctx, db); err != nil {
		logr.Fatalf("Failed to apply schema: %v", err)
	}

	logr.Infow("schema applied", "database", cfg.Postgres.DBName)
}
