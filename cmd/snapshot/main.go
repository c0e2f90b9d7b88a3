package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/config"
	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/pipeline"
	"github.com/askpair/api/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	snap, err := pipeline.MakeSnapshot(context.Background(), store.New(db), logger)
	if err != nil {
		logger.Fatal("snapshot failed", zap.Error(err))
	}

	logger.Info("done",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("row_count", snap.RowCount),
	)
}
