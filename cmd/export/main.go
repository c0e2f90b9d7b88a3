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

	res, err := pipeline.ExportTrainset(context.Background(), store.New(db), cfg.ArtifactsDir, logger)
	if err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}

	logger.Info("done",
		zap.String("snapshot_id", res.SnapshotID),
		zap.Int("rows", res.Rows),
		zap.String("csv", res.CSVPath),
	)
}
