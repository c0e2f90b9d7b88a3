package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/config"
	"github.com/askpair/api/internal/pipeline"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	meta, err := pipeline.Train(pipeline.TrainOptions{
		TrainsetPath: cfg.TrainsetPath,
		ValidRatio:   cfg.ValidRatio,
		ArtifactsDir: cfg.ArtifactsDir,
	}, logger)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	logger.Info("done",
		zap.String("model_version", meta.ModelVersion),
		zap.Float64("accuracy", meta.Metrics.Accuracy),
	)
}
