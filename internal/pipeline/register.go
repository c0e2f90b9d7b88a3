package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/models"
)

// RegisterStore is the persistence the register job needs
type RegisterStore interface {
	UpsertModel(ctx context.Context, entry models.ModelRegistryEntry) error
}

// Register publishes a trained model into the serving-visible registry. It
// reads the training metadata sidecar (explicit path, or the most recently
// produced one under <artifactsDir>/models) and upserts the registry entry
// keyed by model version.
func Register(ctx context.Context, st RegisterStore, metaPath, artifactsDir string, logger *zap.Logger) (*TrainMeta, error) {
	path, err := pickMeta(metaPath, artifactsDir)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta TrainMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("invalid training metadata %s: %w", path, err)
	}

	snapshotID, err := uuid.Parse(meta.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("training metadata %s has invalid snapshot id %q", path, meta.SnapshotID)
	}

	metricsMap, err := toMap(meta.Metrics)
	if err != nil {
		return nil, err
	}

	entry := models.ModelRegistryEntry{
		ModelVersion:   meta.ModelVersion,
		SnapshotID:     snapshotID,
		FeatureVersion: meta.Metrics.FeatureVersion,
		Metrics:        metricsMap,
		ArtifactPath:   meta.ArtifactPath,
	}
	if entry.FeatureVersion == "" {
		entry.FeatureVersion = models.FeatureVersion
	}

	if err := st.UpsertModel(ctx, entry); err != nil {
		return nil, err
	}

	logger.Info("model registered",
		zap.String("model_version", meta.ModelVersion),
		zap.String("snapshot_id", meta.SnapshotID),
		zap.String("artifact_path", meta.ArtifactPath),
		zap.String("meta_used", path),
	)
	return &meta, nil
}

func pickMeta(metaPath, artifactsDir string) (string, error) {
	if metaPath != "" {
		if _, err := os.Stat(metaPath); err != nil {
			return "", fmt.Errorf("model meta not found: %s", metaPath)
		}
		return metaPath, nil
	}

	dir := filepath.Join(artifactsDir, "models")
	metas, err := filepath.Glob(filepath.Join(dir, "baseline_lr_*.meta.json"))
	if err != nil || len(metas) == 0 {
		return "", fmt.Errorf("no training metadata found under %s", dir)
	}
	sort.Slice(metas, func(i, j int) bool {
		return mtime(metas[i]).After(mtime(metas[j]))
	})
	return metas[0], nil
}

func toMap(m Metrics) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
