// Package pipeline implements the offline model lifecycle: snapshot a
// reproducible training row-set, export it to files, train a pairwise
// preference model, and register the artifact for serving. Jobs are batch,
// operator-invoked, and serial by convention.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/models"
)

// eligibleFilter describes the training eligibility predicate frozen into
// every snapshot: only decisive human verdicts train the model.
const eligibleFilter = "user_choice in ('a','b')"

// SnapshotStore is the persistence the snapshot job needs
type SnapshotStore interface {
	CountEligibleRows(ctx context.Context) (int, error)
	InsertSnapshot(ctx context.Context, snap models.Snapshot) error
}

// MakeSnapshot counts the currently eligible feedback rows, mints a new
// snapshot identifier and persists it. The record never changes afterward:
// it is a point-in-time contract with downstream training.
func MakeSnapshot(ctx context.Context, st SnapshotStore, logger *zap.Logger) (*models.Snapshot, error) {
	n, err := st.CountEligibleRows(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snap := models.Snapshot{
		ID:        uuid.New(),
		RowCount:  n,
		CreatedAt: now,
	}
	snap.DataRange = map[string]any{
		"snapshot_id": snap.ID.String(),
		"created_at":  now.Format(time.RFC3339),
		"source_view": "v_pairwise_train",
		"filter":      eligibleFilter,
		"row_count":   n,
	}

	if err := st.InsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	logger.Info("snapshot created",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("row_count", n),
	)
	return &snap, nil
}
