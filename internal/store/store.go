// Package store provides the Postgres-backed persistence used by the learned
// ranker's version resolver and by the offline model-lifecycle jobs. The
// serving write path (ask transaction) lives with its handler.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/models"
)

// Store runs queries against the shared connection pool
type Store struct {
	db *database.Postgres
}

// New creates a store over an established pool
func New(db *database.Postgres) *Store {
	return &Store{db: db}
}

// LatestModelVersion returns the most recently trained registered model
// version, or "" when the registry is empty.
func (s *Store) LatestModelVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.Pool().QueryRow(ctx,
		`SELECT model_version FROM models ORDER BY trained_at DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version, nil
}

// ModelByVersion returns the registry entry for a version, or nil if absent
func (s *Store) ModelByVersion(ctx context.Context, version string) (*models.ModelRegistryEntry, error) {
	var entry models.ModelRegistryEntry
	var metricsRaw []byte
	err := s.db.Pool().QueryRow(ctx,
		`SELECT model_version, snapshot_id, feature_version, metrics_json, artifact_path, trained_at
		 FROM models WHERE model_version = $1`,
		version,
	).Scan(&entry.ModelVersion, &entry.SnapshotID, &entry.FeatureVersion, &metricsRaw, &entry.ArtifactPath, &entry.TrainedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.Metrics = parseMetrics(metricsRaw)
	return &entry, nil
}

// ListModels returns all registered models, newest first
func (s *Store) ListModels(ctx context.Context) ([]models.ModelRegistryEntry, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT model_version, snapshot_id, feature_version, metrics_json, artifact_path, trained_at
		 FROM models ORDER BY trained_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ModelRegistryEntry
	for rows.Next() {
		var entry models.ModelRegistryEntry
		var metricsRaw []byte
		if err := rows.Scan(&entry.ModelVersion, &entry.SnapshotID, &entry.FeatureVersion,
			&metricsRaw, &entry.ArtifactPath, &entry.TrainedAt); err != nil {
			return nil, err
		}
		entry.Metrics = parseMetrics(metricsRaw)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// UpsertModel registers a trained model: insert if the version is new, else
// overwrite the metadata and bump trained_at.
func (s *Store) UpsertModel(ctx context.Context, entry models.ModelRegistryEntry) error {
	metricsJSON, err := json.Marshal(entry.Metrics)
	if err != nil {
		return err
	}
	_, err = s.db.Pool().Exec(ctx,
		`INSERT INTO models (model_version, snapshot_id, feature_version, metrics_json, artifact_path)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (model_version) DO UPDATE
		 SET snapshot_id = EXCLUDED.snapshot_id,
		     feature_version = EXCLUDED.feature_version,
		     metrics_json = EXCLUDED.metrics_json,
		     artifact_path = EXCLUDED.artifact_path,
		     trained_at = NOW()`,
		entry.ModelVersion, entry.SnapshotID, entry.FeatureVersion, metricsJSON, entry.ArtifactPath,
	)
	return err
}

// CountEligibleRows counts training-eligible feedback rows: only decisive
// a/b verdicts qualify, ties and "bad" are excluded from training.
func (s *Store) CountEligibleRows(ctx context.Context) (int, error) {
	var n int
	err := s.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM v_pairwise_train WHERE user_choice IN ('a','b')`,
	).Scan(&n)
	return n, err
}

// InsertSnapshot persists an immutable snapshot record
func (s *Store) InsertSnapshot(ctx context.Context, snap models.Snapshot) error {
	rangeJSON, err := json.Marshal(snap.DataRange)
	if err != nil {
		return err
	}
	_, err = s.db.Pool().Exec(ctx,
		`INSERT INTO snapshots (snapshot_id, data_range_json, row_count, created_at)
		 VALUES ($1, $2, $3, $4)`,
		snap.ID, rangeJSON, snap.RowCount, snap.CreatedAt,
	)
	return err
}

// LatestSnapshot returns the most recent snapshot, or nil if none exists
func (s *Store) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var rangeRaw []byte
	err := s.db.Pool().QueryRow(ctx,
		`SELECT snapshot_id, data_range_json, row_count, created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&snap.ID, &rangeRaw, &snap.RowCount, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.DataRange = parseMetrics(rangeRaw)
	return &snap, nil
}

// TrainRows materializes the eligible pairwise rows frozen by a snapshot:
// decisive verdicts recorded no later than the snapshot's creation time.
// Filtering by the frozen timestamp is what keeps repeated exports of one
// snapshot identical even as new feedback accumulates.
func (s *Store) TrainRows(ctx context.Context, until time.Time) ([]models.TrainRow, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT feedback_id, feedback_at, question_id, candidate_a_id, candidate_b_id,
		        a_provider, a_model, a_len_words, a_has_code, a_step_score, a_has_bullets, a_has_warning,
		        b_provider, b_model, b_len_words, b_has_code, b_step_score, b_has_bullets, b_has_warning,
		        user_choice, served_policy, served_choice_candidate_id,
		        winner_candidate_id, loser_candidate_id
		 FROM v_pairwise_train
		 WHERE user_choice IN ('a','b') AND feedback_at <= $1
		 ORDER BY feedback_at DESC`,
		until,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrainRow
	for rows.Next() {
		var r models.TrainRow
		if err := rows.Scan(
			&r.FeedbackID, &r.FeedbackAt, &r.QuestionID, &r.CandidateAID, &r.CandidateBID,
			&r.AProvider, &r.AModel, &r.ALenWords, &r.AHasCode, &r.AStepScore, &r.AHasBullets, &r.AHasWarning,
			&r.BProvider, &r.BModel, &r.BLenWords, &r.BHasCode, &r.BStepScore, &r.BHasBullets, &r.BHasWarning,
			&r.UserChoice, &r.ServedPolicy, &r.ServedChoiceID,
			&r.WinnerID, &r.LoserID,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates feedback and served-policy counters for the admin console
type Stats struct {
	TotalFeedbacks int `json:"total_feedbacks"`
	TodayFeedbacks int `json:"today_feedbacks"`
	RuleServed     int `json:"rule_served"`
	LTRServed      int `json:"ltr_served"`
}

// GetStats computes the admin stats; "today" is since UTC midnight
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)

	var st Stats
	err := s.db.Pool().QueryRow(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM feedback_pairwise),
		    (SELECT COUNT(*) FROM feedback_pairwise WHERE created_at >= $1),
		    (SELECT COUNT(*) FROM selections WHERE served_policy = 'rule'),
		    (SELECT COUNT(*) FROM selections WHERE served_policy = 'ltr')`,
		todayStart,
	).Scan(&st.TotalFeedbacks, &st.TodayFeedbacks, &st.RuleServed, &st.LTRServed)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func parseMetrics(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return m
}
