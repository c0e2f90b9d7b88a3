package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/models"
)

// ExportStore is the persistence the export job needs
type ExportStore interface {
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	TrainRows(ctx context.Context, until time.Time) ([]models.TrainRow, error)
}

// ExportResult describes the written trainset file pair
type ExportResult struct {
	SnapshotID string
	Rows       int
	CSVPath    string
	JSONLPath  string
}

var csvHeader = []string{
	"feedback_id", "feedback_at", "question_id", "candidate_a_id", "candidate_b_id",
	"a_provider", "a_model", "a_len_words", "a_has_code", "a_step_score", "a_has_bullets", "a_has_warning",
	"b_provider", "b_model", "b_len_words", "b_has_code", "b_step_score", "b_has_bullets", "b_has_warning",
	"user_choice", "served_policy", "served_choice_candidate_id",
	"winner_candidate_id", "loser_candidate_id",
}

// ExportTrainset materializes the most recent snapshot's rows into a CSV and
// a JSONL file named by the snapshot identifier, under <artifactsDir>/trainsets.
// Rows are bounded by the snapshot's creation time, so re-exporting the same
// snapshot yields the same rows regardless of feedback inserted since.
func ExportTrainset(ctx context.Context, st ExportStore, artifactsDir string, logger *zap.Logger) (*ExportResult, error) {
	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no snapshot exists; run the snapshot job first")
	}

	rows, err := st.TrainRows(ctx, snap.CreatedAt)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(artifactsDir, "trainsets")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	res := &ExportResult{
		SnapshotID: snap.ID.String(),
		Rows:       len(rows),
		CSVPath:    filepath.Join(outDir, snap.ID.String()+".csv"),
		JSONLPath:  filepath.Join(outDir, snap.ID.String()+".jsonl"),
	}

	if err := writeCSV(res.CSVPath, rows); err != nil {
		return nil, err
	}
	if err := writeJSONL(res.JSONLPath, rows); err != nil {
		return nil, err
	}

	logger.Info("trainset exported",
		zap.String("snapshot_id", res.SnapshotID),
		zap.Int("rows", res.Rows),
		zap.String("csv", res.CSVPath),
		zap.String("jsonl", res.JSONLPath),
	)
	return res, nil
}

func writeCSV(path string, rows []models.TrainRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.FeedbackID.String(),
			r.FeedbackAt.UTC().Format(time.RFC3339Nano),
			r.QuestionID.String(),
			r.CandidateAID.String(),
			r.CandidateBID.String(),
			r.AProvider, r.AModel,
			strconv.Itoa(r.ALenWords), strconv.FormatBool(r.AHasCode), strconv.Itoa(r.AStepScore),
			strconv.FormatBool(r.AHasBullets), strconv.FormatBool(r.AHasWarning),
			r.BProvider, r.BModel,
			strconv.Itoa(r.BLenWords), strconv.FormatBool(r.BHasCode), strconv.Itoa(r.BStepScore),
			strconv.FormatBool(r.BHasBullets), strconv.FormatBool(r.BHasWarning),
			string(r.UserChoice), string(r.ServedPolicy),
			r.ServedChoiceID.String(),
			r.WinnerID.String(), r.LoserID.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSONL(path string, rows []models.TrainRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
