package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/artifact"
)

// trainRow is the minimal column set the loader requires
type trainRow struct {
	aHasCode bool
	bHasCode bool
	aWins    bool
}

func writeTrainset(t *testing.T, path string, rows []trainRow) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create trainset: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"candidate_a_id", "winner_candidate_id",
		"a_len_words", "a_has_code", "a_step_score", "a_has_bullets", "a_has_warning",
		"b_len_words", "b_has_code", "b_step_score", "b_has_bullets", "b_has_warning",
	}
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, r := range rows {
		aID := fmt.Sprintf("cand-a-%d", i)
		winner := aID
		if !r.aWins {
			winner = fmt.Sprintf("cand-b-%d", i)
		}
		rec := []string{
			aID, winner,
			"20", strconv.FormatBool(r.aHasCode), "0", "false", "false",
			"20", strconv.FormatBool(r.bHasCode), "0", "false", "false",
		}
		if err := w.Write(rec); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

// separable builds rows where the side with the code fence always wins
func separable(nAWins, nBWins int) []trainRow {
	var rows []trainRow
	for i := 0; i < nAWins; i++ {
		rows = append(rows, trainRow{aHasCode: true, bHasCode: false, aWins: true})
	}
	for i := 0; i < nBWins; i++ {
		rows = append(rows, trainRow{aHasCode: false, bHasCode: true, aWins: false})
	}
	return rows
}

func TestTrainSeparableTrainset(t *testing.T) {
	dir := t.TempDir()
	trainset := filepath.Join(dir, "snap-0001.csv")
	writeTrainset(t, trainset, separable(7, 3))

	meta, err := Train(TrainOptions{
		TrainsetPath: trainset,
		ValidRatio:   0.25,
		ArtifactsDir: dir,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !strings.HasPrefix(meta.ModelVersion, "baseline_lr_") {
		t.Errorf("ModelVersion = %q, want baseline_lr_ prefix", meta.ModelVersion)
	}
	if meta.SnapshotID != "snap-0001" {
		t.Errorf("SnapshotID = %q, want trainset file stem", meta.SnapshotID)
	}
	if meta.Metrics.NRowsTotal != 10 {
		t.Errorf("NRowsTotal = %d, want 10", meta.Metrics.NRowsTotal)
	}
	if meta.Metrics.NTrain+meta.Metrics.NValid != 10 {
		t.Errorf("train+valid = %d, want 10", meta.Metrics.NTrain+meta.Metrics.NValid)
	}
	if meta.Metrics.ClassCountsTotal["1"] != 7 || meta.Metrics.ClassCountsTotal["0"] != 3 {
		t.Errorf("class counts = %v, want 7/3", meta.Metrics.ClassCountsTotal)
	}
	if meta.Metrics.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v on a separable set, want 1.0", meta.Metrics.Accuracy)
	}
	if meta.Metrics.ROCAUC == nil {
		t.Fatal("ROCAUC nil with both classes present")
	}
	if *meta.Metrics.ROCAUC != 1.0 {
		t.Errorf("ROCAUC = %v on a separable set, want 1.0", *meta.Metrics.ROCAUC)
	}

	loader := &artifact.Loader{}
	model, err := loader.Load(meta.ArtifactPath)
	if err != nil {
		t.Fatalf("artifact not loadable: %v", err)
	}
	lr, ok := model.(*artifact.LogisticModel)
	if !ok {
		t.Fatalf("artifact is %T, want *artifact.LogisticModel", model)
	}
	// has_code_diff is feature index 1; a positive weight means the learned
	// model prefers the candidate with a code fence
	if lr.Weights[1] <= 0 {
		t.Errorf("has_code_diff weight = %v, want positive", lr.Weights[1])
	}
}

func TestTrainSingleClassFallsBackToMajority(t *testing.T) {
	dir := t.TempDir()
	trainset := filepath.Join(dir, "snap-mono.csv")
	writeTrainset(t, trainset, separable(8, 0))

	meta, err := Train(TrainOptions{
		TrainsetPath: trainset,
		ValidRatio:   0.25,
		ArtifactsDir: dir,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if meta.Metrics.ROCAUC != nil {
		t.Errorf("ROCAUC = %v for a majority model, want omitted", *meta.Metrics.ROCAUC)
	}
	if meta.Metrics.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0 when every label matches the majority", meta.Metrics.Accuracy)
	}

	loader := &artifact.Loader{}
	model, err := loader.Load(meta.ArtifactPath)
	if err != nil {
		t.Fatalf("artifact not loadable: %v", err)
	}
	maj, ok := model.(*artifact.MajorityModel)
	if !ok {
		t.Fatalf("artifact is %T, want *artifact.MajorityModel", model)
	}
	if maj.Label != 1 {
		t.Errorf("majority label = %d, want 1", maj.Label)
	}
}

func TestTrainValidRatioClamped(t *testing.T) {
	dir := t.TempDir()
	trainset := filepath.Join(dir, "snap-clamp.csv")
	writeTrainset(t, trainset, separable(6, 6))

	meta, err := Train(TrainOptions{
		TrainsetPath: trainset,
		ValidRatio:   0.95, // clamps to 0.5
		ArtifactsDir: dir,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if meta.Metrics.NValid != 6 {
		t.Errorf("NValid = %d with clamped ratio 0.5 over 12 rows, want 6", meta.Metrics.NValid)
	}
}

func TestTrainTooFewRows(t *testing.T) {
	dir := t.TempDir()
	trainset := filepath.Join(dir, "snap-tiny.csv")
	writeTrainset(t, trainset, separable(1, 0))

	if _, err := Train(TrainOptions{
		TrainsetPath: trainset,
		ValidRatio:   0.25,
		ArtifactsDir: dir,
	}, zap.NewNop()); err == nil {
		t.Error("expected error for a single-row trainset")
	}
}

func TestTrainMissingTrainset(t *testing.T) {
	if _, err := Train(TrainOptions{
		TrainsetPath: filepath.Join(t.TempDir(), "nope.csv"),
		ValidRatio:   0.25,
		ArtifactsDir: t.TempDir(),
	}, zap.NewNop()); err == nil {
		t.Error("expected error for missing trainset")
	}
}

func TestSplitReproducible(t *testing.T) {
	y := []int{1, 1, 1, 1, 0, 0, 0, 1, 0, 1}

	t1, v1 := split(append([]int(nil), y...), 0.3)
	t2, v2 := split(append([]int(nil), y...), 0.3)

	if len(t1) != len(t2) || len(v1) != len(v2) {
		t.Fatalf("split sizes differ between runs")
	}
	for i := range t1 {
		if t1[i] != t2[i] {
			t.Fatalf("train split differs at %d: %d vs %d", i, t1[i], t2[i])
		}
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("valid split differs at %d: %d vs %d", i, v1[i], v2[i])
		}
	}
}

func TestSplitStratified(t *testing.T) {
	y := []int{1, 1, 1, 1, 1, 1, 0, 0, 0, 0}

	_, valid := split(y, 0.5)
	var pos, neg int
	for _, i := range valid {
		if y[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		t.Errorf("validation split lost a class: pos=%d neg=%d", pos, neg)
	}
}
