package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/artifact"
	"github.com/askpair/api/internal/features"
	"github.com/askpair/api/internal/models"
)

// splitSeed fixes the train/validation shuffle for reproducible runs
const splitSeed = 42

// TrainOptions configures one training run
type TrainOptions struct {
	// TrainsetPath points at an explicit exported CSV; when empty the newest
	// CSV under <ArtifactsDir>/trainsets is used.
	TrainsetPath string
	// ValidRatio is the holdout fraction, clamped to [0.1, 0.5]
	ValidRatio   float64
	ArtifactsDir string
}

// Metrics is the evaluation record emitted with every trained model
type Metrics struct {
	Accuracy         float64        `json:"accuracy"`
	ROCAUC           *float64       `json:"roc_auc"`
	NRowsTotal       int            `json:"n_rows_total"`
	NTrain           int            `json:"n_train"`
	NValid           int            `json:"n_valid"`
	ClassCountsTotal map[string]int `json:"class_counts_total"`
	FeatureVersion   string         `json:"feature_version"`
	Features         []string       `json:"features"`
}

// TrainMeta is the metadata sidecar written next to every artifact
type TrainMeta struct {
	ModelVersion string  `json:"model_version"`
	SnapshotID   string  `json:"snapshot_id"`
	TrainedAt    string  `json:"trained_at"`
	TrainsetPath string  `json:"trainset_path"`
	ArtifactPath string  `json:"artifact_path"`
	Metrics      Metrics `json:"metrics"`
}

// Train fits a binary pairwise-preference model on the exported trainset.
// Diff features are A − B and the label is 1 when the recorded winner is
// side A. A single-class training split yields a majority-class predictor
// instead of an error; AUC is only computed when the validation split holds
// both classes and the model exposes a probability output.
func Train(opts TrainOptions, logger *zap.Logger) (*TrainMeta, error) {
	trainsetPath, err := pickTrainset(opts)
	if err != nil {
		return nil, err
	}
	snapshotID := strings.TrimSuffix(filepath.Base(trainsetPath), ".csv")

	X, y, err := loadTrainset(trainsetPath)
	if err != nil {
		return nil, err
	}
	if len(y) < 2 {
		return nil, fmt.Errorf("not enough rows to train: have %d, need at least 2", len(y))
	}

	classCounts := map[string]int{}
	for _, label := range y {
		classCounts[strconv.Itoa(label)]++
	}
	logger.Info("trainset loaded",
		zap.String("path", trainsetPath),
		zap.Int("rows", len(y)),
		zap.Any("class_counts", classCounts),
	)

	ratio := clamp(opts.ValidRatio, 0.1, 0.5)
	trainIdx, validIdx := split(y, ratio)

	model := fit(take(X, trainIdx), take1(y, trainIdx))

	metrics := Metrics{
		NRowsTotal:       len(y),
		NTrain:           len(trainIdx),
		NValid:           len(validIdx),
		ClassCountsTotal: classCounts,
		FeatureVersion:   models.FeatureVersion,
		Features:         features.DiffNames,
	}
	metrics.Accuracy = accuracy(model, take(X, validIdx), take1(y, validIdx))
	if auc, ok := rocAUC(model, take(X, validIdx), take1(y, validIdx)); ok {
		metrics.ROCAUC = &auc
	}

	now := time.Now().UTC()
	version := "baseline_lr_" + now.Format("20060102_150405")
	modelsDir := filepath.Join(opts.ArtifactsDir, "models")
	artifactPath := filepath.Join(modelsDir, version+".model.json")
	metaPath := filepath.Join(modelsDir, version+".meta.json")

	if err := artifact.Save(artifactPath, model, models.FeatureVersion, features.DiffNames); err != nil {
		return nil, err
	}

	meta := &TrainMeta{
		ModelVersion: version,
		SnapshotID:   snapshotID,
		TrainedAt:    now.Format(time.RFC3339),
		TrainsetPath: filepath.ToSlash(trainsetPath),
		ArtifactPath: filepath.ToSlash(artifactPath),
		Metrics:      metrics,
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(metaPath, metaJSON, 0o644); err != nil {
		return nil, err
	}

	logger.Info("training complete",
		zap.String("model_version", version),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Any("roc_auc", metrics.ROCAUC),
		zap.String("artifact", artifactPath),
		zap.String("meta", metaPath),
	)
	return meta, nil
}

func pickTrainset(opts TrainOptions) (string, error) {
	if opts.TrainsetPath != "" {
		if _, err := os.Stat(opts.TrainsetPath); err != nil {
			return "", fmt.Errorf("trainset not found: %s", opts.TrainsetPath)
		}
		return opts.TrainsetPath, nil
	}

	dir := filepath.Join(opts.ArtifactsDir, "trainsets")
	entries, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil || len(entries) == 0 {
		return "", fmt.Errorf("no trainset csv found under %s", dir)
	}
	sort.Slice(entries, func(i, j int) bool {
		return mtime(entries[i]).After(mtime(entries[j]))
	})
	return entries[0], nil
}

func mtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// loadTrainset reads the exported CSV and builds diff features (A − B) plus
// winner labels, using header names so column order stays non-load-bearing
func loadTrainset(path string) ([][]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("empty trainset %s", path)
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}
	required := []string{
		"a_len_words", "a_has_code", "a_step_score", "a_has_bullets", "a_has_warning",
		"b_len_words", "b_has_code", "b_step_score", "b_has_bullets", "b_has_warning",
		"candidate_a_id", "winner_candidate_id",
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("trainset missing required column %q", name)
		}
	}

	var X [][]float64
	var y []int
	for _, rec := range records[1:] {
		if strings.TrimSpace(rec[col["winner_candidate_id"]]) == "" {
			continue
		}
		a := features.Record{
			LenWords:   atoiLoose(rec[col["a_len_words"]]),
			HasCode:    atobLoose(rec[col["a_has_code"]]),
			StepScore:  atoiLoose(rec[col["a_step_score"]]),
			HasBullets: atobLoose(rec[col["a_has_bullets"]]),
			HasWarning: atobLoose(rec[col["a_has_warning"]]),
		}
		b := features.Record{
			LenWords:   atoiLoose(rec[col["b_len_words"]]),
			HasCode:    atobLoose(rec[col["b_has_code"]]),
			StepScore:  atoiLoose(rec[col["b_step_score"]]),
			HasBullets: atobLoose(rec[col["b_has_bullets"]]),
			HasWarning: atobLoose(rec[col["b_has_warning"]]),
		}
		X = append(X, features.Diff(a, b))

		label := 0
		if rec[col["winner_candidate_id"]] == rec[col["candidate_a_id"]] {
			label = 1
		}
		y = append(y, label)
	}
	return X, y, nil
}

// atoiLoose accepts plain integers and float-formatted integers
func atoiLoose(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// atobLoose accepts true/false, t/f and 0/1 spellings
func atobLoose(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1":
		return true
	}
	return false
}

// split partitions row indices into train and validation sets, stratified by
// label when both classes are present. The shuffle is seeded so repeated runs
// over the same trainset split identically.
func split(y []int, validRatio float64) (trainIdx, validIdx []int) {
	rng := rand.New(rand.NewSource(splitSeed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nValid := int(math.Round(float64(len(idx)) * validRatio))
		if nValid < 1 && len(idx) > 1 {
			nValid = 1
		}
		validIdx = append(validIdx, idx[:nValid]...)
		trainIdx = append(trainIdx, idx[nValid:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(validIdx)
	return trainIdx, validIdx
}

// fit trains a logistic model with balanced class weights, or a majority
// predictor when the training split is single-class
func fit(X [][]float64, y []int) any {
	counts := map[int]int{}
	for _, label := range y {
		counts[label]++
	}
	if len(counts) < 2 {
		majority := 0
		if counts[1] > counts[0] {
			majority = 1
		}
		return &artifact.MajorityModel{Label: majority}
	}

	return fitLogistic(X, y, counts)
}

// fitLogistic runs gradient descent on standardized features and folds the
// standardization back into the raw-diff weights, so the artifact scores the
// same diff vectors the serving path computes.
func fitLogistic(X [][]float64, y []int, counts map[int]int) *artifact.LogisticModel {
	nFeat := len(X[0])
	n := len(X)

	mean := make([]float64, nFeat)
	std := make([]float64, nFeat)
	for j := 0; j < nFeat; j++ {
		for i := 0; i < n; i++ {
			mean[j] += X[i][j]
		}
		mean[j] /= float64(n)
		for i := 0; i < n; i++ {
			d := X[i][j] - mean[j]
			std[j] += d * d
		}
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	// balanced class weights: n / (2 * count_c)
	classWeight := map[int]float64{
		0: float64(n) / (2 * float64(counts[0])),
		1: float64(n) / (2 * float64(counts[1])),
	}

	const (
		learningRate = 0.1
		epochs       = 1000
		l2           = 1e-4
	)

	w := make([]float64, nFeat)
	b := 0.0
	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, nFeat)
		gradB := 0.0
		for i := 0; i < n; i++ {
			z := b
			for j := 0; j < nFeat; j++ {
				z += w[j] * (X[i][j] - mean[j]) / std[j]
			}
			p := 1.0 / (1.0 + math.Exp(-z))
			err := (p - float64(y[i])) * classWeight[y[i]]
			for j := 0; j < nFeat; j++ {
				gradW[j] += err * (X[i][j] - mean[j]) / std[j]
			}
			gradB += err
		}
		for j := 0; j < nFeat; j++ {
			w[j] = w[j] - learningRate*(gradW[j]/float64(n)+l2*w[j])
		}
		b -= learningRate * gradB / float64(n)
	}

	// fold standardization into raw-space weights
	raw := make([]float64, nFeat)
	bias := b
	for j := 0; j < nFeat; j++ {
		raw[j] = w[j] / std[j]
		bias -= w[j] * mean[j] / std[j]
	}
	return &artifact.LogisticModel{Weights: raw, Bias: bias}
}

func accuracy(model any, X [][]float64, y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	correct := 0
	for i := range y {
		p, err := artifact.WinProbability(model, X[i])
		if err != nil {
			continue
		}
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// rocAUC computes the rank-based AUC. Reported only when the validation set
// holds both classes and the model offers a native probability output.
func rocAUC(model any, X [][]float64, y []int) (float64, bool) {
	if _, ok := model.(artifact.ProbabilityScorer); !ok {
		return 0, false
	}

	var pos, neg []float64
	for i := range y {
		p, err := artifact.WinProbability(model, X[i])
		if err != nil {
			return 0, false
		}
		if y[i] == 1 {
			pos = append(pos, p)
		} else {
			neg = append(neg, p)
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return 0, false
	}

	wins := 0.0
	for _, pp := range pos {
		for _, pn := range neg {
			switch {
			case pp > pn:
				wins += 1
			case pp == pn:
				wins += 0.5
			}
		}
	}
	return wins / float64(len(pos)*len(neg)), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func take(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, 0, len(idx))
	for _, i := range idx {
		out = append(out, X[i])
	}
	return out
}

func take1(y []int, idx []int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		out = append(out, y[i])
	}
	return out
}
