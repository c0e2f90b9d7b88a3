// Package artifact defines trained model artifacts: how they score pairwise
// feature diffs and how they are persisted on disk.
package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Model kinds stored in the artifact file
const (
	KindLogReg   = "logreg"
	KindMajority = "majority"
)

// ProbabilityScorer yields a native P(A beats B) for a pairwise diff vector
type ProbabilityScorer interface {
	WinProbability(x []float64) float64
}

// MarginScorer yields a raw decision score; positive favors A
type MarginScorer interface {
	DecisionScore(x []float64) float64
}

// LabelScorer yields a hard 0/1 label (1 = A wins)
type LabelScorer interface {
	PredictLabel(x []float64) int
}

// WinProbability scores a pairwise diff through whatever capability the model
// offers, as an ordered probe: native probability, then a logistic squash of
// the decision score, then a hard label as 0.0/1.0.
func WinProbability(model any, x []float64) (float64, error) {
	switch m := model.(type) {
	case ProbabilityScorer:
		return m.WinProbability(x), nil
	case MarginScorer:
		return sigmoid(m.DecisionScore(x)), nil
	case LabelScorer:
		if m.PredictLabel(x) == 1 {
			return 1.0, nil
		}
		return 0.0, nil
	}
	return 0, fmt.Errorf("model %T supports none of probability/margin/label scoring", model)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// LogisticModel is a binary pairwise-preference classifier over diff features
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (m *LogisticModel) DecisionScore(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i < len(x) {
			z += w * x[i]
		}
	}
	return z
}

func (m *LogisticModel) WinProbability(x []float64) float64 {
	return sigmoid(m.DecisionScore(x))
}

func (m *LogisticModel) PredictLabel(x []float64) int {
	if m.WinProbability(x) >= 0.5 {
		return 1
	}
	return 0
}

// MajorityModel always predicts the majority class seen at training time.
// Substituted when the training split contains a single class; it deliberately
// exposes no probability output, so AUC is omitted downstream.
type MajorityModel struct {
	Label int `json:"label"`
}

func (m *MajorityModel) PredictLabel(_ []float64) int {
	return m.Label
}

// File is the on-disk artifact format
type File struct {
	Kind           string    `json:"kind"`
	FeatureVersion string    `json:"feature_version"`
	Features       []string  `json:"features"`
	Weights        []float64 `json:"weights,omitempty"`
	Bias           float64   `json:"bias,omitempty"`
	Label          int       `json:"label,omitempty"`
}

// Save writes the artifact file for the given model
func Save(path string, model any, featureVersion string, featureNames []string) error {
	f := File{FeatureVersion: featureVersion, Features: featureNames}
	switch m := model.(type) {
	case *LogisticModel:
		f.Kind = KindLogReg
		f.Weights = m.Weights
		f.Bias = m.Bias
	case *MajorityModel:
		f.Kind = KindMajority
		f.Label = m.Label
	default:
		return fmt.Errorf("unsupported model type %T", model)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Loader resolves and loads artifact files. Relative artifact paths are
// resolved against Root (the project root by convention).
type Loader struct {
	Root string
}

// Load reads a model artifact from disk. A missing file is fatal for the
// ranking attempt that requested it, not for the process.
func (l *Loader) Load(path string) (any, error) {
	p := path
	if !filepath.IsAbs(p) && l.Root != "" {
		p = filepath.Join(l.Root, p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("model artifact not found: %s", p)
		}
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", p, err)
	}

	switch f.Kind {
	case KindLogReg:
		return &LogisticModel{Weights: f.Weights, Bias: f.Bias}, nil
	case KindMajority:
		return &MajorityModel{Label: f.Label}, nil
	}
	return nil, fmt.Errorf("unknown model kind %q in %s", f.Kind, p)
}
