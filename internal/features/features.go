// Package features implements the fv1 feature schema for answer text.
//
// Extraction must be byte-for-byte identical whether the text comes from a
// live engine or from historical rows assembled into a training set; any
// change to these detectors requires bumping models.FeatureVersion.
package features

import "strings"

// Record is the fixed fv1 feature schema derived from answer text
type Record struct {
	LenWords   int
	HasCode    bool
	StepScore  int
	HasBullets bool
	HasWarning bool
}

// Extract computes the fv1 feature record for the given answer text.
// Pure and deterministic: Extract(t) == Extract(t) for any t.
func Extract(text string) Record {
	return Record{
		LenWords:   len(strings.Fields(text)),
		HasCode:    hasCode(text),
		StepScore:  stepScore(text),
		HasBullets: hasBullets(text),
		HasWarning: hasWarning(text),
	}
}

func hasCode(text string) bool {
	return strings.Contains(text, "```")
}

func hasBullets(text string) bool {
	return strings.Contains(text, "\n-") ||
		strings.Contains(text, "\n*") ||
		strings.Contains(text, "\n•")
}

func hasWarning(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "warning") || strings.Contains(t, "주의")
}

func stepScore(text string) int {
	if strings.Contains(text, "Step") || strings.Contains(text, "단계") {
		return 1
	}
	return 0
}

// Vector returns the record as a vector in training column order:
// [len_words, has_code, step_score, has_bullets, has_warning]
func (r Record) Vector() []float64 {
	return []float64{
		float64(r.LenWords),
		b2f(r.HasCode),
		float64(r.StepScore),
		b2f(r.HasBullets),
		b2f(r.HasWarning),
	}
}

// Diff returns the elementwise pairwise diff a - b. Positive values favor a;
// the learned model is trained on exactly this sign convention.
func Diff(a, b Record) []float64 {
	av, bv := a.Vector(), b.Vector()
	out := make([]float64, len(av))
	for i := range av {
		out[i] = av[i] - bv[i]
	}
	return out
}

// DiffNames lists the diff feature columns in model order
var DiffNames = []string{
	"len_words_diff",
	"has_code_diff",
	"step_score_diff",
	"has_bullets_diff",
	"has_warning_diff",
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
