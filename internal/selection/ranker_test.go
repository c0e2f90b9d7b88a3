package selection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/artifact"
	"github.com/askpair/api/internal/models"
)

type fakeSource struct {
	latest  string
	entries map[string]*models.ModelRegistryEntry
	err     error
}

func (f *fakeSource) LatestModelVersion(context.Context) (string, error) {
	return f.latest, f.err
}

func (f *fakeSource) ModelByVersion(_ context.Context, version string) (*models.ModelRegistryEntry, error) {
	return f.entries[version], f.err
}

type fakeLoader struct {
	model any
	err   error
	loads int
}

func (f *fakeLoader) Load(string) (any, error) {
	f.loads++
	return f.model, f.err
}

// codeModel strongly prefers the candidate with a code fence
func codeModel() *artifact.LogisticModel {
	return &artifact.LogisticModel{Weights: []float64{0, 5, 0, 0, 0}, Bias: 0}
}

func entry(version string) *models.ModelRegistryEntry {
	return &models.ModelRegistryEntry{
		ModelVersion:   version,
		FeatureVersion: models.FeatureVersion,
		ArtifactPath:   "artifacts/models/" + version + ".model.json",
		Metrics:        map[string]any{},
	}
}

func newTestRanker(src *fakeSource, loader *fakeLoader, pin func(ctx context.Context) string) *Ranker {
	return NewRanker(src, loader, NewCache(), pin, zap.NewNop())
}

func TestChooseNoModelRegistered(t *testing.T) {
	r := newTestRanker(&fakeSource{}, &fakeLoader{}, nil)

	d := r.Choose(context.Background(), []models.Candidate{{}, {}})
	if d.BestIndex != -1 {
		t.Errorf("BestIndex = %d, want -1", d.BestIndex)
	}
	if d.Reason != "no_model" {
		t.Errorf("Reason = %q, want no_model", d.Reason)
	}
}

func TestChoosePicksCodeCandidate(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{"v1": entry("v1")}}
	loader := &fakeLoader{model: codeModel()}
	r := newTestRanker(src, loader, nil)

	candidates := []models.Candidate{
		{AnswerSummary: "plain", LenWords: 1},
		{AnswerSummary: "with code", LenWords: 2, HasCode: true},
		{AnswerSummary: "also plain", LenWords: 2},
	}

	d := r.Choose(context.Background(), candidates)
	if d.BestIndex != 1 {
		t.Errorf("BestIndex = %d, want 1", d.BestIndex)
	}
	if d.ModelVersion != "v1" {
		t.Errorf("ModelVersion = %q, want v1", d.ModelVersion)
	}
	if d.Reason != "" {
		t.Errorf("Reason = %q, want empty", d.Reason)
	}
}

func TestChooseReloadsOnlyOnVersionChange(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{
		"v1": entry("v1"),
		"v2": entry("v2"),
	}}
	loader := &fakeLoader{model: codeModel()}
	r := newTestRanker(src, loader, nil)

	candidates := []models.Candidate{{AnswerSummary: "a"}, {AnswerSummary: "b", HasCode: true}}

	for i := 0; i < 3; i++ {
		r.Choose(context.Background(), candidates)
	}
	if loader.loads != 1 {
		t.Fatalf("loads = %d after repeated same-version calls, want 1", loader.loads)
	}

	src.latest = "v2"
	d := r.Choose(context.Background(), candidates)
	if loader.loads != 2 {
		t.Errorf("loads = %d after version change, want 2", loader.loads)
	}
	if d.ModelVersion != "v2" {
		t.Errorf("ModelVersion = %q, want v2", d.ModelVersion)
	}

	r.Choose(context.Background(), candidates)
	if loader.loads != 2 {
		t.Errorf("loads = %d after settled version, want 2", loader.loads)
	}
}

func TestChoosePinOverridesLatest(t *testing.T) {
	src := &fakeSource{latest: "v2", entries: map[string]*models.ModelRegistryEntry{
		"v1": entry("v1"),
		"v2": entry("v2"),
	}}
	loader := &fakeLoader{model: codeModel()}
	pin := func(context.Context) string { return "v1" }
	r := newTestRanker(src, loader, pin)

	d := r.Choose(context.Background(), []models.Candidate{{AnswerSummary: "a"}, {AnswerSummary: "b"}})
	if d.ModelVersion != "v1" {
		t.Errorf("ModelVersion = %q, want pinned v1", d.ModelVersion)
	}
}

func TestChooseModelNotFoundInRegistry(t *testing.T) {
	src := &fakeSource{latest: "ghost", entries: map[string]*models.ModelRegistryEntry{}}
	r := newTestRanker(src, &fakeLoader{}, nil)

	d := r.Choose(context.Background(), []models.Candidate{{}, {}})
	if d.BestIndex != -1 {
		t.Errorf("BestIndex = %d, want -1", d.BestIndex)
	}
	if d.Reason != "model_not_found_in_db" {
		t.Errorf("Reason = %q, want model_not_found_in_db", d.Reason)
	}
}

func TestChooseArtifactLoadFailure(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{"v1": entry("v1")}}
	loader := &fakeLoader{err: errors.New("model artifact not found: artifacts/models/v1.model.json")}
	r := newTestRanker(src, loader, nil)

	d := r.Choose(context.Background(), []models.Candidate{{}, {}})
	if d.BestIndex != -1 {
		t.Errorf("BestIndex = %d, want -1", d.BestIndex)
	}
	if !strings.HasPrefix(d.Reason, "error: ") {
		t.Errorf("Reason = %q, want error: prefix", d.Reason)
	}
}

func TestChooseTwoCandidatesReducesToOnePair(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{"v1": entry("v1")}}

	a := models.Candidate{AnswerSummary: "plain answer"}
	b := models.Candidate{AnswerSummary: "answer with code", HasCode: true}

	// P(A beats B) < 0.5 under the code-preferring model: B must win
	r := newTestRanker(src, &fakeLoader{model: codeModel()}, nil)
	if d := r.Choose(context.Background(), []models.Candidate{a, b}); d.BestIndex != 1 {
		t.Errorf("BestIndex = %d, want 1 when P(A beats B) < 0.5", d.BestIndex)
	}

	// P(A beats B) == 0.5 exactly (zero model): A wins by lowest index
	flat := &artifact.LogisticModel{Weights: []float64{0, 0, 0, 0, 0}, Bias: 0}
	r = newTestRanker(src, &fakeLoader{model: flat}, nil)
	if d := r.Choose(context.Background(), []models.Candidate{a, b}); d.BestIndex != 0 {
		t.Errorf("BestIndex = %d, want 0 when P(A beats B) == 0.5", d.BestIndex)
	}
}

func TestChooseSingleCandidate(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{"v1": entry("v1")}}
	r := newTestRanker(src, &fakeLoader{model: codeModel()}, nil)

	d := r.Choose(context.Background(), []models.Candidate{{AnswerSummary: "only"}})
	if d.BestIndex != 0 {
		t.Errorf("BestIndex = %d, want 0", d.BestIndex)
	}
}

func TestChooseMembership(t *testing.T) {
	src := &fakeSource{latest: "v1", entries: map[string]*models.ModelRegistryEntry{"v1": entry("v1")}}
	r := newTestRanker(src, &fakeLoader{model: codeModel()}, nil)

	candidates := []models.Candidate{
		{AnswerSummary: "one"},
		{AnswerSummary: "two", HasBullets: true},
		{AnswerSummary: "three", StepScore: 1},
		{AnswerSummary: "four", HasWarning: true},
	}
	d := r.Choose(context.Background(), candidates)
	if d.BestIndex < 0 || d.BestIndex >= len(candidates) {
		t.Errorf("BestIndex = %d out of range [0, %d)", d.BestIndex, len(candidates))
	}
}
