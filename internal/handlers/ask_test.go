package handlers

import (
	"testing"

	"github.com/askpair/api/internal/llm"
	"github.com/askpair/api/internal/models"
)

func TestNormalizeContext(t *testing.T) {
	tests := []struct {
		name string
		in   AskRequest
		want AskRequest
	}{
		{
			name: "empty fields get defaults",
			in:   AskRequest{Question: "q"},
			want: AskRequest{Question: "q", Role: "dev", Level: "beginner", Goal: "concept", Domain: "general"},
		},
		{
			name: "valid enum values pass through",
			in:   AskRequest{Question: "q", Role: "tester", Level: "advanced", Goal: "interview", Domain: "db"},
			want: AskRequest{Question: "q", Role: "tester", Level: "advanced", Goal: "interview", Domain: "db"},
		},
		{
			name: "unknown values fold to other",
			in:   AskRequest{Question: "q", Role: "developer", Level: "expert", Goal: "learn"},
			want: AskRequest{Question: "q", Role: "other", Level: "beginner", Goal: "other", Domain: "general"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			normalizeContext(&got)
			if got != tt.want {
				t.Errorf("normalizeContext(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildCandidates(t *testing.T) {
	results := []llm.EngineResult{
		{Provider: "openai", Model: "gpt-4o-mini", AnswerSummary: "Step 1: do the thing\n```go\nmain()\n```", LatencyMs: 120},
		{Provider: "fallback", Model: "fallback", Error: "padded_fallback"},
	}

	candidates := buildCandidates(results)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	c := candidates[0]
	if c.ID == (candidates[1].ID) {
		t.Error("candidates share an id")
	}
	if c.Provider != "openai" || c.Model != "gpt-4o-mini" {
		t.Errorf("provenance = %s/%s", c.Provider, c.Model)
	}
	if c.FeatureVersion != models.FeatureVersion {
		t.Errorf("FeatureVersion = %q, want %q", c.FeatureVersion, models.FeatureVersion)
	}
	if !c.HasCode || c.StepScore != 1 {
		t.Errorf("features not extracted: has_code=%v step_score=%d", c.HasCode, c.StepScore)
	}
	if len(c.AnswerHash) != 64 {
		t.Errorf("answer hash length = %d, want 64 hex chars", len(c.AnswerHash))
	}

	// the padded failure still becomes a row, with an empty answer
	pad := candidates[1]
	if pad.AnswerSummary != "" || pad.LenWords != 0 {
		t.Errorf("pad candidate carries content: %+v", pad)
	}
	if pad.Provider != "fallback" {
		t.Errorf("pad provider = %q, want fallback", pad.Provider)
	}
}

func TestHashTextStable(t *testing.T) {
	if hashText("same") != hashText("same") {
		t.Error("hashText not deterministic")
	}
	if hashText("a") == hashText("b") {
		t.Error("hashText collides on distinct input")
	}
}
