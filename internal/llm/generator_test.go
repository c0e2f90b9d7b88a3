package llm

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestGeneratorProducesCandidatesOffline(t *testing.T) {
	g := NewGenerator(GeneratorConfig{
		EnabledProviders: []string{"openai", "gemini"},
		ModelByProvider:  map[string]string{"openai": "gpt-4o-mini", "gemini": "gemini-2.0-flash-lite"},
	}, zap.NewNop())

	results := g.Generate(AskInput{Question: "How do I deploy?", Role: "developer", Level: "beginner"})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Provider != "openai" || results[1].Provider != "gemini" {
		t.Errorf("provider order %s, %s; want config order", results[0].Provider, results[1].Provider)
	}
	for i, r := range results {
		if r.Error != "" {
			t.Errorf("result[%d].Error = %q, want dummy success", i, r.Error)
		}
		if strings.TrimSpace(r.AnswerSummary) == "" {
			t.Errorf("result[%d] has blank answer", i)
		}
		if !strings.Contains(r.AnswerSummary, "How do I deploy?") {
			t.Errorf("result[%d] answer does not echo the question", i)
		}
		if !strings.HasSuffix(r.Model, "-dummy") {
			t.Errorf("result[%d].Model = %q, want dummy provenance", i, r.Model)
		}
	}
}

func TestGeneratorPadsBelowMinimum(t *testing.T) {
	g := NewGenerator(GeneratorConfig{
		EnabledProviders: []string{"openai"},
	}, zap.NewNop())

	results := g.Generate(AskInput{Question: "q"})
	if len(results) != MinCandidates {
		t.Fatalf("got %d results, want %d", len(results), MinCandidates)
	}
	if results[1].Error != "padded_fallback" {
		t.Errorf("pad Error = %q, want padded_fallback", results[1].Error)
	}
}

func TestGeneratorAliasedProvider(t *testing.T) {
	g := NewGenerator(GeneratorConfig{
		EnabledProviders: []string{"gpt"},
		ModelByProvider:  map[string]string{"gpt": "gpt-4o-mini"},
		Aliases:          map[string]string{"gpt": "openai"},
	}, zap.NewNop())

	results := g.Generate(AskInput{Question: "q"})
	if results[0].Error != "" {
		t.Errorf("aliased provider errored: %q", results[0].Error)
	}
	if strings.TrimSpace(results[0].AnswerSummary) == "" {
		t.Error("aliased provider produced a blank answer")
	}
}

func TestGeneratorUnknownProviderSynthesized(t *testing.T) {
	g := NewGenerator(GeneratorConfig{
		EnabledProviders: []string{"openai", "claude"},
	}, zap.NewNop())

	results := g.Generate(AskInput{Question: "q"})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].Error != "engine_not_registered:claude" {
		t.Errorf("Error = %q, want engine_not_registered:claude", results[1].Error)
	}
}
