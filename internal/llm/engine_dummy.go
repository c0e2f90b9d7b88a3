package llm

import "fmt"

// DummyEngine is an offline stand-in for a real provider. It answers
// instantly with a canned template so the full pipeline can run without
// credentials. Registered under the real provider's name when that provider
// is not on the real-engines list.
type DummyEngine struct {
	Provider string
	Template string
}

func (e *DummyEngine) ProviderName() string { return e.Provider }

func (e *DummyEngine) Generate(req EngineRequest) EngineResult {
	return EngineResult{
		Provider:      e.Provider,
		Model:         e.Provider + "-dummy",
		AnswerSummary: fmt.Sprintf(e.Template, req.UserPrompt),
		LatencyMs:     1,
	}
}

// NewDummyOpenAI answers with a stepwise template
func NewDummyOpenAI() *DummyEngine {
	return &DummyEngine{
		Provider: "openai",
		Template: "[OpenAI Dummy]\nStep 1: %s\nStep 2: Example explanation.",
	}
}

// NewDummyGemini answers with a bulleted template
func NewDummyGemini() *DummyEngine {
	return &DummyEngine{
		Provider: "gemini",
		Template: "[Gemini Dummy]\nHere is an outline:\n- %s\n- Key point with detail.",
	}
}

// NewDummyOpenRouter answers with a fenced code template
func NewDummyOpenRouter() *DummyEngine {
	return &DummyEngine{
		Provider: "openrouter",
		Template: "[OpenRouter Dummy]\n%s\n```\nexample()\n```",
	}
}
