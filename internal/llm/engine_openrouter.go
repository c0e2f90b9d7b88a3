package llm

import (
	"os"
	"strings"
	"time"
)

const openRouterChatURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterEngine calls OpenRouter's OpenAI-compatible chat completions API
type OpenRouterEngine struct{}

func (e *OpenRouterEngine) ProviderName() string { return "openrouter" }

func (e *OpenRouterEngine) Generate(req EngineRequest) EngineResult {
	t0 := time.Now()

	apiKey := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	if apiKey == "" {
		return EngineResult{
			Provider:  e.ProviderName(),
			Model:     req.Model,
			LatencyMs: int(time.Since(t0).Milliseconds()),
			Error:     "missing_env:OPENROUTER_API_KEY",
		}
	}

	body := chatCompletionsBody(req)
	text, tokensIn, tokensOut, err := postChatCompletions(openRouterChatURL, apiKey, body, req.TimeoutS)
	if err != nil {
		return EngineResult{
			Provider:  e.ProviderName(),
			Model:     req.Model,
			LatencyMs: int(time.Since(t0).Milliseconds()),
			Error:     "openrouter_call_error:" + err.Error(),
		}
	}

	return EngineResult{
		Provider:      e.ProviderName(),
		Model:         req.Model,
		AnswerSummary: strings.TrimSpace(text),
		LatencyMs:     int(time.Since(t0).Milliseconds()),
		TokensIn:      tokensIn,
		TokensOut:     tokensOut,
	}
}
