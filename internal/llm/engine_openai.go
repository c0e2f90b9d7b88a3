package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAIEngine calls the OpenAI chat completions API.
// Missing credentials surface as a result-level error, never a panic or a
// failed boot.
type OpenAIEngine struct{}

func (e *OpenAIEngine) ProviderName() string { return "openai" }

func (e *OpenAIEngine) Generate(req EngineRequest) EngineResult {
	t0 := time.Now()

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return EngineResult{
			Provider:  e.ProviderName(),
			Model:     req.Model,
			LatencyMs: int(time.Since(t0).Milliseconds()),
			Error:     "missing_env:OPENAI_API_KEY",
		}
	}

	body := chatCompletionsBody(req)
	text, tokensIn, tokensOut, err := postChatCompletions(openAIChatURL, apiKey, body, req.TimeoutS)
	if err != nil {
		return EngineResult{
			Provider:  e.ProviderName(),
			Model:     req.Model,
			LatencyMs: int(time.Since(t0).Milliseconds()),
			Error:     "openai_call_error:" + err.Error(),
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

// chatCompletionsBody builds the OpenAI-compatible request payload shared by
// the openai and openrouter engines
func chatCompletionsBody(req EngineRequest) map[string]any {
	temperature := 0.2
	maxTokens := 512
	if req.Params != nil {
		if v, ok := req.Params["temperature"].(float64); ok {
			temperature = v
		}
		if v, ok := req.Params["max_tokens"].(int); ok {
			maxTokens = v
		}
	}

	return map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
}

// postChatCompletions POSTs an OpenAI-compatible payload and extracts the
// first choice plus best-effort token usage
func postChatCompletions(url, apiKey string, body map[string]any, timeoutS float64) (string, *int, *int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: timeoutDuration(timeoutS)}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, nil, err
	}
	if len(parsed.Choices) == 0 {
		return "", nil, nil, fmt.Errorf("empty choices")
	}

	tokensIn := parsed.Usage.PromptTokens
	tokensOut := parsed.Usage.CompletionTokens
	return parsed.Choices[0].Message.Content, &tokensIn, &tokensOut, nil
}

func timeoutDuration(timeoutS float64) time.Duration {
	if timeoutS <= 0 {
		timeoutS = 20
	}
	return time.Duration(timeoutS * float64(time.Second))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
