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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiEngine calls the Google Generative Language API
type GeminiEngine struct{}

func (e *GeminiEngine) ProviderName() string { return "gemini" }

func (e *GeminiEngine) Generate(req EngineRequest) EngineResult {
	t0 := time.Now()

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return EngineResult{
			Provider:  e.ProviderName(),
			Model:     req.Model,
			LatencyMs: int(time.Since(t0).Milliseconds()),
			Error:     "missing_env:GEMINI_API_KEY",
		}
	}

	body := map[string]any{
		"system_instruction": map[string]any{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		},
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": req.UserPrompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": 512,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return e.fail(req, t0, err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, req.Model, apiKey)
	client := &http.Client{Timeout: timeoutDuration(req.TimeoutS)}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return e.fail(req, t0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return e.fail(req, t0, err)
	}
	if resp.StatusCode != http.StatusOK {
		return e.fail(req, t0, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return e.fail(req, t0, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return e.fail(req, t0, fmt.Errorf("empty candidates"))
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	tokensIn := parsed.UsageMetadata.PromptTokenCount
	tokensOut := parsed.UsageMetadata.CandidatesTokenCount

	return EngineResult{
		Provider:      e.ProviderName(),
		Model:         req.Model,
		AnswerSummary: strings.TrimSpace(sb.String()),
		LatencyMs:     int(time.Since(t0).Milliseconds()),
		TokensIn:      &tokensIn,
		TokensOut:     &tokensOut,
	}
}

func (e *GeminiEngine) fail(req EngineRequest, t0 time.Time, err error) EngineResult {
	return EngineResult{
		Provider:  e.ProviderName(),
		Model:     req.Model,
		LatencyMs: int(time.Since(t0).Milliseconds()),
		Error:     "gemini_call_error:" + err.Error(),
	}
}
