package llm

// EngineRequest describes one generation call to one provider.
// Immutable once built; one per (candidate, provider) pair.
type EngineRequest struct {
	// request metadata
	RequestID   string
	Role        string
	Level       string
	Goal        string
	Stack       string
	Constraints string
	Domain      string

	// engine targeting
	Provider string
	Model    string

	// runtime config
	Params   map[string]any
	TimeoutS float64

	// prompts built by the prompt builder before dispatch
	SystemPrompt string
	UserPrompt   string
}

// EngineResult is the outcome of one generation call. Error and empty answer
// are distinct: Error set means the adapter failed, empty answer with no error
// is a legitimately empty answer.
type EngineResult struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	AnswerSummary string `json:"answer_summary"`
	LatencyMs     int    `json:"latency_ms"`
	TokensIn      *int   `json:"tokens_in,omitempty"`
	TokensOut     *int   `json:"tokens_out,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Engine is a provider adapter. Generate must never return a Go error: any
// internal failure (missing credential, transport error) is reported through
// EngineResult.Error so the orchestrator can guarantee full-size output.
type Engine interface {
	ProviderName() string
	Generate(req EngineRequest) EngineResult
}
