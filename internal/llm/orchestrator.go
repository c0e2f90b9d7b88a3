package llm

import (
	"strings"
	"time"
)

// MinCandidates is the floor the selection strategies require: pairwise
// comparison needs at least two candidates.
const MinCandidates = 2

// RunSequential executes engines for each request, one at a time, in request
// order. Each request completes before the next starts so worst-case latency
// stays predictable and provider rate limits stay simple. An unregistered
// provider yields a synthesized error result instead of failing the batch.
func RunSequential(registry *Registry, requests []EngineRequest) []EngineResult {
	results := make([]EngineResult, 0, len(requests))

	for _, req := range requests {
		engine := registry.Get(req.Provider)
		if engine == nil {
			results = append(results, EngineResult{
				Provider: req.Provider,
				Model:    req.Model,
				Error:    "engine_not_registered:" + req.Provider,
			})
			continue
		}

		t0 := time.Now()
		res := engine.Generate(req)
		// engines own their latency; fill wall-clock elapsed as best effort
		if res.LatencyMs <= 0 {
			res.LatencyMs = int(time.Since(t0).Milliseconds())
		}
		results = append(results, res)
	}

	return results
}

// AnySuccess reports whether at least one result carries a non-blank answer
// and no error.
func AnySuccess(results []EngineResult) bool {
	for _, r := range results {
		if r.Error == "" && strings.TrimSpace(r.AnswerSummary) != "" {
			return true
		}
	}
	return false
}

// Pad appends explicit fallback sentinels until the result list reaches n.
// The sentinel is error-tagged so downstream code can tell "adapter ran and
// failed" from "adapter never ran".
func Pad(results []EngineResult, n int) []EngineResult {
	for len(results) < n {
		results = append(results, EngineResult{
			Provider: "fallback",
			Model:    "fallback",
			Error:    "padded_fallback",
		})
	}
	return results
}
