package llm

import "fmt"

// BuildPromptsV1 renders the v1 system/user prompt pair for a request.
// The question text travels in req.Params under "_question".
func BuildPromptsV1(req EngineRequest) (system string, user string) {
	system = fmt.Sprintf(
		"You are a helpful assistant for IT learners.\n"+
			"Role: %s\n"+
			"Level: %s\n"+
			"Goal: %s\n"+
			"Stack: %s\n"+
			"Constraints: %s\n"+
			"Domain: %s\n"+
			"Answer clearly with step-by-step reasoning when appropriate.",
		req.Role, req.Level, req.Goal, req.Stack, req.Constraints, req.Domain,
	)

	question := ""
	if req.Params != nil {
		if q, ok := req.Params["_question"].(string); ok {
			question = q
		}
	}
	user = "Question:\n" + question
	return system, user
}
