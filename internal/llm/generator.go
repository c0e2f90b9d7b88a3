package llm

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GeneratorConfig controls which providers run and how
type GeneratorConfig struct {
	// EnabledProviders are called, in order, for every question
	EnabledProviders []string
	// RealProviders get the live HTTP engine; everything else stays dummy
	RealProviders []string
	// ModelByProvider maps provider name to the model name to request
	ModelByProvider map[string]string
	// TimeoutByProvider maps provider name to per-call timeout in seconds
	TimeoutByProvider map[string]float64
	// Aliases maps an extra provider name onto an already-registered engine,
	// so an enabled list can carry deployment-specific names
	Aliases map[string]string
}

// Generator turns a question into a fully-populated candidate result list
type Generator struct {
	registry *Registry
	cfg      GeneratorConfig
	logger   *zap.Logger
}

// NewGenerator builds the engine registry for the configured providers.
// Dummies are registered first and real engines after, so the real binding
// wins for providers on the real list.
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) *Generator {
	reg := NewRegistry()

	reg.Register(NewDummyOpenAI())
	reg.Register(NewDummyGemini())
	reg.Register(NewDummyOpenRouter())

	for _, p := range cfg.RealProviders {
		switch p {
		case "openai":
			reg.Register(&OpenAIEngine{})
		case "gemini":
			reg.Register(&GeminiEngine{})
		case "openrouter":
			reg.Register(&OpenRouterEngine{})
		default:
			logger.Warn("unknown real engine requested, keeping dummy", zap.String("provider", p))
		}
	}

	// aliases resolve against the final bindings, after real engines have
	// replaced dummies
	for name, source := range cfg.Aliases {
		reg.Alias(name, source)
		if reg.Get(name) == nil {
			logger.Warn("engine alias points at an unregistered source",
				zap.String("alias", name),
				zap.String("source", source),
			)
		}
	}

	return &Generator{registry: reg, cfg: cfg, logger: logger}
}

// Registry exposes the underlying engine registry (for health and tests)
func (g *Generator) Registry() *Registry { return g.registry }

// AskInput is one inbound selection request from the transport layer
type AskInput struct {
	Question    string
	Role        string
	Level       string
	Goal        string
	Stack       string
	Constraints string
	Domain      string
}

// Generate runs the enabled engines for a question and always returns at
// least MinCandidates results, padding failures with explicit sentinels.
func (g *Generator) Generate(in AskInput) []EngineResult {
	reqs := make([]EngineRequest, 0, len(g.cfg.EnabledProviders))
	for _, provider := range g.cfg.EnabledProviders {
		req := EngineRequest{
			RequestID:   uuid.NewString(),
			Role:        in.Role,
			Level:       in.Level,
			Goal:        in.Goal,
			Stack:       in.Stack,
			Constraints: in.Constraints,
			Domain:      in.Domain,
			Provider:    provider,
			Model:       g.cfg.ModelByProvider[provider],
			Params: map[string]any{
				"temperature": 0.2,
				"max_tokens":  512,
				"_question":   in.Question,
			},
			TimeoutS: g.cfg.TimeoutByProvider[provider],
		}
		req.SystemPrompt, req.UserPrompt = BuildPromptsV1(req)
		reqs = append(reqs, req)
	}

	results := RunSequential(g.registry, reqs)

	if !AnySuccess(results) {
		g.logger.Warn("no engine produced a usable answer",
			zap.Int("requests", len(reqs)),
		)
	}

	return Pad(results, MinCandidates)
}
