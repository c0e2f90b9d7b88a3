package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/eventbus"
	"github.com/askpair/api/internal/features"
	"github.com/askpair/api/internal/llm"
	"github.com/askpair/api/internal/middleware"
	"github.com/askpair/api/internal/models"
	"github.com/askpair/api/internal/selection"
)

// AskHandler runs the full ask flow: generate candidates, extract features,
// pick with both strategies, persist everything in one transaction.
type AskHandler struct {
	db        *database.Postgres
	generator *llm.Generator
	ranker    *selection.Ranker
	bus       *eventbus.Bus
	policy    models.ServedPolicy
	logger    *zap.Logger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(db *database.Postgres, generator *llm.Generator, ranker *selection.Ranker, bus *eventbus.Bus, policy models.ServedPolicy, logger *zap.Logger) *AskHandler {
	return &AskHandler{db: db, generator: generator, ranker: ranker, bus: bus, policy: policy, logger: logger}
}

// AskRequest is the request body for /ask
type AskRequest struct {
	Question    string `json:"question" binding:"required,min=1"`
	Role        string `json:"role"`
	Level       string `json:"level"`
	Goal        string `json:"goal"`
	Stack       string `json:"stack"`
	Constraints string `json:"constraints"`
	Domain      string `json:"domain"`
}

// AskResponse returns the served answer plus the A/B pair needed for feedback
type AskResponse struct {
	QuestionID            uuid.UUID `json:"question_id"`
	SelectedCandidateID   uuid.UUID `json:"selected_candidate_id"`
	SelectedAnswerSummary string    `json:"selected_answer_summary"`
	CandidateAID          uuid.UUID `json:"candidate_a_id"`
	CandidateBID          uuid.UUID `json:"candidate_b_id"`
	ServedChoiceID        uuid.UUID `json:"served_choice_candidate_id"`
	ServedPolicy          string    `json:"served_policy"`
	ModelVersion          *string   `json:"model_version,omitempty"`
}

// Ask handles POST /ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	normalizeContext(&req)

	ctx := c.Request.Context()

	// Generation runs outside the transaction: engine calls are slow and
	// must not hold a connection. The no-throw adapter contract plus padding
	// guarantees at least two rows to persist.
	genStart := time.Now()
	results := h.generator.Generate(llm.AskInput{
		Question:    req.Question,
		Role:        req.Role,
		Level:       req.Level,
		Goal:        req.Goal,
		Stack:       req.Stack,
		Constraints: req.Constraints,
		Domain:      req.Domain,
	})
	selection.GenerationLatency.Observe(time.Since(genStart).Seconds())

	if llm.AnySuccess(results) {
		middleware.GenerationCircuitBreaker.RecordSuccess()
	} else {
		middleware.GenerationCircuitBreaker.RecordFailure()
	}

	candidates := buildCandidates(results)

	ruleIdx := selection.RuleSelect(candidates)
	ruleID := candidates[ruleIdx].ID

	servedIdx := ruleIdx
	servedPolicy := models.PolicyRule
	var ltrID *uuid.UUID
	var modelVersion *string

	if h.policy == models.PolicyLTR {
		decision := h.ranker.Choose(ctx, candidates)
		if decision.ModelVersion != "" {
			v := decision.ModelVersion
			modelVersion = &v
		}
		if decision.BestIndex >= 0 {
			servedIdx = decision.BestIndex
			servedPolicy = models.PolicyLTR
			id := candidates[decision.BestIndex].ID
			ltrID = &id
		} else {
			// Learned ranker had no opinion; the rule choice stands and the
			// reason lands in metrics and logs, not in the response.
			selection.RankerFallbacks.WithLabelValues(decision.Reason).Inc()
			h.logger.Warn("ranker fallback to rule",
				zap.String("reason", decision.Reason),
			)
		}
	}
	served := candidates[servedIdx]

	user := models.UserAnon{ID: uuid.New(), Role: req.Role, Level: req.Level}
	lctx := models.Context{
		ID: uuid.New(), Role: req.Role, Level: req.Level,
		Goal: req.Goal, Stack: req.Stack, Constraints: req.Constraints,
	}
	question := models.Question{
		ID:           uuid.New(),
		UserID:       user.ID,
		ContextID:    lctx.ID,
		QuestionType: "free",
		Domain:       req.Domain,
		TextHash:     hashText(req.Question),
	}
	for i := range candidates {
		candidates[i].QuestionID = question.ID
	}
	sel := models.Selection{
		ID:             uuid.New(),
		QuestionID:     question.ID,
		RuleChoiceID:   &ruleID,
		LTRChoiceID:    ltrID,
		ServedChoiceID: served.ID,
		ServedPolicy:   servedPolicy,
		ModelVersion:   modelVersion,
		FeatureVersion: models.FeatureVersion,
	}

	tx, err := h.db.Pool().Begin(ctx)
	if err != nil {
		h.logger.Error("begin failed", zap.Error(err))
		middleware.InternalError(c, "failed to record selection")
		return
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users_anon (user_id, role, level) VALUES ($1, $2, $3)`,
		user.ID, user.Role, user.Level,
	)
	if err == nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO contexts (context_id, role, level, goal, stack, constraints)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			lctx.ID, lctx.Role, lctx.Level, lctx.Goal, lctx.Stack, lctx.Constraints,
		)
	}
	if err == nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (question_id, user_id, context_id, question_type, domain, question_text_hash)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			question.ID, question.UserID, question.ContextID, question.QuestionType, question.Domain, question.TextHash,
		)
	}
	for _, cand := range candidates {
		if err != nil {
			break
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO candidates (candidate_id, question_id, provider, model, latency_ms,
			        tokens_in, tokens_out, answer_hash, answer_summary, feature_version,
			        len_words, has_code, step_score, has_bullets, has_warning)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			cand.ID, cand.QuestionID, cand.Provider, cand.Model, cand.LatencyMs,
			cand.TokensIn, cand.TokensOut, cand.AnswerHash, cand.AnswerSummary, cand.FeatureVersion,
			cand.LenWords, cand.HasCode, cand.StepScore, cand.HasBullets, cand.HasWarning,
		)
	}
	if err == nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO selections (selection_id, question_id, rule_choice_candidate_id,
			        ltr_choice_candidate_id, served_choice_candidate_id, served_policy,
			        model_version, feature_version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sel.ID, sel.QuestionID, sel.RuleChoiceID, sel.LTRChoiceID, sel.ServedChoiceID,
			sel.ServedPolicy, sel.ModelVersion, sel.FeatureVersion,
		)
	}
	if err == nil {
		err = tx.Commit(ctx)
	}
	if err != nil {
		h.logger.Error("ask transaction failed", zap.Error(err))
		middleware.InternalError(c, "failed to record selection")
		return
	}

	selection.SelectionsTotal.WithLabelValues(string(servedPolicy), served.Provider).Inc()
	h.bus.Publish(eventbus.SubjectSelections, sel)

	c.JSON(http.StatusOK, AskResponse{
		QuestionID:            question.ID,
		SelectedCandidateID:   served.ID,
		SelectedAnswerSummary: served.AnswerSummary,
		CandidateAID:          candidates[0].ID,
		CandidateBID:          candidates[1].ID,
		ServedChoiceID:        served.ID,
		ServedPolicy:          string(servedPolicy),
		ModelVersion:          modelVersion,
	})
}

// buildCandidates converts engine results into candidate rows with minted ids,
// answer hashes and extracted features. Failed results become candidates too:
// their empty answers keep them out of contention but preserve provenance.
func buildCandidates(results []llm.EngineResult) []models.Candidate {
	out := make([]models.Candidate, len(results))
	for i, r := range results {
		f := features.Extract(r.AnswerSummary)
		out[i] = models.Candidate{
			ID:             uuid.New(),
			Provider:       r.Provider,
			Model:          r.Model,
			LatencyMs:      r.LatencyMs,
			TokensIn:       r.TokensIn,
			TokensOut:      r.TokensOut,
			AnswerHash:     hashText(r.AnswerSummary),
			AnswerSummary:  r.AnswerSummary,
			FeatureVersion: models.FeatureVersion,
			LenWords:       f.LenWords,
			HasCode:        f.HasCode,
			StepScore:      f.StepScore,
			HasBullets:     f.HasBullets,
			HasWarning:     f.HasWarning,
		}
	}
	return out
}

// normalizeContext folds free-text context fields onto the closed enum sets
// the schema enforces; anything unrecognized becomes "other".
func normalizeContext(req *AskRequest) {
	switch req.Role {
	case "planner", "designer", "dev", "tester":
	case "":
		req.Role = "dev"
	default:
		req.Role = "other"
	}
	switch req.Level {
	case "intermediate", "advanced":
	default:
		req.Level = "beginner"
	}
	switch req.Goal {
	case "concept", "practice", "assignment", "interview":
	case "":
		req.Goal = "concept"
	default:
		req.Goal = "other"
	}
	if req.Domain == "" {
		req.Domain = "general"
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
