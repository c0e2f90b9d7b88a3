package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/eventbus"
	"github.com/askpair/api/internal/middleware"
	"github.com/askpair/api/internal/models"
	"github.com/askpair/api/internal/selection"
)

// FeedbackHandler records pairwise human verdicts. Feedback is append-only
// ground truth: inserted once, never updated.
type FeedbackHandler struct {
	db     *database.Postgres
	bus    *eventbus.Bus
	logger *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(db *database.Postgres, bus *eventbus.Bus, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{db: db, bus: bus, logger: logger}
}

// FeedbackRequest is the request body for /feedback
type FeedbackRequest struct {
	QuestionID   uuid.UUID `json:"question_id" binding:"required"`
	CandidateAID uuid.UUID `json:"candidate_a_id" binding:"required"`
	CandidateBID uuid.UUID `json:"candidate_b_id" binding:"required"`
	UserChoice   string    `json:"user_choice" binding:"required,oneof=a b tie bad"`
	ReasonTags   []string  `json:"reason_tags"`
	Note         string    `json:"note"`
}

// Submit handles POST /feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	if req.CandidateAID == req.CandidateBID {
		middleware.BadRequest(c, "candidate_a_id and candidate_b_id must differ")
		return
	}

	fb := models.FeedbackPairwise{
		ID:           uuid.New(),
		QuestionID:   req.QuestionID,
		CandidateAID: req.CandidateAID,
		CandidateBID: req.CandidateBID,
		UserChoice:   models.PairwiseChoice(req.UserChoice),
		ReasonTags:   req.ReasonTags,
		Note:         req.Note,
	}

	_, err := h.db.Pool().Exec(c.Request.Context(),
		`INSERT INTO feedback_pairwise (feedback_id, question_id, candidate_a_id, candidate_b_id,
		        user_choice, reason_tags, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		fb.ID, fb.QuestionID, fb.CandidateAID, fb.CandidateBID, fb.UserChoice, fb.ReasonTags, fb.Note,
	)
	if err != nil {
		h.logger.Error("feedback insert failed", zap.Error(err))
		middleware.InternalError(c, "failed to record feedback")
		return
	}

	selection.FeedbackTotal.WithLabelValues(req.UserChoice).Inc()
	h.bus.Publish(eventbus.SubjectFeedback, fb)

	c.JSON(http.StatusOK, gin.H{
		"feedback_id": fb.ID,
		"status":      "recorded",
	})
}
