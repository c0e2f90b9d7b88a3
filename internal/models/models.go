package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureVersion identifies the exact schema/semantics of extracted features.
// A model trained under one tag must never be scored against features computed
// under another.
const FeatureVersion = "fv1"

// ServedPolicy identifies which selection strategy determined the served answer
type ServedPolicy string

const (
	PolicyRule ServedPolicy = "rule"
	PolicyLTR  ServedPolicy = "ltr"
)

// PairwiseChoice is the human verdict on an A/B candidate pair
type PairwiseChoice string

const (
	ChoiceA   PairwiseChoice = "a"
	ChoiceB   PairwiseChoice = "b"
	ChoiceTie PairwiseChoice = "tie"
	ChoiceBad PairwiseChoice = "bad"
)

// UserAnon is an anonymous user profile captured per ask
type UserAnon struct {
	ID        uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// Context captures the learning context attached to a question
type Context struct {
	ID          uuid.UUID `json:"context_id"`
	Role        string    `json:"role"`
	Level       string    `json:"level"`
	Goal        string    `json:"goal"`
	Stack       string    `json:"stack,omitempty"`
	Constraints string    `json:"constraints,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question is one user question; only a hash of the text is stored
type Question struct {
	ID           uuid.UUID `json:"question_id"`
	UserID       uuid.UUID `json:"user_id"`
	ContextID    uuid.UUID `json:"context_id"`
	QuestionType string    `json:"question_type"`
	Domain       string    `json:"domain"`
	TextHash     string    `json:"question_text_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Candidate is one generated answer with provenance and fv1 features.
// Created once per question, immutable afterward.
type Candidate struct {
	ID         uuid.UUID `json:"candidate_id"`
	QuestionID uuid.UUID `json:"question_id"`

	Provider string `json:"provider"`
	Model    string `json:"model"`

	LatencyMs int  `json:"latency_ms"`
	TokensIn  *int `json:"tokens_in,omitempty"`
	TokensOut *int `json:"tokens_out,omitempty"`

	AnswerHash    string `json:"answer_hash"`
	AnswerSummary string `json:"answer_summary"`

	FeatureVersion string `json:"feature_version"`

	// extracted features (fv1)
	LenWords   int  `json:"len_words"`
	HasCode    bool `json:"has_code"`
	StepScore  int  `json:"step_score"`
	HasBullets bool `json:"has_bullets"`
	HasWarning bool `json:"has_warning"`

	CreatedAt time.Time `json:"created_at"`
}

// Selection records both strategy choices and which one was actually served.
// Written once per question, never mutated.
type Selection struct {
	ID         uuid.UUID `json:"selection_id"`
	QuestionID uuid.UUID `json:"question_id"`

	RuleChoiceID   *uuid.UUID `json:"rule_choice_candidate_id,omitempty"`
	LTRChoiceID    *uuid.UUID `json:"ltr_choice_candidate_id,omitempty"`
	ServedChoiceID uuid.UUID  `json:"served_choice_candidate_id"`

	ServedPolicy   ServedPolicy `json:"served_policy"`
	ModelVersion   *string      `json:"model_version,omitempty"`
	FeatureVersion string       `json:"feature_version"`

	CreatedAt time.Time `json:"created_at"`
}

// FeedbackPairwise is one human preference verdict; append-only ground truth
type FeedbackPairwise struct {
	ID         uuid.UUID `json:"feedback_id"`
	QuestionID uuid.UUID `json:"question_id"`

	CandidateAID uuid.UUID `json:"candidate_a_id"`
	CandidateBID uuid.UUID `json:"candidate_b_id"`

	UserChoice PairwiseChoice `json:"user_choice"`
	ReasonTags []string       `json:"reason_tags,omitempty"`
	Note       string         `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Snapshot freezes a reproducible training row-set at a point in time.
// Never recomputed after creation.
type Snapshot struct {
	ID        uuid.UUID      `json:"snapshot_id"`
	DataRange map[string]any `json:"data_range_json"`
	RowCount  int            `json:"row_count"`
	CreatedAt time.Time      `json:"created_at"`
}

// ModelRegistryEntry is a trained artifact registered for serving,
// keyed by model version
type ModelRegistryEntry struct {
	ModelVersion   string         `json:"model_version"`
	SnapshotID     uuid.UUID      `json:"snapshot_id"`
	FeatureVersion string         `json:"feature_version"`
	Metrics        map[string]any `json:"metrics_json"`
	ArtifactPath   string         `json:"artifact_path"`
	TrainedAt      time.Time      `json:"trained_at"`
}

// TrainRow is one exported pairwise training example joining feedback to
// the per-side candidate features
type TrainRow struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	FeedbackAt time.Time `json:"feedback_at"`
	QuestionID uuid.UUID `json:"question_id"`

	CandidateAID uuid.UUID `json:"candidate_a_id"`
	CandidateBID uuid.UUID `json:"candidate_b_id"`

	AProvider   string `json:"a_provider"`
	AModel      string `json:"a_model"`
	ALenWords   int    `json:"a_len_words"`
	AHasCode    bool   `json:"a_has_code"`
	AStepScore  int    `json:"a_step_score"`
	AHasBullets bool   `json:"a_has_bullets"`
	AHasWarning bool   `json:"a_has_warning"`

	BProvider   string `json:"b_provider"`
	BModel      string `json:"b_model"`
	BLenWords   int    `json:"b_len_words"`
	BHasCode    bool   `json:"b_has_code"`
	BStepScore  int    `json:"b_step_score"`
	BHasBullets bool   `json:"b_has_bullets"`
	BHasWarning bool   `json:"b_has_warning"`

	UserChoice     PairwiseChoice `json:"user_choice"`
	ServedPolicy   ServedPolicy   `json:"served_policy"`
	ServedChoiceID uuid.UUID      `json:"served_choice_candidate_id"`
	WinnerID       uuid.UUID      `json:"winner_candidate_id"`
	LoserID        uuid.UUID      `json:"loser_candidate_id"`
}
