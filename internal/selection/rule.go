// Package selection implements the two answer-selection strategies: the
// deterministic rule selector used as default and safety fallback, and the
// learned pairwise ranker served from the versioned model cache.
package selection

import (
	"strings"
	"unicode/utf8"

	"github.com/askpair/api/internal/models"
)

// ruleDisqualified effectively removes blank answers from contention
const ruleDisqualified = -999

// RuleScore computes the deterministic rule score for one candidate.
// Blank answers are disqualified; otherwise length, code fences and stepwise
// structure add points.
func RuleScore(c models.Candidate) int {
	if strings.TrimSpace(c.AnswerSummary) == "" {
		return ruleDisqualified
	}
	s := 0
	// length in characters, not bytes; multibyte answers must not earn the
	// point early
	if utf8.RuneCountInString(c.AnswerSummary) > 50 {
		s++
	}
	if c.HasCode {
		s += 2
	}
	if c.StepScore == 1 {
		s++
	}
	return s
}

// RuleSelect returns the index of the rule-selected candidate. Ties break by
// input order (first maximal element wins), so repeated calls over the same
// input are reproducible. If every candidate is disqualified the first index
// is returned unconditionally; the function never fails on a non-empty list.
func RuleSelect(candidates []models.Candidate) int {
	best := 0
	bestScore := ruleDisqualified - 1
	for i, c := range candidates {
		if s := RuleScore(c); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}
