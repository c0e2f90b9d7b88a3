package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/askpair/api/internal/config"
	"github.com/askpair/api/internal/database"
)

// Smoke test against a running server: ask a question, submit feedback on
// the returned pair, then verify the rows landed.
func main() {
	cfg := config.Load()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	base := "http://localhost:" + cfg.Port + "/api/v1"

	// 1. Ask
	log.Println("Calling ask endpoint...")
	askBody := map[string]any{
		"question": "How do I add an index to a large Postgres table without downtime?",
		"role":     "dev",
		"level":    "intermediate",
		"goal":     "practice",
	}
	var askResp struct {
		QuestionID   uuid.UUID `json:"question_id"`
		CandidateAID uuid.UUID `json:"candidate_a_id"`
		CandidateBID uuid.UUID `json:"candidate_b_id"`
		ServedPolicy string    `json:"served_policy"`
	}
	if err := postJSON(base+"/ask", askBody, &askResp); err != nil {
		log.Fatalf("Ask failed: %v", err)
	}
	log.Printf("Served question %s via policy %q", askResp.QuestionID, askResp.ServedPolicy)

	// 2. Feedback on the returned pair
	log.Println("Calling feedback endpoint...")
	fbBody := map[string]any{
		"question_id":    askResp.QuestionID,
		"candidate_a_id": askResp.CandidateAID,
		"candidate_b_id": askResp.CandidateBID,
		"user_choice":    "a",
		"reason_tags":    []string{"clearer"},
	}
	var fbResp struct {
		FeedbackID uuid.UUID `json:"feedback_id"`
	}
	if err := postJSON(base+"/feedback", fbBody, &fbResp); err != nil {
		log.Fatalf("Feedback failed: %v", err)
	}

	// 3. Verify persistence
	log.Println("Verifying rows in DB...")
	var candidates, selections, feedbacks int
	err = db.Pool().QueryRow(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM candidates WHERE question_id = $1),
		    (SELECT COUNT(*) FROM selections WHERE question_id = $1),
		    (SELECT COUNT(*) FROM feedback_pairwise WHERE question_id = $1)`,
		askResp.QuestionID,
	).Scan(&candidates, &selections, &feedbacks)
	if err != nil {
		log.Fatalf("Failed to query rows: %v", err)
	}

	if candidates < 2 || selections != 1 || feedbacks != 1 {
		log.Fatalf("Unexpected row counts: candidates=%d selections=%d feedbacks=%d",
			candidates, selections, feedbacks)
	}

	log.Println("SUCCESS: ask -> feedback round trip persisted")
}

func postJSON(url string, body any, out any) error {
	jsonBody, _ := json.Marshal(body)

	// Retry loop for server startup
	var resp *http.Response
	var err error
	for i := 0; i < 10; i++ {
		req, _ := http.NewRequest("POST", url, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 60 * time.Second}
		resp, err = client.Do(req)
		if err == nil {
			break
		}
		log.Printf("Waiting for server... %v", err)
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return fmt.Errorf("expected 200 OK, got %d: %s", resp.StatusCode, buf.String())
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
