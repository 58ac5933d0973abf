package applyqueue

import "time"

// Queue item lifecycle. Items enter as QUEUED, move to APPLYING while an
// application is in flight, and settle as SUBMITTED or FAILED.
const (
	StatusQueued    = "QUEUED"
	StatusApplying  = "APPLYING"
	StatusSubmitted = "SUBMITTED"
	StatusFailed    = "FAILED"
)

type Item struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	JobID        string    `json:"job_id"`
	JobTitle     string    `json:"name"`
	Company      string    `json:"company"`
	MatchScore   float64   `json:"match_score"`
	Status       string    `json:"status"`
	CoverLetter  string    `json:"cover_letter,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTerminal reports whether the status is a final state.
func IsTerminal(status string) bool {
	return status == StatusSubmitted || status == StatusFailed
}
