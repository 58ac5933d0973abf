package workflow

import "jobagent-backend/internal/jobs"

// RankedJob is one resolved, scored job from the rank phase.
type RankedJob struct {
	Job           jobs.Job `json:"job"`
	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	QueueItemID   string   `json:"queue_item_id"`
	Existing      bool     `json:"existing"`
}

// Outcome is the structured result of one run.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Ranked  []RankedJob `json:"ranked"`
	Applied []string    `json:"applied"`
	Failed  []string    `json:"failed"`

	TasksCompleted int `json:"tasks_completed"`
	TasksFailed    int `json:"tasks_failed"`
}

const noArtifactError = "No artifact found"
