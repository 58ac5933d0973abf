package events

import (
	"math"
	"time"
)

// Event is one message on a user's channel. Every event carries a type tag
// and an ISO-8601 timestamp.
type Event map[string]any

func stamp(e Event) Event {
	e["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return e
}

// Log levels carried by log events.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

func NewLog(level, message string) Event {
	return stamp(Event{
		"type":    "log",
		"level":   level,
		"message": message,
	})
}

// QueueEntry is the queue snapshot row pushed with queue updates.
type QueueEntry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	MatchScore float64 `json:"match_score"`
}

func NewQueueUpdate(queue []QueueEntry) Event {
	if queue == nil {
		queue = []QueueEntry{}
	}
	return stamp(Event{
		"type":  "queue_update",
		"queue": queue,
	})
}

// AgentStatus is the run-level status snapshot pushed with status updates.
type AgentStatus struct {
	AgentStatus    string `json:"agentStatus"`
	CurrentPhase   string `json:"currentPhase"`
	TasksCompleted int    `json:"tasksCompleted"`
	TasksFailed    int    `json:"tasksFailed"`
}

func NewStatusUpdate(status AgentStatus) Event {
	return stamp(Event{
		"type":   "status_update",
		"status": status,
	})
}

// Job update actions.
const (
	ActionRanking   = "ranking"
	ActionApplying  = "applying"
	ActionCompleted = "completed"
	ActionFailed    = "failed"
)

func NewJobUpdate(action string, job any) Event {
	return stamp(Event{
		"type":   "job_update",
		"action": action,
		"job":    job,
	})
}

// Process stages.
const (
	StageRanking       = "ranking"
	StageAddingToQueue = "adding_to_queue"
	StageApplying      = "applying"
	StageCompleted     = "completed"
)

func NewProcessUpdate(stage string, progress, total int, details map[string]any) Event {
	percentage := 0.0
	if total > 0 {
		percentage = round1(float64(progress) / float64(total) * 100)
	}
	e := Event{
		"type":       "process_update",
		"stage":      stage,
		"progress":   progress,
		"total":      total,
		"percentage": percentage,
	}
	if details != nil {
		e["details"] = details
	}
	return stamp(e)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
