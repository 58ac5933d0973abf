package activitylog

import "time"

type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}
