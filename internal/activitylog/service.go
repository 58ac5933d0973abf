package activitylog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"jobagent-backend/internal/shared/telemetry"
)

const defaultListLimit = 50

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Record appends one activity entry. Failures are logged and swallowed so
// logging never breaks the calling workflow.
func (s *Service) Record(ctx context.Context, userID, level, message string) {
	if s == nil || s.Repo == nil {
		return
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		return
	}
	if level == "" {
		level = "info"
	}
	entry := Entry{
		ID:      uuid.NewString(),
		UserID:  userID,
		Level:   level,
		Message: message,
	}
	if err := s.Repo.Insert(ctx, entry); err != nil {
		telemetry.Error("activitylog.insert_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *Service) Latest(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}
