package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"jobagent-backend/internal/extract"
	"jobagent-backend/internal/shared/storage/object"
	"jobagent-backend/internal/shared/telemetry"
	"jobagent-backend/internal/users"
)

// Extractor distills a structured pack from raw resume text.
type Extractor interface {
	Extract(ctx context.Context, resumeText string) (Pack, error)
}

var ErrNoResume = errors.New("no resume on file")

type Service struct {
	Repo      Repo
	Users     *users.Service
	Store     object.ObjectStore
	Extractor Extractor
}

func NewService(repo Repo, userSvc *users.Service, store object.ObjectStore, extractor Extractor) *Service {
	return &Service{Repo: repo, Users: userSvc, Store: store, Extractor: extractor}
}

// SavePack persists a new artifact version for the user.
func (s *Service) SavePack(ctx context.Context, userID string, pack Pack) (Artifact, error) {
	if strings.TrimSpace(userID) == "" {
		return Artifact{}, errors.New("user id is required")
	}
	artifact := Artifact{
		ID:     uuid.NewString(),
		UserID: userID,
		Pack:   pack,
	}
	if err := s.Repo.Insert(ctx, artifact); err != nil {
		return Artifact{}, err
	}
	telemetry.Info("artifacts.saved", map[string]any{
		"user_id":     userID,
		"artifact_id": artifact.ID,
	})
	return artifact, nil
}

func (s *Service) Latest(ctx context.Context, userID string) (Artifact, error) {
	if strings.TrimSpace(userID) == "" {
		return Artifact{}, errors.New("user id is required")
	}
	return s.Repo.Latest(ctx, userID)
}

// ExtractFromResume pulls the stored resume, runs the extractor over its text,
// and persists the result as a new artifact version.
func (s *Service) ExtractFromResume(ctx context.Context, userID string) (Artifact, error) {
	if s.Extractor == nil {
		return Artifact{}, errors.New("extractor not configured")
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return Artifact{}, err
	}
	if user.ResumeKey == "" {
		return Artifact{}, ErrNoResume
	}

	text, err := s.resumeText(ctx, user.ResumeKey)
	if err != nil {
		return Artifact{}, err
	}

	pack, err := s.Extractor.Extract(ctx, text)
	if err != nil {
		return Artifact{}, err
	}
	return s.SavePack(ctx, userID, pack)
}

func (s *Service) resumeText(ctx context.Context, resumeKey string) (string, error) {
	if s.Store == nil {
		return "", errors.New("object store not configured")
	}
	body, err := s.Store.Open(ctx, resumeKey)
	if err != nil {
		return "", fmt.Errorf("open resume %s: %w", resumeKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read resume %s: %w", resumeKey, err)
	}

	mimeType := http.DetectContentType(raw)
	return extract.TextFromBytes(ctx, raw, mimeType, resumeKey)
}
