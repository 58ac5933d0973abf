package jobs

import (
	"context"
	"errors"
	"strings"

	"jobagent-backend/internal/shared/telemetry"
)

const defaultListLimit = 100

// Embedder turns text into a vector. Implemented by the OpenAI adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	Repo     Repo
	Embedder Embedder
}

func NewService(repo Repo, embedder Embedder) *Service {
	return &Service{Repo: repo, Embedder: embedder}
}

func (s *Service) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.Repo.List(ctx, limit)
}

func (s *Service) GetByID(ctx context.Context, jobID string) (Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return Job{}, errors.New("job id is required")
	}
	return s.Repo.GetByID(ctx, jobID)
}

// Ingest stores a job listing and, when an embedder is configured, computes
// its description embedding for vector ranking.
func (s *Service) Ingest(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}
	if err := s.Repo.Insert(ctx, job); err != nil {
		return err
	}
	if s.Embedder == nil {
		return nil
	}

	text := job.Title + " at " + job.Company + "\n" + job.Description
	vector, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		// Keep the listing usable; ranking falls back to skill overlap.
		telemetry.Warn("jobs.embed_failed", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		return nil
	}
	return s.Repo.SetEmbedding(ctx, job.ID, vector)
}
