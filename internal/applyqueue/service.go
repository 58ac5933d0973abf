package applyqueue

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(itemID) == "" {
		return errors.New("user id and item id are required")
	}
	return s.Repo.Delete(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("user id is required")
	}
	return s.Repo.DeleteAll(ctx, userID)
}

func (s *Service) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}
	counts, err := s.Repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = make(map[string]int)
	}
	return counts, nil
}

// Stats summarizes the user's queue for the status endpoints.
type Stats struct {
	TotalInQueue int            `json:"total_in_queue"`
	ByStatus     map[string]int `json:"by_status"`
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	counts, err := s.CountByStatus(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return Stats{TotalInQueue: total, ByStatus: counts}, nil
}
