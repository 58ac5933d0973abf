package artifacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	artifacts []Artifact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Insert(ctx context.Context, artifact Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	r.artifacts = append(r.artifacts, artifact)
	return nil
}

func (r *MemoryRepo) Latest(ctx context.Context, userID string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Artifact
	found := false
	for _, a := range r.artifacts {
		if a.UserID != userID {
			continue
		}
		// Ties go to the later insert.
		if !found || !a.CreatedAt.Before(latest.CreatedAt) {
			latest = a
			found = true
		}
	}
	if !found {
		return Artifact{}, ErrNotFound
	}
	return latest, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Artifact
	for _, a := range r.artifacts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
