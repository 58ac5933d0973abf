package applyqueue

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Item)}
}

func (r *MemoryRepo) Insert(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.UserID == item.UserID && existing.JobID == item.JobID {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[item.ID] = item
	return nil
}

func (r *MemoryRepo) FindOne(ctx context.Context, userID, jobID string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.JobID == jobID {
			return item, nil
		}
	}
	return Item{}, ErrNotFound
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, itemID string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, itemID string, update StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return ErrNotFound
	}
	item.Status = update.Status
	if update.CoverLetter != "" {
		item.CoverLetter = update.CoverLetter
	}
	item.ErrorMessage = update.ErrorMessage
	item.UpdatedAt = time.Now().UTC()
	r.items[itemID] = item
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *MemoryRepo) DeleteAll(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, item := range r.items {
		if item.UserID == userID {
			counts[item.Status]++
		}
	}
	return counts, nil
}
