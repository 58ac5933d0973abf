package applyqueue

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "queue item not found" }

var ErrDuplicate = errDuplicate{}

type errDuplicate struct{}

func (errDuplicate) Error() string { return "job already queued for user" }

// StatusUpdate carries the mutable fields of a status transition.
type StatusUpdate struct {
	Status       string
	CoverLetter  string
	ErrorMessage string
}

type Repo interface {
	Insert(ctx context.Context, item Item) error
	FindOne(ctx context.Context, userID, jobID string) (Item, error)
	GetByID(ctx context.Context, userID, itemID string) (Item, error)
	UpdateStatus(ctx context.Context, itemID string, update StatusUpdate) error
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Delete(ctx context.Context, userID, itemID string) error
	DeleteAll(ctx context.Context, userID string) (int, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}
