package activitylog

import "context"

type Repo interface {
	Insert(ctx context.Context, entry Entry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
}
