package artifacts

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "artifact not found" }

type Repo interface {
	Insert(ctx context.Context, artifact Artifact) error
	Latest(ctx context.Context, userID string) (Artifact, error)
	ListByUser(ctx context.Context, userID string) ([]Artifact, error)
}
