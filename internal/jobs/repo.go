package jobs

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "job not found" }

// Similarity is a job reference with a cosine similarity in [0, 1].
type Similarity struct {
	JobID string
	Score float64
}

type Repo interface {
	Insert(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
	SetEmbedding(ctx context.Context, jobID string, embedding []float32) error
	RankByEmbedding(ctx context.Context, embedding []float32, jobIDs []string, limit int) ([]Similarity, error)
}
