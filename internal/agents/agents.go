package agents

import (
	"context"
	"errors"

	"jobagent-backend/internal/artifacts"
)

// ErrExtraction signals the artifact extractor could not produce a pack.
var ErrExtraction = errors.New("artifact extraction failed")

// ErrGeneration signals the cover letter writer could not produce a letter.
var ErrGeneration = errors.New("cover letter generation failed")

// JobPosting is the slice of a job listing the agents need.
type JobPosting struct {
	ID             string
	Title          string
	Company        string
	Description    string
	RequiredSkills []string
}

// RankedRef is a job reference with a relevance score in [0, 1].
type RankedRef struct {
	JobID string
	Score float64
}

// ArtifactExtractor distills a structured pack from resume text.
type ArtifactExtractor interface {
	Extract(ctx context.Context, resumeText string) (artifacts.Pack, error)
}

// Ranker orders job postings by fit against the user's pack.
type Ranker interface {
	Rank(ctx context.Context, pack artifacts.Pack, postings []JobPosting, limit int) ([]RankedRef, error)
}

// CoverLetterWriter drafts a cover letter for one posting.
type CoverLetterWriter interface {
	Generate(ctx context.Context, pack artifacts.Pack, posting JobPosting) (string, error)
}
