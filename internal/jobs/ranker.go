package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobagent-backend/internal/agents"
	"jobagent-backend/internal/artifacts"
)

// VectorRanker ranks postings by embedding similarity between the user's
// pack and the stored job vectors.
type VectorRanker struct {
	Repo     Repo
	Embedder Embedder
}

func NewVectorRanker(repo Repo, embedder Embedder) *VectorRanker {
	return &VectorRanker{Repo: repo, Embedder: embedder}
}

func (r *VectorRanker) Rank(ctx context.Context, pack artifacts.Pack, postings []agents.JobPosting, limit int) ([]agents.RankedRef, error) {
	if r.Embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if len(postings) == 0 {
		return nil, nil
	}

	vector, err := r.Embedder.Embed(ctx, packSummary(pack))
	if err != nil {
		return nil, fmt.Errorf("embed pack: %w", err)
	}

	jobIDs := make([]string, 0, len(postings))
	for _, posting := range postings {
		jobIDs = append(jobIDs, posting.ID)
	}
	if limit <= 0 {
		limit = len(jobIDs)
	}

	sims, err := r.Repo.RankByEmbedding(ctx, vector, jobIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("rank by embedding: %w", err)
	}

	refs := make([]agents.RankedRef, 0, len(sims))
	for _, sim := range sims {
		score := sim.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		refs = append(refs, agents.RankedRef{JobID: sim.JobID, Score: score})
	}
	return refs, nil
}

// packSummary flattens the pack into embeddable text.
func packSummary(pack artifacts.Pack) string {
	var b strings.Builder
	b.WriteString(pack.Profile.Name)
	b.WriteString("\nSkills: ")
	b.WriteString(strings.Join(pack.Profile.Skills.All(), ", "))
	for _, exp := range pack.Profile.Experience {
		fmt.Fprintf(&b, "\n%s at %s", exp.Title, exp.Company)
		if len(exp.Bullets) > 0 {
			b.WriteString(": " + strings.Join(exp.Bullets, "; "))
		}
	}
	for _, project := range pack.Profile.Projects {
		fmt.Fprintf(&b, "\nProject %s: %s", project.Name, project.Description)
	}
	if len(pack.BulletBank) > 0 {
		raw, _ := json.Marshal(pack.BulletBank)
		b.WriteString("\n" + string(raw))
	}
	return b.String()
}

var _ agents.Ranker = (*VectorRanker)(nil)
