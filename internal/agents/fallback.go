package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jobagent-backend/internal/artifacts"
)

// SkillOverlapRanker scores postings by the share of required skills the
// user's pack covers. It needs no external service and is used whenever no
// LLM provider is configured.
type SkillOverlapRanker struct{}

func (SkillOverlapRanker) Rank(ctx context.Context, pack artifacts.Pack, postings []JobPosting, limit int) ([]RankedRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	have := make(map[string]struct{})
	for _, skill := range pack.Profile.Skills.All() {
		have[normalizeSkill(skill)] = struct{}{}
	}

	refs := make([]RankedRef, 0, len(postings))
	for _, posting := range postings {
		refs = append(refs, RankedRef{
			JobID: posting.ID,
			Score: overlapScore(have, posting.RequiredSkills),
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Score > refs[j].Score
	})
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func overlapScore(have map[string]struct{}, required []string) float64 {
	if len(required) == 0 {
		return 0.5
	}
	matched := 0
	for _, skill := range required {
		if _, ok := have[normalizeSkill(skill)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

func normalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// TemplateCoverLetterWriter produces a deterministic letter from the pack.
// Used whenever no LLM provider is configured.
type TemplateCoverLetterWriter struct{}

func (TemplateCoverLetterWriter) Generate(ctx context.Context, pack artifacts.Pack, posting JobPosting) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(pack.Profile.Name)
	if name == "" {
		name = "The applicant"
	}

	var highlights []string
	for _, skill := range posting.RequiredSkills {
		if hasSkill(pack.Profile.Skills, skill) {
			highlights = append(highlights, skill)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s hiring team,\n\n", posting.Company)
	fmt.Fprintf(&b, "I am writing to apply for the %s position.", posting.Title)
	if len(highlights) > 0 {
		fmt.Fprintf(&b, " My background includes hands-on experience with %s, which maps directly to the role's requirements.", strings.Join(highlights, ", "))
	}
	if n := len(pack.Profile.Experience); n > 0 {
		latest := pack.Profile.Experience[0]
		fmt.Fprintf(&b, " Most recently I worked as %s at %s.", latest.Title, latest.Company)
	}
	fmt.Fprintf(&b, "\n\nI would welcome the chance to discuss how I can contribute.\n\nBest regards,\n%s\n", name)
	return b.String(), nil
}

func hasSkill(skills artifacts.Skills, want string) bool {
	target := normalizeSkill(want)
	for _, skill := range skills.All() {
		if normalizeSkill(skill) == target {
			return true
		}
	}
	return false
}
