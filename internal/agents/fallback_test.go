package agents

import (
	"context"
	"strings"
	"testing"

	"jobagent-backend/internal/artifacts"
)

func testPack() artifacts.Pack {
	return artifacts.Pack{
		Profile: artifacts.Profile{
			Name: "Ada Lovelace",
			Skills: artifacts.Skills{
				Languages:  []string{"Go", "Python"},
				Frameworks: []string{"Gin"},
				Tools:      []string{"Postgres"},
			},
			Experience: []artifacts.Experience{
				{Company: "Analytical Engines", Title: "Staff Engineer"},
			},
		},
	}
}

func TestSkillOverlapRankerOrdersByOverlap(t *testing.T) {
	postings := []JobPosting{
		{ID: "j1", RequiredSkills: []string{"Rust", "C++"}},
		{ID: "j2", RequiredSkills: []string{"Go", "Postgres"}},
		{ID: "j3", RequiredSkills: []string{"go", "Kafka"}},
	}

	refs, err := SkillOverlapRanker{}.Rank(context.Background(), testPack(), postings, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].JobID != "j2" {
		t.Fatalf("expected j2 first, got %s", refs[0].JobID)
	}
	if refs[0].Score != 1.0 {
		t.Fatalf("expected full overlap score 1.0, got %f", refs[0].Score)
	}
	if refs[1].JobID != "j3" || refs[1].Score != 0.5 {
		t.Fatalf("expected j3 at 0.5, got %s at %f", refs[1].JobID, refs[1].Score)
	}
	if refs[2].Score != 0 {
		t.Fatalf("expected zero overlap for j1, got %f", refs[2].Score)
	}
}

func TestSkillOverlapRankerLimit(t *testing.T) {
	postings := []JobPosting{
		{ID: "j1"}, {ID: "j2"}, {ID: "j3"},
	}
	refs, err := SkillOverlapRanker{}.Rank(context.Background(), testPack(), postings, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected limit to cap refs at 2, got %d", len(refs))
	}
}

func TestTemplateCoverLetterWriter(t *testing.T) {
	posting := JobPosting{
		ID:             "j1",
		Title:          "Backend Engineer",
		Company:        "Initech",
		RequiredSkills: []string{"Go", "Kubernetes"},
	}

	letter, err := TemplateCoverLetterWriter{}.Generate(context.Background(), testPack(), posting)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"Initech", "Backend Engineer", "Go", "Ada Lovelace"} {
		if !strings.Contains(letter, want) {
			t.Fatalf("letter missing %q:\n%s", want, letter)
		}
	}
	if strings.Contains(letter, "Kubernetes") {
		t.Fatalf("letter should not claim missing skills:\n%s", letter)
	}
}
