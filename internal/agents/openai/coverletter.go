package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobagent-backend/internal/agents"
	"jobagent-backend/internal/artifacts"
)

const coverLetterSystemPrompt = `You write concise, specific cover letters. Use only facts present in the
candidate profile JSON. Three short paragraphs, no placeholders, no markdown.`

// CoverLetterWriter drafts cover letters via OpenAI.
type CoverLetterWriter struct {
	Client *Client
}

func NewCoverLetterWriter(client *Client) *CoverLetterWriter {
	return &CoverLetterWriter{Client: client}
}

func (w *CoverLetterWriter) Generate(ctx context.Context, pack artifacts.Pack, posting agents.JobPosting) (string, error) {
	profileJSON, err := json.Marshal(pack.Profile)
	if err != nil {
		return "", fmt.Errorf("%w: encode profile: %v", agents.ErrGeneration, err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Candidate profile:\n%s\n\n", profileJSON)
	fmt.Fprintf(&prompt, "Role: %s at %s\n", posting.Title, posting.Company)
	if len(posting.RequiredSkills) > 0 {
		fmt.Fprintf(&prompt, "Required skills: %s\n", strings.Join(posting.RequiredSkills, ", "))
	}
	if posting.Description != "" {
		fmt.Fprintf(&prompt, "\nJob description:\n%s\n", posting.Description)
	}

	letter, err := w.Client.complete(ctx, completionRequest{
		system:      coverLetterSystemPrompt,
		prompt:      prompt.String(),
		temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", agents.ErrGeneration, err)
	}
	letter = strings.TrimSpace(letter)
	if letter == "" {
		return "", fmt.Errorf("%w: empty letter", agents.ErrGeneration)
	}
	return letter, nil
}

var _ agents.CoverLetterWriter = (*CoverLetterWriter)(nil)
