package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"jobagent-backend/internal/agents"
	"jobagent-backend/internal/artifacts"
)

const extractorSystemPrompt = `You are a resume parser. Extract the candidate's profile from the resume text
and return ONLY a JSON object with this shape:
{
  "profile": {
    "name": "", "email": "", "phone": "", "location": "",
    "education": [{"school": "", "degree": "", "field": "", "start": "", "end": ""}],
    "experience": [{"company": "", "title": "", "start": "", "end": "", "bullets": [""]}],
    "projects": [{"name": "", "description": "", "tech": [""]}],
    "skills": {"languages": [""], "frameworks": [""], "tools": [""], "other": [""]},
    "links": {"website": "", "linkedin": "", "github": ""}
  },
  "bullet_bank": [""],
  "answer_library": [{"question": "", "answer": ""}],
  "proof_pack": [{"title": "", "url": ""}]
}
Omit fields you cannot find. Never invent employers, dates, or skills.`

// ArtifactExtractor builds artifact packs from resume text via OpenAI.
type ArtifactExtractor struct {
	Client *Client
}

func NewArtifactExtractor(client *Client) *ArtifactExtractor {
	return &ArtifactExtractor{Client: client}
}

func (e *ArtifactExtractor) Extract(ctx context.Context, resumeText string) (artifacts.Pack, error) {
	content, err := e.Client.complete(ctx, completionRequest{
		system:      extractorSystemPrompt,
		prompt:      resumeText,
		wantJSON:    true,
		temperature: 0,
	})
	if err != nil {
		return artifacts.Pack{}, fmt.Errorf("%w: %v", agents.ErrExtraction, err)
	}

	var pack artifacts.Pack
	if err := json.Unmarshal([]byte(content), &pack); err != nil {
		return artifacts.Pack{}, fmt.Errorf("%w: decode: %v", agents.ErrExtraction, err)
	}
	return pack, nil
}

var _ agents.ArtifactExtractor = (*ArtifactExtractor)(nil)
