package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 32 * time.Second
)

var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// Client wraps the OpenAI SDK for the agent adapters.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *Client) ModelName() string {
	return c.model
}

type completionRequest struct {
	system string
	prompt string
	wantJSON    bool
	temperature float64
}

// complete runs one chat completion with exponential backoff on rate limits.
func (c *Client) complete(ctx context.Context, req completionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
		if req.system != "" {
			messages = append(messages, openai.SystemMessage(req.system))
		}
		messages = append(messages, openai.UserMessage(req.prompt))

		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(c.model),
			Messages:    messages,
			Temperature: openai.Float(req.temperature),
		}
		if req.wantJSON {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			}
		}

		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			if isRateLimitError(err) {
				continue
			}
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}

		content := completion.Choices[0].Message.Content
		if req.wantJSON && !json.Valid([]byte(content)) {
			lastErr = errors.New("invalid JSON from model")
			continue
		}
		return content, nil
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
