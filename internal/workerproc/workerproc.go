package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"jobagent-backend/internal/bootstrap"
	"jobagent-backend/internal/dispatch"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingUserID indicates a run request without a user.
type ErrMissingUserID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingUserID) Error() string { return "missing user id" }

// ErrProcess indicates the run failed after successful parsing.
type ErrProcess struct {
	UserID    string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process run"
	}
	return "process run: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (dispatch.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return dispatch.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := dispatch.DecodeMessage([]byte(body))
	if err != nil {
		return dispatch.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return msg, meta, ErrMissingUserID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg dispatch.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (dispatch.Message, bool) {
	if ctx == nil {
		return dispatch.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(dispatch.Message)
	return msg, ok
}

// HandleMessage parses, validates, and executes a run request.
func HandleMessage(ctx context.Context, app *bootstrap.App, body string) error {
	if app == nil {
		return errors.New("workflow service not configured")
	}
	processor := app.RunProcessor
	if processor == nil {
		processor = app.WorkflowService
	}
	if processor == nil {
		return errors.New("workflow service not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.UserID) == "" {
		return ErrMissingUserID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	maxJobs := msg.MaxJobs
	if maxJobs < 1 {
		maxJobs = 1
	}

	outcome := processor.Run(ctx, msg.UserID, maxJobs, msg.AutoApply)
	if !outcome.Success {
		return ErrProcess{UserID: msg.UserID, RequestID: msg.RequestID, Err: errors.New(outcome.Error)}
	}
	return nil
}
