package workerproc

import (
	"context"
	"strings"
	"testing"

	"jobagent-backend/internal/bootstrap"
	"jobagent-backend/internal/dispatch"
	"jobagent-backend/internal/workflow"
)

type fakeProcessor struct {
	outcome   workflow.Outcome
	calls     int
	lastUser  string
	lastMax   int
	lastApply bool
}

func (f *fakeProcessor) Run(ctx context.Context, userID string, maxJobs int, autoApply bool) workflow.Outcome {
	_ = ctx
	f.calls++
	f.lastUser = userID
	f.lastMax = maxJobs
	f.lastApply = autoApply
	return f.outcome
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, meta, err := ParseMessage("   ")
	if err == nil {
		t.Fatal("expected error for empty body")
	}
	if _, ok := err.(ErrEmptyBody); !ok {
		t.Fatalf("expected ErrEmptyBody, got %T", err)
	}
	if meta.BodyLen != 3 {
		t.Fatalf("expected body length 3, got %d", meta.BodyLen)
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{bad-json")
	if _, ok := err.(ErrDecode); !ok {
		t.Fatalf("expected ErrDecode, got %T", err)
	}
	if meta.BodySHA == "" {
		t.Fatal("expected body hash for diagnostics")
	}
}

func TestParseMessageMissingUserID(t *testing.T) {
	body, _ := dispatch.EncodeMessage(dispatch.Message{MaxJobs: 5, RequestID: "req-1"})
	_, _, err := ParseMessage(string(body))
	decodeErr, ok := err.(ErrMissingUserID)
	if !ok {
		t.Fatalf("expected ErrMissingUserID, got %T", err)
	}
	if decodeErr.RequestID != "req-1" {
		t.Fatalf("expected request id preserved, got %q", decodeErr.RequestID)
	}
}

func TestParseMessageValid(t *testing.T) {
	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u1", MaxJobs: 3, AutoApply: true})
	msg, _, err := ParseMessage(string(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.UserID != "u1" || msg.MaxJobs != 3 || !msg.AutoApply {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestHandleMessageRunsProcessor(t *testing.T) {
	proc := &fakeProcessor{outcome: workflow.Outcome{Success: true}}
	app := &bootstrap.App{RunProcessor: proc}

	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u1", MaxJobs: 4, AutoApply: true})
	if err := HandleMessage(context.Background(), app, string(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.calls != 1 || proc.lastUser != "u1" || proc.lastMax != 4 || !proc.lastApply {
		t.Fatalf("unexpected processor call: %+v", proc)
	}
}

func TestHandleMessageClampsMaxJobs(t *testing.T) {
	proc := &fakeProcessor{outcome: workflow.Outcome{Success: true}}
	app := &bootstrap.App{RunProcessor: proc}

	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u1", MaxJobs: 0})
	if err := HandleMessage(context.Background(), app, string(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.lastMax != 1 {
		t.Fatalf("expected max jobs clamped to 1, got %d", proc.lastMax)
	}
}

func TestHandleMessageFailedRun(t *testing.T) {
	proc := &fakeProcessor{outcome: workflow.Outcome{Success: false, Error: "boom"}}
	app := &bootstrap.App{RunProcessor: proc}

	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u1", MaxJobs: 2, RequestID: "req-9"})
	err := HandleMessage(context.Background(), app, string(body))
	procErr, ok := err.(ErrProcess)
	if !ok {
		t.Fatalf("expected ErrProcess, got %T", err)
	}
	if procErr.UserID != "u1" || procErr.RequestID != "req-9" {
		t.Fatalf("unexpected error details: %+v", procErr)
	}
	if !strings.Contains(procErr.Error(), "boom") {
		t.Fatalf("expected cause in message, got %q", procErr.Error())
	}
}

func TestHandleMessageNilApp(t *testing.T) {
	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u1"})
	if err := HandleMessage(context.Background(), nil, string(body)); err == nil {
		t.Fatal("expected error for nil app")
	}
	if err := HandleMessage(context.Background(), &bootstrap.App{}, string(body)); err == nil {
		t.Fatal("expected error for unconfigured processor")
	}
}

func TestHandleMessageReusesParsedContext(t *testing.T) {
	proc := &fakeProcessor{outcome: workflow.Outcome{Success: true}}
	app := &bootstrap.App{RunProcessor: proc}

	parsed := dispatch.Message{UserID: "from-ctx", MaxJobs: 2}
	ctx := WithParsedMessage(context.Background(), parsed)
	if err := HandleMessage(ctx, app, "ignored body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.lastUser != "from-ctx" {
		t.Fatalf("expected parsed message from context, got %q", proc.lastUser)
	}
}

func TestHandleMessageWithErroredProcessor(t *testing.T) {
	proc := &fakeProcessor{outcome: workflow.Outcome{Success: false, Error: "ranker unavailable"}}
	app := &bootstrap.App{RunProcessor: proc}

	body, _ := dispatch.EncodeMessage(dispatch.Message{UserID: "u2"})
	if err := HandleMessage(context.Background(), app, string(body)); err == nil {
		t.Fatal("expected error from failed run")
	}
}
