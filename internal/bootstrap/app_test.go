package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobagent-backend/internal/applyqueue"
	"jobagent-backend/internal/dispatch"
	"jobagent-backend/internal/jobs"
	"jobagent-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "bootstrap-test-secret")
	t.Setenv("JA_SQS_QUEUE_URL", "")
	t.Setenv("OPENAI_API_KEY", "")
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "none",
		ApplyTimeout:    5 * time.Second,
	}
}

func buildTestApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *App, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func signupUser(t *testing.T, app *App, email string) (token, userID string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("email", email)
	_ = mw.WriteField("password", "super-secret-pw")
	part, err := mw.CreateFormFile("resume", "resume.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "Jordan Doe. Backend engineer. Skills: Go, Postgres.")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body = %s", w.Code, w.Body.String())
	}
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" || session.User.ID == "" {
		t.Fatalf("incomplete session: %s", w.Body.String())
	}
	return session.Token, session.User.ID
}

func seedJobs(t *testing.T, app *App) {
	t.Helper()
	ctx := context.Background()
	listings := []jobs.Job{
		{ID: "job-1", Title: "Backend Engineer", Company: "Acme", Description: "Build Go services", RequiredSkills: []string{"Go", "Postgres"}},
		{ID: "job-2", Title: "Platform Engineer", Company: "Globex", Description: "Run infrastructure", RequiredSkills: []string{"Kubernetes"}},
	}
	for _, listing := range listings {
		if err := app.JobsService.Ingest(ctx, listing); err != nil {
			t.Fatalf("ingest job %s: %v", listing.ID, err)
		}
	}
}

func savePack(t *testing.T, app *App, token string) {
	t.Helper()
	pack := map[string]any{
		"profile": map[string]any{
			"name":  "Jordan Doe",
			"email": "jordan@example.com",
			"skills": map[string]any{
				"languages": []string{"Go"},
				"tools":     []string{"Postgres"},
			},
		},
	}
	w := doJSON(t, app, http.MethodPost, "/api/v1/artifacts", token, pack)
	if w.Code != http.StatusCreated {
		t.Fatalf("save pack status = %d body = %s", w.Code, w.Body.String())
	}
}

func waitIdle(t *testing.T, app *App) {
	t.Helper()
	local, ok := app.Runner.(*dispatch.LocalRunner)
	if !ok {
		t.Fatalf("expected local runner, got %T", app.Runner)
	}
	local.WaitIdle()
}

func TestBuildDefaultsToMemoryInDev(t *testing.T) {
	app := buildTestApp(t)
	if app.DB != nil {
		t.Fatal("expected no database connection in dev without DATABASE_URL")
	}
	if app.Router == nil {
		t.Fatal("expected router to be wired")
	}
	if _, ok := app.Runner.(*dispatch.LocalRunner); !ok {
		t.Fatalf("expected local runner, got %T", app.Runner)
	}

	w := doJSON(t, app, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	app := buildTestApp(t)

	w := doJSON(t, app, http.MethodGet, "/api/v1/queue", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestSignupStartRunAndQueue(t *testing.T) {
	app := buildTestApp(t)
	seedJobs(t, app)
	token, userID := signupUser(t, app, "jordan@example.com")
	savePack(t, app, token)

	w := doJSON(t, app, http.MethodPost, "/api/v1/auto-apply/start", token, map[string]any{"max_jobs": 5})
	if w.Code != http.StatusAccepted {
		t.Fatalf("start status = %d body = %s", w.Code, w.Body.String())
	}
	waitIdle(t, app)

	items, err := app.QueueRepo.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 queue items, got %d", len(items))
	}
	for _, item := range items {
		if item.Status != applyqueue.StatusSubmitted {
			t.Fatalf("expected item %s submitted, got %s", item.JobID, item.Status)
		}
		if strings.TrimSpace(item.CoverLetter) == "" {
			t.Fatalf("expected cover letter for %s", item.JobID)
		}
	}

	w = doJSON(t, app, http.MethodGet, "/api/v1/queue", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("queue status = %d", w.Code)
	}
	var queueResp struct {
		Queue []struct {
			Name       string  `json:"name"`
			Status     string  `json:"status"`
			MatchScore float64 `json:"match_score"`
		} `json:"queue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &queueResp); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(queueResp.Queue) != 2 {
		t.Fatalf("expected 2 queue entries, got %d", len(queueResp.Queue))
	}

	w = doJSON(t, app, http.MethodGet, "/api/v1/auto-apply/status", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", w.Code)
	}
	var statusResp struct {
		TotalInQueue     int            `json:"total_in_queue"`
		ByStatus         map[string]int `json:"by_status"`
		ChannelConnected bool           `json:"channel_connected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &statusResp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if statusResp.TotalInQueue != 2 {
		t.Fatalf("expected 2 in queue, got %d", statusResp.TotalInQueue)
	}
	if statusResp.ByStatus[applyqueue.StatusSubmitted] != 2 {
		t.Fatalf("expected 2 submitted, got %v", statusResp.ByStatus)
	}
	if statusResp.ChannelConnected {
		t.Fatal("expected no websocket subscriber")
	}
}

func TestStartRunWithoutArtifactsRejected(t *testing.T) {
	app := buildTestApp(t)
	seedJobs(t, app)
	token, userID := signupUser(t, app, "noartifacts@example.com")

	w := doJSON(t, app, http.MethodPost, "/api/v1/auto-apply/start", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("start status = %d body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "no_artifact") {
		t.Fatalf("expected no_artifact error, got %s", w.Body.String())
	}
	waitIdle(t, app)

	items, err := app.QueueRepo.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(items))
	}
}

func TestStartRunRejectsInvalidMaxJobs(t *testing.T) {
	app := buildTestApp(t)
	token, _ := signupUser(t, app, "invalid@example.com")

	w := doJSON(t, app, http.MethodPost, "/api/v1/auto-apply/start", token, map[string]any{"max_jobs": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "autoapply_runs_started_total") {
		t.Fatal("expected run counters in metrics output")
	}
}
