package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/activitylog"
	"jobagent-backend/internal/agents"
	openaiagents "jobagent-backend/internal/agents/openai"
	"jobagent-backend/internal/applyqueue"
	"jobagent-backend/internal/artifacts"
	"jobagent-backend/internal/auth"
	"jobagent-backend/internal/dispatch"
	"jobagent-backend/internal/events"
	"jobagent-backend/internal/jobs"
	"jobagent-backend/internal/shared/config"
	"jobagent-backend/internal/shared/server"
	"jobagent-backend/internal/shared/storage/db"
	"jobagent-backend/internal/shared/storage/object"
	localstore "jobagent-backend/internal/shared/storage/object/local"
	s3store "jobagent-backend/internal/shared/storage/object/s3"
	"jobagent-backend/internal/shared/telemetry"
	"jobagent-backend/internal/users"
	"jobagent-backend/internal/workflow"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Hub    *events.Hub
	Runner dispatch.Runner

	UsersRepo     users.Repo
	ArtifactsRepo artifacts.Repo
	JobsRepo      jobs.Repo
	QueueRepo     applyqueue.Repo
	LogsRepo      activitylog.Repo

	UsersService     *users.Service
	AuthService      *auth.Service
	ArtifactsService *artifacts.Service
	JobsService      *jobs.Service
	QueueService     *applyqueue.Service
	LogsService      *activitylog.Service
	WorkflowService  *workflow.Service
	RunProcessor     RunProcessor

	AuthHandler     *auth.Handler
	GoogleAuth      *auth.GoogleService
	UsersHandler    *users.Handler
	ArtifactHandler *artifacts.Handler
	JobsHandler     *jobs.Handler
	QueueHandler    *applyqueue.Handler
	LogsHandler     *activitylog.Handler
	WorkflowHandler *workflow.Handler
	WSHandler       *events.WSHandler
}

// RunProcessor allows callers to override run execution for tests.
type RunProcessor interface {
	Run(ctx context.Context, userID string, maxJobs int, autoApply bool) workflow.Outcome
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Hub:    events.NewHub(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	runner, err := buildRunner(ctx, runLocally(app.WorkflowService))
	if err != nil {
		return nil, err
	}
	app.Runner = runner
	app.WorkflowHandler = workflow.NewHandler(runner, app.ArtifactsService, app.QueueService, app.Hub)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AuthHandler:     app.AuthHandler,
		GoogleAuth:      app.GoogleAuth,
		UsersHandler:    app.UsersHandler,
		ArtifactHandler: app.ArtifactHandler,
		JobsHandler:     app.JobsHandler,
		QueueHandler:    app.QueueHandler,
		LogsHandler:     app.LogsHandler,
		WorkflowHandler: app.WorkflowHandler,
		WSHandler:       app.WSHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRunner(ctx context.Context, run dispatch.RunFunc) (dispatch.Runner, error) {
	if strings.TrimSpace(os.Getenv("JA_SQS_QUEUE_URL")) == "" {
		return dispatch.NewLocalRunner(run), nil
	}
	return dispatch.NewSQSRunner(ctx)
}

// runLocally adapts the workflow service to the local runner and reports
// each outcome to the operational log.
func runLocally(wf *workflow.Service) dispatch.RunFunc {
	return func(ctx context.Context, msg dispatch.Message) {
		outcome := wf.Run(ctx, msg.UserID, msg.MaxJobs, msg.AutoApply)
		telemetry.Info("dispatch.run_finished", map[string]any{
			"user_id":    msg.UserID,
			"request_id": msg.RequestID,
			"success":    outcome.Success,
			"applied":    len(outcome.Applied),
			"failed":     len(outcome.Failed),
		})
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var userRepo users.Repo
	var artifactRepo artifacts.Repo
	var jobRepo jobs.Repo
	var queueRepo applyqueue.Repo
	var logRepo activitylog.Repo

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		artifactRepo = &artifacts.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		queueRepo = &applyqueue.PGRepo{DB: app.DB}
		logRepo = &activitylog.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		artifactRepo = artifacts.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		queueRepo = applyqueue.NewMemoryRepo()
		logRepo = activitylog.NewMemoryRepo()
	}

	extractor, embedder, writer, ranker, err := buildAgents(app.Config, jobRepo)
	if err != nil {
		return err
	}

	userSvc := users.NewService(userRepo)
	logSvc := activitylog.NewService(logRepo)
	authSvc := auth.NewService(userSvc, app.Store, logSvc)
	artifactSvc := artifacts.NewService(artifactRepo, userSvc, app.Store, extractor)
	jobSvc := jobs.NewService(jobRepo, embedder)
	queueSvc := applyqueue.NewService(queueRepo)

	workflowSvc := workflow.NewService(artifactSvc, jobSvc, ranker, writer, queueRepo, app.Hub, logSvc)
	workflowSvc.ApplyDelay = app.Config.ApplyDelay
	workflowSvc.ApplyTimeout = app.Config.ApplyTimeout

	googleAuthSvc := auth.NewGoogleService(
		authSvc,
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)

	app.UsersRepo = userRepo
	app.ArtifactsRepo = artifactRepo
	app.JobsRepo = jobRepo
	app.QueueRepo = queueRepo
	app.LogsRepo = logRepo
	app.UsersService = userSvc
	app.AuthService = authSvc
	app.ArtifactsService = artifactSvc
	app.JobsService = jobSvc
	app.QueueService = queueSvc
	app.LogsService = logSvc
	app.WorkflowService = workflowSvc
	app.RunProcessor = workflowSvc
	app.AuthHandler = auth.NewHandler(authSvc)
	app.GoogleAuth = googleAuthSvc
	app.UsersHandler = users.NewHandler(userSvc, queueStatsAdapter{queue: queueSvc})
	app.ArtifactHandler = artifacts.NewHandler(artifactSvc)
	app.JobsHandler = jobs.NewHandler(jobSvc)
	app.QueueHandler = applyqueue.NewHandler(queueSvc, app.Hub)
	app.LogsHandler = activitylog.NewHandler(logSvc)
	app.WSHandler = events.NewWSHandler(app.Hub)

	return nil
}

// queueStatsAdapter exposes queue activity to the users metrics endpoint.
type queueStatsAdapter struct {
	queue *applyqueue.Service
}

func (a queueStatsAdapter) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	return a.queue.CountByStatus(ctx, userID)
}

func (a queueStatsAdapter) Recent(ctx context.Context, userID string, limit int) ([]users.QueueItemSummary, error) {
	items, err := a.queue.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]users.QueueItemSummary, 0, len(items))
	for _, item := range items {
		out = append(out, users.QueueItemSummary{
			ID:         item.ID,
			JobTitle:   item.JobTitle,
			Company:    item.Company,
			Status:     item.Status,
			MatchScore: item.MatchScore,
			UpdatedAt:  item.UpdatedAt,
		})
	}
	return out, nil
}

// buildAgents selects LLM-backed adapters when a provider is configured and
// deterministic fallbacks otherwise. The vector ranker needs both a database
// and an embedder; without them ranking degrades to skill overlap.
func buildAgents(cfg config.Config, jobRepo jobs.Repo) (artifacts.Extractor, jobs.Embedder, agents.CoverLetterWriter, agents.Ranker, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if cfg.LLMProvider != "openai" || apiKey == "" {
		if cfg.LLMProvider == "openai" && apiKey == "" {
			log.Printf("bootstrap: OPENAI_API_KEY empty; using deterministic agents")
		}
		return nil, nil, agents.TemplateCoverLetterWriter{}, agents.SkillOverlapRanker{}, nil
	}

	client, err := openaiagents.NewClient(apiKey, cfg.LLMModel)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	embedder, err := openaiagents.NewEmbedder(apiKey, cfg.EmbedModel)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	writer := openaiagents.NewCoverLetterWriter(client)
	extractor := openaiagents.NewArtifactExtractor(client)

	var ranker agents.Ranker = agents.SkillOverlapRanker{}
	if jobRepo != nil {
		ranker = jobs.NewVectorRanker(jobRepo, embedder)
	}
	return extractor, embedder, writer, ranker, nil
}
