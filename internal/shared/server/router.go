package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/activitylog"
	"jobagent-backend/internal/applyqueue"
	"jobagent-backend/internal/artifacts"
	"jobagent-backend/internal/auth"
	"jobagent-backend/internal/events"
	"jobagent-backend/internal/jobs"
	"jobagent-backend/internal/shared/config"
	"jobagent-backend/internal/shared/metrics"
	"jobagent-backend/internal/shared/server/middleware"
	"jobagent-backend/internal/shared/server/respond"
	"jobagent-backend/internal/users"
	"jobagent-backend/internal/workflow"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
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

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(rateLimits()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.ArtifactHandler != nil {
		deps.ArtifactHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)
	}
	if deps.QueueHandler != nil {
		deps.QueueHandler.RegisterRoutes(api)
	}
	if deps.LogsHandler != nil {
		deps.LogsHandler.RegisterRoutes(api)
	}
	if deps.WorkflowHandler != nil {
		deps.WorkflowHandler.RegisterRoutes(api)
	}
	if deps.WSHandler != nil {
		deps.WSHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimits throttles run starts and credential endpoints harder than the
// read-mostly rest of the API.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"WORKFLOW_START": {Rate: 0.5, Burst: 3},
			"AUTH":           {Rate: 1, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			switch {
			case strings.HasSuffix(path, "/auto-apply/start"):
				return "WORKFLOW_START"
			case strings.Contains(path, "/auth/"):
				return "AUTH"
			default:
				return ""
			}
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
