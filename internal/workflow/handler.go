package workflow

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/applyqueue"
	"jobagent-backend/internal/artifacts"
	"jobagent-backend/internal/dispatch"
	"jobagent-backend/internal/events"
	"jobagent-backend/internal/shared/server/middleware"
	"jobagent-backend/internal/shared/server/respond"
)

const defaultMaxJobs = 5

type Handler struct {
	Runner    dispatch.Runner
	Artifacts ArtifactSource
	Queue     *applyqueue.Service
	Hub       *events.Hub
}

func NewHandler(runner dispatch.Runner, artifactSrc ArtifactSource, queue *applyqueue.Service, hub *events.Hub) *Handler {
	return &Handler{Runner: runner, Artifacts: artifactSrc, Queue: queue, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auto-apply/start", h.start)
	rg.GET("/auto-apply/status", h.status)
}

type startRequest struct {
	MaxJobs   *int  `json:"max_jobs"`
	AutoApply *bool `json:"auto_apply"`
}

// start acknowledges immediately; the run executes in the background and
// reports progress over the websocket channel.
func (h *Handler) start(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}

	maxJobs := defaultMaxJobs
	if req.MaxJobs != nil {
		if *req.MaxJobs < 1 {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "max_jobs must be at least 1", nil)
			return
		}
		maxJobs = *req.MaxJobs
	}
	autoApply := true
	if req.AutoApply != nil {
		autoApply = *req.AutoApply
	}

	// Reject up front when there is nothing to apply with; the async run
	// re-checks, since the artifact can disappear in between.
	if _, err := h.Artifacts.Latest(c.Request.Context(), userID); err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			respond.Error(c, http.StatusBadRequest, "no_artifact", "No artifact found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load artifacts", nil)
		return
	}

	msg := dispatch.Message{
		UserID:     userID,
		MaxJobs:    maxJobs,
		AutoApply:  autoApply,
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := h.Runner.Dispatch(c.Request.Context(), msg); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start workflow", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"accepted": true,
		"message":  "Workflow started; connect to the event channel for progress",
	})
}

func (h *Handler) status(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	stats, err := h.Queue.Stats(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load status", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"total_in_queue":    stats.TotalInQueue,
		"by_status":         stats.ByStatus,
		"channel_connected": h.Hub.IsSubscribed(userID),
	})
}
