package users

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/shared/server/middleware"
	"jobagent-backend/internal/shared/server/respond"
)

// QueueItemSummary is the slice of a queue item the metrics endpoint shows.
type QueueItemSummary struct {
	ID         string    `json:"id"`
	JobTitle   string    `json:"name"`
	Company    string    `json:"company"`
	Status     string    `json:"status"`
	MatchScore float64   `json:"match_score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QueueStats reports per-user application activity for the metrics endpoint.
type QueueStats interface {
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
	Recent(ctx context.Context, userID string, limit int) ([]QueueItemSummary, error)
}

type Handler struct {
	Svc   *Service
	Stats QueueStats
}

func NewHandler(svc *Service, stats QueueStats) *Handler {
	return &Handler{Svc: svc, Stats: stats}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/me/metrics", h.meMetrics)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if err == ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"hasResume":  user.ResumeKey != "",
		"created_at": user.CreatedAt,
	})
}

func (h *Handler) meMetrics(c *gin.Context) {
	if h.Svc == nil || h.Stats == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	counts, err := h.Stats.CountByStatus(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load metrics", nil)
		return
	}
	recent, err := h.Stats.Recent(c.Request.Context(), userID, 10)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load metrics", nil)
		return
	}
	if recent == nil {
		recent = []QueueItemSummary{}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	submitted := counts["SUBMITTED"]
	failed := counts["FAILED"]

	respond.JSON(c, http.StatusOK, gin.H{
		"total_in_queue": total,
		"by_status":      counts,
		"submitted":      submitted,
		"failed":         failed,
		"success_rate":   successRate(submitted, failed),
		"recent":         recent,
	})
}

// successRate formats submitted/(submitted+failed) as a percentage string.
func successRate(submitted, failed int) string {
	attempted := submitted + failed
	if attempted == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(submitted)/float64(attempted)*100)
}
