package activitylog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/shared/server/middleware"
	"jobagent-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/logs", h.list)
}

func (h *Handler) list(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	entries, err := h.Svc.Latest(c.Request.Context(), userID, defaultListLimit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load logs", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"logs": entries})
}
