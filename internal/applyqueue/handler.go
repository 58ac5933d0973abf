package applyqueue

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/events"
	"jobagent-backend/internal/shared/server/middleware"
	"jobagent-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
	Hub *events.Hub
}

func NewHandler(svc *Service, hub *events.Hub) *Handler {
	return &Handler{Svc: svc, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/queue", h.list)
	rg.DELETE("/queue", h.clear)
	rg.DELETE("/queue/:id", h.delete)
	rg.GET("/stats", h.stats)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load queue", nil)
		return
	}
	if items == nil {
		items = []Item{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"queue": items})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "queue item not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete queue item", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) clear(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	removed, err := h.Svc.Clear(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear queue", nil)
		return
	}
	if h.Hub != nil {
		h.Hub.Publish(userID, events.NewQueueUpdate(nil))
		h.Hub.Publish(userID, events.NewLog(events.LevelInfo, "Queue cleared"))
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": removed})
}

func (h *Handler) stats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	stats, err := h.Svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load stats", nil)
		return
	}
	respond.JSON(c, http.StatusOK, stats)
}
