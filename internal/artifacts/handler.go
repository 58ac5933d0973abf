package artifacts

import (
	"errors"
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
	rg.POST("/artifacts", h.create)
	rg.POST("/artifacts/extract", h.extract)
	rg.GET("/artifacts/current", h.current)
}

// create stores a caller-provided pack as a new version.
func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var pack Pack
	if err := c.ShouldBindJSON(&pack); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid pack body", nil)
		return
	}

	artifact, err := h.Svc.SavePack(c.Request.Context(), userID, pack)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save artifacts", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, artifact)
}

// extract rebuilds the pack from the stored resume.
func (h *Handler) extract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	artifact, err := h.Svc.ExtractFromResume(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoResume):
			respond.Error(c, http.StatusConflict, "no_resume", "upload a resume before extracting artifacts", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "artifact extraction failed", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, artifact)
}

func (h *Handler) current(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	artifact, err := h.Svc.Latest(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no artifacts for user", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load artifacts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, artifact)
}
