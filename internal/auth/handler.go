package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobagent-backend/internal/shared/server/respond"
	"jobagent-backend/internal/users"
)

const maxResumeBytes = 10 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.signup)
	rg.POST("/auth/signin", h.signin)
}

// signup accepts multipart form data so a resume file can be attached in the
// same request. A plain form post without a file also works.
func (h *Handler) signup(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	if email == "" || password == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "email and password are required", nil)
		return
	}

	in := SignupInput{Email: email, Password: password}

	file, header, err := c.Request.FormFile("resume")
	if err == nil {
		defer file.Close()
		if header.Size > maxResumeBytes {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "resume exceeds 10MB limit", nil)
			return
		}
		in.Resume = file
		in.ResumeName = header.Filename
	}

	session, err := h.Svc.Signup(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			respond.Error(c, http.StatusConflict, "email_taken", "email already registered", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	respond.JSON(c, http.StatusCreated, session)
}

func (h *Handler) signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}

	session, err := h.Svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid email or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "sign in failed", nil)
		return
	}

	respond.JSON(c, http.StatusOK, session)
}
