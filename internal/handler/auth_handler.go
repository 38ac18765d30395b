package handler

import (
	"net/http"

	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Signup godoc
// POST /auth/signup
// Registers an account and echoes its identity.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Login godoc
// POST /auth/login
// Exchanges username and password for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bind(c, &req) {
		return
	}

	tok, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, tok)
}

// Me godoc
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, middleware.GetPrincipal(c))
}

// Logout godoc
// POST /auth/logout
// Revokes the token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), sess); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}
