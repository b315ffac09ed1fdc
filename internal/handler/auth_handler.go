package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/middleware"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var cred models.Credentials
	if err := c.ShouldBindJSON(&cred); err != nil {
		response.BadRequest(c, "Invalid credentials: "+err.Error())
		return
	}
	u, err := h.authService.Register(c.Request.Context(), cred)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, u)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var cred models.Credentials
	if err := c.ShouldBindJSON(&cred); err != nil {
		response.BadRequest(c, "Invalid credentials: "+err.Error())
		return
	}
	tok, err := h.authService.Login(c.Request.Context(), cred)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, tok)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, middleware.CurrentUser(c))
}
