package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

const userKey = "auth.user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth requires a valid bearer token and stores the user on the context.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		user, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil || user == nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireSuperuser rejects users without admin rights. It must run after Auth.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "authentication required")
			return
		}
		if !user.IsSuperuser {
			response.Forbidden(c, "superuser required")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Auth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
