package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]*models.User

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Format: "json", Output: &buf})

	var seen string
	r := gin.New()
	r.Use(Logger(logger))
	r.GET("/ping", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"`+seen+`"`)
	assert.Contains(t, buf.String(), `"path":"/ping?x=1"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiterWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))

	now = now.Add(2 * time.Minute)
	rl.prune()
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.POST("/scans", RateLimit(NewRateLimiter(ctx, 1, time.Minute)), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(r, httptest.NewRequest(http.MethodPost, "/scans", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodPost, "/scans", nil)).Code)
}

func TestAuthAndSuperuser(t *testing.T) {
	users := stubAuth{
		"admin-token": {ID: 1, Username: "admin", IsSuperuser: true},
		"user-token":  {ID: 2, Username: "surveyor"},
	}
	r := gin.New()
	r.GET("/me", Auth(users), func(c *gin.Context) { c.String(http.StatusOK, CurrentUser(c).Username) })
	r.POST("/admin", Auth(users), RequireSuperuser(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	request := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(r, req)
	}

	assert.Equal(t, http.StatusUnauthorized, request(http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(http.MethodGet, "/me", "forged").Code)

	w := request(http.MethodGet, "/me", "user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "surveyor", w.Body.String())

	assert.Equal(t, http.StatusForbidden, request(http.MethodPost, "/admin", "user-token").Code)
	assert.Equal(t, http.StatusAccepted, request(http.MethodPost, "/admin", "admin-token").Code)
}
