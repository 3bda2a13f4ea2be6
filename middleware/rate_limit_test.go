package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/engage/engine"
)

func setupLimitedRouter(max int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := engine.NewRateLimiter(map[engine.Class]engine.ClassConfig{
		engine.ClassPublic: {Window: time.Minute, Max: max},
	}, nil)

	r := gin.New()
	r.GET("/ping", RateLimit(limiter, engine.ClassPublic), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return r
}

func TestRateLimitAllowsUpToMax(t *testing.T) {
	r := setupLimitedRouter(3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
}

func TestRateLimitDeniesWithRetryGuidance(t *testing.T) {
	r := setupLimitedRouter(1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "retry_after_ms")
	assert.Contains(t, w.Body.String(), "42901")
}

func TestRateLimitDenialNeverReachesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := engine.NewRateLimiter(map[engine.Class]engine.ClassConfig{
		engine.ClassProtected: {Window: time.Minute, Max: 1},
	}, nil)

	hits := 0
	r := gin.New()
	r.POST("/award", RateLimit(limiter, engine.ClassProtected), func(ctx *gin.Context) {
		hits++
		ctx.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/award", nil))
	}
	assert.Equal(t, 1, hits)
}
