package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/engage/config"
	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/middleware"
)

func asUser(id uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, id)
	}
}

func setupPointsRouter(t *testing.T) (*gin.Engine, *engine.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})

	cal, err := engine.NewCalendar("UTC")
	require.NoError(t, err)
	ms := engine.NewMemStore()
	points := engine.NewPoints(ms, cal, config.Get().DailyPointsLimit, nil)

	pc := NewPointsController(points)
	r := gin.New()
	r.POST("/points/award", asUser(1), pc.AwardPoints)
	r.GET("/points/daily", asUser(1), pc.DailyStatus)
	return r, ms
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 0, envelope.Code)
	return envelope.Data
}

func TestAwardPointsPerfectScoreGetsBonus(t *testing.T) {
	r, _ := setupPointsRouter(t)

	// 5/5 with defaults: 5*10 points doubled by the perfect-score bonus,
	// then clamped to the 100-point daily ceiling
	w := postJSON(r, "/points/award", `{"correct_answers":5,"total_questions":5,"perfect":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.EqualValues(t, 100, data["awarded"])
	assert.EqualValues(t, 100, data["daily_total"])
	assert.Equal(t, false, data["capped"])
}

func TestAwardPointsCappedAtDailyLimit(t *testing.T) {
	r, _ := setupPointsRouter(t)

	w := postJSON(r, "/points/award", `{"correct_answers":5,"total_questions":5,"perfect":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/points/award", `{"correct_answers":3,"total_questions":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.EqualValues(t, 0, data["awarded"])
	assert.Equal(t, true, data["capped"])
	assert.Equal(t, "daily point limit reached", data["notice"])
}

func TestAwardPointsPerfectFlagRequiresFullScore(t *testing.T) {
	r, _ := setupPointsRouter(t)

	// flag set but score is not perfect: no multiplier
	w := postJSON(r, "/points/award", `{"correct_answers":4,"total_questions":5,"perfect":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.EqualValues(t, 40, data["awarded"])
}

func TestAwardPointsRejectsBadBody(t *testing.T) {
	r, _ := setupPointsRouter(t)

	w := postJSON(r, "/points/award", `{"correct_answers":-1,"total_questions":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/points/award", `{"correct_answers":6,"total_questions":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/points/award", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyStatusReflectsAwards(t *testing.T) {
	r, _ := setupPointsRouter(t)

	w := postJSON(r, "/points/award", `{"correct_answers":3,"total_questions":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/points/daily", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataOf(t, rec)
	assert.EqualValues(t, 30, data["points_awarded_today"])
	assert.EqualValues(t, 100, data["daily_points_limit"])
	assert.EqualValues(t, 70, data["remaining"])
}
