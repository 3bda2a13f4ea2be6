package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/utils"
)

// StreakController handles consecutive-day streak endpoints.
type StreakController struct {
	streaks *engine.Streaks
}

// NewStreakController creates a new controller instance.
func NewStreakController(streaks *engine.Streaks) *StreakController {
	return &StreakController{streaks: streaks}
}

// Touch records today's activity for the user. Safe to call repeatedly; only
// the first call of a calendar day mutates the streak.
func (s *StreakController) Touch(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res, err := s.streaks.Touch(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		writeEngineError(ctx, err, 50050, "failed to record activity")
		return
	}

	utils.Success(ctx, res)
}

// Status returns the stored streak without touching it.
func (s *StreakController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	state, err := s.streaks.Status(ctx.Request.Context(), userID)
	if err != nil {
		writeEngineError(ctx, err, 50051, "failed to load streak")
		return
	}

	utils.Success(ctx, gin.H{
		"current_streak":  state.CurrentStreak,
		"longest_streak":  state.LongestStreak,
		"last_active_day": state.LastActiveDay,
	})
}
