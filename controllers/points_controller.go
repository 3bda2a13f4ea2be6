package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/engage/config"
	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/utils"
)

// PointsController handles daily point accrual endpoints.
type PointsController struct {
	points *engine.Points
}

// NewPointsController creates a new controller instance.
func NewPointsController(points *engine.Points) *PointsController {
	return &PointsController{points: points}
}

type awardRequest struct {
	CorrectAnswers int    `json:"correct_answers" binding:"min=0"`
	TotalQuestions int    `json:"total_questions" binding:"required,min=1"`
	QuizID         string `json:"quiz_id"`
	Perfect        bool   `json:"perfect"`
}

// AwardPoints converts a quiz result into points and records them against the
// daily ceiling. A perfect score earns the configured bonus multiplier; the
// multiplier decision happens here, the engine only clamps and records.
func (p *PointsController) AwardPoints(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req awardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request body")
		return
	}
	if req.CorrectAnswers > req.TotalQuestions {
		utils.Error(ctx, http.StatusBadRequest, 40021, "correct_answers exceeds total_questions")
		return
	}

	cfg := config.Get()
	rawPoints := cfg.PointsPerQuestion * req.CorrectAnswers
	perfect := req.Perfect && req.CorrectAnswers == req.TotalQuestions
	if perfect {
		rawPoints *= cfg.BonusMultiplier
	}

	res, err := p.points.Award(ctx.Request.Context(), userID, rawPoints, engine.AwardContext{
		Source:       "quiz",
		QuizID:       req.QuizID,
		PerfectScore: perfect,
	}, time.Now())
	if err != nil {
		writeEngineError(ctx, err, 50040, "failed to award points")
		return
	}

	payload := gin.H{
		"awarded":     res.Awarded,
		"daily_total": res.DailyTotal,
		"capped":      res.Capped,
	}
	if res.Capped {
		payload["notice"] = "daily point limit reached"
	}
	utils.Success(ctx, payload)
}

// DailyStatus returns the user's remaining headroom for today.
func (p *PointsController) DailyStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	status, err := p.points.Daily(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		writeEngineError(ctx, err, 50041, "failed to load daily status")
		return
	}

	utils.Success(ctx, status)
}

// writeEngineError maps engine error classes onto the response envelope.
func writeEngineError(ctx *gin.Context, err error, fallbackCode int, fallbackMsg string) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40022, err.Error())
	case errors.Is(err, engine.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40910, "please retry the request")
	case errors.Is(err, engine.ErrUnavailable):
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "storage temporarily unavailable")
	default:
		utils.Error(ctx, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
