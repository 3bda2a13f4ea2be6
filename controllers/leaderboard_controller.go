package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lumenlearn/engage/models"
	"github.com/lumenlearn/engage/utils"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = time.Minute
	leaderboardSize     = 20
)

// LeaderboardController serves the shared-read reporting view over user
// point totals.
type LeaderboardController struct {
	db *gorm.DB
}

func NewLeaderboardController(db *gorm.DB) *LeaderboardController {
	return &LeaderboardController{db: db}
}

type leaderboardRow struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
}

// Top returns the highest-scoring users, cached in Redis for a minute.
func (l *LeaderboardController) Top(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(leaderboardCacheKey); ok {
		var rows []leaderboardRow
		if err := json.Unmarshal(b, &rows); err == nil {
			utils.Success(ctx, gin.H{"entries": rows, "cached": true})
			return
		}
	}

	var users []models.User
	if err := l.db.Order("total_points DESC").Limit(leaderboardSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load leaderboard")
		return
	}

	rows := make([]leaderboardRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, leaderboardRow{
			UserID:      u.ID,
			Username:    u.Username,
			TotalPoints: u.TotalPoints,
		})
	}

	utils.CacheSetJSON(leaderboardCacheKey, rows, leaderboardCacheTTL)
	utils.Success(ctx, gin.H{"entries": rows, "cached": false})
}
