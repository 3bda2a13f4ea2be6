package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lumenlearn/engage/config"
	"github.com/lumenlearn/engage/controllers"
	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/middleware"
	"github.com/lumenlearn/engage/utils"
)

// Deps carries the wired engine services the router exposes.
type Deps struct {
	DB      *gorm.DB
	Points  *engine.Points
	Streaks *engine.Streaks
	Limiter *engine.RateLimiter
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	pointsController := controllers.NewPointsController(deps.Points)
	streakController := controllers.NewStreakController(deps.Streaks)
	leaderboardController := controllers.NewLeaderboardController(deps.DB)

	api := r.Group("/api/v1")

	public := api.Group("")
	public.Use(middleware.RateLimit(deps.Limiter, engine.ClassPublic))
	public.GET("/leaderboard", leaderboardController.Top)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimit(deps.Limiter, engine.ClassProtected))
	protected.POST("/points/award", pointsController.AwardPoints)
	protected.GET("/points/daily", pointsController.DailyStatus)
	protected.POST("/streak/touch", streakController.Touch)
	protected.GET("/streak/status", streakController.Status)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
