package main

import (
	"time"

	"github.com/lumenlearn/engage/config"
	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/models"
	"github.com/lumenlearn/engage/routes"
	"github.com/lumenlearn/engage/store"
	"github.com/lumenlearn/engage/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.PointsLedger{}, &models.StreakRecord{}, &models.AuditLog{})

	cal, err := engine.NewCalendar(cfg.Timezone)
	if err != nil {
		utils.Sugar.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	st := store.NewGorm(db)
	recorder := engine.NewRecorder(st, cfg.AuditQueueSize)

	limiter := engine.NewRateLimiter(map[engine.Class]engine.ClassConfig{
		engine.ClassPublic: {
			Window: time.Duration(cfg.RatePublicWindowMs) * time.Millisecond,
			Max:    cfg.RatePublicMax,
		},
		engine.ClassProtected: {
			Window: time.Duration(cfg.RateProtectedWindowMs) * time.Millisecond,
			Max:    cfg.RateProtectedMax,
		},
	}, utils.GetRedis())

	r := routes.SetupRouter(routes.Deps{
		DB:      db,
		Points:  engine.NewPoints(st, cal, cfg.DailyPointsLimit, recorder),
		Streaks: engine.NewStreaks(st, cal, recorder),
		Limiter: limiter,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, recorder.Close); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
