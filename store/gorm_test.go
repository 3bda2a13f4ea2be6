package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/models"
)

// setupTestDB connects to MySQL using ENGAGE_TEST_DSN and migrates the
// schema. Tests are skipped when no database is reachable.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("ENGAGE_TEST_DSN")
	if dsn == "" {
		t.Skip("skipping store tests: ENGAGE_TEST_DSN not set")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Skipf("skipping store tests: could not connect to mysql: %v", err)
	}

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PointsLedger{}, &models.StreakRecord{}, &models.AuditLog{}))
	return db
}

func testUser(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	u := models.User{Username: fmt.Sprintf("tester-%d", time.Now().UnixNano())}
	require.NoError(t, db.Create(&u).Error)
	t.Cleanup(func() {
		db.Where("user_id = ?", u.ID).Delete(&models.PointsLedger{})
		db.Where("user_id = ?", u.ID).Delete(&models.StreakRecord{})
		db.Delete(&models.User{}, u.ID)
	})
	return u.ID
}

func TestAddWithCeilingClampsAndMirrorsTotal(t *testing.T) {
	db := setupTestDB(t)
	g := NewGorm(db)
	userID := testUser(t, db)
	ctx := context.Background()
	now := time.Now()

	added, total, err := g.AddWithCeiling(ctx, userID, "2024-05-01", 95, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 95, added)
	assert.Equal(t, 95, total)

	added, total, err = g.AddWithCeiling(ctx, userID, "2024-05-01", 20, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 100, total)

	got, err := g.DailyTotal(ctx, userID, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 100, got)

	var u models.User
	require.NoError(t, db.First(&u, userID).Error)
	assert.Equal(t, 100, u.TotalPoints)
}

func TestSaveStreakCompareAndSwap(t *testing.T) {
	db := setupTestDB(t)
	g := NewGorm(db)
	userID := testUser(t, db)
	ctx := context.Background()
	now := time.Now()

	zero := engine.StreakState{}
	day1 := engine.StreakState{CurrentStreak: 1, LongestStreak: 1, LastActiveDay: "2024-05-01"}
	require.NoError(t, g.SaveStreak(ctx, userID, zero, day1, now))

	// stale expectation: the swap must fail
	err := g.SaveStreak(ctx, userID, zero, day1, now)
	assert.ErrorIs(t, err, engine.ErrConflict)

	day2 := engine.StreakState{CurrentStreak: 2, LongestStreak: 2, LastActiveDay: "2024-05-02"}
	require.NoError(t, g.SaveStreak(ctx, userID, day1, day2, now))

	state, err := g.GetStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, "2024-05-02", state.LastActiveDay)
}

func TestAppendAuditEntry(t *testing.T) {
	db := setupTestDB(t)
	g := NewGorm(db)
	userID := testUser(t, db)

	e := engine.Entry{
		Action:     "points.award",
		Resource:   "points_ledger",
		ResourceID: "2024-05-01",
		ActorID:    userID,
		At:         time.Now(),
		Details:    map[string]any{"awarded": 10},
	}
	require.NoError(t, g.Append(context.Background(), e))

	var row models.AuditLog
	require.NoError(t, db.Where("actor_id = ?", userID).First(&row).Error)
	assert.Equal(t, "points.award", row.Action)
	assert.Contains(t, row.Details, "awarded")
	db.Delete(&models.AuditLog{}, "id = ?", row.ID)
}
