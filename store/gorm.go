// Package store provides the database-backed implementations of the engine's
// persistence interfaces.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/models"
)

// Gorm persists ledgers, streaks, and audit entries in MySQL. Row locks and
// compare-and-swap updates give the per-key atomicity the engine requires.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// AddWithCeiling locks the (user, day) ledger row for update, clamps the
// addition to the remaining room, and mirrors the award onto the user's
// total-points counter in the same transaction.
func (g *Gorm) AddWithCeiling(ctx context.Context, userID uint, dayKey string, points, ceiling int, now time.Time) (int, int, error) {
	var added, total int
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PointsLedger
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND day_key = ?", userID, dayKey).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			added = min(points, ceiling)
			row = models.PointsLedger{
				UserID:        userID,
				DayKey:        dayKey,
				PointsAwarded: added,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// lost the first-insert race for this day
					return engine.ErrConflict
				}
				return fmt.Errorf("%w: create ledger row: %v", engine.ErrUnavailable, err)
			}
			total = added
		case err != nil:
			return fmt.Errorf("%w: load ledger row: %v", engine.ErrUnavailable, err)
		default:
			room := ceiling - row.PointsAwarded
			if room < 0 {
				room = 0
			}
			added = min(points, room)
			row.PointsAwarded += added
			row.UpdatedAt = now
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("%w: update ledger row: %v", engine.ErrUnavailable, err)
			}
			total = row.PointsAwarded
		}

		if added > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				UpdateColumn("total_points", gorm.Expr("total_points + ?", added)).Error; err != nil {
				return fmt.Errorf("%w: update user total: %v", engine.ErrUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, total, nil
}

func (g *Gorm) DailyTotal(ctx context.Context, userID uint, dayKey string) (int, error) {
	var row models.PointsLedger
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND day_key = ?", userID, dayKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: load ledger row: %v", engine.ErrUnavailable, err)
	}
	return row.PointsAwarded, nil
}

func (g *Gorm) GetStreak(ctx context.Context, userID uint) (engine.StreakState, error) {
	var rec models.StreakRecord
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.StreakState{}, nil
	}
	if err != nil {
		return engine.StreakState{}, fmt.Errorf("%w: load streak record: %v", engine.ErrUnavailable, err)
	}
	return engine.StreakState{
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
		LastActiveDay: rec.LastActiveDay,
	}, nil
}

// SaveStreak swaps the record only when last_active_day still matches what
// the caller read. RowsAffected == 0 means another touch won the race.
func (g *Gorm) SaveStreak(ctx context.Context, userID uint, expect, next engine.StreakState, now time.Time) error {
	updates := map[string]any{
		"current_streak":  next.CurrentStreak,
		"longest_streak":  next.LongestStreak,
		"last_active_day": next.LastActiveDay,
		"updated_at":      now,
	}

	res := g.db.WithContext(ctx).Model(&models.StreakRecord{}).
		Where("user_id = ? AND last_active_day = ?", userID, expect.LastActiveDay).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: update streak record: %v", engine.ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if expect.LastActiveDay == "" {
		// first activity for this user: the row may simply not exist yet
		rec := models.StreakRecord{
			UserID:        userID,
			CurrentStreak: next.CurrentStreak,
			LongestStreak: next.LongestStreak,
			LastActiveDay: next.LastActiveDay,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := g.db.WithContext(ctx).Create(&rec).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return engine.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("%w: create streak record: %v", engine.ErrUnavailable, err)
		}
		return nil
	}

	return engine.ErrConflict
}

func (g *Gorm) Append(ctx context.Context, e engine.Entry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}
	row := models.AuditLog{
		ID:         uuid.NewString(),
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    string(details),
		ActorID:    e.ActorID,
		CreatedAt:  e.At,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
