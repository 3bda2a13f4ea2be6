package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TouchResult reports the streak after one qualifying activity.
type TouchResult struct {
	CurrentStreak  int  `json:"current_streak"`
	LongestStreak  int  `json:"longest_streak"`
	StreakExtended bool `json:"streak_extended"`
	StreakBroken   bool `json:"streak_broken"`
}

// Streaks computes consecutive-day activity streaks. Updates go through the
// store's compare-and-swap so two touches from the same user cannot both
// extend the streak for the same day.
type Streaks struct {
	store    StreakStore
	cal      *Calendar
	recorder *Recorder
}

func NewStreaks(store StreakStore, cal *Calendar, recorder *Recorder) *Streaks {
	return &Streaks{store: store, cal: cal, recorder: recorder}
}

// Touch records one qualifying activity at now. Repeated touches on the same
// calendar day are idempotent. A timestamp resolving to a day before the last
// recorded activity is rejected, not coerced.
func (s *Streaks) Touch(ctx context.Context, userID uint, now time.Time) (TouchResult, error) {
	today := s.cal.DayKey(now)

	for attempt := 0; attempt < conflictRetries; attempt++ {
		cur, err := s.store.GetStreak(ctx, userID)
		if err != nil {
			return TouchResult{}, err
		}

		if cur.LastActiveDay == today {
			return TouchResult{
				CurrentStreak: cur.CurrentStreak,
				LongestStreak: cur.LongestStreak,
			}, nil
		}

		next := StreakState{LastActiveDay: today, LongestStreak: cur.LongestStreak}
		var extended, broken bool
		if cur.LastActiveDay == "" {
			// first ever activity
			next.CurrentStreak = 1
			extended = true
		} else {
			gap, err := s.cal.DayGap(today, cur.LastActiveDay)
			if err != nil {
				return TouchResult{}, err
			}
			switch {
			case gap == 1:
				next.CurrentStreak = cur.CurrentStreak + 1
				extended = true
			case gap > 1:
				next.CurrentStreak = 1
				broken = true
			default:
				return TouchResult{}, fmt.Errorf("%w: activity day %s precedes last recorded day %s", ErrValidation, today, cur.LastActiveDay)
			}
		}
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}

		if err := s.store.SaveStreak(ctx, userID, cur, next, now); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return TouchResult{}, err
		}

		s.recorder.Record(Entry{
			Action:     "streak.touch",
			Resource:   "streak_record",
			ResourceID: today,
			ActorID:    userID,
			At:         now,
			Details: map[string]any{
				"current_streak": next.CurrentStreak,
				"longest_streak": next.LongestStreak,
				"extended":       extended,
				"broken":         broken,
			},
		})

		return TouchResult{
			CurrentStreak:  next.CurrentStreak,
			LongestStreak:  next.LongestStreak,
			StreakExtended: extended,
			StreakBroken:   broken,
		}, nil
	}

	return TouchResult{}, ErrConflict
}

// Status returns the stored streak without mutating it.
func (s *Streaks) Status(ctx context.Context, userID uint) (StreakState, error) {
	return s.store.GetStreak(ctx, userID)
}
