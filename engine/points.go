package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// conflictRetries bounds internal retries on a raced atomic update before the
// failure is surfaced to the caller.
const conflictRetries = 3

// AwardContext carries what the caller already decided about the triggering
// event. The bonus-multiplier decision belongs to the caller; the accrual
// controller only clamps and records.
type AwardContext struct {
	Source       string
	QuizID       string
	PerfectScore bool
}

// AwardResult summarizes one accrual.
type AwardResult struct {
	Awarded    int  `json:"awarded"`
	DailyTotal int  `json:"daily_total"`
	Capped     bool `json:"capped"`
}

// DailyStatus reports how much headroom a user has left today.
type DailyStatus struct {
	PointsAwardedToday int    `json:"points_awarded_today"`
	DailyPointsLimit   int    `json:"daily_points_limit"`
	Remaining          int    `json:"remaining"`
	DayKey             string `json:"day_key"`
}

// Points enforces the daily point ceiling. All ledger mutations for one
// (user, day) pair go through the store's atomic add-with-ceiling, so
// concurrent awards can never race past the cap.
type Points struct {
	ledger     LedgerStore
	cal        *Calendar
	dailyLimit int
	recorder   *Recorder
}

func NewPoints(ledger LedgerStore, cal *Calendar, dailyLimit int, recorder *Recorder) *Points {
	return &Points{
		ledger:     ledger,
		cal:        cal,
		dailyLimit: dailyLimit,
		recorder:   recorder,
	}
}

// Award adds rawPoints to the user's daily total, clamped to the configured
// ceiling. Negative rawPoints is a validation error, never clamped to zero.
func (p *Points) Award(ctx context.Context, userID uint, rawPoints int, actx AwardContext, now time.Time) (AwardResult, error) {
	if rawPoints < 0 {
		return AwardResult{}, fmt.Errorf("%w: raw points must not be negative, got %d", ErrValidation, rawPoints)
	}

	dayKey := p.cal.DayKey(now)

	var added, total int
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		added, total, err = p.ledger.AddWithCeiling(ctx, userID, dayKey, rawPoints, p.dailyLimit, now)
		if !errors.Is(err, ErrConflict) {
			break
		}
	}
	if err != nil {
		return AwardResult{}, err
	}

	res := AwardResult{
		Awarded:    added,
		DailyTotal: total,
		Capped:     rawPoints > added,
	}

	p.recorder.Record(Entry{
		Action:     "points.award",
		Resource:   "points_ledger",
		ResourceID: dayKey,
		ActorID:    userID,
		At:         now,
		Details: map[string]any{
			"raw_points":  rawPoints,
			"awarded":     added,
			"daily_total": total,
			"capped":      res.Capped,
			"source":      actx.Source,
			"quiz_id":     actx.QuizID,
			"perfect":     actx.PerfectScore,
		},
	})

	return res, nil
}

// Daily returns the user's accrual status for the day containing now.
func (p *Points) Daily(ctx context.Context, userID uint, now time.Time) (DailyStatus, error) {
	dayKey := p.cal.DayKey(now)
	total, err := p.ledger.DailyTotal(ctx, userID, dayKey)
	if err != nil {
		return DailyStatus{}, err
	}
	remaining := p.dailyLimit - total
	if remaining < 0 {
		remaining = 0
	}
	return DailyStatus{
		PointsAwardedToday: total,
		DailyPointsLimit:   p.dailyLimit,
		Remaining:          remaining,
		DayKey:             dayKey,
	}, nil
}
