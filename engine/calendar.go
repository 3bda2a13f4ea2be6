package engine

import (
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Calendar converts timestamps to calendar-day keys in a single configured
// time zone. All temporal decisions in the engine go through it, so the other
// components reason only in day keys and integer day gaps, never raw clocks.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the given IANA zone name ("UTC", "Asia/Shanghai", ...).
func NewCalendar(timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Calendar{loc: loc}, nil
}

// DayKey returns the canonical day key for t in the configured zone.
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format(dayKeyLayout)
}

// DayGap returns the signed difference a-b in whole calendar days.
// Both keys are re-anchored at UTC midnight before subtracting, so the result
// counts calendar days rather than wall-clock hours and DST shifts cannot
// skew it.
func (c *Calendar) DayGap(a, b string) (int, error) {
	ta, err := time.ParseInLocation(dayKeyLayout, a, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: bad day key %q", ErrValidation, a)
	}
	tb, err := time.ParseInLocation(dayKeyLayout, b, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: bad day key %q", ErrValidation, b)
	}
	return int(ta.Sub(tb).Hours() / 24), nil
}
