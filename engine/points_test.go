package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPointsFixture(t *testing.T, limit int) (*Points, *MemStore, *Recorder) {
	t.Helper()
	cal, err := NewCalendar("UTC")
	require.NoError(t, err)
	ms := NewMemStore()
	rec := NewRecorder(ms, 64)
	return NewPoints(ms, cal, limit, rec), ms, rec
}

func TestAwardClampsAtDailyLimit(t *testing.T) {
	p, ms, rec := newPointsFixture(t, 100)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	res, err := p.Award(context.Background(), 1, 95, AwardContext{Source: "quiz"}, now)
	require.NoError(t, err)
	assert.Equal(t, 95, res.Awarded)
	assert.Equal(t, 95, res.DailyTotal)
	assert.False(t, res.Capped)

	res, err = p.Award(context.Background(), 1, 20, AwardContext{Source: "quiz"}, now)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Awarded)
	assert.Equal(t, 100, res.DailyTotal)
	assert.True(t, res.Capped)

	// already at the ceiling: nothing more today
	res, err = p.Award(context.Background(), 1, 10, AwardContext{Source: "quiz"}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Awarded)
	assert.Equal(t, 100, res.DailyTotal)
	assert.True(t, res.Capped)

	rec.Close()
	audits := ms.Audits()
	require.Len(t, audits, 3)
	assert.Equal(t, "points.award", audits[0].Action)
	assert.Equal(t, false, audits[0].Details["capped"])
	assert.Equal(t, true, audits[1].Details["capped"])
}

func TestAwardRejectsNegativePoints(t *testing.T) {
	p, _, rec := newPointsFixture(t, 100)
	defer rec.Close()

	_, err := p.Award(context.Background(), 1, -5, AwardContext{}, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAwardNewDayNewBudget(t *testing.T) {
	p, _, rec := newPointsFixture(t, 100)
	defer rec.Close()

	day1 := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC)

	res, err := p.Award(context.Background(), 1, 100, AwardContext{}, day1)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Awarded)

	res, err = p.Award(context.Background(), 1, 40, AwardContext{}, day2)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Awarded)
	assert.Equal(t, 40, res.DailyTotal)
	assert.False(t, res.Capped)
}

func TestDailyStatus(t *testing.T) {
	p, _, rec := newPointsFixture(t, 100)
	defer rec.Close()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	status, err := p.Daily(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 0, status.PointsAwardedToday)
	assert.Equal(t, 100, status.Remaining)

	_, err = p.Award(context.Background(), 1, 60, AwardContext{}, now)
	require.NoError(t, err)

	status, err = p.Daily(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 60, status.PointsAwardedToday)
	assert.Equal(t, 100, status.DailyPointsLimit)
	assert.Equal(t, 40, status.Remaining)
	assert.Equal(t, "2024-05-01", status.DayKey)
}

func TestAwardConcurrentNeverExceedsLimit(t *testing.T) {
	const limit = 100
	p, ms, rec := newPointsFixture(t, limit)
	defer rec.Close()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var awarded int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Award(context.Background(), 1, 10, AwardContext{}, now)
			if err == nil {
				atomic.AddInt64(&awarded, int64(res.Awarded))
			}
		}()
	}
	wg.Wait()

	total, err := ms.DailyTotal(context.Background(), 1, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, limit, total)
	assert.Equal(t, int64(limit), awarded)
}
