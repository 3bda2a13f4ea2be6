package engine

import (
	"context"
	"time"
)

// StreakState is the persisted streak snapshot for one user.
// A zero value (LastActiveDay == "") means the user was never active.
type StreakState struct {
	CurrentStreak int
	LongestStreak int
	LastActiveDay string
}

// LedgerStore persists per-(user, day) point totals. The store, not process
// memory, is the source of truth so multiple instances stay consistent.
type LedgerStore interface {
	// AddWithCeiling atomically adds as much of points to the (userID, dayKey)
	// total as fits under ceiling, creating the row on first use. It returns
	// the amount actually added and the resulting daily total. Implementations
	// must serialize concurrent calls for the same key; a lost insert race is
	// reported as ErrConflict so the caller can retry.
	AddWithCeiling(ctx context.Context, userID uint, dayKey string, points, ceiling int, now time.Time) (added int, total int, err error)

	// DailyTotal returns the points awarded so far for (userID, dayKey),
	// 0 when no row exists.
	DailyTotal(ctx context.Context, userID uint, dayKey string) (int, error)
}

// StreakStore persists streak records with compare-and-swap semantics keyed
// on LastActiveDay, closing the read-then-write race between concurrent
// touches from the same user.
type StreakStore interface {
	// GetStreak returns the current state, zero-valued when absent.
	GetStreak(ctx context.Context, userID uint) (StreakState, error)

	// SaveStreak persists next only if the stored LastActiveDay still equals
	// expect.LastActiveDay (creating the record when expect is zero).
	// A failed swap is reported as ErrConflict.
	SaveStreak(ctx context.Context, userID uint, expect, next StreakState, now time.Time) error
}

// AuditSink is the durable destination for audit entries. Failures are the
// recorder's problem, never the caller's.
type AuditSink interface {
	Append(ctx context.Context, e Entry) error
}
