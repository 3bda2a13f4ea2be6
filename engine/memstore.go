package engine

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory implementation of the store interfaces. It backs
// unit tests and degraded single-process operation; production uses the
// database-backed store. One mutex serializes all mutations, which is
// stricter than the per-key atomicity the interfaces require.
type MemStore struct {
	mu      sync.Mutex
	ledgers map[ledgerKey]int
	streaks map[uint]StreakState
	audits  []Entry
}

type ledgerKey struct {
	userID uint
	dayKey string
}

func NewMemStore() *MemStore {
	return &MemStore{
		ledgers: map[ledgerKey]int{},
		streaks: map[uint]StreakState{},
	}
}

func (m *MemStore) AddWithCeiling(_ context.Context, userID uint, dayKey string, points, ceiling int, _ time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := ledgerKey{userID: userID, dayKey: dayKey}
	current := m.ledgers[k]
	room := ceiling - current
	if room < 0 {
		room = 0
	}
	added := points
	if added > room {
		added = room
	}
	m.ledgers[k] = current + added
	return added, current + added, nil
}

func (m *MemStore) DailyTotal(_ context.Context, userID uint, dayKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgers[ledgerKey{userID: userID, dayKey: dayKey}], nil
}

func (m *MemStore) GetStreak(_ context.Context, userID uint) (StreakState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaks[userID], nil
}

func (m *MemStore) SaveStreak(_ context.Context, userID uint, expect, next StreakState, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.streaks[userID].LastActiveDay != expect.LastActiveDay {
		return ErrConflict
	}
	m.streaks[userID] = next
	return nil
}

func (m *MemStore) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, e)
	return nil
}

// Audits returns a copy of the recorded entries. Test helper.
func (m *MemStore) Audits() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.audits))
	copy(out, m.audits)
	return out
}
