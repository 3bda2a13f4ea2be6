package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSink blocks Append until released, to simulate a slow transport.
type gatedSink struct {
	gate     chan struct{}
	appended chan Entry
}

func newGatedSink() *gatedSink {
	return &gatedSink{gate: make(chan struct{}), appended: make(chan Entry, 128)}
}

func (s *gatedSink) Append(_ context.Context, e Entry) error {
	<-s.gate
	s.appended <- e
	return nil
}

type failingSink struct{}

func (failingSink) Append(context.Context, Entry) error {
	return errors.New("transport down")
}

func TestRecorderDeliversEntries(t *testing.T) {
	ms := NewMemStore()
	rec := NewRecorder(ms, 16)

	rec.Record(Entry{Action: "points.award", ActorID: 1})
	rec.Record(Entry{Action: "streak.touch", ActorID: 1})
	rec.Close()

	audits := ms.Audits()
	require.Len(t, audits, 2)
	assert.Equal(t, "points.award", audits[0].Action)
	assert.False(t, audits[0].At.IsZero())
}

func TestRecorderNeverBlocksWhenQueueFull(t *testing.T) {
	sink := newGatedSink()
	rec := NewRecorder(sink, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			rec.Record(Entry{Action: "points.award", ActorID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(sink.gate)
	rec.Close()
}

func TestRecorderSwallowsSinkFailures(t *testing.T) {
	rec := NewRecorder(failingSink{}, 16)
	// must not panic or surface anything to the caller
	rec.Record(Entry{Action: "points.award", ActorID: 1})
	rec.Close()
}

func TestRecordAfterCloseIsNoop(t *testing.T) {
	ms := NewMemStore()
	rec := NewRecorder(ms, 16)
	rec.Close()

	rec.Record(Entry{Action: "points.award"})
	assert.Empty(t, ms.Audits())
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(Entry{Action: "points.award"})
}
