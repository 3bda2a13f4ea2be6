package engine

import (
	"context"
	"sync"
	"time"

	"github.com/lumenlearn/engage/utils"
)

// Entry describes one state-changing decision for later inspection.
type Entry struct {
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	ActorID    uint
	At         time.Time
}

// Recorder writes audit entries through a buffered channel drained by a
// single background worker. Record never blocks and never fails the caller:
// when the queue is full the entry is dropped, when the sink errors the
// failure is logged and swallowed.
type Recorder struct {
	sink AuditSink
	ch   chan Entry

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewRecorder starts the background worker with the given queue capacity.
func NewRecorder(sink AuditSink, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	r := &Recorder{
		sink: sink,
		ch:   make(chan Entry, queueSize),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := r.sink.Append(ctx, e)
		cancel()
		if err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("audit append failed action=%s actor=%d err=%v", e.Action, e.ActorID, err)
		}
	}
}

// Record enqueues an entry, dropping it when the queue is full or the
// recorder is closed. It is safe for concurrent use.
func (r *Recorder) Record(e Entry) {
	if r == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- e:
	default:
		if utils.Sugar != nil {
			utils.Sugar.Warnf("audit queue full, dropping entry action=%s actor=%d", e.Action, e.ActorID)
		}
	}
}

// Close stops accepting entries and drains what is already queued.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	<-r.done
}
