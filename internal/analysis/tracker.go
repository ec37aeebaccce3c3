package analysis

import (
	"sync"

	"github.com/baystate-gis/parcel-audit/internal/model"
)

// Reporter receives progress callbacks during a run. Implementations must
// tolerate concurrent calls when classification is parallelized.
type Reporter interface {
	Start(total int, message string)
	Step(current int, message string)
	Done(message string)
	Fail(message string)
}

// NopReporter discards all progress updates.
type NopReporter struct{}

func (NopReporter) Start(int, string) {}
func (NopReporter) Step(int, string)  {}
func (NopReporter) Done(string)       {}
func (NopReporter) Fail(string)       {}

// Tracker is a pollable Reporter: it keeps the latest snapshot behind a
// mutex for the serving layer's progress endpoint. Current is monotonic
// within a run.
type Tracker struct {
	mu   sync.Mutex
	snap model.ProgressSnapshot
}

// NewTracker returns a tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{snap: model.ProgressSnapshot{Status: model.ProgressIdle}}
}

// Start resets the tracker for a new run.
func (t *Tracker) Start(total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = model.ProgressSnapshot{
		Total:   total,
		Status:  model.ProgressProcessing,
		Message: message,
	}
}

// Step records completion of the current-th property.
func (t *Tracker) Step(current int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current > t.snap.Current {
		t.snap.Current = current
	}
	t.snap.Message = message
}

// Done marks the run complete.
func (t *Tracker) Done(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = model.ProgressComplete
	t.snap.Message = message
}

// Fail marks the run failed. Distinct from Done so pollers are never left
// watching a stale "processing" state after a fatal error.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = model.ProgressError
	t.snap.Message = message
}

// Snapshot returns a copy of the current progress state.
func (t *Tracker) Snapshot() model.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}
