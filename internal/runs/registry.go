// Package runs tracks pipeline runs in memory and drives their execution.
//
// The service is a proof of concept: runs live only as long as the process,
// capped at a configurable count. Finished run reports can additionally be
// uploaded to object storage by the runner.
package runs

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imamik/pipewright/internal/pipeline"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StageResult records one stage execution within a run.
type StageResult struct {
	Name       string          `json:"name"`
	Status     Status          `json:"status"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Run is one pipeline execution.
type Run struct {
	ID         string         `json:"id"`
	Event      pipeline.Event `json:"event"`
	Status     Status         `json:"status"`
	Stages     []StageResult  `json:"stages,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Registry is a bounded, mutex-guarded in-memory run store.
type Registry struct {
	mu       sync.RWMutex
	runs     map[string]*Run
	order    []string
	keepRuns int
}

// NewRegistry creates a Registry that retains at most keepRuns finished runs.
func NewRegistry(keepRuns int) *Registry {
	if keepRuns <= 0 {
		keepRuns = 100
	}
	return &Registry{
		runs:     make(map[string]*Run),
		keepRuns: keepRuns,
	}
}

// Create registers a new queued run for the event and returns it.
func (r *Registry) Create(event pipeline.Event) *Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &Run{
		ID:        uuid.NewString(),
		Event:     event,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	r.runs[run.ID] = run
	r.order = append(r.order, run.ID)
	r.evictLocked()
	return r.snapshotLocked(run.ID)
}

// Get returns a copy of the run, or nil if unknown.
func (r *Registry) Get(id string) *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(id)
}

// List returns copies of all retained runs, newest first.
func (r *Registry) List() []*Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Run, 0, len(r.runs))
	for id := range r.runs {
		out = append(out, r.snapshotLocked(id))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SetStatus transitions the run to the given status.
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.Status = status
	}
}

// RecordStage appends one stage result to the run.
func (r *Registry) RecordStage(id string, result StageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.Stages = append(run.Stages, result)
	}
}

// Finish marks the run terminal with the given status and error message.
func (r *Registry) Finish(id string, status Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		now := time.Now().UTC()
		run.Status = status
		run.Error = errMsg
		run.FinishedAt = &now
	}
}

// evictLocked drops the oldest runs beyond the retention cap.
func (r *Registry) evictLocked() {
	for len(r.order) > r.keepRuns {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.runs, oldest)
	}
}

// snapshotLocked returns a deep-enough copy for handler serialization.
func (r *Registry) snapshotLocked(id string) *Run {
	run, ok := r.runs[id]
	if !ok {
		return nil
	}
	cp := *run
	cp.Stages = append([]StageResult(nil), run.Stages...)
	return &cp
}
