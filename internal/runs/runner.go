package runs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imamik/pipewright/internal/artifacts"
	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/pipeline"
)

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipewright_runs_total",
	Help: "Completed pipeline runs by terminal status.",
}, []string{"status"})

// Runner executes pipeline runs against the registry.
type Runner struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	registry *Registry
	stages   []pipeline.Stage
	observer pipeline.Observer
	store    artifacts.Store
	log      logr.Logger
}

// NewRunner creates a Runner. The stage slice is the already-composed agent
// chain; store may be a no-op.
func NewRunner(cfg *config.Config, timeouts *config.Timeouts, registry *Registry, stages []pipeline.Stage, observer pipeline.Observer, store artifacts.Store, log logr.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		timeouts: timeouts,
		registry: registry,
		stages:   stages,
		observer: observer,
		store:    store,
		log:      log,
	}
}

// Registry exposes the run store for the HTTP handlers.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Report fetches the persisted report for a finished run from the artifact
// store.
func (r *Runner) Report(ctx context.Context, id string) ([]byte, error) {
	if r.store == nil {
		return nil, artifacts.ErrNoReport
	}
	return r.store.GetReport(ctx, id)
}

// Launch creates a run for the event and executes it on a new goroutine.
func (r *Runner) Launch(event pipeline.Event) *Run {
	run := r.registry.Create(event)
	go r.Execute(context.Background(), run.ID)
	return run
}

// Execute runs the agent chain for an already-registered run. It is
// synchronous; Launch wraps it in a goroutine.
func (r *Runner) Execute(ctx context.Context, id string) {
	run := r.registry.Get(id)
	if run == nil {
		r.log.Info("run vanished before execution", "run", id)
		return
	}

	r.registry.SetStatus(id, StatusRunning)
	pctx := pipeline.NewContext(ctx, run.Event, r.cfg, r.timeouts, r.observer)

	err := pipeline.RunStages(pctx, id, r.stages, func(stage string, output json.RawMessage, duration time.Duration, stageErr error) {
		result := StageResult{
			Name:       stage,
			Status:     StatusSucceeded,
			Output:     output,
			StartedAt:  time.Now().UTC().Add(-duration),
			FinishedAt: time.Now().UTC(),
		}
		if stageErr != nil {
			result.Status = StatusFailed
			result.Error = stageErr.Error()
		}
		r.registry.RecordStage(id, result)
	})

	status := StatusSucceeded
	errMsg := ""
	if err != nil {
		status = StatusFailed
		errMsg = err.Error()
	}
	r.registry.Finish(id, status, errMsg)
	runsTotal.WithLabelValues(string(status)).Inc()

	r.uploadReport(ctx, id)
}

// uploadReport persists the finished run to object storage, best effort.
func (r *Runner) uploadReport(ctx context.Context, id string) {
	if r.store == nil {
		return
	}
	run := r.registry.Get(id)
	if run == nil {
		return
	}
	report, err := json.Marshal(run)
	if err != nil {
		r.log.Error(err, "failed to marshal run report", "run", id)
		return
	}
	if err := r.store.SaveReport(ctx, id, report); err != nil {
		r.log.Error(err, "failed to upload run report", "run", id)
	}
}
