package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Stage is one agent in the chain. Run returns the stage's JSON report,
// which is recorded on the run and available to later stages through the
// shared State.
type Stage interface {
	// Name returns the stage's name as used in configuration.
	Name() string

	// Run executes the stage.
	Run(ctx *Context) (json.RawMessage, error)
}

// RecordFunc is called after every stage attempt, successful or not.
type RecordFunc func(stage string, output json.RawMessage, duration time.Duration, err error)

// RunStages executes all stages sequentially. The first failure aborts the
// chain; stages after it never run. Each stage runs under its own timeout.
func RunStages(ctx *Context, runID string, stages []Stage, record RecordFunc) error {
	for i, stage := range stages {
		name := stage.Name()
		ctx.Observer.StageStarted(runID, fmt.Sprintf("%s (%d/%d)", name, i+1, len(stages)))

		stageStart := time.Now()
		output, err := runStage(ctx, stage)
		elapsed := time.Since(stageStart)

		stageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		record(name, output, elapsed, err)

		if err != nil {
			stageFailures.WithLabelValues(name).Inc()
			ctx.Observer.StageFailed(runID, name, err)
			return fmt.Errorf("%s stage failed: %w", name, err)
		}
		ctx.Observer.StageCompleted(runID, name, output)
	}
	return nil
}

// runStage executes one stage under the configured stage timeout.
func runStage(ctx *Context, stage Stage) (json.RawMessage, error) {
	stageCtx := *ctx
	if ctx.Timeouts != nil && ctx.Timeouts.StageTimeout > 0 {
		tctx, cancel := context.WithTimeout(ctx.Context, ctx.Timeouts.StageTimeout)
		defer cancel()
		stageCtx.Context = tctx
	}
	return stage.Run(&stageCtx)
}
