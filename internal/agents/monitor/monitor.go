// Package monitor implements the post-deploy health check stage. It watches
// pod readiness for the deployed app until all pods are ready or the monitor
// window closes.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/pipewright/internal/k8s"
	"github.com/imamik/pipewright/internal/pipeline"
)

// HealthChecker watches and samples pod health for a label selector.
type HealthChecker interface {
	WaitForPodsReady(ctx context.Context, namespace, labelSelector string, timeout time.Duration) error
	CheckPodHealth(ctx context.Context, namespace, labelSelector string) (k8s.PodHealth, error)
}

// Report is the stage output stored on the run.
type Report struct {
	Selector string `json:"selector"`
	Healthy  bool   `json:"healthy"`
	Pods     int    `json:"pods"`
	Ready    int    `json:"ready"`
	Restarts int    `json:"restarts"`
	Window   string `json:"window"`
}

// Agent is the monitoring pipeline stage.
type Agent struct {
	checker HealthChecker
	log     logr.Logger
}

// New creates a monitor agent.
func New(checker HealthChecker, log logr.Logger) *Agent {
	return &Agent{checker: checker, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "monitor" }

// Run waits for all pods matching the app selector to become ready within
// the monitor window, then samples a final health summary for the report.
// Only an app that never becomes healthy fails the stage.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	namespace := ctx.State.Namespace
	if namespace == "" {
		namespace = "default"
	}
	selector := ctx.Config.Monitor.Selector
	window := ctx.Timeouts.MonitorWindow

	waitErr := a.checker.WaitForPodsReady(ctx, namespace, selector, window)
	if waitErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	health, err := a.checker.CheckPodHealth(ctx, namespace, selector)
	if err != nil {
		a.log.Error(err, "final health sample failed", "selector", selector)
	}

	report := Report{
		Selector: selector,
		Healthy:  waitErr == nil,
		Pods:     health.Total,
		Ready:    health.Ready,
		Restarts: health.Restarts,
		Window:   window.String(),
	}
	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal monitor report: %w", err)
	}

	if waitErr != nil {
		return out, fmt.Errorf("app %q not healthy after %s: %d/%d pods ready", selector, window, health.Ready, health.Total)
	}
	return out, nil
}
