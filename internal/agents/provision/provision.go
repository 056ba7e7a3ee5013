// Package provision implements the cluster provisioning stage. It ensures
// the per-branch cluster exists and then waits for it to become ready
// within the configured budget.
package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/pipewright/internal/cluster"
	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/util/naming"
)

// Ensurer creates the cluster's infrastructure idempotently.
type Ensurer interface {
	EnsureCluster(ctx context.Context, name string) error
}

// Report is the stage output stored on the run.
type Report struct {
	Cluster string `json:"cluster"`
	Ready   bool   `json:"ready"`
	Budget  string `json:"budget"`
	Elapsed string `json:"elapsed"`
}

// Agent is the provisioning pipeline stage.
type Agent struct {
	ensurer Ensurer
	state   cluster.StateClient
	log     logr.Logger
}

// New creates a provision agent. The state client is also the reconcile
// target of the readiness waiter.
func New(ensurer Ensurer, state cluster.StateClient, log logr.Logger) *Agent {
	return &Agent{ensurer: ensurer, state: state, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "provision" }

// Run ensures the cluster and blocks until it is ready or the readiness
// budget is exhausted.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	name := naming.Cluster(ctx.Event.Repository, ctx.Event.Ref)
	ctx.State.ClusterName = name

	if err := a.ensurer.EnsureCluster(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to ensure cluster %s: %w", name, err)
	}

	waiter := cluster.NewReadinessWaiter(a.state,
		cluster.WithPollInterval(ctx.Timeouts.ReadinessInterval),
		cluster.WithLogger(a.log),
	)

	start := time.Now()
	if err := waiter.WaitUntilReady(ctx, name, ctx.Timeouts.ReadinessBudget); err != nil {
		return nil, err
	}

	ctx.State.ClusterReady = true
	report := Report{
		Cluster: name,
		Ready:   true,
		Budget:  ctx.Timeouts.ReadinessBudget.String(),
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	}
	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provision report: %w", err)
	}
	return out, nil
}
