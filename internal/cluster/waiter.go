package cluster

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// ProvisioningState is the lifecycle label the cloud API reports for a
// cluster. The set is open: anything that is not StateSucceeded or
// StateFailed counts as still in progress.
type ProvisioningState string

const (
	// StateSucceeded means the cluster is ready.
	StateSucceeded ProvisioningState = "Succeeded"
	// StateFailed means provisioning is stuck and a reconcile may help.
	StateFailed ProvisioningState = "Failed"
	// StateCreating is one of the in-progress labels. The waiter does not
	// treat it specially; it is exported for reporting.
	StateCreating ProvisioningState = "Creating"
)

// StateClient provides the two capabilities the readiness waiter consumes.
// Manager is the production implementation.
type StateClient interface {
	// ClusterState re-fetches the current provisioning state. Errors
	// wrapped with Infrastructure() indicate a control-plane fault.
	ClusterState(ctx context.Context, clusterName string) (ProvisioningState, error)

	// Reconcile requests a best-effort corrective action for a cluster
	// believed to be stuck. Its outcome does not change the waiter's
	// control flow.
	Reconcile(ctx context.Context, clusterName string) error
}

// DefaultPollInterval is the pause between state polls.
const DefaultPollInterval = 30 * time.Second

// ReadinessWaiter polls a cluster's provisioning state until it becomes
// ready, giving up after a wall-clock budget.
//
// Per wait session, the reconcile action is attempted at most once, no
// matter how often a failed state is observed afterwards. Repeated
// reconcile calls against a fault that is not self-healing would only
// hammer the control plane.
type ReadinessWaiter struct {
	client   StateClient
	interval time.Duration
	log      logr.Logger
}

// WaiterOption configures a ReadinessWaiter.
type WaiterOption func(*ReadinessWaiter)

// WithPollInterval overrides the polling interval.
func WithPollInterval(d time.Duration) WaiterOption {
	return func(w *ReadinessWaiter) {
		w.interval = d
	}
}

// WithLogger sets the waiter's logger.
func WithLogger(log logr.Logger) WaiterOption {
	return func(w *ReadinessWaiter) {
		w.log = log
	}
}

// NewReadinessWaiter creates a waiter around the given state client.
func NewReadinessWaiter(client StateClient, opts ...WaiterOption) *ReadinessWaiter {
	w := &ReadinessWaiter{
		client:   client,
		interval: DefaultPollInterval,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitUntilReady polls the cluster state until it reports StateSucceeded.
//
// A transient state-query error never aborts the wait; the loop continues
// until the budget is exhausted. A failed state, or a query error classified
// as infrastructure-layer, triggers the one-shot reconcile. A budget of zero
// or less fails immediately without querying. The only error returned is
// *TimeoutError; context cancellation is the caller's abandonment path.
func (w *ReadinessWaiter) WaitUntilReady(ctx context.Context, clusterName string, budget time.Duration) error {
	start := time.Now()
	reconciled := false

	for time.Since(start) < budget {
		state, err := w.client.ClusterState(ctx, clusterName)
		switch {
		case err != nil:
			w.log.Info("cluster state query failed, continuing to poll",
				"cluster", clusterName, "error", err.Error())
			if IsInfrastructure(err) && !reconciled {
				w.reconcile(ctx, clusterName)
				reconciled = true
			}
		case state == StateSucceeded:
			w.log.Info("cluster is ready",
				"cluster", clusterName, "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		case state == StateFailed && !reconciled:
			w.log.Info("cluster reported failed state, attempting reconcile",
				"cluster", clusterName)
			w.reconcile(ctx, clusterName)
			reconciled = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}

	return &TimeoutError{Cluster: clusterName, Elapsed: time.Since(start)}
}

// reconcile runs the one-shot corrective action. Failures are logged and
// swallowed: the session's flag is set by the caller regardless, and the
// wait keeps polling either way.
func (w *ReadinessWaiter) reconcile(ctx context.Context, clusterName string) {
	reconcileAttempts.Inc()
	if err := w.client.Reconcile(ctx, clusterName); err != nil {
		w.log.Error(err, "reconcile attempt failed", "cluster", clusterName)
	}
}
