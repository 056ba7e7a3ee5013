package cluster

import (
	"errors"
	"fmt"
	"time"
)

// InfrastructureError marks an error as an infrastructure-layer fault:
// the cloud control plane itself misbehaved, as opposed to the cluster
// being in a bad state. The readiness waiter treats such faults as a
// reconcile trigger.
type InfrastructureError struct {
	Err error
}

func (e *InfrastructureError) Error() string {
	return e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Infrastructure marks an error as an infrastructure-layer fault.
func Infrastructure(err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Err: err}
}

// IsInfrastructure checks if an error is an infrastructure-layer fault.
func IsInfrastructure(err error) bool {
	var infraErr *InfrastructureError
	return errors.As(err, &infraErr)
}

// TimeoutError is returned when a cluster did not become ready within the
// wall-clock budget of a wait session. It is the only error the waiter
// surfaces to callers.
type TimeoutError struct {
	Cluster string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("cluster %s not ready after %s", e.Cluster, e.Elapsed.Round(time.Millisecond))
}
