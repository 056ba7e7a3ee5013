package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconcileAttempts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pipewright_cluster_reconcile_attempts_total",
	Help: "Number of one-shot reconcile actions triggered by readiness waits.",
})
