package cluster

import (
	"context"
	"sync"
)

// OfflineManager simulates cluster provisioning without any cloud
// credentials. The composition root injects it when no HCLOUD_TOKEN is
// configured, so the pipeline can be exercised end to end locally.
//
// A simulated cluster reports Creating for a short, fixed number of polls
// and then Succeeded.
type OfflineManager struct {
	mu    sync.Mutex
	polls map[string]int

	// PollsUntilReady is how many state queries a cluster stays in
	// Creating before flipping to Succeeded.
	PollsUntilReady int
}

// NewOfflineManager creates an OfflineManager.
func NewOfflineManager() *OfflineManager {
	return &OfflineManager{
		polls:           make(map[string]int),
		PollsUntilReady: 2,
	}
}

// EnsureCluster registers the simulated cluster.
func (m *OfflineManager) EnsureCluster(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.polls[name]; !ok {
		m.polls[name] = 0
	}
	return nil
}

// DestroyCluster forgets the simulated cluster.
func (m *OfflineManager) DestroyCluster(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.polls, name)
	return nil
}

// ClusterState walks the simulated cluster through Creating to Succeeded.
func (m *OfflineManager) ClusterState(_ context.Context, name string) (ProvisioningState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.polls[name]
	m.polls[name] = count + 1
	if count < m.PollsUntilReady {
		return StateCreating, nil
	}
	return StateSucceeded, nil
}

// Reconcile is a no-op for simulated clusters.
func (m *OfflineManager) Reconcile(_ context.Context, _ string) error {
	return nil
}
