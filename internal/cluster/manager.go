package cluster

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/pipewright/internal/config"
	hcloudp "github.com/imamik/pipewright/internal/platform/hcloud"
)

// Manager derives a single provisioning state label for a cluster from the
// cloud API and implements the best-effort reconcile action. It is the
// production StateClient behind the readiness waiter.
type Manager struct {
	infra hcloudp.InfrastructureManager
	prov  *Provisioner
	cfg   *config.Config
	log   logr.Logger
}

// NewManager creates a Manager.
func NewManager(infra hcloudp.InfrastructureManager, prov *Provisioner, cfg *config.Config, log logr.Logger) *Manager {
	return &Manager{infra: infra, prov: prov, cfg: cfg, log: log}
}

// ClusterState re-fetches the cluster's servers and aggregates their
// statuses into one label:
//
//   - every desired node exists and runs: Succeeded
//   - any node is off or in unknown status: Failed
//   - anything else: Creating (still in progress)
//
// Control-plane faults are wrapped with Infrastructure() so the waiter can
// distinguish them from a merely unready cluster.
func (m *Manager) ClusterState(ctx context.Context, clusterName string) (ProvisioningState, error) {
	servers, err := m.infra.GetServersByLabel(ctx, map[string]string{
		LabelCluster:   clusterName,
		LabelManagedBy: managedByValue,
	})
	if err != nil {
		if hcloudp.IsAPIUnavailable(err) {
			return "", Infrastructure(fmt.Errorf("failed to query cluster %s: %w", clusterName, err))
		}
		return "", fmt.Errorf("failed to query cluster %s: %w", clusterName, err)
	}

	desired := m.cfg.HCloud.ControlPlane.Count + m.cfg.HCloud.Workers.Count
	if len(servers) < desired {
		return StateCreating, nil
	}

	running := 0
	for _, server := range servers {
		switch server.Status {
		case hcloud.ServerStatusRunning:
			running++
		case hcloud.ServerStatusOff, hcloud.ServerStatusUnknown:
			return StateFailed, nil
		default:
			// starting, initializing, migrating, rebuilding: in progress
		}
	}

	if running == len(servers) {
		return StateSucceeded, nil
	}
	return StateCreating, nil
}

// Reconcile nudges a stuck cluster back toward readiness: servers stuck in
// a dead status are deleted and the provisioner is re-run to recreate the
// missing pieces. The action is best-effort by contract; callers must not
// depend on its outcome.
func (m *Manager) Reconcile(ctx context.Context, clusterName string) error {
	servers, err := m.infra.GetServersByLabel(ctx, map[string]string{
		LabelCluster:   clusterName,
		LabelManagedBy: managedByValue,
	})
	if err != nil {
		return fmt.Errorf("failed to list cluster servers: %w", err)
	}

	for _, server := range servers {
		switch server.Status {
		case hcloud.ServerStatusOff:
			// A powered-off node may just need a kick.
			m.log.Info("resetting powered-off node", "node", server.Name)
			if err := m.infra.ResetServer(ctx, server.Name); err != nil {
				m.log.Error(err, "failed to reset node, deleting instead", "node", server.Name)
				if err := m.infra.DeleteServer(ctx, server.Name); err != nil {
					return fmt.Errorf("failed to delete node %s: %w", server.Name, err)
				}
			}
		case hcloud.ServerStatusUnknown:
			m.log.Info("deleting node in unknown status", "node", server.Name)
			if err := m.infra.DeleteServer(ctx, server.Name); err != nil {
				return fmt.Errorf("failed to delete node %s: %w", server.Name, err)
			}
		default:
		}
	}

	// Recreate whatever is now missing.
	if err := m.prov.EnsureCluster(ctx, clusterName); err != nil {
		return fmt.Errorf("failed to re-run provisioning: %w", err)
	}
	return nil
}
