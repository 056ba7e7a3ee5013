package cluster

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/pipewright/internal/config"
	hcloudp "github.com/imamik/pipewright/internal/platform/hcloud"
	"github.com/imamik/pipewright/internal/util/keygen"
	"github.com/imamik/pipewright/internal/util/naming"
)

// Labels attached to every resource a cluster owns.
const (
	LabelCluster   = "cluster"
	LabelRole      = "role"
	LabelManagedBy = "managed-by"

	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"

	managedByValue = "pipewright"
)

// Provisioner creates the cloud resources backing a cluster: a private
// network, an SSH key, and the control-plane and worker servers.
type Provisioner struct {
	infra hcloudp.InfrastructureManager
	cfg   *config.Config
	log   logr.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(infra hcloudp.InfrastructureManager, cfg *config.Config, log logr.Logger) *Provisioner {
	return &Provisioner{infra: infra, cfg: cfg, log: log}
}

// EnsureCluster brings the cluster's cloud resources into existence.
// It is idempotent: resources that already exist are left untouched, so the
// reconcile path can call it again to fill gaps.
func (p *Provisioner) EnsureCluster(ctx context.Context, name string) error {
	labels := p.clusterLabels(name)

	keyPair, err := keygen.GenerateEd25519KeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate cluster ssh key: %w", err)
	}

	// EnsureSSHKey reuses an existing key of the same name, so the fresh
	// pair only matters for the first invocation per cluster.
	keyID, err := p.infra.EnsureSSHKey(ctx, name, string(keyPair.PublicKey), labels)
	if err != nil {
		return fmt.Errorf("failed to ensure ssh key: %w", err)
	}

	network, err := p.infra.EnsureNetwork(ctx, name, p.cfg.HCloud.NetworkCIDR, p.cfg.HCloud.NetworkZone, labels)
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}

	joinToken := uuid.NewString()

	if err := p.ensurePool(ctx, name, RoleControlPlane, p.cfg.HCloud.ControlPlane, keyID, network.ID, joinToken); err != nil {
		return err
	}
	if err := p.ensurePool(ctx, name, RoleWorker, p.cfg.HCloud.Workers, keyID, network.ID, joinToken); err != nil {
		return err
	}

	p.log.Info("cluster resources ensured", "cluster", name,
		"controlPlanes", p.cfg.HCloud.ControlPlane.Count, "workers", p.cfg.HCloud.Workers.Count)
	return nil
}

func (p *Provisioner) ensurePool(ctx context.Context, cluster, role string, pool config.NodePool, keyID, networkID int64, joinToken string) error {
	for i := 1; i <= pool.Count; i++ {
		nodeName := naming.Node(cluster, role, i)

		existing, err := p.infra.GetServerByName(ctx, nodeName)
		if err != nil {
			return fmt.Errorf("failed to look up node %s: %w", nodeName, err)
		}
		if existing != nil {
			p.log.V(1).Info("node already exists", "node", nodeName)
			continue
		}

		labels := p.clusterLabels(cluster)
		labels[LabelRole] = role

		p.log.Info("creating node", "node", nodeName, "role", role)
		_, err = p.infra.CreateServer(ctx, hcloudp.ServerCreateOpts{
			Name:       nodeName,
			Image:      p.cfg.HCloud.Image,
			ServerType: pool.ServerType,
			Location:   p.cfg.HCloud.Location,
			SSHKeyIDs:  []int64{keyID},
			Labels:     labels,
			UserData:   nodeUserData(cluster, role, joinToken),
			NetworkID:  networkID,
		})
		if err != nil {
			return fmt.Errorf("failed to create node %s: %w", nodeName, err)
		}
	}
	return nil
}

// DestroyCluster removes every resource the cluster owns.
func (p *Provisioner) DestroyCluster(ctx context.Context, name string) error {
	servers, err := p.infra.GetServersByLabel(ctx, p.clusterLabels(name))
	if err != nil {
		return fmt.Errorf("failed to list cluster servers: %w", err)
	}
	for _, server := range servers {
		if err := p.infra.DeleteServer(ctx, server.Name); err != nil {
			return fmt.Errorf("failed to delete server %s: %w", server.Name, err)
		}
	}

	if err := p.infra.DeleteNetwork(ctx, name); err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}
	if err := p.infra.DeleteSSHKey(ctx, name); err != nil {
		return fmt.Errorf("failed to delete ssh key: %w", err)
	}

	p.log.Info("cluster destroyed", "cluster", name)
	return nil
}

func (p *Provisioner) clusterLabels(name string) map[string]string {
	return map[string]string{
		LabelCluster:   name,
		LabelManagedBy: managedByValue,
	}
}

// nodeUserData renders the cloud-init script that turns a plain server
// into a k3s node. Control planes run the embedded server, workers join it
// through the cluster-internal DNS name of the first control plane.
func nodeUserData(cluster, role, joinToken string) string {
	if role == RoleControlPlane {
		return fmt.Sprintf(`#cloud-config
runcmd:
  - curl -sfL https://get.k3s.io | K3S_TOKEN=%s sh -s - server --cluster-init
`, joinToken)
	}
	server := naming.Node(cluster, RoleControlPlane, 1)
	return fmt.Sprintf(`#cloud-config
runcmd:
  - curl -sfL https://get.k3s.io | K3S_TOKEN=%s K3S_URL=https://%s:6443 sh -s - agent
`, joinToken, server)
}
