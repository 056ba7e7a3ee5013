package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating a server.
type ServerCreateOpts struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKeyIDs  []int64
	Labels     map[string]string
	UserData   string
	NetworkID  int64
}

// ServerProvisioner defines the interface for provisioning servers.
type ServerProvisioner interface {
	// CreateServer creates a new server and returns its ID. It is
	// idempotent: if a server with the same name already exists, its ID
	// is returned without creating anything.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (int64, error)
	DeleteServer(ctx context.Context, name string) error
	// GetServerByName returns the server, or nil if it does not exist.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
	GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	ResetServer(ctx context.Context, name string) error
}

// NetworkManager defines the interface for managing private networks.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error)
	DeleteNetwork(ctx context.Context, name string) error
}

// SSHKeyManager defines the interface for managing SSH keys.
type SSHKeyManager interface {
	// EnsureSSHKey uploads the public key under the given name and
	// returns the key ID. An existing key with the same name is reused.
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (int64, error)
	DeleteSSHKey(ctx context.Context, name string) error
}

// InfrastructureManager aggregates all cloud capabilities the cluster
// package needs.
type InfrastructureManager interface {
	ServerProvisioner
	NetworkManager
	SSHKeyManager
}
