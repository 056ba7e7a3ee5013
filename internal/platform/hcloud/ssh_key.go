package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureSSHKey uploads the public key under the given name and returns the
// key ID. An existing key with the same name is reused as-is.
func (c *RealClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (int64, error) {
	key, _, err := c.client.SSHKey.Get(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	if key != nil {
		return key.ID, nil
	}

	key, _, err = c.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create ssh key %s: %w", name, err)
	}
	return key.ID, nil
}

// DeleteSSHKey deletes an SSH key by name. A missing key is not an error.
func (c *RealClient) DeleteSSHKey(ctx context.Context, name string) error {
	key, _, err := c.client.SSHKey.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	if key == nil {
		return nil
	}
	if _, err := c.client.SSHKey.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete ssh key %s: %w", name, err)
	}
	return nil
}
