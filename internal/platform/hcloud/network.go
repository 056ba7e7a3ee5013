package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureNetwork ensures that a private network with the given IP range
// exists, creating it with a single subnet spanning the range if missing.
func (c *RealClient) EnsureNetwork(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get network %s: %w", name, err)
	}
	if network != nil {
		if network.IPRange.String() != ipRange {
			return nil, fmt.Errorf("network %s exists but with different IP range %s (expected %s)",
				name, network.IPRange.String(), ipRange)
		}
		return network, nil
	}

	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, fmt.Errorf("invalid network ip range: %w", err)
	}

	network, _, err = c.client.Network.Create(ctx, hcloud.NetworkCreateOpts{
		Name:    name,
		IPRange: ipNet,
		Labels:  labels,
		Subnets: []hcloud.NetworkSubnet{{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipNet,
			NetworkZone: hcloud.NetworkZone(zone),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return network, nil
}

// DeleteNetwork deletes a network by name. A missing network is not an error.
func (c *RealClient) DeleteNetwork(ctx context.Context, name string) error {
	network, _, err := c.client.Network.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get network %s: %w", name, err)
	}
	if network == nil {
		return nil
	}
	if _, err := c.client.Network.Delete(ctx, network); err != nil {
		return fmt.Errorf("failed to delete network %s: %w", name, err)
	}
	return nil
}
