package hcloud

import (
	"context"
	"fmt"

	"github.com/imamik/pipewright/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateServer creates a new server with the given specifications.
// If a server with the same name already exists its ID is returned.
func (c *RealClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerCreate)
	defer cancel()

	existing, _, err := c.client.Server.Get(ctx, opts.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up server %s: %w", opts.Name, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	createOpts, err := c.buildServerCreateOpts(ctx, opts)
	if err != nil {
		return 0, err
	}

	result, err := c.createServerWithRetry(ctx, createOpts)
	if err != nil {
		return 0, err
	}

	return result.Server.ID, nil
}

// buildServerCreateOpts resolves named resources into API objects.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, opts ServerCreateOpts) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, opts.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s", opts.Image)
	}

	location, _, err := c.client.Location.Get(ctx, opts.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location: %w", err)
	}

	sshKeys := make([]*hcloud.SSHKey, 0, len(opts.SSHKeyIDs))
	for _, id := range opts.SSHKeyIDs {
		sshKeys = append(sshKeys, &hcloud.SSHKey{ID: id})
	}

	created := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		SSHKeys:    sshKeys,
		Labels:     opts.Labels,
		UserData:   opts.UserData,
	}
	if opts.NetworkID != 0 {
		created.Networks = []*hcloud.Network{{ID: opts.NetworkID}}
	}
	return created, nil
}

// createServerWithRetry creates a server with exponential backoff retry logic.
func (c *RealClient) createServerWithRetry(ctx context.Context, opts hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, error) {
	var result hcloud.ServerCreateResult

	err := retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))

	if err != nil {
		return result, fmt.Errorf("failed to create server: %w", err)
	}

	if err := c.client.Action.WaitFor(ctx, result.Action); err != nil {
		return result, fmt.Errorf("failed to wait for server creation: %w", err)
	}

	return result, nil
}

// DeleteServer deletes a server by name. Deleting a server that does not
// exist is not an error.
func (c *RealClient) DeleteServer(ctx context.Context, name string) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		server, _, err := c.client.Server.Get(ctx, name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get server: %w", err))
		}
		if server == nil {
			return nil
		}

		_, _, err = c.client.Server.DeleteWithResult(ctx, server)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

// GetServerByName returns the full server object by name, or nil if not found.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", name, err)
	}
	return server, nil
}

// GetServersByLabel returns all servers matching the given labels.
func (c *RealClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	selector := ""
	for k, v := range labels {
		if selector != "" {
			selector += ","
		}
		selector += fmt.Sprintf("%s=%s", k, v)
	}

	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: selector},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers by label %q: %w", selector, err)
	}
	return servers, nil
}

// ResetServer power-cycles a server by name.
func (c *RealClient) ResetServer(ctx context.Context, name string) error {
	server, _, err := c.client.Server.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get server %s: %w", name, err)
	}
	if server == nil {
		return fmt.Errorf("server not found: %s", name)
	}

	action, _, err := c.client.Server.Reset(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to reset server %s: %w", name, err)
	}
	if err := c.client.Action.WaitFor(ctx, action); err != nil {
		return fmt.Errorf("failed to wait for server reset: %w", err)
	}
	return nil
}
