package config

import (
	"fmt"
	"net"
	"strings"
)

var knownStages = map[string]bool{
	"review":    true,
	"predict":   true,
	"image":     true,
	"provision": true,
	"deploy":    true,
	"monitor":   true,
}

// Validate checks the configuration for inconsistencies that would only
// surface mid-pipeline otherwise.
func (c *Config) Validate() error {
	for _, s := range c.Pipeline.Stages {
		if !knownStages[s] {
			return fmt.Errorf("unknown pipeline stage %q", s)
		}
	}

	if c.Pipeline.KeepRuns < 0 {
		return fmt.Errorf("pipeline.keep_runs must not be negative")
	}

	if c.HCloud.NetworkCIDR != "" {
		if _, _, err := net.ParseCIDR(c.HCloud.NetworkCIDR); err != nil {
			return fmt.Errorf("invalid hcloud.network_cidr %q: %w", c.HCloud.NetworkCIDR, err)
		}
	}

	if c.HCloud.ControlPlane.Count < 0 || c.HCloud.Workers.Count < 0 {
		return fmt.Errorf("node pool counts must not be negative")
	}

	if c.stageEnabled("image") && c.Registry.URL != "" && strings.Contains(c.Registry.URL, "://") {
		return fmt.Errorf("registry.url must be a bare host, not a URL: %q", c.Registry.URL)
	}

	if c.stageEnabled("deploy") && c.Deploy.Helm.Name != "" && c.Deploy.Helm.Release == "" {
		return fmt.Errorf("deploy.helm.release is required when deploy.helm.name is set")
	}

	if c.stageEnabled("deploy") && c.Deploy.Kubeconfig != "" && c.Deploy.Helm.Name == "" && c.Pipeline.AppName == "" {
		return fmt.Errorf("pipeline.app_name is required for manifest deployments")
	}

	return nil
}

func (c *Config) stageEnabled(name string) bool {
	for _, s := range c.Pipeline.Stages {
		if s == name {
			return true
		}
	}
	return false
}

// StageEnabled reports whether the named stage is part of the configured chain.
func (c *Config) StageEnabled(name string) bool {
	return c.stageEnabled(name)
}
