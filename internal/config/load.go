package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(data)
}

// Load parses configuration from YAML bytes, applies defaults and validates.
func Load(data []byte) (*Config, error) {
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.WebhookSecretEnv == "" {
		c.Server.WebhookSecretEnv = "PIPEWRIGHT_WEBHOOK_SECRET"
	}
	if len(c.Pipeline.Stages) == 0 {
		c.Pipeline.Stages = append([]string(nil), DefaultStages...)
	}
	if c.Pipeline.KeepRuns == 0 {
		c.Pipeline.KeepRuns = 100
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.SCM.TokenEnv == "" {
		c.SCM.TokenEnv = "GITHUB_TOKEN"
	}
	if c.Registry.PasswordEnv == "" {
		c.Registry.PasswordEnv = "REGISTRY_PASSWORD"
	}
	if c.Registry.Dockerfile == "" {
		c.Registry.Dockerfile = "Dockerfile"
	}
	if c.HCloud.TokenEnv == "" {
		c.HCloud.TokenEnv = "HCLOUD_TOKEN"
	}
	if c.HCloud.Location == "" {
		c.HCloud.Location = "fsn1"
	}
	if c.HCloud.NetworkZone == "" {
		c.HCloud.NetworkZone = "eu-central"
	}
	if c.HCloud.NetworkCIDR == "" {
		c.HCloud.NetworkCIDR = "10.0.0.0/16"
	}
	if c.HCloud.Image == "" {
		c.HCloud.Image = "ubuntu-24.04"
	}
	if c.HCloud.ControlPlane.Count == 0 {
		c.HCloud.ControlPlane.Count = 1
	}
	if c.HCloud.ControlPlane.ServerType == "" {
		c.HCloud.ControlPlane.ServerType = "cx22"
	}
	if c.HCloud.Workers.ServerType == "" {
		c.HCloud.Workers.ServerType = "cx22"
	}
	if c.Deploy.Namespace == "" {
		c.Deploy.Namespace = "default"
	}
	if c.Deploy.Replicas == 0 {
		c.Deploy.Replicas = 1
	}
	if c.Deploy.Port == 0 {
		c.Deploy.Port = 8080
	}
	if c.Monitor.Selector == "" && c.Pipeline.AppName != "" {
		c.Monitor.Selector = "app=" + c.Pipeline.AppName
	}
	if c.Artifacts.AccessKeyEnv == "" {
		c.Artifacts.AccessKeyEnv = "ARTIFACTS_ACCESS_KEY"
	}
	if c.Artifacts.SecretKeyEnv == "" {
		c.Artifacts.SecretKeyEnv = "ARTIFACTS_SECRET_KEY"
	}
}
