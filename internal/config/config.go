package config

// Config is the top-level service configuration, loaded from a YAML file.
// Secrets are never read from the file; they come from environment
// variables resolved at composition time (see the commands package).
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	LLM       LLMConfig       `mapstructure:"llm"`
	SCM       SCMConfig       `mapstructure:"scm"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	HCloud    HCloudConfig    `mapstructure:"hcloud"`
	Deploy    DeployConfig    `mapstructure:"deploy"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to, e.g. ":8080".
	Listen string `mapstructure:"listen"`
	// WebhookSecretEnv names the environment variable holding the shared
	// secret expected in the X-Pipewright-Token header. Empty disables
	// the check (local development only).
	WebhookSecretEnv string `mapstructure:"webhook_secret_env"`
}

// PipelineConfig selects which stages run and how many finished runs
// the in-memory registry retains.
type PipelineConfig struct {
	Stages   []string `mapstructure:"stages"`
	KeepRuns int      `mapstructure:"keep_runs"`
	AppName  string   `mapstructure:"app_name"`
}

// LLMConfig configures the completion endpoint used by the review and
// predict agents.
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// Temperature is the sampling temperature for completions. Review and
	// predict verdicts want low-variance output, so the default is 0.2.
	Temperature float32 `mapstructure:"temperature"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
}

// SCMConfig configures the source-control REST API client.
type SCMConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	TokenEnv string `mapstructure:"token_env"`
}

// RegistryConfig configures image build and push.
type RegistryConfig struct {
	// URL is the registry host, e.g. "registry.example.com".
	URL         string `mapstructure:"url"`
	Repository  string `mapstructure:"repository"`
	Username    string `mapstructure:"username"`
	PasswordEnv string `mapstructure:"password_env"`
	// Dockerfile is the path of the Dockerfile inside the build context.
	Dockerfile string `mapstructure:"dockerfile"`
}

// NodePool describes one group of identically sized cluster nodes.
type NodePool struct {
	Count      int    `mapstructure:"count"`
	ServerType string `mapstructure:"server_type"`
}

// HCloudConfig configures cluster provisioning on Hetzner Cloud.
type HCloudConfig struct {
	TokenEnv     string   `mapstructure:"token_env"`
	Location     string   `mapstructure:"location"`
	NetworkZone  string   `mapstructure:"network_zone"`
	NetworkCIDR  string   `mapstructure:"network_cidr"`
	Image        string   `mapstructure:"image"`
	ControlPlane NodePool `mapstructure:"control_plane"`
	Workers      NodePool `mapstructure:"workers"`
}

// HelmChart identifies a chart to install instead of raw manifests.
type HelmChart struct {
	RepoURL string                 `mapstructure:"repo_url"`
	Name    string                 `mapstructure:"name"`
	Version string                 `mapstructure:"version"`
	Release string                 `mapstructure:"release"`
	Values  map[string]interface{} `mapstructure:"values"`
}

// DeployConfig configures the deployment target.
type DeployConfig struct {
	// Kubeconfig is the path to the kubeconfig of the target cluster.
	// Empty disables the deploy and monitor stages.
	Kubeconfig string    `mapstructure:"kubeconfig"`
	Namespace  string    `mapstructure:"namespace"`
	Replicas   int       `mapstructure:"replicas"`
	Port       int       `mapstructure:"port"`
	Helm       HelmChart `mapstructure:"helm"`
}

// MonitorConfig configures the post-deploy health check.
type MonitorConfig struct {
	// Selector is the pod label selector, defaulted from the app name.
	Selector string `mapstructure:"selector"`
}

// ArtifactsConfig configures optional upload of finished run reports to
// S3-compatible object storage.
type ArtifactsConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`
}

// DefaultStages is the full agent chain in execution order.
var DefaultStages = []string{"review", "predict", "image", "provision", "deploy", "monitor"}
