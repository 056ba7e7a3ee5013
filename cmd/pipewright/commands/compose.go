package commands

import (
	"context"
	"fmt"
	stdlog "log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/imamik/pipewright/internal/agents/deploy"
	"github.com/imamik/pipewright/internal/agents/image"
	"github.com/imamik/pipewright/internal/agents/monitor"
	"github.com/imamik/pipewright/internal/agents/predict"
	"github.com/imamik/pipewright/internal/agents/provision"
	"github.com/imamik/pipewright/internal/agents/review"
	"github.com/imamik/pipewright/internal/artifacts"
	"github.com/imamik/pipewright/internal/cluster"
	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/k8s"
	"github.com/imamik/pipewright/internal/pipeline"
	hcloudp "github.com/imamik/pipewright/internal/platform/hcloud"
	"github.com/imamik/pipewright/internal/platform/llm"
	"github.com/imamik/pipewright/internal/platform/registry"
	s3p "github.com/imamik/pipewright/internal/platform/s3"
	"github.com/imamik/pipewright/internal/platform/scm"
	"github.com/imamik/pipewright/internal/runs"
)

// newLogger builds the root logger for a command invocation.
func newLogger(verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags)).WithName("pipewright")
}

// composition is everything a command needs after wiring.
type composition struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	runner   *runs.Runner
	secret   string
}

// compose loads configuration and selects, per capability, either the real
// platform client or the offline implementation depending on which
// credentials are present. Agents only ever see the interfaces.
func compose(ctx context.Context, configPath string, log logr.Logger) (*composition, error) {
	if configPath == "" {
		configPath = "pipewright.yaml"
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	timeouts := config.LoadTimeouts()

	llmClient := composeLLM(cfg, log)
	scmClient := composeSCM(ctx, cfg, log)
	builder, verifier, err := composeRegistry(cfg, log)
	if err != nil {
		return nil, err
	}
	ensurer, state := composeCluster(cfg, timeouts, log)

	var stages []pipeline.Stage
	for _, name := range cfg.Pipeline.Stages {
		switch name {
		case "review":
			stages = append(stages, review.New(scmClient, llmClient, log.WithName("review")))
		case "predict":
			stages = append(stages, predict.New(scmClient, llmClient, log.WithName("predict")))
		case "image":
			stages = append(stages, image.New(builder, verifier, log.WithName("image")))
		case "provision":
			stages = append(stages, provision.New(ensurer, state, log.WithName("provision")))
		case "deploy", "monitor":
			if cfg.Deploy.Kubeconfig == "" {
				log.Info("stage disabled, no deploy kubeconfig configured", "stage", name)
				continue
			}
			k8sClient, err := k8s.NewClient(cfg.Deploy.Kubeconfig)
			if err != nil {
				return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
			}
			if name == "deploy" {
				stages = append(stages, deploy.New(k8sClient, k8s.NewHelmClient(log.WithName("helm")), log.WithName("deploy")))
			} else {
				stages = append(stages, monitor.New(k8sClient, log.WithName("monitor")))
			}
		}
	}

	store, err := composeArtifacts(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	runRegistry := runs.NewRegistry(cfg.Pipeline.KeepRuns)
	runner := runs.NewRunner(cfg, timeouts, runRegistry, stages,
		pipeline.NewLogObserver(log.WithName("pipeline")), store, log.WithName("runner"))

	return &composition{
		cfg:      cfg,
		timeouts: timeouts,
		runner:   runner,
		secret:   os.Getenv(cfg.Server.WebhookSecretEnv),
	}, nil
}

func composeLLM(cfg *config.Config, log logr.Logger) llm.Client {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		log.Info("llm offline, no API key in environment", "env", cfg.LLM.APIKeyEnv)
		return llm.NewOfflineClient()
	}
	opts := []llm.OpenAIOption{llm.WithTemperature(cfg.LLM.Temperature)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(apiKey, cfg.LLM.BaseURL))
	}
	return llm.NewOpenAIClient(apiKey, cfg.LLM.Model, opts...)
}

func composeSCM(ctx context.Context, cfg *config.Config, log logr.Logger) scm.Client {
	token := os.Getenv(cfg.SCM.TokenEnv)
	if token == "" {
		log.Info("scm offline, no token in environment", "env", cfg.SCM.TokenEnv)
		return scm.NewOfflineClient()
	}
	return scm.NewGitHubClient(ctx, token, cfg.SCM.BaseURL)
}

func composeRegistry(cfg *config.Config, log logr.Logger) (registry.Builder, registry.Verifier, error) {
	if cfg.Registry.URL == "" {
		log.Info("image builds offline, no registry configured")
		offline := registry.NewOfflineBuilder()
		return offline, offline, nil
	}
	password := os.Getenv(cfg.Registry.PasswordEnv)
	builder, err := registry.NewDockerBuilder(cfg.Registry.Username, password, log.WithName("docker"))
	if err != nil {
		return nil, nil, err
	}
	return builder, registry.NewRemoteVerifier(cfg.Registry.Username, password), nil
}

func composeCluster(cfg *config.Config, timeouts *config.Timeouts, log logr.Logger) (provision.Ensurer, cluster.StateClient) {
	token := os.Getenv(cfg.HCloud.TokenEnv)
	if token == "" {
		log.Info("cluster offline, no hcloud token in environment", "env", cfg.HCloud.TokenEnv)
		offline := cluster.NewOfflineManager()
		return offline, offline
	}
	infra := hcloudp.NewRealClient(token, hcloudp.WithTimeouts(timeouts))
	prov := cluster.NewProvisioner(infra, cfg, log.WithName("provisioner"))
	return prov, cluster.NewManager(infra, prov, cfg, log.WithName("cluster"))
}

func composeArtifacts(ctx context.Context, cfg *config.Config, log logr.Logger) (artifacts.Store, error) {
	if cfg.Artifacts.Bucket == "" {
		return artifacts.NopStore{}, nil
	}
	client, err := s3p.NewClient(ctx,
		cfg.Artifacts.Endpoint,
		cfg.Artifacts.Region,
		os.Getenv(cfg.Artifacts.AccessKeyEnv),
		os.Getenv(cfg.Artifacts.SecretKeyEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifacts client: %w", err)
	}
	store, err := artifacts.NewS3Store(ctx, client, cfg.Artifacts.Bucket)
	if err != nil {
		return nil, err
	}
	log.Info("artifact upload enabled", "bucket", cfg.Artifacts.Bucket)
	return store, nil
}
