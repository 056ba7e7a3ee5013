package k8s

import (
	"fmt"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/go-logr/logr"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
)

// HelmClient handles Helm releases for application deployment.
type HelmClient struct {
	settings *cli.EnvSettings
	log      logr.Logger
}

// NewHelmClient creates a new HelmClient.
func NewHelmClient(log logr.Logger) *HelmClient {
	return &HelmClient{
		settings: cli.New(),
		log:      log,
	}
}

// ReleaseSpec describes one helm release to install or upgrade.
type ReleaseSpec struct {
	Namespace   string
	ReleaseName string
	RepoURL     string
	ChartName   string
	Version     string
	Values      map[string]interface{}
	Timeout     time.Duration
}

// InstallOrUpgrade installs the release, or upgrades it if history exists.
func (h *HelmClient) InstallOrUpgrade(kubeconfig []byte, spec ReleaseSpec) error {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create rest config: %w", err)
	}

	actionConfig := new(action.Configuration)
	clientGetter := &genericRESTClientGetter{
		config:    restConfig,
		namespace: spec.Namespace,
	}

	debugLog := func(format string, args ...interface{}) {
		h.log.V(1).Info(fmt.Sprintf(format, args...))
	}
	if err := actionConfig.Init(clientGetter, spec.Namespace, os.Getenv("HELM_DRIVER"), debugLog); err != nil {
		return fmt.Errorf("failed to init action config: %w", err)
	}

	cp := &action.ChartPathOptions{}
	cp.RepoURL = spec.RepoURL
	cp.Version = spec.Version

	chartPath, err := cp.LocateChart(spec.ChartName, h.settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart: %w", err)
	}

	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart: %w", err)
	}

	timeout := spec.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	histClient := action.NewHistory(actionConfig)
	histClient.Max = 1
	if _, err := histClient.Run(spec.ReleaseName); err == nil {
		upgrade := action.NewUpgrade(actionConfig)
		upgrade.Namespace = spec.Namespace
		upgrade.Wait = true
		upgrade.Timeout = timeout
		if _, err := upgrade.Run(spec.ReleaseName, chart, spec.Values); err != nil {
			return fmt.Errorf("helm upgrade failed: %w", err)
		}
		return nil
	}

	install := action.NewInstall(actionConfig)
	install.Namespace = spec.Namespace
	install.ReleaseName = spec.ReleaseName
	install.CreateNamespace = true
	install.Wait = true
	install.Timeout = timeout
	if _, err := install.Run(chart, spec.Values); err != nil {
		return fmt.Errorf("helm install failed: %w", err)
	}
	return nil
}

// genericRESTClientGetter implements basic RESTClientGetter for Helm.
type genericRESTClientGetter struct {
	config    *rest.Config
	namespace string
}

func (g *genericRESTClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *genericRESTClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(discoveryClient), nil
}

func (g *genericRESTClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	discoveryClient, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(discoveryClient), nil
}

func (g *genericRESTClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}
