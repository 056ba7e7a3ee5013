// Package deploy implements the deployment stage. It rolls the pushed image
// out to the target cluster, either as rendered Deployment/Service manifests
// or as a helm release when a chart is configured.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/pipewright/internal/k8s"
	"github.com/imamik/pipewright/internal/pipeline"
)

// Applier is the subset of the Kubernetes client the manifest path needs.
type Applier interface {
	EnsureNamespace(ctx context.Context, name string) error
	ApplyDeployment(ctx context.Context, deployment *appsv1.Deployment) error
	ApplyService(ctx context.Context, service *corev1.Service) error
	WaitForDeployment(ctx context.Context, namespace, name string, timeout time.Duration) error
}

// HelmInstaller installs or upgrades a helm release.
type HelmInstaller interface {
	InstallOrUpgrade(kubeconfig []byte, spec k8s.ReleaseSpec) error
}

// Report is the stage output stored on the run.
type Report struct {
	Method    string `json:"method"`
	Release   string `json:"release"`
	Namespace string `json:"namespace"`
	Image     string `json:"image"`
	Manifests string `json:"manifests,omitempty"`
}

// Agent is the deployment pipeline stage.
type Agent struct {
	applier Applier
	helm    HelmInstaller
	log     logr.Logger
}

// New creates a deploy agent. helm may be nil when only the manifest path
// is used.
func New(applier Applier, helm HelmInstaller, log logr.Logger) *Agent {
	return &Agent{applier: applier, helm: helm, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "deploy" }

// Run deploys the image recorded by the image stage and waits for the
// rollout to become available.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	if ctx.State.ImageRef == "" {
		return nil, fmt.Errorf("no image to deploy, image stage did not run")
	}

	namespace := ctx.Config.Deploy.Namespace
	if namespace == "" {
		namespace = "default"
	}

	var report Report
	var err error
	if ctx.Config.Deploy.Helm.Name != "" {
		report, err = a.deployChart(ctx, namespace)
	} else {
		report, err = a.deployManifests(ctx, namespace)
	}
	if err != nil {
		return nil, err
	}

	ctx.State.DeployedRelease = report.Release
	ctx.State.Namespace = report.Namespace

	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deploy report: %w", err)
	}
	return out, nil
}

func (a *Agent) deployManifests(ctx *pipeline.Context, namespace string) (Report, error) {
	app := ctx.Config.Pipeline.AppName
	spec := k8s.WorkloadSpec{
		Name:      app,
		Namespace: namespace,
		Image:     ctx.State.ImageRef,
		Replicas:  int32(ctx.Config.Deploy.Replicas),
		Port:      int32(ctx.Config.Deploy.Port),
	}

	deployment := k8s.BuildDeployment(spec)
	service := k8s.BuildService(spec)

	if err := a.applier.EnsureNamespace(ctx, namespace); err != nil {
		return Report{}, err
	}
	if err := a.applier.ApplyDeployment(ctx, deployment); err != nil {
		return Report{}, err
	}
	if err := a.applier.ApplyService(ctx, service); err != nil {
		return Report{}, err
	}
	if err := a.applier.WaitForDeployment(ctx, namespace, app, ctx.Timeouts.DeployWait); err != nil {
		return Report{}, err
	}

	manifests, err := renderManifests(deployment, service)
	if err != nil {
		return Report{}, err
	}

	return Report{Method: "manifests", Release: app, Namespace: namespace, Image: ctx.State.ImageRef, Manifests: manifests}, nil
}

// renderManifests serializes the applied objects so the run report shows
// exactly what was rolled out.
func renderManifests(objs ...interface{}) (string, error) {
	var rendered []string
	for _, obj := range objs {
		out, err := k8s.RenderYAML(obj)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, out)
	}
	return strings.Join(rendered, "---\n"), nil
}

func (a *Agent) deployChart(ctx *pipeline.Context, namespace string) (Report, error) {
	if a.helm == nil {
		return Report{}, fmt.Errorf("helm chart configured but no installer available")
	}

	kubeconfig, err := os.ReadFile(ctx.Config.Deploy.Kubeconfig)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	chart := ctx.Config.Deploy.Helm
	values := mergeValues(chart.Values, ctx.State.ImageRef)

	err = a.helm.InstallOrUpgrade(kubeconfig, k8s.ReleaseSpec{
		Namespace:   namespace,
		ReleaseName: chart.Release,
		RepoURL:     chart.RepoURL,
		ChartName:   chart.Name,
		Version:     chart.Version,
		Values:      values,
		Timeout:     ctx.Timeouts.DeployWait,
	})
	if err != nil {
		return Report{}, fmt.Errorf("helm deployment failed: %w", err)
	}

	return Report{Method: "helm", Release: chart.Release, Namespace: namespace, Image: ctx.State.ImageRef}, nil
}

// mergeValues injects the freshly pushed image reference into the chart
// values without mutating the configured map.
func mergeValues(configured map[string]interface{}, imageRef string) map[string]interface{} {
	values := make(map[string]interface{}, len(configured)+1)
	for k, v := range configured {
		values[k] = v
	}
	values["image"] = imageRef
	return values
}
