package k8s

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeployment(t *testing.T) {
	spec := WorkloadSpec{
		Name:      "shop",
		Namespace: "apps",
		Image:     "registry.example.com/shop:abc123",
		Replicas:  3,
		Port:      3000,
		Labels:    map[string]string{"team": "web"},
	}

	d := BuildDeployment(spec)

	assert.Equal(t, "shop", d.Name)
	assert.Equal(t, "apps", d.Namespace)
	require.NotNil(t, d.Spec.Replicas)
	assert.Equal(t, int32(3), *d.Spec.Replicas)
	require.Len(t, d.Spec.Template.Spec.Containers, 1)
	assert.Equal(t, "registry.example.com/shop:abc123", d.Spec.Template.Spec.Containers[0].Image)
	assert.Equal(t, int32(3000), d.Spec.Template.Spec.Containers[0].Ports[0].ContainerPort)
	assert.Equal(t, "shop", d.Spec.Selector.MatchLabels["app"])
	assert.Equal(t, "web", d.Spec.Template.Labels["team"])
}

func TestBuildDeploymentDefaults(t *testing.T) {
	d := BuildDeployment(WorkloadSpec{Name: "api", Namespace: "default", Image: "api:v1"})

	require.NotNil(t, d.Spec.Replicas)
	assert.Equal(t, int32(1), *d.Spec.Replicas)
	assert.Equal(t, int32(8080), d.Spec.Template.Spec.Containers[0].Ports[0].ContainerPort)
}

func TestBuildService(t *testing.T) {
	svc := BuildService(WorkloadSpec{Name: "shop", Namespace: "apps", Port: 3000})

	assert.Equal(t, "shop", svc.Name)
	assert.Equal(t, "shop", svc.Spec.Selector["app"])
	require.Len(t, svc.Spec.Ports, 1)
	assert.Equal(t, int32(80), svc.Spec.Ports[0].Port)
	assert.Equal(t, int32(3000), svc.Spec.Ports[0].TargetPort.IntVal)
}

func TestRenderYAML(t *testing.T) {
	d := BuildDeployment(WorkloadSpec{Name: "shop", Namespace: "apps", Image: "shop:v1"})

	out, err := RenderYAML(d)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "kind: Deployment"))
	assert.True(t, strings.Contains(out, "name: shop"))
	assert.True(t, strings.Contains(out, "image: shop:v1"))
}
