package k8s

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	sigsyaml "sigs.k8s.io/yaml"
)

// WorkloadSpec describes the deployment to render for an application.
type WorkloadSpec struct {
	Name      string
	Namespace string
	Image     string
	Replicas  int32
	Port      int32
	Labels    map[string]string
}

// BuildDeployment renders the deployment for a workload spec.
func BuildDeployment(spec WorkloadSpec) *appsv1.Deployment {
	labels := workloadLabels(spec)
	replicas := spec.Replicas
	if replicas == 0 {
		replicas = 1
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  spec.Name,
							Image: spec.Image,
							Ports: []corev1.ContainerPort{
								{Name: "http", ContainerPort: containerPort(spec)},
							},
						},
					},
				},
			},
		},
	}
}

// BuildService renders the cluster-internal service for a workload spec.
func BuildService(spec WorkloadSpec) *corev1.Service {
	labels := workloadLabels(spec)

	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{
					Name:       "http",
					Port:       80,
					TargetPort: intstr.FromInt32(containerPort(spec)),
				},
			},
		},
	}
}

// RenderYAML serializes a Kubernetes object for inclusion in run reports.
func RenderYAML(obj interface{}) (string, error) {
	out, err := sigsyaml.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed to render manifest: %w", err)
	}
	return string(out), nil
}

func workloadLabels(spec WorkloadSpec) map[string]string {
	labels := map[string]string{"app": spec.Name}
	for k, v := range spec.Labels {
		labels[k] = v
	}
	return labels
}

func containerPort(spec WorkloadSpec) int32 {
	if spec.Port == 0 {
		return 8080
	}
	return spec.Port
}
