package k8s

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// PodHealth summarizes the pods matching a label selector.
type PodHealth struct {
	Total    int `json:"total"`
	Ready    int `json:"ready"`
	Restarts int `json:"restarts"`
}

// Healthy reports whether at least one pod exists and all of them are ready.
func (h PodHealth) Healthy() bool {
	return h.Total > 0 && h.Ready == h.Total
}

// GetPods returns pods matching a label selector in a namespace.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return podList.Items, nil
}

// CheckPodHealth samples the current state of pods matching the selector.
func (c *Client) CheckPodHealth(ctx context.Context, namespace, labelSelector string) (PodHealth, error) {
	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil {
		return PodHealth{}, err
	}

	health := PodHealth{Total: len(pods)}
	for i := range pods {
		if isPodReady(&pods[i]) {
			health.Ready++
		}
		for _, cs := range pods[i].Status.ContainerStatuses {
			health.Restarts += int(cs.RestartCount)
		}
	}
	return health, nil
}

// WaitForPodsReady waits for all pods matching a label selector to become
// ready. At least one pod must exist.
func (c *Client) WaitForPodsReady(ctx context.Context, namespace, labelSelector string, timeout time.Duration) error {
	err := wait.PollUntilContextTimeout(ctx, 5*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		health, err := c.CheckPodHealth(ctx, namespace, labelSelector)
		if err != nil {
			return false, nil
		}
		return health.Healthy(), nil
	})
	if err != nil {
		return fmt.Errorf("pods %q in %s not ready: %w", labelSelector, namespace, err)
	}
	return nil
}

// isPodReady checks if a pod is running and ready.
func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
