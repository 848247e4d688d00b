package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/kubefoundry/kubefoundry/internal/capacity"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// GPU resource names counted as accelerators.
var gpuResources = []corev1.ResourceName{"nvidia.com/gpu", "amd.com/gpu"}

// Node labels that carry the GPU model, in lookup order.
var gpuProductLabels = []string{"nvidia.com/gpu.product", "amd.com/gpu.product-name", "node.kubernetes.io/instance-type"}

// ListNodes returns the GPU accounting of every node: allocatable GPUs minus
// GPU requests of non-terminated pods bound to it. Cordoned nodes report no
// available GPUs.
func (c *Client) ListNodes(ctx context.Context) ([]models.NodeGPUInfo, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var nodes corev1.NodeList
	if err := c.c.List(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	var pods corev1.PodList
	if err := c.c.List(ctx, &pods); err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	allocated := map[string]int{}
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.Spec.NodeName == "" || pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed {
			continue
		}
		allocated[pod.Spec.NodeName] += podGPURequest(pod)
	}

	out := make([]models.NodeGPUInfo, 0, len(nodes.Items))
	for i := range nodes.Items {
		node := &nodes.Items[i]
		total := 0
		for _, r := range gpuResources {
			if q, ok := node.Status.Allocatable[r]; ok {
				total += int(q.Value())
			}
		}
		used := min(allocated[node.Name], total)
		avail := total - used
		if node.Spec.Unschedulable {
			avail = 0
		}
		out = append(out, models.NodeGPUInfo{
			Name:          node.Name,
			GPUType:       gpuType(node),
			TotalGPUs:     total,
			AllocatedGPUs: used,
			AvailableGPUs: avail,
		})
	}
	return out, nil
}

// Capacity returns the cluster GPU snapshot.
func (c *Client) Capacity(ctx context.Context) (*models.ClusterGPUCapacity, error) {
	nodes, err := c.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	return capacity.FromNodes(nodes), nil
}

// podGPURequest is the effective GPU request of a pod: the larger of the
// summed app containers and the largest init container.
func podGPURequest(pod *corev1.Pod) int {
	sum := 0
	for i := range pod.Spec.Containers {
		sum += containerGPUs(&pod.Spec.Containers[i])
	}
	initMax := 0
	for i := range pod.Spec.InitContainers {
		initMax = max(initMax, containerGPUs(&pod.Spec.InitContainers[i]))
	}
	return max(sum, initMax)
}

func containerGPUs(c *corev1.Container) int {
	n := 0
	for _, r := range gpuResources {
		if q, ok := c.Resources.Requests[r]; ok {
			n += int(q.Value())
		} else if q, ok := c.Resources.Limits[r]; ok {
			n += int(q.Value())
		}
	}
	return n
}

func gpuType(node *corev1.Node) string {
	for _, l := range gpuProductLabels {
		if v := node.Labels[l]; v != "" {
			return v
		}
	}
	return ""
}
