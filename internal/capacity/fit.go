// Package capacity checks a resource topology against cluster GPU capacity.
package capacity

import (
	"fmt"
	"sort"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// UnknownCapacityWarning is reported when no capacity snapshot is available.
const UnknownCapacityWarning = "cluster GPU capacity is unknown; skipping fit check"

// ValidateFit compares a topology with a capacity snapshot. The result is
// advisory: callers decide whether a non-fitting plan is blocked. A nil
// capacity never fails, it yields a degraded result with CapacityKnown=false.
func ValidateFit(topo models.ResourceTopology, capacity *models.ClusterGPUCapacity, modelMinGPUs int) models.FitResult {
	required := max(topo.TotalGPUs, modelMinGPUs)
	result := models.FitResult{
		Fits:          true,
		RequiredGPUs:  required,
		MaxGPUsPerPod: topo.MaxGPUsPerPod(),
		Warnings:      []string{},
	}

	if capacity == nil {
		result.Warnings = append(result.Warnings, UnknownCapacityWarning)
		return result
	}
	result.CapacityKnown = true

	if capacity.AvailableGPUs < required {
		result.Fits = false
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"deployment requires %d GPUs but only %d are available in the cluster",
			required, capacity.AvailableGPUs))
	}
	if result.MaxGPUsPerPod > capacity.MaxContiguousAvailable {
		result.Fits = false
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"a single worker needs %d GPUs but the largest free block on one node is %d",
			result.MaxGPUsPerPod, capacity.MaxContiguousAvailable))
	}
	return result
}

// FromNodes aggregates per-node GPU accounting into a cluster snapshot.
// Nodes without GPUs are dropped from the breakdown.
func FromNodes(nodes []models.NodeGPUInfo) *models.ClusterGPUCapacity {
	c := &models.ClusterGPUCapacity{Nodes: []models.NodeGPUInfo{}}
	for _, n := range nodes {
		if n.TotalGPUs == 0 {
			continue
		}
		c.TotalGPUs += n.TotalGPUs
		c.AllocatedGPUs += n.AllocatedGPUs
		c.AvailableGPUs += n.AvailableGPUs
		c.MaxContiguousAvailable = max(c.MaxContiguousAvailable, n.AvailableGPUs)
		c.Nodes = append(c.Nodes, n)
	}
	sort.Slice(c.Nodes, func(i, j int) bool { return c.Nodes[i].Name < c.Nodes[j].Name })
	return c
}
