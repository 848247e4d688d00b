package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

func aggregated(replicas, gpus int) models.ResourceTopology {
	return models.ResourceTopology{
		Mode:            models.ModeAggregated,
		WorkerInstances: replicas,
		GPUsPerWorker:   gpus,
		TotalGPUs:       replicas * gpus,
		TotalInstances:  replicas,
	}
}

func TestValidateFit_Fits(t *testing.T) {
	topo := aggregated(2, 4)
	res := ValidateFit(topo, &models.ClusterGPUCapacity{AvailableGPUs: 8, MaxContiguousAvailable: 4}, 0)
	assert.True(t, res.Fits)
	assert.True(t, res.CapacityKnown)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 8, res.RequiredGPUs)
	assert.Equal(t, 4, res.MaxGPUsPerPod)
}

func TestValidateFit_NotEnoughTotal(t *testing.T) {
	topo := aggregated(2, 4)
	res := ValidateFit(topo, &models.ClusterGPUCapacity{AvailableGPUs: topo.TotalGPUs - 1, MaxContiguousAvailable: 8}, 0)
	assert.False(t, res.Fits)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "requires 8 GPUs")
}

func TestValidateFit_ModelMinimumRaisesRequirement(t *testing.T) {
	res := ValidateFit(aggregated(1, 1), &models.ClusterGPUCapacity{AvailableGPUs: 2, MaxContiguousAvailable: 2}, 4)
	assert.False(t, res.Fits)
	assert.Equal(t, 4, res.RequiredGPUs)
	require.Len(t, res.Warnings, 1)
}

func TestValidateFit_NoContiguousBlock(t *testing.T) {
	res := ValidateFit(aggregated(1, 8), &models.ClusterGPUCapacity{AvailableGPUs: 16, MaxContiguousAvailable: 4}, 0)
	assert.False(t, res.Fits)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "largest free block")
}

func TestValidateFit_BothChecksFail(t *testing.T) {
	res := ValidateFit(aggregated(2, 8), &models.ClusterGPUCapacity{AvailableGPUs: 4, MaxContiguousAvailable: 2}, 0)
	assert.False(t, res.Fits)
	assert.Len(t, res.Warnings, 2)
}

func TestValidateFit_Disaggregated(t *testing.T) {
	topo := models.ResourceTopology{
		Mode:                   models.ModeDisaggregated,
		PrefillInstances:       1,
		PrefillGPUsPerInstance: 2,
		DecodeInstances:        2,
		DecodeGPUsPerInstance:  4,
		TotalGPUs:              10,
		TotalInstances:         3,
	}
	res := ValidateFit(topo, &models.ClusterGPUCapacity{AvailableGPUs: 10, MaxContiguousAvailable: 3}, 0)
	assert.False(t, res.Fits)
	assert.Equal(t, 4, res.MaxGPUsPerPod)
	require.Len(t, res.Warnings, 1)
}

func TestValidateFit_UnknownCapacity(t *testing.T) {
	res := ValidateFit(aggregated(4, 8), nil, 0)
	assert.True(t, res.Fits)
	assert.False(t, res.CapacityKnown)
	assert.Equal(t, []string{UnknownCapacityWarning}, res.Warnings)
}

func TestFromNodes(t *testing.T) {
	c := FromNodes([]models.NodeGPUInfo{
		{Name: "node-b", TotalGPUs: 8, AllocatedGPUs: 2, AvailableGPUs: 6},
		{Name: "cpu-only"},
		{Name: "node-a", TotalGPUs: 4, AllocatedGPUs: 4, AvailableGPUs: 0},
	})
	assert.Equal(t, 12, c.TotalGPUs)
	assert.Equal(t, 6, c.AllocatedGPUs)
	assert.Equal(t, 6, c.AvailableGPUs)
	assert.Equal(t, 6, c.MaxContiguousAvailable)
	require.Len(t, c.Nodes, 2)
	assert.Equal(t, "node-a", c.Nodes[0].Name)
}
