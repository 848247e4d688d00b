package models

// ResourceTopology is the normalized GPU/instance breakdown of a request.
// Aggregated requests fill the worker fields; disaggregated requests fill the
// prefill and decode fields. TotalGPUs always equals the sum of
// instances × GPUs-per-instance over the worker classes present.
type ResourceTopology struct {
	Mode string `json:"mode"`

	WorkerInstances int `json:"workerInstances,omitempty"`
	GPUsPerWorker   int `json:"gpusPerWorker,omitempty"`

	PrefillInstances       int `json:"prefillInstances,omitempty"`
	PrefillGPUsPerInstance int `json:"prefillGpusPerInstance,omitempty"`
	DecodeInstances        int `json:"decodeInstances,omitempty"`
	DecodeGPUsPerInstance  int `json:"decodeGpusPerInstance,omitempty"`

	TotalGPUs      int `json:"totalGpus"`
	TotalInstances int `json:"totalInstances"`
}

// MaxGPUsPerPod is the largest GPU requirement of any single worker pod.
func (t ResourceTopology) MaxGPUsPerPod() int {
	if t.Mode == ModeDisaggregated {
		return max(t.PrefillGPUsPerInstance, t.DecodeGPUsPerInstance)
	}
	return t.GPUsPerWorker
}

// NodeGPUInfo is the GPU accounting of a single cluster node.
type NodeGPUInfo struct {
	Name          string `json:"name"`
	GPUType       string `json:"gpuType,omitempty"`
	TotalGPUs     int    `json:"totalGpus"`
	AllocatedGPUs int    `json:"allocatedGpus"`
	AvailableGPUs int    `json:"availableGpus"`
}

// ClusterGPUCapacity is a point-in-time snapshot of cluster GPU capacity.
type ClusterGPUCapacity struct {
	TotalGPUs              int           `json:"totalGpus"`
	AllocatedGPUs          int           `json:"allocatedGpus"`
	AvailableGPUs          int           `json:"availableGpus"`
	MaxContiguousAvailable int           `json:"maxContiguousAvailable"`
	Nodes                  []NodeGPUInfo `json:"nodes"`
}

// FitResult is the advisory outcome of a GPU fit check.
type FitResult struct {
	Fits          bool     `json:"fits"`
	CapacityKnown bool     `json:"capacityKnown"`
	RequiredGPUs  int      `json:"requiredGpus"`
	MaxGPUsPerPod int      `json:"maxGpusPerPod"`
	Warnings      []string `json:"warnings"`
}
