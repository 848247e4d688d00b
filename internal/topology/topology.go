// Package topology derives the GPU/instance breakdown of a deployment request.
package topology

import "github.com/kubefoundry/kubefoundry/pkg/models"

// Derive converts a request into its normalized resource topology.
//
// In disaggregated mode an omitted prefill/decode replica count defaults to 1
// and an omitted prefill/decode GPU count defaults to the request's
// GPUs-per-replica. Those defaults feed fit and cost calculations directly.
func Derive(req *models.DeploymentRequest) models.ResourceTopology {
	gpusPerReplica := req.GPUsPerReplica()

	if req.IsDisaggregated() {
		t := models.ResourceTopology{
			Mode:                   models.ModeDisaggregated,
			PrefillInstances:       valueOr(req.PrefillReplicas, 1),
			PrefillGPUsPerInstance: valueOr(req.PrefillGPUs, gpusPerReplica),
			DecodeInstances:        valueOr(req.DecodeReplicas, 1),
			DecodeGPUsPerInstance:  valueOr(req.DecodeGPUs, gpusPerReplica),
		}
		t.TotalGPUs = t.PrefillInstances*t.PrefillGPUsPerInstance + t.DecodeInstances*t.DecodeGPUsPerInstance
		t.TotalInstances = t.PrefillInstances + t.DecodeInstances
		return t
	}

	replicas := valueOr(req.Replicas, 1)
	return models.ResourceTopology{
		Mode:            models.ModeAggregated,
		WorkerInstances: replicas,
		GPUsPerWorker:   gpusPerReplica,
		TotalGPUs:       replicas * gpusPerReplica,
		TotalInstances:  replicas,
	}
}

// DefaultedFields lists the disaggregated fields that Derive had to fill in.
func DefaultedFields(req *models.DeploymentRequest) []string {
	if !req.IsDisaggregated() {
		return nil
	}
	var out []string
	if req.PrefillReplicas == nil {
		out = append(out, "prefillReplicas")
	}
	if req.PrefillGPUs == nil {
		out = append(out, "prefillGpus")
	}
	if req.DecodeReplicas == nil {
		out = append(out, "decodeReplicas")
	}
	if req.DecodeGPUs == nil {
		out = append(out, "decodeGpus")
	}
	return out
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
