package models

// Serving topology modes.
const (
	ModeAggregated    = "aggregated"
	ModeDisaggregated = "disaggregated"
)

// Inference engines.
const (
	EngineVLLM     = "vllm"
	EngineSGLang   = "sglang"
	EngineTRTLLM   = "trtllm"
	EngineLlamaCpp = "llamacpp"
)

// Router modes for graph-style frontends.
const (
	RouterModeNone       = "none"
	RouterModeKV         = "kv"
	RouterModeRoundRobin = "round-robin"
)

// DeploymentRequest is the user-supplied intent for one inference deployment.
// It is treated as immutable once submitted; providers return a normalized
// copy with defaults applied.
type DeploymentRequest struct {
	Name            string `json:"name"`
	Namespace       string `json:"namespace,omitempty"`
	ModelID         string `json:"modelId"`
	Provider        string `json:"provider,omitempty"`
	Engine          string `json:"engine,omitempty"`
	Mode            string `json:"mode,omitempty"`
	ServedModelName string `json:"servedModelName,omitempty"`
	RouterMode      string `json:"routerMode,omitempty"`

	Replicas        *int `json:"replicas,omitempty"`
	PrefillReplicas *int `json:"prefillReplicas,omitempty"`
	DecodeReplicas  *int `json:"decodeReplicas,omitempty"`
	PrefillGPUs     *int `json:"prefillGpus,omitempty"`
	DecodeGPUs      *int `json:"decodeGpus,omitempty"`

	HFTokenSecret       string `json:"hfTokenSecret,omitempty"`
	ContextLength       *int   `json:"contextLength,omitempty"`
	EnforceEager        bool   `json:"enforceEager,omitempty"`
	EnablePrefixCaching bool   `json:"enablePrefixCaching,omitempty"`
	TrustRemoteCode     bool   `json:"trustRemoteCode,omitempty"`

	Resources  *ResourceOverrides `json:"resources,omitempty"`
	EngineArgs EngineArgs         `json:"engineArgs,omitempty"`
	Kaito      *KaitoOptions      `json:"kaito,omitempty"`

	// Pricing hints, only read by the cost engine.
	CloudProvider    string   `json:"cloudProvider,omitempty"`
	GPUType          string   `json:"gpuType,omitempty"`
	CustomHourlyRate *float64 `json:"customHourlyRate,omitempty"`
}

// ResourceOverrides carries per-replica resource requests.
type ResourceOverrides struct {
	GPU    *int   `json:"gpu,omitempty"`
	Memory string `json:"memory,omitempty"`
	CPU    string `json:"cpu,omitempty"`
}

// KAITO model sources.
const (
	KaitoSourcePreset = "preset"
	KaitoSourceGGUF   = "gguf"
)

// KAITO compute types.
const (
	ComputeCPU = "cpu"
	ComputeGPU = "gpu"
)

// KaitoOptions holds the workspace-only settings of a KAITO deployment.
type KaitoOptions struct {
	ModelSource    string            `json:"modelSource,omitempty"`
	PresetName     string            `json:"presetName,omitempty"`
	GGUFFile       string            `json:"ggufFile,omitempty"`
	ComputeType    string            `json:"computeType,omitempty"`
	Image          string            `json:"image,omitempty"`
	Port           *int32            `json:"port,omitempty"`
	LabelSelector  map[string]string `json:"labelSelector,omitempty"`
	PreferredNodes []string          `json:"preferredNodes,omitempty"`
}

// GPUsPerReplica returns the requested GPUs per replica, defaulting to 1.
func (r *DeploymentRequest) GPUsPerReplica() int {
	if r.Resources != nil && r.Resources.GPU != nil {
		return *r.Resources.GPU
	}
	return 1
}

// IsDisaggregated reports whether the request splits prefill and decode.
func (r *DeploymentRequest) IsDisaggregated() bool {
	return r.Mode == ModeDisaggregated
}

// DeploymentSummary is a compact view of a deployed custom resource.
type DeploymentSummary struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Provider  string            `json:"provider"`
	Kind      string            `json:"kind"`
	Labels    map[string]string `json:"labels,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	Status    map[string]any    `json:"status,omitempty"`
}
