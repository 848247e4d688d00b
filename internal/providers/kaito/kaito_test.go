package kaito

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/internal/topology"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

func TestGGUFOnCPU(t *testing.T) {
	p := New()
	cfg, err := p.ValidateConfig([]byte(`{
		"name": "tiny",
		"modelId": "unsloth/gemma-3-1b-it-GGUF",
		"contextLength": 2048,
		"resources": {"cpu": "4", "memory": "8Gi"},
		"kaito": {"image": "ghcr.io/kaito-project/aikit/gemma-3-1b:0.0.1", "ggufFile": "gemma-3-1b-it-Q8_0.gguf", "labelSelector": {"pool": "cpu"}},
		"engineArgs": {"threads": 4}
	}`))
	require.NoError(t, err)
	assert.Equal(t, models.EngineLlamaCpp, cfg.Engine)
	assert.Equal(t, models.KaitoSourceGGUF, cfg.Kaito.ModelSource)
	assert.Equal(t, models.ComputeCPU, cfg.Kaito.ComputeType)
	assert.Equal(t, 0, cfg.GPUsPerReplica())
	assert.Equal(t, 0, topology.Derive(cfg).TotalGPUs)

	obj, err := p.SynthesizeManifest(cfg)
	require.NoError(t, err)
	assert.Equal(t, "kaito.sh/v1beta1", obj.GetAPIVersion())
	assert.Equal(t, "Workspace", obj.GetKind())
	assert.Empty(t, manifest.Validate(obj, p.Layout()))

	sel, _, _ := unstructured.NestedStringMap(obj.Object, ResourceKey, "labelSelector", "matchLabels")
	assert.Equal(t, map[string]string{"pool": "cpu"}, sel)
	count, _, _ := unstructured.NestedInt64(obj.Object, ResourceKey, "count")
	assert.Equal(t, int64(1), count)

	containers, _, _ := unstructured.NestedSlice(obj.Object, InferenceKey, "template", "spec", "containers")
	require.Len(t, containers, 1)
	c := containers[0].(map[string]any)
	assert.Equal(t, "ghcr.io/kaito-project/aikit/gemma-3-1b:0.0.1", c["image"])
	assert.Equal(t, []any{"--model", "/models/gemma-3-1b-it-Q8_0.gguf", "--ctx-size", "2048", "--threads", "4"}, c["args"])
	limits, _, _ := unstructured.NestedStringMap(c, "resources", "limits")
	assert.Equal(t, map[string]string{"cpu": "4", "memory": "8Gi"}, limits)
	port, _, _ := unstructured.NestedSlice(c, "ports")
	assert.Equal(t, int64(DefaultPort), port[0].(map[string]any)["containerPort"])

	assert.NotPanics(t, func() { obj.DeepCopy() })
}

func TestPresetOnGPU(t *testing.T) {
	p := New()
	cfg, err := p.ValidateConfig([]byte(`{
		"name": "phi",
		"modelId": "microsoft/Phi-3.5-mini-instruct",
		"replicas": 2,
		"hfTokenSecret": "hf-token",
		"kaito": {"presetName": "phi-3.5-mini-instruct", "preferredNodes": ["gpu-1", "gpu-2"]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, models.EngineVLLM, cfg.Engine)
	assert.Equal(t, models.ComputeGPU, cfg.Kaito.ComputeType)
	assert.Equal(t, 1, cfg.GPUsPerReplica())

	obj, err := p.SynthesizeManifest(cfg)
	require.NoError(t, err)
	assert.Empty(t, manifest.Validate(obj, p.Layout()))

	name, _, _ := unstructured.NestedString(obj.Object, InferenceKey, "preset", "name")
	assert.Equal(t, "phi-3.5-mini-instruct", name)
	secret, _, _ := unstructured.NestedString(obj.Object, InferenceKey, "preset", "presetOptions", "modelAccessSecret")
	assert.Equal(t, "hf-token", secret)
	nodes, _, _ := unstructured.NestedStringSlice(obj.Object, ResourceKey, "preferredNodes")
	assert.Equal(t, []string{"gpu-1", "gpu-2"}, nodes)
	count, _, _ := unstructured.NestedInt64(obj.Object, ResourceKey, "count")
	assert.Equal(t, int64(2), count)
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"gguf without image", `{"name":"a","modelId":"m","kaito":{"modelSource":"gguf"}}`, "kaito.image is required"},
		{"preset without name", `{"name":"a","modelId":"m"}`, "kaito.presetName is required"},
		{"bad image", `{"name":"a","modelId":"m","kaito":{"image":"Bad Image!"}}`, "kaito.image"},
		{"gpus on cpu", `{"name":"a","modelId":"m","resources":{"gpu":1},"kaito":{"image":"x/y:1","computeType":"cpu"}}`, "resources.gpu must be 0"},
		{"disaggregated", `{"name":"a","modelId":"m","mode":"disaggregated","kaito":{"image":"x/y:1"}}`, "disaggregated mode is not supported"},
		{"both placements", `{"name":"a","modelId":"m","kaito":{"image":"x/y:1","labelSelector":{"a":"b"},"preferredNodes":["n"]}}`, "mutually exclusive"},
		{"wrong engine", `{"name":"a","modelId":"m","engine":"vllm","kaito":{"image":"x/y:1"}}`, "gguf models run on the llamacpp engine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().ValidateConfig([]byte(tt.raw))
			ve, ok := providers.AsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Contains(t, joined(ve.Errors), tt.want)
		})
	}
}

func TestDefaultPlacement(t *testing.T) {
	p := New()
	cfg, err := p.ValidateConfig([]byte(`{"name":"a","modelId":"m","kaito":{"image":"x/y:1"}}`))
	require.NoError(t, err)
	obj, err := p.SynthesizeManifest(cfg)
	require.NoError(t, err)
	sel, _, _ := unstructured.NestedStringMap(obj.Object, ResourceKey, "labelSelector", "matchLabels")
	assert.Equal(t, defaultNodeSelector, sel)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := &models.DeploymentRequest{Name: "a", ModelID: "m", Kaito: &models.KaitoOptions{Image: "x/y:1"}}
	out := providers.Normalize(in, rules)
	assert.Empty(t, in.Kaito.ModelSource)
	assert.Nil(t, in.Resources)
	assert.Equal(t, models.KaitoSourceGGUF, out.Kaito.ModelSource)
}

func joined(errs []string) string {
	out := ""
	for _, e := range errs {
		out += e + "\n"
	}
	return out
}
