package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var graphLayout = Layout{
	APIVersion:   "example.com/v1",
	Kind:         "Graph",
	RolesPath:    []string{"spec", "services"},
	FrontendKeys: []string{"Frontend"},
	WorkerKeys:   []string{"Worker", "PrefillWorker"},
}

func graph(services map[string]any) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "example.com/v1",
		"kind":       "Graph",
		"metadata":   map[string]any{"name": "demo", "namespace": "default"},
		"spec":       map[string]any{"services": services},
	}}
}

func TestValidate_Valid(t *testing.T) {
	obj := graph(map[string]any{"Frontend": map[string]any{}, "Worker": map[string]any{}})
	assert.Empty(t, Validate(obj, graphLayout))
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"metadata": map[string]any{},
		"spec":     map[string]any{"services": map[string]any{"Unknown": map[string]any{}}},
	}}
	errs := Validate(obj, graphLayout)
	assert.Len(t, errs, 6)
	assert.Contains(t, errs, "apiVersion is required")
	assert.Contains(t, errs, "kind is required")
	assert.Contains(t, errs, "metadata.name must not be empty")
	assert.Contains(t, errs, "metadata.namespace must not be empty")
	assert.Contains(t, errs, "expected at least one recognised worker entry")
}

func TestValidate_MissingServices(t *testing.T) {
	obj := graph(nil)
	delete(obj.Object, "spec")
	errs := Validate(obj, graphLayout)
	assert.Equal(t, []string{"spec.services is required"}, errs)
}

func TestValidate_WrongIdentity(t *testing.T) {
	obj := graph(map[string]any{"Frontend": map[string]any{}, "Worker": map[string]any{}})
	obj.SetKind("Other")
	errs := Validate(obj, graphLayout)
	assert.Equal(t, []string{`kind must be "Graph", got "Other"`}, errs)
}

func TestValidate_WorkerList(t *testing.T) {
	layout := Layout{
		RolesPath:       []string{"spec"},
		FrontendKeys:    []string{"head"},
		WorkerList:      "groups",
		WorkerNameField: "groupName",
		WorkerNames:     []string{"gpu"},
	}
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "v1", "kind": "K",
		"metadata": map[string]any{"name": "a", "namespace": "b"},
		"spec": map[string]any{
			"head":   map[string]any{},
			"groups": []any{map[string]any{"groupName": "other"}},
		},
	}}
	assert.Equal(t, []string{"expected at least one recognised worker entry"}, Validate(obj, layout))

	obj.Object["spec"].(map[string]any)["groups"] = []any{map[string]any{"groupName": "gpu"}}
	assert.Empty(t, Validate(obj, layout))
}

func TestValidate_Nil(t *testing.T) {
	assert.Equal(t, []string{"manifest is empty"}, Validate(nil, graphLayout))
}

func TestArgBuilder(t *testing.T) {
	extra := models.EngineArgs{
		{Key: "gpu-memory-utilization", Value: 0.9},
		{Key: "disable-log-stats", Value: true},
		{Key: "enable-chunked-prefill", Value: false},
		{Key: "max-num-seqs", Value: int64(64)},
		{Key: "chat-template", Value: "a b"},
	}
	b := NewArgBuilder("python3", "-m", "dynamo.vllm").
		Value("--model", "Qwen/Qwen3-0.6B").
		ValueIf("--served-model-name", "").
		FlagIf(true, "--enforce-eager").
		FlagIf(false, "--trust-remote-code").
		Extra(extra)

	assert.Equal(t,
		"python3 -m dynamo.vllm --model Qwen/Qwen3-0.6B --enforce-eager --gpu-memory-utilization 0.9 --disable-log-stats --enable-chunked-prefill false --max-num-seqs 64 --chat-template 'a b'",
		b.String())
	assert.Equal(t, "a b", b.Args()[len(b.Args())-1])
}

func TestArgBuilder_Quoting(t *testing.T) {
	b := NewArgBuilder("python3").
		Value("--served-model-name", "").
		Value("--chat-template", "it's").
		Value("--stop", "$HOME;rm").
		Value("--model", "org/model:v1,rev@main")

	assert.Equal(t,
		`python3 --served-model-name '' --chat-template 'it'"'"'s' --stop '$HOME;rm' --model org/model:v1,rev@main`,
		b.String())
}
