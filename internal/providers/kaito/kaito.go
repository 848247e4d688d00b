// Package kaito implements the KAITO workspace provider, which serves preset
// models as well as GGUF models on CPU-only or GPU nodes.
package kaito

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

const (
	ID = "kaito"

	ChartVersion     = "0.6.0"
	DefaultNamespace = "kaito-workspace"
	DefaultPort      = int32(8080)

	InferenceKey = "inference"
	ResourceKey  = "resource"

	ggufModelDir = "/models"
)

var crd = models.CRDConfig{
	APIGroup:   "kaito.sh",
	APIVersion: "v1beta1",
	Kind:       "Workspace",
	Plural:     "workspaces",
}

var repos = []models.HelmRepo{
	{Name: "kaito", URL: "https://kaito-project.github.io/kaito/charts/kaito"},
}

var charts = []models.HelmChart{
	{
		Name:            "kaito-workspace",
		Chart:           "kaito/workspace",
		Namespace:       DefaultNamespace,
		Version:         ChartVersion,
		CreateNamespace: true,
	},
}

var defaultNodeSelector = map[string]string{"kubernetes.io/os": "linux"}

var rules = providers.Rules{
	ProviderID:       ID,
	DefaultNamespace: "default",
	Engines:          []string{models.EngineLlamaCpp, models.EngineVLLM},
	AllowZeroGPUs:    true,
	Defaults:         applyDefaults,
}

// Provider deploys KAITO Workspace resources.
type Provider struct{}

// New returns the KAITO provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Info() models.ProviderInfo {
	return models.ProviderInfo{
		ID:               ID,
		Name:             "KAITO",
		Description:      "Kubernetes AI Toolchain Operator workspaces: preset models on GPU nodes or quantized GGUF models with llama.cpp, including CPU-only nodes.",
		DefaultNamespace: rules.DefaultNamespace,
	}
}

func (p *Provider) CRDConfig() models.CRDConfig { return crd }

func (p *Provider) HelmRepos() []models.HelmRepo { return append([]models.HelmRepo(nil), repos...) }

func (p *Provider) HelmCharts() []models.HelmChart { return append([]models.HelmChart(nil), charts...) }

func (p *Provider) InstallationSteps() []models.InstallationStep {
	return providers.StepsFor(repos, charts)
}

func (p *Provider) Operator() models.OperatorRef {
	return models.OperatorRef{
		Namespace:     DefaultNamespace,
		LabelSelector: "app.kubernetes.io/name=workspace",
	}
}

func (p *Provider) Layout() manifest.Layout {
	return manifest.Layout{
		APIVersion:   crd.GroupVersion(),
		Kind:         crd.Kind,
		FrontendKeys: []string{InferenceKey},
		WorkerKeys:   []string{ResourceKey},
	}
}

func (p *Provider) ValidateConfig(raw []byte) (*models.DeploymentRequest, error) {
	return providers.Validate(raw, rules, validate)
}

// applyDefaults fills the KAITO options. GGUF models default to llama.cpp on
// CPU nodes, presets to vLLM on GPU nodes. CPU workspaces request no GPUs.
func applyDefaults(req *models.DeploymentRequest) {
	k := models.KaitoOptions{}
	if req.Kaito != nil {
		k = *req.Kaito
	}
	if k.ModelSource == "" {
		if k.GGUFFile != "" || (k.PresetName == "" && k.Image != "") {
			k.ModelSource = models.KaitoSourceGGUF
		} else {
			k.ModelSource = models.KaitoSourcePreset
		}
	}
	if k.ComputeType == "" {
		if k.ModelSource == models.KaitoSourceGGUF {
			k.ComputeType = models.ComputeCPU
		} else {
			k.ComputeType = models.ComputeGPU
		}
	}
	if k.Port == nil {
		port := DefaultPort
		k.Port = &port
	}
	req.Kaito = &k

	if req.Engine == "" {
		if k.ModelSource == models.KaitoSourceGGUF {
			req.Engine = models.EngineLlamaCpp
		} else {
			req.Engine = models.EngineVLLM
		}
	}

	if k.ComputeType == models.ComputeCPU && (req.Resources == nil || req.Resources.GPU == nil) {
		res := models.ResourceOverrides{}
		if req.Resources != nil {
			res = *req.Resources
		}
		zero := 0
		res.GPU = &zero
		req.Resources = &res
	}
}

func validate(req *models.DeploymentRequest) []string {
	var errs []string
	k := req.Kaito

	if req.IsDisaggregated() {
		errs = append(errs, "disaggregated mode is not supported by kaito")
	}
	if req.RouterMode != models.RouterModeNone {
		errs = append(errs, "routerMode is not supported by kaito")
	}

	switch k.ModelSource {
	case models.KaitoSourcePreset:
		if k.PresetName == "" {
			errs = append(errs, "kaito.presetName is required for preset models")
		}
		if req.Engine != models.EngineVLLM {
			errs = append(errs, "preset models run on the vllm engine")
		}
	case models.KaitoSourceGGUF:
		if k.Image == "" {
			errs = append(errs, "kaito.image is required for gguf models")
		}
		if req.Engine != models.EngineLlamaCpp {
			errs = append(errs, "gguf models run on the llamacpp engine")
		}
	default:
		errs = append(errs, "kaito.modelSource must be preset or gguf")
	}

	if k.Image != "" {
		if _, err := name.ParseReference(k.Image); err != nil {
			errs = append(errs, fmt.Sprintf("kaito.image: %v", err))
		}
	}

	switch k.ComputeType {
	case models.ComputeCPU:
		if req.GPUsPerReplica() > 0 {
			errs = append(errs, "resources.gpu must be 0 for cpu compute")
		}
	case models.ComputeGPU:
		if req.GPUsPerReplica() < 1 {
			errs = append(errs, "resources.gpu must be at least 1 for gpu compute")
		}
	default:
		errs = append(errs, "kaito.computeType must be cpu or gpu")
	}

	if *k.Port < 1 || *k.Port > 65535 {
		errs = append(errs, "kaito.port must be between 1 and 65535")
	}
	if len(k.LabelSelector) > 0 && len(k.PreferredNodes) > 0 {
		errs = append(errs, "kaito.labelSelector and kaito.preferredNodes are mutually exclusive")
	}
	return errs
}

// SynthesizeManifest builds the Workspace for a validated request.
func (p *Provider) SynthesizeManifest(cfg *models.DeploymentRequest) (*unstructured.Unstructured, error) {
	k := cfg.Kaito
	if k == nil {
		return nil, fmt.Errorf("kaito: request has not been validated")
	}

	obj := &unstructured.Unstructured{Object: map[string]any{
		ResourceKey:  placement(cfg),
		InferenceKey: inference(cfg),
	}}
	obj.SetAPIVersion(crd.GroupVersion())
	obj.SetKind(crd.Kind)
	obj.SetName(cfg.Name)
	obj.SetNamespace(cfg.Namespace)
	obj.SetLabels(providers.Labels(cfg))
	obj.SetAnnotations(map[string]string{providers.AnnotationModel: cfg.ModelID})
	return obj, nil
}

func placement(cfg *models.DeploymentRequest) map[string]any {
	k := cfg.Kaito
	res := map[string]any{
		"count": int64(valueOr(cfg.Replicas, 1)),
	}
	if len(k.PreferredNodes) > 0 {
		nodes := make([]any, len(k.PreferredNodes))
		for i, n := range k.PreferredNodes {
			nodes[i] = n
		}
		res["preferredNodes"] = nodes
		return res
	}
	selector := k.LabelSelector
	if len(selector) == 0 {
		selector = defaultNodeSelector
	}
	matchLabels := make(map[string]any, len(selector))
	for key, v := range selector {
		matchLabels[key] = v
	}
	res["labelSelector"] = map[string]any{"matchLabels": matchLabels}
	return res
}

func inference(cfg *models.DeploymentRequest) map[string]any {
	k := cfg.Kaito
	if k.ModelSource == models.KaitoSourcePreset {
		preset := map[string]any{"name": k.PresetName}
		if cfg.HFTokenSecret != "" {
			preset["presetOptions"] = map[string]any{"modelAccessSecret": cfg.HFTokenSecret}
		}
		return map[string]any{"preset": preset}
	}

	container := map[string]any{
		"name":  cfg.Name,
		"image": k.Image,
		"ports": []any{map[string]any{"containerPort": int64(*k.Port), "protocol": "TCP"}},
		"resources": map[string]any{
			"requests": resourceList(cfg),
			"limits":   resourceList(cfg),
		},
	}
	if args := containerArgs(cfg); len(args) > 0 {
		out := make([]any, len(args))
		for i, a := range args {
			out[i] = a
		}
		container["args"] = out
	}
	if cfg.HFTokenSecret != "" {
		container["env"] = []any{map[string]any{
			"name": "HF_TOKEN",
			"valueFrom": map[string]any{
				"secretKeyRef": map[string]any{"name": cfg.HFTokenSecret, "key": "HF_TOKEN"},
			},
		}}
	}
	return map[string]any{
		"template": map[string]any{
			"spec": map[string]any{
				"containers": []any{container},
			},
		},
	}
}

func containerArgs(cfg *models.DeploymentRequest) []string {
	b := manifest.NewArgBuilder()
	if f := cfg.Kaito.GGUFFile; f != "" {
		if !strings.HasPrefix(f, "/") {
			f = ggufModelDir + "/" + f
		}
		b.Value("--model", f)
	}
	if cfg.ContextLength != nil {
		b.Value("--ctx-size", fmt.Sprintf("%d", *cfg.ContextLength))
	}
	return b.Extra(cfg.EngineArgs).Args()
}

func resourceList(cfg *models.DeploymentRequest) map[string]any {
	m := map[string]any{}
	if g := cfg.GPUsPerReplica(); g > 0 {
		m["nvidia.com/gpu"] = fmt.Sprintf("%d", g)
	}
	if r := cfg.Resources; r != nil {
		if r.CPU != "" {
			m["cpu"] = r.CPU
		}
		if r.Memory != "" {
			m["memory"] = r.Memory
		}
	}
	return m
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
