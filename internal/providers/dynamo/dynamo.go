// Package dynamo implements the NVIDIA Dynamo graph-deployment provider.
package dynamo

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

const (
	ID = "dynamo"

	PlatformVersion  = "0.4.1"
	DefaultNamespace = "dynamo-system"

	FrontendKey = "Frontend"
)

var crd = models.CRDConfig{
	APIGroup:   "nvidia.com",
	APIVersion: "v1alpha1",
	Kind:       "DynamoGraphDeployment",
	Plural:     "dynamographdeployments",
}

var repos = []models.HelmRepo{
	{Name: "nvidia-dynamo", URL: "https://helm.ngc.nvidia.com/nvidia/ai-dynamo"},
}

var charts = []models.HelmChart{
	{
		Name:            "dynamo-crds",
		Chart:           "nvidia-dynamo/dynamo-crds",
		Namespace:       "default",
		Version:         PlatformVersion,
		CreateNamespace: false,
	},
	{
		Name:            "dynamo-platform",
		Chart:           "nvidia-dynamo/dynamo-platform",
		Namespace:       DefaultNamespace,
		Version:         PlatformVersion,
		CreateNamespace: true,
	},
}

// engineSpec is what differs between Dynamo backends.
type engineSpec struct {
	prefix     string
	module     string
	image      string
	workingDir string
}

var engines = map[string]engineSpec{
	models.EngineVLLM: {
		prefix:     "Vllm",
		module:     "dynamo.vllm",
		image:      "nvcr.io/nvidia/ai-dynamo/vllm-runtime:" + PlatformVersion,
		workingDir: "/workspace/components/backends/vllm",
	},
	models.EngineSGLang: {
		prefix:     "Sglang",
		module:     "dynamo.sglang",
		image:      "nvcr.io/nvidia/ai-dynamo/sglang-runtime:" + PlatformVersion,
		workingDir: "/workspace/components/backends/sglang",
	},
	models.EngineTRTLLM: {
		prefix:     "Trtllm",
		module:     "dynamo.trtllm",
		image:      "nvcr.io/nvidia/ai-dynamo/tensorrtllm-runtime:" + PlatformVersion,
		workingDir: "/workspace/components/backends/trtllm",
	},
}

var rules = providers.Rules{
	ProviderID:         ID,
	DefaultNamespace:   DefaultNamespace,
	Engines:            []string{models.EngineVLLM, models.EngineSGLang, models.EngineTRTLLM},
	DefaultEngine:      models.EngineVLLM,
	AllowDisaggregated: true,
}

// DefaultHFTokenSecret is the model-hub token secret every worker mounts when
// the request names none.
const DefaultHFTokenSecret = "hf-token-secret"

// Provider deploys DynamoGraphDeployment resources.
type Provider struct {
	// HFTokenSecret replaces DefaultHFTokenSecret when set.
	HFTokenSecret string
}

// New returns the Dynamo provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Info() models.ProviderInfo {
	return models.ProviderInfo{
		ID:               ID,
		Name:             "NVIDIA Dynamo",
		Description:      "Datacenter-scale inference graphs with KV-aware routing and disaggregated prefill/decode serving.",
		DefaultNamespace: DefaultNamespace,
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
		LabelSelector: "app.kubernetes.io/name=dynamo-operator",
	}
}

func (p *Provider) Layout() manifest.Layout {
	workers := make([]string, 0, len(engines)*3)
	for _, e := range rules.Engines {
		spec := engines[e]
		workers = append(workers, spec.prefix+"Worker", spec.prefix+"PrefillWorker", spec.prefix+"DecodeWorker")
	}
	return manifest.Layout{
		APIVersion:   crd.GroupVersion(),
		Kind:         crd.Kind,
		RolesPath:    []string{"spec", "services"},
		FrontendKeys: []string{FrontendKey},
		WorkerKeys:   workers,
	}
}

func (p *Provider) ValidateConfig(raw []byte) (*models.DeploymentRequest, error) {
	r := rules
	r.Defaults = p.applyDefaults
	return providers.Validate(raw, r, providers.RejectKaitoOptions)
}

// applyDefaults gives every worker an env-from-secret reference for the
// model-hub token.
func (p *Provider) applyDefaults(req *models.DeploymentRequest) {
	if req.HFTokenSecret != "" {
		return
	}
	req.HFTokenSecret = DefaultHFTokenSecret
	if p.HFTokenSecret != "" {
		req.HFTokenSecret = p.HFTokenSecret
	}
}

// SynthesizeManifest builds the DynamoGraphDeployment for a validated request.
func (p *Provider) SynthesizeManifest(cfg *models.DeploymentRequest) (*unstructured.Unstructured, error) {
	spec, ok := engines[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("dynamo: unsupported engine %q", cfg.Engine)
	}

	services := map[string]any{
		FrontendKey: frontend(cfg, spec),
	}
	if cfg.IsDisaggregated() {
		gpus := cfg.GPUsPerReplica()
		services[spec.prefix+"PrefillWorker"] = worker(cfg, spec, rolePrefill, valueOr(cfg.PrefillReplicas, 1), valueOr(cfg.PrefillGPUs, gpus))
		services[spec.prefix+"DecodeWorker"] = worker(cfg, spec, roleDecode, valueOr(cfg.DecodeReplicas, 1), valueOr(cfg.DecodeGPUs, gpus))
	} else {
		services[spec.prefix+"Worker"] = worker(cfg, spec, roleNone, valueOr(cfg.Replicas, 1), cfg.GPUsPerReplica())
	}

	obj := &unstructured.Unstructured{Object: map[string]any{
		"spec": map[string]any{
			"backendFramework": cfg.Engine,
			"services":         services,
		},
	}}
	obj.SetAPIVersion(crd.GroupVersion())
	obj.SetKind(crd.Kind)
	obj.SetName(cfg.Name)
	obj.SetNamespace(cfg.Namespace)
	obj.SetLabels(providers.Labels(cfg))
	obj.SetAnnotations(map[string]string{providers.AnnotationModel: cfg.ModelID})
	return obj, nil
}

func frontend(cfg *models.DeploymentRequest, spec engineSpec) map[string]any {
	svc := map[string]any{
		"componentType":   "frontend",
		"dynamoNamespace": cfg.Name,
		"replicas":        int64(1),
		"extraPodSpec": map[string]any{
			"mainContainer": map[string]any{
				"image": spec.image,
			},
		},
	}
	if cfg.RouterMode != "" && cfg.RouterMode != models.RouterModeNone {
		svc["router-mode"] = cfg.RouterMode
	}
	return svc
}

type role string

const (
	roleNone    role = ""
	rolePrefill role = "prefill"
	roleDecode  role = "decode"
)

func worker(cfg *models.DeploymentRequest, spec engineSpec, r role, replicas, gpus int) map[string]any {
	svc := map[string]any{
		"componentType":   "worker",
		"dynamoNamespace": cfg.Name,
		"replicas":        int64(replicas),
		"resources":       resources(cfg, gpus),
		"extraPodSpec": map[string]any{
			"mainContainer": map[string]any{
				"image":      spec.image,
				"workingDir": spec.workingDir,
				"command":    []any{"/bin/sh", "-c"},
				"args":       []any{commandArgs(cfg, spec.module, r)},
			},
		},
	}
	if r != roleNone {
		svc["subComponentType"] = string(r)
	}
	if cfg.HFTokenSecret != "" {
		svc["envFromSecret"] = cfg.HFTokenSecret
	}
	return svc
}

func resources(cfg *models.DeploymentRequest, gpus int) map[string]any {
	values := func() map[string]any {
		m := map[string]any{"gpu": fmt.Sprintf("%d", gpus)}
		if cfg.Resources != nil {
			if cfg.Resources.Memory != "" {
				m["memory"] = cfg.Resources.Memory
			}
			if cfg.Resources.CPU != "" {
				m["cpu"] = cfg.Resources.CPU
			}
		}
		return m
	}
	return map[string]any{
		"requests": values(),
		"limits":   values(),
	}
}

// commandArgs assembles the worker command line. Flag order is fixed so that
// identical requests always yield identical manifests.
func commandArgs(cfg *models.DeploymentRequest, module string, r role) string {
	b := manifest.NewArgBuilder("python3", "-m", module).
		Value("--model", cfg.ModelID).
		ValueIf("--served-model-name", cfg.ServedModelName).
		FlagIf(cfg.EnforceEager, "--enforce-eager").
		FlagIf(cfg.EnablePrefixCaching, "--enable-prefix-caching").
		FlagIf(cfg.TrustRemoteCode, "--trust-remote-code")
	if cfg.ContextLength != nil {
		b.Value("--max-model-len", fmt.Sprintf("%d", *cfg.ContextLength))
	}
	switch {
	case r == rolePrefill && cfg.Engine == models.EngineVLLM:
		b.Flag("--is-prefill-worker")
	case r != roleNone && cfg.Engine != models.EngineVLLM:
		b.Value("--disaggregation-mode", string(r))
	}
	return b.Extra(cfg.EngineArgs).String()
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
