package kuberay

import (
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"
	"go.yaml.in/yaml/v3"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

const (
	importPathLLM = "ray.serve.llm:build_openai_app"
	importPathPD  = "ray.serve.llm:build_pd_openai_app"
)

type serveConfig struct {
	Applications []serveApplication `yaml:"applications"`
}

type serveApplication struct {
	Name        string         `yaml:"name"`
	RoutePrefix string         `yaml:"route_prefix"`
	ImportPath  string         `yaml:"import_path"`
	Args        map[string]any `yaml:"args"`
}

type llmConfig struct {
	ModelLoadingConfig modelLoadingConfig `yaml:"model_loading_config"`
	EngineKwargs       kwargs             `yaml:"engine_kwargs"`
	DeploymentConfig   deploymentConfig   `yaml:"deployment_config"`
	RuntimeEnv         *runtimeEnv        `yaml:"runtime_env,omitempty"`
}

type modelLoadingConfig struct {
	ModelID     string `yaml:"model_id"`
	ModelSource string `yaml:"model_source"`
}

type deploymentConfig struct {
	AutoscalingConfig autoscalingConfig `yaml:"autoscaling_config"`
}

type autoscalingConfig struct {
	MinReplicas int `yaml:"min_replicas"`
	MaxReplicas int `yaml:"max_replicas"`
}

type runtimeEnv struct {
	EnvVars map[string]string `yaml:"env_vars"`
}

// kwargs keeps engine_kwargs in insertion order in the rendered YAML.
type kwargs models.EngineArgs

func (k kwargs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, arg := range k {
		var key, val yaml.Node
		if err := key.Encode(arg.Key); err != nil {
			return nil, err
		}
		if err := val.Encode(arg.Value); err != nil {
			return nil, fmt.Errorf("engine_kwargs.%s: %w", arg.Key, err)
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

// engineKwargs maps request fields and free-form args onto vLLM engine
// keyword arguments. Free-form keys lose any leading dashes and are
// snake_cased.
func engineKwargs(cfg *models.DeploymentRequest, gpus int) kwargs {
	out := models.EngineArgs{}
	out.Set("tensor_parallel_size", gpus)
	if cfg.ContextLength != nil {
		out.Set("max_model_len", *cfg.ContextLength)
	}
	if cfg.EnforceEager {
		out.Set("enforce_eager", true)
	}
	if cfg.EnablePrefixCaching {
		out.Set("enable_prefix_caching", true)
	}
	if cfg.TrustRemoteCode {
		out.Set("trust_remote_code", true)
	}
	for _, arg := range cfg.EngineArgs {
		out.Set(strcase.SnakeCase(strings.TrimLeft(arg.Key, "-")), arg.Value)
	}
	return kwargs(out)
}

func newLLMConfig(cfg *models.DeploymentRequest, replicas, gpus int) llmConfig {
	servedName := cfg.ServedModelName
	if servedName == "" {
		servedName = cfg.ModelID
	}
	c := llmConfig{
		ModelLoadingConfig: modelLoadingConfig{ModelID: servedName, ModelSource: cfg.ModelID},
		EngineKwargs:       engineKwargs(cfg, gpus),
		DeploymentConfig: deploymentConfig{
			AutoscalingConfig: autoscalingConfig{MinReplicas: replicas, MaxReplicas: replicas},
		},
	}
	return c
}

// renderServeConfig produces the serveConfigV2 document for a request.
func renderServeConfig(cfg *models.DeploymentRequest) (string, error) {
	app := serveApplication{
		Name:        "llm",
		RoutePrefix: "/",
	}

	if cfg.IsDisaggregated() {
		gpus := cfg.GPUsPerReplica()
		app.ImportPath = importPathPD
		app.Args = map[string]any{
			"prefill_config": newLLMConfig(cfg, valueOr(cfg.PrefillReplicas, 1), valueOr(cfg.PrefillGPUs, gpus)),
			"decode_config":  newLLMConfig(cfg, valueOr(cfg.DecodeReplicas, 1), valueOr(cfg.DecodeGPUs, gpus)),
		}
	} else {
		app.ImportPath = importPathLLM
		app.Args = map[string]any{
			"llm_configs": []llmConfig{newLLMConfig(cfg, valueOr(cfg.Replicas, 1), cfg.GPUsPerReplica())},
		}
	}

	out, err := yaml.Marshal(serveConfig{Applications: []serveApplication{app}})
	if err != nil {
		return "", fmt.Errorf("failed to render serve config: %w", err)
	}
	return string(out), nil
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
