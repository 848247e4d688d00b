// Package kuberay implements the Ray Serve LLM provider on KubeRay.
package kuberay

import (
	"fmt"

	rayv1 "github.com/ray-project/kuberay/ray-operator/apis/ray/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"

	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

const (
	ID = "kuberay"

	OperatorVersion  = "1.4.2"
	DefaultNamespace = "ray-system"

	RayVersion = "2.46.0"
	RayImage   = "rayproject/ray-llm:2.46.0-py311-cu124"

	HeadGroupKey   = "headGroupSpec"
	WorkerGroupKey = "workerGroupSpecs"

	GroupGPUWorkers     = "gpu-workers"
	GroupPrefillWorkers = "prefill-workers"
	GroupDecodeWorkers  = "decode-workers"

	gpuResource = corev1.ResourceName("nvidia.com/gpu")
	hfTokenKey  = "HF_TOKEN"
)

var crd = models.CRDConfig{
	APIGroup:   "ray.io",
	APIVersion: "v1",
	Kind:       "RayService",
	Plural:     "rayservices",
}

var repos = []models.HelmRepo{
	{Name: "kuberay", URL: "https://ray-project.github.io/kuberay-helm/"},
}

var charts = []models.HelmChart{
	{
		Name:            "kuberay-operator",
		Chart:           "kuberay/kuberay-operator",
		Namespace:       DefaultNamespace,
		Version:         OperatorVersion,
		CreateNamespace: true,
	},
}

var rules = providers.Rules{
	ProviderID:         ID,
	DefaultNamespace:   "default",
	Engines:            []string{models.EngineVLLM},
	DefaultEngine:      models.EngineVLLM,
	AllowDisaggregated: true,
}

// Provider deploys RayService resources running Ray Serve LLM.
type Provider struct{}

// New returns the KubeRay provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Info() models.ProviderInfo {
	return models.ProviderInfo{
		ID:               ID,
		Name:             "KubeRay",
		Description:      "Ray Serve LLM applications on a KubeRay-managed Ray cluster, with optional prefill/decode disaggregation.",
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
		LabelSelector: "app.kubernetes.io/name=kuberay-operator",
	}
}

func (p *Provider) Layout() manifest.Layout {
	return manifest.Layout{
		APIVersion:      crd.GroupVersion(),
		Kind:            crd.Kind,
		RolesPath:       []string{"spec", "rayClusterConfig"},
		FrontendKeys:    []string{HeadGroupKey},
		WorkerList:      WorkerGroupKey,
		WorkerNameField: "groupName",
		WorkerNames:     []string{GroupGPUWorkers, GroupPrefillWorkers, GroupDecodeWorkers},
	}
}

func (p *Provider) ValidateConfig(raw []byte) (*models.DeploymentRequest, error) {
	return providers.Validate(raw, rules, func(req *models.DeploymentRequest) []string {
		errs := providers.RejectKaitoOptions(req)
		if req.RouterMode != models.RouterModeNone {
			errs = append(errs, "routerMode is not supported by kuberay; Ray Serve handles request routing")
		}
		return errs
	})
}

// SynthesizeManifest builds a typed RayService and converts it to unstructured.
func (p *Provider) SynthesizeManifest(cfg *models.DeploymentRequest) (*unstructured.Unstructured, error) {
	serve, err := renderServeConfig(cfg)
	if err != nil {
		return nil, err
	}

	var groups []rayv1.WorkerGroupSpec
	if cfg.IsDisaggregated() {
		gpus := cfg.GPUsPerReplica()
		groups = []rayv1.WorkerGroupSpec{
			workerGroup(cfg, GroupPrefillWorkers, valueOr(cfg.PrefillReplicas, 1), valueOr(cfg.PrefillGPUs, gpus)),
			workerGroup(cfg, GroupDecodeWorkers, valueOr(cfg.DecodeReplicas, 1), valueOr(cfg.DecodeGPUs, gpus)),
		}
	} else {
		groups = []rayv1.WorkerGroupSpec{
			workerGroup(cfg, GroupGPUWorkers, valueOr(cfg.Replicas, 1), cfg.GPUsPerReplica()),
		}
	}

	svc := &rayv1.RayService{
		TypeMeta: metav1.TypeMeta{
			APIVersion: rayv1.SchemeGroupVersion.String(),
			Kind:       crd.Kind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:        cfg.Name,
			Namespace:   cfg.Namespace,
			Labels:      providers.Labels(cfg),
			Annotations: map[string]string{providers.AnnotationModel: cfg.ModelID},
		},
		Spec: rayv1.RayServiceSpec{
			ServeConfigV2: serve,
			RayClusterSpec: rayv1.RayClusterSpec{
				RayVersion:              RayVersion,
				EnableInTreeAutoscaling: ptr.To(false),
				HeadGroupSpec: rayv1.HeadGroupSpec{
					RayStartParams: map[string]string{
						"dashboard-host": "0.0.0.0",
						"num-gpus":       "0",
					},
					Template: podTemplate(cfg, "ray-head", corev1.ResourceList{
						corev1.ResourceCPU:    resource.MustParse("2"),
						corev1.ResourceMemory: resource.MustParse("8Gi"),
					}),
				},
				WorkerGroupSpecs: groups,
			},
		},
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(svc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert RayService: %w", err)
	}
	obj := &unstructured.Unstructured{Object: content}
	unstructured.RemoveNestedField(obj.Object, "status")
	unstructured.RemoveNestedField(obj.Object, "metadata", "creationTimestamp")
	return obj, nil
}

func workerGroup(cfg *models.DeploymentRequest, name string, replicas, gpus int) rayv1.WorkerGroupSpec {
	limits := corev1.ResourceList{
		gpuResource: *resource.NewQuantity(int64(gpus), resource.DecimalSI),
	}
	if r := cfg.Resources; r != nil {
		if r.Memory != "" {
			limits[corev1.ResourceMemory] = resource.MustParse(r.Memory)
		}
		if r.CPU != "" {
			limits[corev1.ResourceCPU] = resource.MustParse(r.CPU)
		}
	}
	return rayv1.WorkerGroupSpec{
		GroupName:      name,
		Replicas:       ptr.To(int32(replicas)),
		MinReplicas:    ptr.To(int32(replicas)),
		MaxReplicas:    ptr.To(int32(replicas)),
		RayStartParams: map[string]string{},
		Template:       podTemplate(cfg, "ray-worker", limits),
	}
}

func podTemplate(cfg *models.DeploymentRequest, container string, limits corev1.ResourceList) corev1.PodTemplateSpec {
	c := corev1.Container{
		Name:  container,
		Image: RayImage,
		Resources: corev1.ResourceRequirements{
			Requests: limits.DeepCopy(),
			Limits:   limits,
		},
	}
	if cfg.HFTokenSecret != "" {
		c.Env = []corev1.EnvVar{{
			Name: hfTokenKey,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: cfg.HFTokenSecret},
					Key:                  hfTokenKey,
				},
			},
		}}
	}
	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: providers.Labels(cfg)},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{c}},
	}
}
