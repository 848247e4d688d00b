// Package planner turns a raw deployment request into a validated plan and
// applies, lists and removes the resulting custom resources.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/kubefoundry/kubefoundry/internal/capacity"
	"github.com/kubefoundry/kubefoundry/internal/catalog"
	"github.com/kubefoundry/kubefoundry/internal/cost"
	"github.com/kubefoundry/kubefoundry/internal/logging"
	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/internal/topology"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var (
	// ErrStructuralManifestInvalid means a synthesizer produced a resource
	// that does not have the shape its provider expects.
	ErrStructuralManifestInvalid = errors.New("synthesized manifest is structurally invalid")
	// ErrClusterUnavailable is returned by operations that need a cluster
	// when none is configured.
	ErrClusterUnavailable = errors.New("no cluster connection configured")
)

// Cluster is the subset of the cluster client the planner uses.
type Cluster interface {
	Capacity(ctx context.Context) (*models.ClusterGPUCapacity, error)
	ApplyManifest(ctx context.Context, obj *unstructured.Unstructured) error
	GetCustomResource(ctx context.Context, crd models.CRDConfig, namespace, name string) (*unstructured.Unstructured, error)
	DeleteCustomResource(ctx context.Context, crd models.CRDConfig, namespace, name string) error
	ListCustomResources(ctx context.Context, crd models.CRDConfig, namespace string, labels map[string]string) ([]unstructured.Unstructured, error)
}

// PlanRecorder observes every computed plan. Optional.
type PlanRecorder interface {
	Plan(ctx context.Context, provider string, fits bool, warnings int)
}

// Planner wires the provider registry, model catalog, cost engine and
// cluster together. Cluster may be nil, in which case plans are computed
// without capacity and cluster operations fail with ErrClusterUnavailable.
type Planner struct {
	Registry *providers.Registry
	Catalog  *catalog.Catalog
	Cost     *cost.Engine
	Cluster  Cluster
	Recorder PlanRecorder
	Logger   *zap.Logger

	// HFTokenSecret is filled into requests for gated models that name no
	// secret. Dynamo applies its own default to every request.
	HFTokenSecret string
	// DefaultCloudProvider prices requests that name no cloud provider.
	DefaultCloudProvider string
	// CapacityTimeout bounds the capacity query made while planning.
	CapacityTimeout time.Duration
}

// Plan validates raw against the provider it names and derives topology,
// fit, cost and manifest. A plan that does not fit is still returned; the
// fit result and warnings say why.
func (p *Planner) Plan(ctx context.Context, raw []byte) (*models.DeploymentPlan, error) {
	prov, req, err := p.validate(raw)
	if err != nil {
		return nil, err
	}
	logger := logging.WithRequestID(ctx, logging.OrNop(p.Logger)).With(
		zap.String("provider", req.Provider), zap.String("name", req.Name))

	plan := &models.DeploymentPlan{
		Provider: req.Provider,
		Request:  req,
		Topology: topology.Derive(req),
	}
	for _, field := range topology.DefaultedFields(req) {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s was not set and has been defaulted", field))
	}

	plan.Fit = capacity.ValidateFit(plan.Topology, p.capacity(ctx, logger), p.minGPUs(req))
	plan.Warnings = append(plan.Warnings, plan.Fit.Warnings...)

	if in, ok := p.costInput(req, plan.Topology); ok {
		est := p.Cost.Estimate(in)
		plan.Cost = &est
	}

	obj, err := p.synthesize(prov, req)
	if err != nil {
		return nil, err
	}
	plan.Manifest = obj.Object

	if p.Recorder != nil {
		p.Recorder.Plan(ctx, req.Provider, plan.Fit.Fits, len(plan.Fit.Warnings))
	}
	logger.Debug("plan computed",
		zap.Int("totalGpus", plan.Topology.TotalGPUs),
		zap.Bool("fits", plan.Fit.Fits),
		zap.Bool("capacityKnown", plan.Fit.CapacityKnown))
	return plan, nil
}

// Deploy plans raw and applies the manifest. The plan is applied even when
// it does not fit; fit is advisory.
func (p *Planner) Deploy(ctx context.Context, raw []byte) (*models.DeploymentPlan, error) {
	if p.Cluster == nil {
		return nil, ErrClusterUnavailable
	}
	plan, err := p.Plan(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := p.Cluster.ApplyManifest(ctx, &unstructured.Unstructured{Object: plan.Manifest}); err != nil {
		return nil, fmt.Errorf("failed to apply %s deployment %s/%s: %w",
			plan.Provider, plan.Request.Namespace, plan.Request.Name, err)
	}
	logging.WithRequestID(ctx, logging.OrNop(p.Logger)).Info("deployment applied",
		zap.String("provider", plan.Provider),
		zap.String("namespace", plan.Request.Namespace),
		zap.String("name", plan.Request.Name))
	return plan, nil
}

// Estimate validates raw and prices its topology without touching the cluster.
func (p *Planner) Estimate(raw []byte) (*models.CostEstimate, error) {
	_, req, err := p.validate(raw)
	if err != nil {
		return nil, err
	}
	in, _ := p.costInput(req, topology.Derive(req))
	est := p.Cost.Estimate(in)
	return &est, nil
}

// Compare prices an aggregated and a disaggregated request side by side.
func (p *Planner) Compare(aggregatedRaw, disaggregatedRaw []byte) (*models.CostComparison, error) {
	_, agg, err := p.validate(aggregatedRaw)
	if err != nil {
		return nil, fmt.Errorf("aggregated: %w", err)
	}
	_, dis, err := p.validate(disaggregatedRaw)
	if err != nil {
		return nil, fmt.Errorf("disaggregated: %w", err)
	}
	aggIn, _ := p.costInput(agg, topology.Derive(agg))
	disIn, _ := p.costInput(dis, topology.Derive(dis))
	cmp := p.Cost.Compare(aggIn, disIn)
	return &cmp, nil
}

// List returns the managed deployments of one provider, or of every provider
// when providerID is empty. An empty namespace lists all namespaces.
func (p *Planner) List(ctx context.Context, providerID, namespace string) ([]models.DeploymentSummary, error) {
	if p.Cluster == nil {
		return nil, ErrClusterUnavailable
	}
	ids := p.Registry.IDs()
	if providerID != "" {
		if _, err := p.Registry.Get(providerID); err != nil {
			return nil, err
		}
		ids = []string{providerID}
	}

	out := []models.DeploymentSummary{}
	for _, id := range ids {
		prov := p.Registry.GetOrNil(id)
		items, err := p.Cluster.ListCustomResources(ctx, prov.CRDConfig(), namespace, providers.ManagedSelector(id))
		if err != nil {
			if providerID == "" && isMissingKind(err) {
				// CRD not installed: the provider simply has no deployments.
				continue
			}
			return nil, fmt.Errorf("failed to list %s deployments: %w", id, err)
		}
		for i := range items {
			out = append(out, Summarize(id, &items[i]))
		}
	}
	return out, nil
}

// Get returns one deployment of a provider.
func (p *Planner) Get(ctx context.Context, providerID, namespace, name string) (*models.DeploymentSummary, error) {
	if p.Cluster == nil {
		return nil, ErrClusterUnavailable
	}
	prov, err := p.Registry.Get(providerID)
	if err != nil {
		return nil, err
	}
	obj, err := p.Cluster.GetCustomResource(ctx, prov.CRDConfig(), namespace, name)
	if err != nil {
		return nil, err
	}
	s := Summarize(providerID, obj)
	return &s, nil
}

// Delete removes one deployment of a provider.
func (p *Planner) Delete(ctx context.Context, providerID, namespace, name string) error {
	if p.Cluster == nil {
		return ErrClusterUnavailable
	}
	prov, err := p.Registry.Get(providerID)
	if err != nil {
		return err
	}
	if err := p.Cluster.DeleteCustomResource(ctx, prov.CRDConfig(), namespace, name); err != nil {
		return err
	}
	logging.WithRequestID(ctx, logging.OrNop(p.Logger)).Info("deployment deleted",
		zap.String("provider", providerID), zap.String("namespace", namespace), zap.String("name", name))
	return nil
}

// Summarize builds the compact view of a provider custom resource.
func Summarize(providerID string, obj *unstructured.Unstructured) models.DeploymentSummary {
	s := models.DeploymentSummary{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Provider:  providerID,
		Kind:      obj.GetKind(),
		Labels:    obj.GetLabels(),
	}
	if ts := obj.GetCreationTimestamp(); !ts.IsZero() {
		s.CreatedAt = ts.UTC().Format(time.RFC3339)
	}
	if status, ok := obj.Object["status"].(map[string]any); ok {
		s.Status = status
	}
	return s
}

func (p *Planner) validate(raw []byte) (providers.Provider, *models.DeploymentRequest, error) {
	var head struct {
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, nil, &providers.ValidationError{Errors: []string{fmt.Sprintf("malformed request: %v", err)}}
	}
	if head.Provider == "" {
		return nil, nil, &providers.ValidationError{Errors: []string{"provider is required"}}
	}
	prov, err := p.Registry.Get(strings.ToLower(head.Provider))
	if err != nil {
		return nil, nil, err
	}
	req, err := prov.ValidateConfig(raw)
	if err != nil {
		return nil, nil, err
	}
	if req.HFTokenSecret == "" && p.HFTokenSecret != "" && p.gated(req.ModelID) {
		req.HFTokenSecret = p.HFTokenSecret
	}
	return prov, req, nil
}

func (p *Planner) capacity(ctx context.Context, logger *zap.Logger) *models.ClusterGPUCapacity {
	if p.Cluster == nil {
		return nil
	}
	timeout := p.CapacityTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snapshot, err := p.Cluster.Capacity(ctx)
	if err != nil {
		logger.Warn("cluster capacity unavailable, planning without it", zap.Error(err))
		return nil
	}
	return snapshot
}

func (p *Planner) costInput(req *models.DeploymentRequest, topo models.ResourceTopology) (cost.Input, bool) {
	in := cost.InputFor(req, topo)
	if in.CloudProvider == "" {
		in.CloudProvider = p.DefaultCloudProvider
	}
	priced := (in.CloudProvider != "" && in.CloudProvider != models.CloudNone) || in.CustomRate != nil
	return in, priced
}

func (p *Planner) synthesize(prov providers.Provider, req *models.DeploymentRequest) (*unstructured.Unstructured, error) {
	obj, err := prov.SynthesizeManifest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize %s manifest: %w", req.Provider, err)
	}
	if violations := manifest.Validate(obj, prov.Layout()); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrStructuralManifestInvalid, strings.Join(violations, "; "))
	}
	return obj, nil
}

func (p *Planner) minGPUs(req *models.DeploymentRequest) int {
	if p.Catalog == nil {
		return 0
	}
	return p.Catalog.MinGPUs(req.ModelID)
}

func (p *Planner) gated(modelID string) bool {
	if p.Catalog == nil {
		return false
	}
	m, err := p.Catalog.Get(modelID)
	return err == nil && m.Gated
}

func isMissingKind(err error) bool {
	return meta.IsNoMatchError(err) || runtime.IsNotRegisteredError(err) || apierrors.IsNotFound(err)
}
