// Package providers defines the runtime provider abstraction and the
// read-only registry that resolves a provider id to its implementation.
package providers

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/mod/semver"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubefoundry/kubefoundry/internal/manifest"
	"github.com/kubefoundry/kubefoundry/internal/version"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// ErrUnknownProvider is returned when a provider id is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider is one inference runtime: its identity, the operator stack it
// needs, and how a deployment request becomes its custom resource.
type Provider interface {
	Info() models.ProviderInfo
	CRDConfig() models.CRDConfig
	InstallationSteps() []models.InstallationStep
	HelmRepos() []models.HelmRepo
	HelmCharts() []models.HelmChart
	Operator() models.OperatorRef

	// ValidateConfig decodes and validates a raw request, returning a
	// normalized copy or a *ValidationError listing every problem.
	ValidateConfig(raw []byte) (*models.DeploymentRequest, error)
	SynthesizeManifest(cfg *models.DeploymentRequest) (*unstructured.Unstructured, error)
	Layout() manifest.Layout
}

// Details collects the static descriptor of a provider.
func Details(p Provider) models.ProviderDetails {
	return models.ProviderDetails{
		ProviderInfo:      p.Info(),
		CRD:               p.CRDConfig(),
		InstallationSteps: p.InstallationSteps(),
		HelmRepos:         p.HelmRepos(),
		HelmCharts:        p.HelmCharts(),
		Operator:          p.Operator(),
	}
}

// Registry is a fixed provider-id to provider mapping. It is built once and
// never mutated, so it is safe for concurrent use without locking.
type Registry struct {
	byID map[string]Provider
	ids  []string
}

// NewRegistry registers providers, rejecting duplicate ids and chart versions
// that are not valid semver.
func NewRegistry(ps ...Provider) (*Registry, error) {
	r := &Registry{byID: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		id := p.Info().ID
		if id == "" {
			return nil, fmt.Errorf("provider has an empty id")
		}
		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", id)
		}
		for _, c := range p.HelmCharts() {
			if c.Version != "" && !semver.IsValid(version.EnsureVPrefix(c.Version)) {
				return nil, fmt.Errorf("provider %s: chart %s has invalid version %q", id, c.Name, c.Version)
			}
		}
		r.byID[id] = p
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Get returns the provider for id or ErrUnknownProvider.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return p, nil
}

// GetOrNil returns the provider for id, or nil.
func (r *Registry) GetOrNil(id string) Provider {
	return r.byID[id]
}

// List returns the identity of every provider, sorted by id.
func (r *Registry) List() []models.ProviderInfo {
	out := make([]models.ProviderInfo, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id].Info())
	}
	return out
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}
