// Package catalog is the curated list of models offered for deployment.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// ErrUnknownModel is returned when a model id is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

//go:embed models.yaml
var builtin []byte

// Model is one catalog entry.
type Model struct {
	ID              string            `yaml:"id" json:"id"`
	Name            string            `yaml:"name" json:"name"`
	Parameters      string            `yaml:"parameters" json:"parameters,omitempty"`
	MinGPUs         int               `yaml:"minGpus" json:"minGpus"`
	ContextLength   int               `yaml:"contextLength" json:"contextLength,omitempty"`
	Engines         []string          `yaml:"engines" json:"engines"`
	License         string            `yaml:"license" json:"license,omitempty"`
	Gated           bool              `yaml:"gated" json:"gated"`
	KaitoPreset     string            `yaml:"kaitoPreset" json:"kaitoPreset,omitempty"`
	GGUFFile        string            `yaml:"ggufFile" json:"ggufFile,omitempty"`
	RecommendedArgs models.EngineArgs `yaml:"recommendedArgs" json:"recommendedArgs,omitempty"`
}

// Catalog is an immutable, ordered set of models.
type Catalog struct {
	models []Model
	byID   map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in model catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]int, len(doc.Models))}
	for _, m := range doc.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("model catalog: entry %q has no id", m.Name)
		}
		key := strings.ToLower(m.ID)
		if _, dup := c.byID[key]; dup {
			return nil, fmt.Errorf("model catalog: duplicate id %q", m.ID)
		}
		if m.MinGPUs < 0 {
			return nil, fmt.Errorf("model catalog: %s has negative minGpus", m.ID)
		}
		c.byID[key] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// Get looks up a model by id, case-insensitively.
func (c *Catalog) Get(id string) (Model, error) {
	i, ok := c.byID[strings.ToLower(id)]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return c.models[i], nil
}

// List returns every model in catalog order.
func (c *Catalog) List() []Model {
	return append([]Model(nil), c.models...)
}

// ForEngine returns the models that run on engine.
func (c *Catalog) ForEngine(engine string) []Model {
	var out []Model
	for _, m := range c.models {
		for _, e := range m.Engines {
			if e == engine {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// MinGPUs returns the minimum GPU count of a model, or 0 when the model is
// not catalogued.
func (c *Catalog) MinGPUs(id string) int {
	m, err := c.Get(id)
	if err != nil {
		return 0
	}
	return m.MinGPUs
}
