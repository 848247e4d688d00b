// Package pricing holds the per-GPU hourly price table used by cost estimates.
package pricing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// UnknownGPU is the fallback row of every cloud provider.
const UnknownGPU = "unknown"

//go:embed defaults.yaml
var defaultTable []byte

// Table maps cloud provider and GPU type to an hourly USD rate per GPU.
type Table struct {
	LastUpdated string                        `yaml:"lastUpdated" json:"lastUpdated"`
	Currency    string                        `yaml:"currency" json:"currency"`
	Providers   map[string]map[string]float64 `yaml:"providers" json:"providers"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("built-in pricing table: %v", err))
	}
	return t
}

// Parse decodes a YAML pricing table. Provider and GPU keys are lowercased.
func Parse(data []byte) (*Table, error) {
	var raw Table
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pricing table: %w", err)
	}
	if raw.LastUpdated == "" {
		return nil, fmt.Errorf("pricing table is missing lastUpdated")
	}
	if raw.Currency == "" {
		raw.Currency = "USD"
	}

	t := &Table{
		LastUpdated: raw.LastUpdated,
		Currency:    raw.Currency,
		Providers:   make(map[string]map[string]float64, len(raw.Providers)),
	}
	for provider, rates := range raw.Providers {
		row := make(map[string]float64, len(rates))
		for gpu, rate := range rates {
			if rate < 0 {
				return nil, fmt.Errorf("pricing table: negative rate for %s/%s", provider, gpu)
			}
			row[strings.ToLower(gpu)] = rate
		}
		t.Providers[strings.ToLower(provider)] = row
	}
	return t, nil
}

// LoadFile reads a pricing table from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file %s: %w", path, err)
	}
	return Parse(data)
}

// Lookup resolves the hourly per-GPU rate for a provider and GPU type.
//
// on-prem uses customRate; none (or empty) is never priced; cloud providers
// fall back to their unknown row for unlisted GPU types. A zero rate is
// reported as unpriced.
func (t *Table) Lookup(cloudProvider, gpuType string, customRate *float64) (float64, bool) {
	provider := strings.ToLower(strings.TrimSpace(cloudProvider))
	switch provider {
	case "", models.CloudNone:
		return 0, false
	case models.CloudOnPrem:
		if customRate != nil && *customRate > 0 {
			return *customRate, true
		}
		return 0, false
	}

	row, ok := t.Providers[provider]
	if !ok {
		return 0, false
	}
	rate, ok := row[strings.ToLower(strings.TrimSpace(gpuType))]
	if !ok {
		rate, ok = row[UnknownGPU]
	}
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// CloudProviders lists the providers that have a row in the table.
func (t *Table) CloudProviders() []string {
	out := make([]string, 0, len(t.Providers))
	for p := range t.Providers {
		out = append(out, p)
	}
	return out
}
