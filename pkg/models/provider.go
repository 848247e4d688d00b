package models

// ProviderInfo is the display identity of a runtime provider.
type ProviderInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	DefaultNamespace string `json:"defaultNamespace"`
}

// CRDConfig identifies the custom resource a provider deploys through.
type CRDConfig struct {
	APIGroup   string `json:"apiGroup"`
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	Plural     string `json:"plural"`
}

// GroupVersion returns "<group>/<version>".
func (c CRDConfig) GroupVersion() string {
	return c.APIGroup + "/" + c.APIVersion
}

// CRDName returns the CustomResourceDefinition object name.
func (c CRDConfig) CRDName() string {
	return c.Plural + "." + c.APIGroup
}

// InstallationStep is a human-readable installation instruction.
type InstallationStep struct {
	Title       string `json:"title"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
}

// HelmRepo is a chart repository a provider needs.
type HelmRepo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HelmChart is a chart release a provider needs, in install order.
type HelmChart struct {
	Name            string `json:"name"`
	Chart           string `json:"chart"`
	Namespace       string `json:"namespace"`
	Version         string `json:"version,omitempty"`
	CreateNamespace bool   `json:"createNamespace"`
}

// OperatorRef locates the operator pods of a provider.
type OperatorRef struct {
	Namespace     string `json:"namespace"`
	LabelSelector string `json:"labelSelector"`
}

// ProviderDetails is the full static descriptor of a provider.
type ProviderDetails struct {
	ProviderInfo
	CRD               CRDConfig          `json:"crd"`
	InstallationSteps []InstallationStep `json:"installationSteps"`
	HelmRepos         []HelmRepo         `json:"helmRepos"`
	HelmCharts        []HelmChart        `json:"helmCharts"`
	Operator          OperatorRef        `json:"operator"`
}
