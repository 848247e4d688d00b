package models

// DeploymentPlan is everything derived from a request before it is applied.
type DeploymentPlan struct {
	Provider string             `json:"provider"`
	Request  *DeploymentRequest `json:"request"`
	Topology ResourceTopology   `json:"topology"`
	Fit      FitResult          `json:"fit"`
	Cost     *CostEstimate      `json:"cost,omitempty"`
	Manifest map[string]any     `json:"manifest"`
	Warnings []string           `json:"warnings,omitempty"`
}
