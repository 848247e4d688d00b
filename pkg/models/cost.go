package models

// Cloud providers known to the pricing table.
const (
	CloudAWS    = "aws"
	CloudAzure  = "azure"
	CloudGCP    = "gcp"
	CloudOnPrem = "on-prem"
	CloudNone   = "none"
)

// HoursPerMonth is the billing convention used for monthly projections.
const HoursPerMonth = 730

// CostEstimate is a priced (or relative-only) projection of a topology.
type CostEstimate struct {
	Resources          ResourceTopology `json:"resources"`
	CloudProvider      string           `json:"cloudProvider"`
	GPUType            string           `json:"gpuType,omitempty"`
	HasActualCosts     bool             `json:"hasActualCosts"`
	PerGPUHourlyRate   *float64         `json:"perGpuHourlyRate,omitempty"`
	HourlyRate         *float64         `json:"hourlyRate,omitempty"`
	DailyRate          *float64         `json:"dailyRate,omitempty"`
	MonthlyRate        *float64         `json:"monthlyRate,omitempty"`
	BaselineGPUs       int              `json:"baselineGpus"`
	GPUMultiplier      float64          `json:"gpuMultiplier"`
	PercentageIncrease float64          `json:"percentageIncrease"`
	Description        string           `json:"description"`
	PricingLastUpdated string           `json:"pricingLastUpdated"`
}

// CostComparison contrasts an aggregated and a disaggregated estimate.
type CostComparison struct {
	Aggregated         CostEstimate `json:"aggregated"`
	Disaggregated      CostEstimate `json:"disaggregated"`
	GPUDelta           int          `json:"gpuDelta"`
	SavingsDescription string       `json:"savingsDescription"`
}
