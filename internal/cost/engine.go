// Package cost turns a resource topology into priced and relative projections.
package cost

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kubefoundry/kubefoundry/internal/pricing"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Input is everything Estimate needs for one topology.
type Input struct {
	Topology       models.ResourceTopology
	GPUsPerReplica int
	CloudProvider  string
	GPUType        string
	CustomRate     *float64
}

// InputFor builds an Input from a request and its derived topology.
func InputFor(req *models.DeploymentRequest, topo models.ResourceTopology) Input {
	return Input{
		Topology:       topo,
		GPUsPerReplica: req.GPUsPerReplica(),
		CloudProvider:  req.CloudProvider,
		GPUType:        req.GPUType,
		CustomRate:     req.CustomHourlyRate,
	}
}

// TableSource supplies the pricing table in effect.
type TableSource interface {
	Table() *pricing.Table
}

// Engine computes cost estimates against a pricing table.
type Engine struct {
	pricing TableSource
	printer *message.Printer
}

// NewEngine creates an engine reading prices from src.
func NewEngine(src TableSource) *Engine {
	return &Engine{
		pricing: src,
		printer: message.NewPrinter(language.English),
	}
}

// Estimate prices a topology. Relative metrics are always filled; absolute
// rates are nil unless a positive rate is known.
func (e *Engine) Estimate(in Input) models.CostEstimate {
	table := e.pricing.Table()
	baseline := max(in.GPUsPerReplica, 1)
	multiplier := float64(in.Topology.TotalGPUs) / float64(baseline)

	est := models.CostEstimate{
		Resources:          in.Topology,
		CloudProvider:      in.CloudProvider,
		GPUType:            in.GPUType,
		BaselineGPUs:       baseline,
		GPUMultiplier:      multiplier,
		PercentageIncrease: (multiplier - 1) * 100,
		PricingLastUpdated: table.LastUpdated,
	}
	if est.CloudProvider == "" {
		est.CloudProvider = models.CloudNone
	}

	if rate, ok := table.Lookup(in.CloudProvider, in.GPUType, in.CustomRate); ok {
		hourly := rate * float64(in.Topology.TotalGPUs)
		daily := hourly * 24
		monthly := hourly * models.HoursPerMonth
		est.HasActualCosts = true
		est.PerGPUHourlyRate = &rate
		est.HourlyRate = &hourly
		est.DailyRate = &daily
		est.MonthlyRate = &monthly
	}

	est.Description = e.describe(est)
	return est
}

// Compare estimates an aggregated and a disaggregated topology side by side.
func (e *Engine) Compare(aggregated, disaggregated Input) models.CostComparison {
	agg := e.Estimate(aggregated)
	dis := e.Estimate(disaggregated)
	delta := dis.Resources.TotalGPUs - agg.Resources.TotalGPUs

	var desc string
	switch {
	case delta > 0:
		desc = e.printer.Sprintf("Disaggregated serving uses %d more GPUs than aggregated (%d vs %d)",
			delta, dis.Resources.TotalGPUs, agg.Resources.TotalGPUs)
	case delta < 0:
		desc = e.printer.Sprintf("Disaggregated serving uses %d fewer GPUs than aggregated (%d vs %d)",
			-delta, dis.Resources.TotalGPUs, agg.Resources.TotalGPUs)
	default:
		desc = e.printer.Sprintf("Both topologies use the same number of GPUs (%d)", agg.Resources.TotalGPUs)
	}

	if agg.MonthlyRate != nil && dis.MonthlyRate != nil {
		diff := *dis.MonthlyRate - *agg.MonthlyRate
		switch {
		case diff > 0:
			desc += ", costing " + e.money(diff) + " more per month"
		case diff < 0:
			desc += ", saving " + e.money(-diff) + " per month"
		default:
			desc += ", at the same monthly cost"
		}
	}

	return models.CostComparison{
		Aggregated:         agg,
		Disaggregated:      dis,
		GPUDelta:           delta,
		SavingsDescription: desc,
	}
}

func (e *Engine) describe(est models.CostEstimate) string {
	total := est.Resources.TotalGPUs
	var rel string
	switch {
	case total == 0:
		rel = e.printer.Sprintf("CPU only, no GPUs requested (%d instance(s))", est.Resources.TotalInstances)
	case math.Abs(est.GPUMultiplier-1) < 1e-9:
		rel = e.printer.Sprintf("%d GPU(s), the same as a single replica", total)
	default:
		rel = e.printer.Sprintf("%d GPU(s), %.1fx the %d-GPU single-replica baseline (%+.0f%%)",
			total, est.GPUMultiplier, est.BaselineGPUs, est.PercentageIncrease)
	}
	if !est.HasActualCosts {
		return rel
	}
	return rel + "; about " + e.money(*est.HourlyRate) + "/hour, " + e.money(*est.MonthlyRate) + "/month"
}

func (e *Engine) money(v float64) string {
	return e.printer.Sprintf("$%.2f", v)
}
