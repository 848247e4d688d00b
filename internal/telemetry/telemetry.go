// Package telemetry exposes kubefoundry's OpenTelemetry metrics through a
// Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kubefoundry/kubefoundry/internal/version"
)

const meterName = "github.com/kubefoundry/kubefoundry"

// Metrics holds kubefoundry's instruments. A nil *Metrics records nothing.
type Metrics struct {
	installSteps metric.Int64Counter
	plans        metric.Int64Counter
	fitWarnings  metric.Int64Counter
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	installSteps, err := meter.Int64Counter("kubefoundry_install_steps",
		metric.WithDescription("Helm steps run by the installer, by provider, operation and outcome."))
	if err != nil {
		return nil, err
	}
	plans, err := meter.Int64Counter("kubefoundry_plans",
		metric.WithDescription("Deployment plans computed, by provider and fit outcome."))
	if err != nil {
		return nil, err
	}
	fitWarnings, err := meter.Int64Counter("kubefoundry_fit_warnings",
		metric.WithDescription("GPU fit warnings raised while planning."))
	if err != nil {
		return nil, err
	}
	return &Metrics{installSteps: installSteps, plans: plans, fitWarnings: fitWarnings}, nil
}

// InstallStep records one helm step.
func (m *Metrics) InstallStep(ctx context.Context, provider, operation string, success bool) {
	if m == nil {
		return
	}
	m.installSteps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// Plan records a computed plan and its fit warnings.
func (m *Metrics) Plan(ctx context.Context, provider string, fits bool, warnings int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.plans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("fits", fits),
	))
	if warnings > 0 {
		m.fitWarnings.Add(ctx, int64(warnings), attrs)
	}
}

// Telemetry bundles the meter provider, the instruments and the scrape handler.
type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *Metrics
	handler       http.Handler
}

// Setup wires an OpenTelemetry meter provider to a dedicated Prometheus
// registry and starts Go runtime metrics collection.
func Setup() (*Telemetry, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "kubefoundry"),
		attribute.String("service.version", version.Version),
	)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res))

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		return nil, fmt.Errorf("failed to start runtime metrics: %w", err)
	}

	m, err := NewMetrics(mp)
	if err != nil {
		return nil, err
	}
	return &Telemetry{
		MeterProvider: mp,
		Metrics:       m,
		handler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, nil
}

// Handler serves the Prometheus text exposition.
func (t *Telemetry) Handler() http.Handler {
	return t.handler
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.MeterProvider.Shutdown(ctx)
}
