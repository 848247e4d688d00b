// Package v0 implements the /v0 HTTP handlers.
package v0

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/kubefoundry/kubefoundry/internal/catalog"
	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/internal/installer"
	"github.com/kubefoundry/kubefoundry/internal/planner"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Response is a generic wrapper for Huma responses.
type Response[T any] struct {
	Body T
}

// CapacitySource reports the current cluster GPU capacity.
type CapacitySource interface {
	Capacity(ctx context.Context) (*models.ClusterGPUCapacity, error)
}

// Services bundles what the handlers call into. Fields are read at request
// time, so routes can be registered against a zero value (OpenAPI generation).
type Services struct {
	Registry  *providers.Registry
	Installer *installer.Service
	Planner   *planner.Planner
	Catalog   *catalog.Catalog
	Capacity  CapacitySource
}

// toHumaError maps domain errors onto HTTP status codes.
func toHumaError(msg string, err error) error {
	if verr, ok := providers.AsValidationError(err); ok {
		details := make([]error, 0, len(verr.Errors))
		for _, e := range verr.Errors {
			details = append(details, &huma.ErrorDetail{Message: e})
		}
		return huma.Error400BadRequest("Invalid deployment request", details...)
	}
	var (
		opErr   *installer.UnknownOperationError
		busyErr *installer.OperationInProgressError
	)
	switch {
	case errors.As(err, &opErr):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &busyErr):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, providers.ErrUnknownProvider),
		errors.Is(err, catalog.ErrUnknownModel),
		apierrors.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, helm.ErrCLIUnavailable),
		errors.Is(err, planner.ErrClusterUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
