package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

type ProviderByIDInput struct {
	ProviderID string `path:"providerId" json:"providerId" doc:"Provider ID" example:"dynamo"`
}

type ProvidersListBody struct {
	Providers []models.ProviderInfo `json:"providers"`
	Count     int                   `json:"count"`
}

type InstallationBody struct {
	models.InstallationOutcome
	Shared bool `json:"shared" doc:"True when this call joined a run already in flight for the provider"`
}

// RegisterProvidersEndpoints registers provider discovery and installation endpoints.
func RegisterProvidersEndpoints(api huma.API, basePath string, svc *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        basePath + "/providers",
		Summary:     "List providers",
		Description: "List the inference runtime providers this server can plan and install.",
		Tags:        []string{"providers"},
	}, func(_ context.Context, _ *struct{}) (*Response[ProvidersListBody], error) {
		list := svc.Registry.List()
		return &Response[ProvidersListBody]{Body: ProvidersListBody{Providers: list, Count: len(list)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-provider",
		Method:      http.MethodGet,
		Path:        basePath + "/providers/{providerId}",
		Summary:     "Get provider",
		Description: "Get the static descriptor of a provider: CRD, charts, installation steps and operator.",
		Tags:        []string{"providers"},
	}, func(_ context.Context, input *ProviderByIDInput) (*Response[models.ProviderDetails], error) {
		p, err := svc.Registry.Get(input.ProviderID)
		if err != nil {
			return nil, toHumaError("Failed to get provider", err)
		}
		return &Response[models.ProviderDetails]{Body: providers.Details(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-provider-status",
		Method:      http.MethodGet,
		Path:        basePath + "/providers/{providerId}/status",
		Summary:     "Get installation status",
		Description: "Check whether the provider's CRD is established and its operator is running.",
		Tags:        []string{"providers"},
	}, func(ctx context.Context, input *ProviderByIDInput) (*Response[models.InstallationStatus], error) {
		status, err := svc.Installer.Status(ctx, input.ProviderID)
		if err != nil {
			return nil, toHumaError("Failed to get installation status", err)
		}
		return &Response[models.InstallationStatus]{Body: status}, nil
	})

	for _, op := range []struct{ operation, summary, description string }{
		{models.OperationInstall, "Install provider", "Install the provider's Helm repositories and charts. Skipped when already installed."},
		{models.OperationUpgrade, "Upgrade provider", "Run upgrade --install for every chart of the provider."},
		{models.OperationUninstall, "Uninstall provider", "Uninstall the provider's charts in reverse order."},
	} {
		operation := op.operation
		huma.Register(api, huma.Operation{
			OperationID: operation + "-provider",
			Method:      http.MethodPost,
			Path:        basePath + "/providers/{providerId}/" + operation,
			Summary:     op.summary,
			Description: op.description + " Step failures are reported in the body, not as an HTTP error.",
			Tags:        []string{"installation"},
		}, func(ctx context.Context, input *ProviderByIDInput) (*Response[InstallationBody], error) {
			out, shared, err := svc.Installer.Run(ctx, operation, input.ProviderID, nil)
			if err != nil {
				return nil, toHumaError("Failed to run "+operation, err)
			}
			return &Response[InstallationBody]{Body: InstallationBody{InstallationOutcome: *out, Shared: shared}}, nil
		})
	}
}
