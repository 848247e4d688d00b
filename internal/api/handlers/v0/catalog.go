package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kubefoundry/kubefoundry/internal/catalog"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

type ModelListInput struct {
	Engine string `query:"engine" json:"engine,omitempty" doc:"Only list models supported by this engine" example:"vllm"`
}

type ModelListBody struct {
	Models []catalog.Model `json:"models"`
	Count  int             `json:"count"`
}

// RegisterCatalogEndpoints registers the model catalog and cluster capacity endpoints.
func RegisterCatalogEndpoints(api huma.API, basePath string, svc *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "list-models",
		Method:      http.MethodGet,
		Path:        basePath + "/models",
		Summary:     "List models",
		Description: "List the curated model catalog with GPU minimums and recommended engine arguments.",
		Tags:        []string{"models"},
	}, func(_ context.Context, input *ModelListInput) (*Response[ModelListBody], error) {
		var list []catalog.Model
		if input.Engine != "" {
			list = svc.Catalog.ForEngine(input.Engine)
		} else {
			list = svc.Catalog.List()
		}
		if list == nil {
			list = []catalog.Model{}
		}
		return &Response[ModelListBody]{Body: ModelListBody{Models: list, Count: len(list)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-cluster-capacity",
		Method:      http.MethodGet,
		Path:        basePath + "/cluster/capacity",
		Summary:     "Get cluster GPU capacity",
		Description: "Snapshot of total, allocated and available GPUs per node.",
		Tags:        []string{"cluster"},
	}, func(ctx context.Context, _ *struct{}) (*Response[models.ClusterGPUCapacity], error) {
		if svc.Capacity == nil {
			return nil, huma.Error503ServiceUnavailable("no cluster connection configured")
		}
		c, err := svc.Capacity.Capacity(ctx)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("Failed to read cluster capacity", err)
		}
		return &Response[models.ClusterGPUCapacity]{Body: *c}, nil
	})
}
