package v0

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// DeploymentRequestInput carries a raw deployment request. The body is kept
// raw so providers can decode it strictly and engine arguments keep their order.
type DeploymentRequestInput struct {
	RawBody []byte `contentType:"application/json" doc:"Deployment request; must name its provider"`
}

type DeploymentListInput struct {
	Provider  string `query:"provider" json:"provider,omitempty" doc:"Only list deployments of this provider"`
	Namespace string `query:"namespace" json:"namespace,omitempty" doc:"Only list deployments in this namespace"`
}

type DeploymentByNameInput struct {
	Provider  string `path:"provider" json:"provider" doc:"Provider ID"`
	Namespace string `path:"namespace" json:"namespace" doc:"Namespace"`
	Name      string `path:"name" json:"name" doc:"Deployment name"`
}

type DeploymentListBody struct {
	Deployments []models.DeploymentSummary `json:"deployments"`
	Count       int                        `json:"count"`
}

type CompareInput struct {
	RawBody []byte `contentType:"application/json" doc:"Object with 'aggregated' and 'disaggregated' deployment requests"`
}

type compareBody struct {
	Aggregated    json.RawMessage `json:"aggregated"`
	Disaggregated json.RawMessage `json:"disaggregated"`
}

// RegisterDeploymentsEndpoints registers planning, cost and deployment endpoints.
func RegisterDeploymentsEndpoints(api huma.API, basePath string, svc *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "plan-deployment",
		Method:      http.MethodPost,
		Path:        basePath + "/deployments/plan",
		Summary:     "Plan deployment",
		Description: "Validate a request and return its topology, GPU fit, cost and manifest without applying anything.",
		Tags:        []string{"deployments"},
	}, func(ctx context.Context, input *DeploymentRequestInput) (*Response[models.DeploymentPlan], error) {
		plan, err := svc.Planner.Plan(ctx, input.RawBody)
		if err != nil {
			return nil, toHumaError("Failed to plan deployment", err)
		}
		return &Response[models.DeploymentPlan]{Body: *plan}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-deployment",
		Method:        http.MethodPost,
		Path:          basePath + "/deployments",
		Summary:       "Create deployment",
		Description:   "Plan a request and apply its manifest to the cluster.",
		Tags:          []string{"deployments"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *DeploymentRequestInput) (*Response[models.DeploymentPlan], error) {
		plan, err := svc.Planner.Deploy(ctx, input.RawBody)
		if err != nil {
			return nil, toHumaError("Failed to create deployment", err)
		}
		return &Response[models.DeploymentPlan]{Body: *plan}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deployments",
		Method:      http.MethodGet,
		Path:        basePath + "/deployments",
		Summary:     "List deployments",
		Description: "List deployments created by kubefoundry.",
		Tags:        []string{"deployments"},
	}, func(ctx context.Context, input *DeploymentListInput) (*Response[DeploymentListBody], error) {
		list, err := svc.Planner.List(ctx, input.Provider, input.Namespace)
		if err != nil {
			return nil, toHumaError("Failed to list deployments", err)
		}
		return &Response[DeploymentListBody]{Body: DeploymentListBody{Deployments: list, Count: len(list)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-deployment",
		Method:      http.MethodGet,
		Path:        basePath + "/deployments/{provider}/{namespace}/{name}",
		Summary:     "Get deployment",
		Tags:        []string{"deployments"},
	}, func(ctx context.Context, input *DeploymentByNameInput) (*Response[models.DeploymentSummary], error) {
		d, err := svc.Planner.Get(ctx, input.Provider, input.Namespace, input.Name)
		if err != nil {
			return nil, toHumaError("Failed to get deployment", err)
		}
		return &Response[models.DeploymentSummary]{Body: *d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-deployment",
		Method:        http.MethodDelete,
		Path:          basePath + "/deployments/{provider}/{namespace}/{name}",
		Summary:       "Delete deployment",
		Tags:          []string{"deployments"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeploymentByNameInput) (*struct{}, error) {
		if err := svc.Planner.Delete(ctx, input.Provider, input.Namespace, input.Name); err != nil {
			return nil, toHumaError("Failed to delete deployment", err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "estimate-cost",
		Method:      http.MethodPost,
		Path:        basePath + "/cost/estimate",
		Summary:     "Estimate cost",
		Description: "Price the topology of a deployment request.",
		Tags:        []string{"cost"},
	}, func(_ context.Context, input *DeploymentRequestInput) (*Response[models.CostEstimate], error) {
		est, err := svc.Planner.Estimate(input.RawBody)
		if err != nil {
			return nil, toHumaError("Failed to estimate cost", err)
		}
		return &Response[models.CostEstimate]{Body: *est}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "compare-cost",
		Method:      http.MethodPost,
		Path:        basePath + "/cost/compare",
		Summary:     "Compare aggregated and disaggregated cost",
		Tags:        []string{"cost"},
	}, func(_ context.Context, input *CompareInput) (*Response[models.CostComparison], error) {
		var body compareBody
		if err := json.Unmarshal(input.RawBody, &body); err != nil {
			return nil, huma.Error400BadRequest("malformed comparison request", err)
		}
		if len(body.Aggregated) == 0 || len(body.Disaggregated) == 0 {
			return nil, huma.Error400BadRequest("both aggregated and disaggregated requests are required")
		}
		cmp, err := svc.Planner.Compare(body.Aggregated, body.Disaggregated)
		if err != nil {
			return nil, toHumaError("Failed to compare cost", err)
		}
		return &Response[models.CostComparison]{Body: *cmp}, nil
	})
}
