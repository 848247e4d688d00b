package v0_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/internal/catalog"
	"github.com/kubefoundry/kubefoundry/internal/cost"
	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/internal/installer"
	"github.com/kubefoundry/kubefoundry/internal/planner"
	"github.com/kubefoundry/kubefoundry/internal/pricing"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/internal/providers/builtin"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

type fakeRunner struct {
	unavailable bool
	calls       [][]string
}

func (f *fakeRunner) Run(_ context.Context, args []string, _ helm.LineFunc) (*helm.Result, error) {
	f.calls = append(f.calls, args)
	return &helm.Result{}, nil
}

func (f *fakeRunner) Available(context.Context) error {
	if f.unavailable {
		return helm.ErrCLIUnavailable
	}
	return nil
}

type fixedStatus struct {
	status models.InstallationStatus
}

func (f fixedStatus) InstallationStatus(context.Context, providers.Provider) (models.InstallationStatus, error) {
	return f.status, nil
}

type fixedCapacity struct{}

func (fixedCapacity) Capacity(context.Context) (*models.ClusterGPUCapacity, error) {
	return &models.ClusterGPUCapacity{TotalGPUs: 8, AvailableGPUs: 6, MaxContiguousAvailable: 4, Nodes: []models.NodeGPUInfo{}}, nil
}

func newTestAPI(t *testing.T, runner *fakeRunner, status models.InstallationStatus) (*http.ServeMux, *v0.Services) {
	t.Helper()
	reg := builtin.Default()
	svc := &v0.Services{
		Registry: reg,
		Installer: installer.NewService(&installer.Orchestrator{
			Registry: reg,
			Runner:   runner,
			Status:   fixedStatus{status: status},
		}, nil),
		Planner: &planner.Planner{
			Registry: reg,
			Catalog:  catalog.Default(),
			Cost:     cost.NewEngine(pricing.NewStore(nil)),
		},
		Catalog:  catalog.Default(),
		Capacity: fixedCapacity{},
	}
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Test API", "1.0.0"))
	v0.RegisterPingEndpoint(api, "/v0")
	v0.RegisterVersionEndpoint(api, "/v0", &v0.VersionBody{Version: "1.2.3"})
	v0.RegisterProvidersEndpoints(api, "/v0", svc)
	v0.RegisterCatalogEndpoints(api, "/v0", svc)
	v0.RegisterDeploymentsEndpoints(api, "/v0", svc)
	return mux, svc
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestPingAndVersion(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodGet, "/v0/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pong":true`)

	w = do(t, mux, http.MethodGet, "/v0/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
}

func TestProviders(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodGet, "/v0/providers", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list v0.ProvidersListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, "dynamo", list.Providers[0].ID)

	w = do(t, mux, http.MethodGet, "/v0/providers/kaito", "")
	require.Equal(t, http.StatusOK, w.Code)
	var details models.ProviderDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, "Workspace", details.CRD.Kind)
	assert.NotEmpty(t, details.HelmCharts)

	w = do(t, mux, http.MethodGet, "/v0/providers/triton", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInstallEndpoints(t *testing.T) {
	runner := &fakeRunner{}
	mux, _ := newTestAPI(t, runner, models.InstallationStatus{Installed: true, CRDFound: true, OperatorRunning: true})

	w := do(t, mux, http.MethodPost, "/v0/providers/kuberay/install", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out v0.InstallationBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.AlreadyInstalled)
	assert.Empty(t, runner.calls)

	w = do(t, mux, http.MethodPost, "/v0/providers/kuberay/upgrade", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.NotEmpty(t, runner.calls)

	w = do(t, mux, http.MethodGet, "/v0/providers/kuberay/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"installed":true`)
}

func TestInstall_CLIUnavailable(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{unavailable: true}, models.InstallationStatus{})
	w := do(t, mux, http.MethodPost, "/v0/providers/dynamo/install", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModelsAndCapacity(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodGet, "/v0/models?engine=llamacpp", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list v0.ModelListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "unsloth/gemma-3-1b-it-GGUF", list.Models[0].ID)

	w = do(t, mux, http.MethodGet, "/v0/cluster/capacity", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availableGpus":6`)
}

func TestPlanEndpoint(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodPost, "/v0/deployments/plan",
		`{"provider":"dynamo","name":"demo","modelId":"Qwen/Qwen3-0.6B","replicas":2,"engineArgs":{"max-num-seqs":64,"enable-chunked-prefill":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan models.DeploymentPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, 2, plan.Topology.TotalGPUs)
	assert.Equal(t, "DynamoGraphDeployment", plan.Manifest["kind"])
	assert.Less(t, strings.Index(w.Body.String(), "max-num-seqs"), strings.Index(w.Body.String(), "enable-chunked-prefill"))

	w = do(t, mux, http.MethodPost, "/v0/deployments/plan", `{"provider":"dynamo","name":"Bad_Name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "modelId")

	w = do(t, mux, http.MethodPost, "/v0/deployments/plan", `{"provider":"triton","name":"x","modelId":"m"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeploymentsWithoutCluster(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodPost, "/v0/deployments", `{"provider":"dynamo","name":"demo","modelId":"m"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, mux, http.MethodGet, "/v0/deployments", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, mux, http.MethodDelete, "/v0/deployments/dynamo/default/demo", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCostEndpoints(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeRunner{}, models.InstallationStatus{})

	w := do(t, mux, http.MethodPost, "/v0/cost/estimate",
		`{"provider":"dynamo","name":"demo","modelId":"m","replicas":2,"cloudProvider":"aws","gpuType":"nvidia-a100-80gb"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var est models.CostEstimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
	assert.True(t, est.HasActualCosts)
	require.NotNil(t, est.HourlyRate)
	assert.InDelta(t, 8.20, *est.HourlyRate, 1e-9)

	w = do(t, mux, http.MethodPost, "/v0/cost/compare", `{
		"aggregated": {"provider":"dynamo","name":"a","modelId":"m","replicas":2},
		"disaggregated": {"provider":"dynamo","name":"d","modelId":"m","mode":"disaggregated","prefillReplicas":1,"decodeReplicas":1}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cmp models.CostComparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	assert.Equal(t, 0, cmp.GPUDelta)

	w = do(t, mux, http.MethodPost, "/v0/cost/compare", `{"aggregated": {"provider":"dynamo"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
