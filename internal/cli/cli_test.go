package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/kubefoundry/kubefoundry/internal/cluster"
	"github.com/kubefoundry/kubefoundry/internal/config"
	"github.com/kubefoundry/kubefoundry/internal/helm"
)

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, args []string, onLine helm.LineFunc) (*helm.Result, error) {
	f.calls = append(f.calls, args)
	if onLine != nil {
		onLine("ok", helm.Stdout)
	}
	return &helm.Result{Stdout: "ok"}, nil
}

func (f *fakeRunner) Available(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		ListenAddress:        ":0",
		HelmBinary:           "helm",
		HelmTimeout:          time.Minute,
		ClusterTimeout:       time.Second,
		DefaultCloudProvider: "none",
		LogLevel:             "info",
		HFTokenSecret:        "hf-token-secret",
	}
}

func gpuNode(name string, gpus int64) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: map[string]string{"nvidia.com/gpu.product": "NVIDIA-L4"}},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{"nvidia.com/gpu": *resource.NewQuantity(gpus, resource.DecimalSI)},
		},
	}
}

// setupApp installs an App backed by a fake cluster with one 4-GPU node.
func setupApp(t *testing.T) (*App, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{}
	a := &App{
		Config: testConfig(),
		Runner: runner,
		Connect: func() (*cluster.Client, error) {
			c := fake.NewClientBuilder().WithScheme(cluster.NewScheme()).WithObjects(gpuNode("gpu-1", 4)).Build()
			return cluster.NewWithClient(c, time.Second), nil
		},
	}
	require.NoError(t, a.Init())
	SetApp(a)
	t.Cleanup(func() { SetApp(&App{}) })
	return a, runner
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProvidersCommands(t *testing.T) {
	setupApp(t)
	t.Cleanup(func() { providersOutputFormat = formatTable })

	out, err := run(t, providersListCmd)
	require.NoError(t, err)
	for _, id := range []string{"dynamo", "kuberay", "kaito"} {
		assert.Contains(t, out, id)
	}

	out, err = run(t, providersShowCmd, "kuberay")
	require.NoError(t, err)
	assert.Contains(t, out, "RayService")
	assert.Contains(t, out, "Installation steps")
	assert.Contains(t, out, "$ helm repo add")

	providersOutputFormat = formatJSON
	out, err = run(t, providersListCmd)
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 3)

	_, err = run(t, providersShowCmd, "triton")
	assert.Error(t, err)
}

func TestInstallCommand(t *testing.T) {
	_, runner := setupApp(t)

	out, err := run(t, InstallCmd, "kaito")
	require.NoError(t, err)
	require.NotEmpty(t, runner.calls)
	assert.Equal(t, []string{"repo", "add"}, runner.calls[0][:2])
	assert.Contains(t, out, "done:")
	// The fake cluster has no CRD, so verification disagrees.
	assert.Contains(t, out, "succeeded but the cluster reports")
}

func TestStatusCommand(t *testing.T) {
	setupApp(t)
	t.Cleanup(func() { statusOutputFormat = formatTable })

	statusOutputFormat = formatJSON
	out, err := run(t, StatusCmd, "dynamo")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dynamo", info["provider"])
	assert.Equal(t, false, info["installed"])
	assert.Contains(t, info["message"], "not found")
}

func TestPlanCommand(t *testing.T) {
	setupApp(t)
	t.Cleanup(func() {
		planFile = ""
		planOutputFormat = formatTable
		planManifestOnly = false
	})

	planFile = writeFile(t, "request.yaml", `
provider: kuberay
name: qwen
modelId: Qwen/Qwen3-8B
replicas: 2
resources:
  gpu: 1
engineArgs:
  max-num-seqs: 32
  gpu-memory-utilization: 0.85
`)
	out, err := run(t, PlanCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "aggregated, 2 × 1 GPU")
	assert.Contains(t, out, "kind: RayService")

	planManifestOnly = true
	out, err = run(t, PlanCmd)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "apiVersion: ray.io/v1"), out)

	planManifestOnly = false
	planOutputFormat = formatJSON
	out, err = run(t, PlanCmd)
	require.NoError(t, err)
	assert.Contains(t, out, `"capacityKnown": true`)
	assert.Less(t, strings.Index(out, "max-num-seqs"), strings.Index(out, "gpu-memory-utilization"))
}

func TestPlanCommand_Invalid(t *testing.T) {
	setupApp(t)
	t.Cleanup(func() { planFile = "" })

	planFile = writeFile(t, "bad.json", `{"provider":"kaito","name":"x","modelId":"m","mode":"disaggregated"}`)
	_, err := run(t, PlanCmd)
	assert.ErrorContains(t, err, "disaggregated")
}

func TestCostCommands(t *testing.T) {
	setupApp(t)
	t.Cleanup(func() {
		costFile, costAggregatedFile, costDisaggregatedFile = "", "", ""
	})

	costFile = writeFile(t, "req.json", `{"provider":"dynamo","name":"a","modelId":"m","replicas":2,"cloudProvider":"aws","gpuType":"nvidia-a100-80gb"}`)
	out, err := run(t, costEstimateCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "$4.10/hour")

	costAggregatedFile = costFile
	costDisaggregatedFile = writeFile(t, "dis.json", `{"provider":"dynamo","name":"d","modelId":"m","mode":"disaggregated","prefillReplicas":1,"decodeReplicas":2,"cloudProvider":"aws","gpuType":"nvidia-a100-80gb"}`)
	out, err = run(t, costCompareCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "1 more GPUs")
}

func TestCapacityAndModels(t *testing.T) {
	setupApp(t)

	out, err := run(t, CapacityCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "gpu-1")
	assert.Contains(t, out, "4 of 4 GPUs available")

	out, err = run(t, ModelsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "meta-llama/Llama-3.3-70B-Instruct")
}

func TestDeploymentsListEmpty(t *testing.T) {
	setupApp(t)
	out, err := run(t, deploymentsListCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No deployments found.")
}
