//go:build e2e

package e2e

import (
	"testing"
)

const dynamoRequest = `{"provider":"dynamo","name":"e2e-demo","modelId":"Qwen/Qwen3-0.6B","replicas":1}`

func TestProvidersList(t *testing.T) {
	result := RunKfctl(t, "", "providers", "list")
	RequireSuccess(t, result)
	for _, id := range []string{"dynamo", "kuberay", "kaito"} {
		RequireOutputContains(t, result, id)
	}
}

func TestPlanFromStdin(t *testing.T) {
	result := RunKfctl(t, dynamoRequest, "plan", "-f", "-", "--manifest-only")
	RequireSuccess(t, result)
	RequireOutputContains(t, result, "kind: DynamoGraphDeployment")
	RequireOutputContains(t, result, "e2e-demo")
}

func TestPlanRejectsUnknownProvider(t *testing.T) {
	result := RunKfctl(t, `{"provider":"nope","name":"x","modelId":"m"}`, "plan", "-f", "-")
	RequireFailure(t, result)
}

func TestCostEstimate(t *testing.T) {
	result := RunKfctl(t,
		`{"provider":"dynamo","name":"c","modelId":"m","replicas":2,"cloudProvider":"aws","gpuType":"nvidia-a100-80gb"}`,
		"cost", "estimate", "-f", "-")
	RequireSuccess(t, result)
	RequireOutputContains(t, result, "Per GPU")
}

func TestCapacity(t *testing.T) {
	RequireEnv(t, "KUBECONFIG")
	result := RunKfctl(t, "", "capacity")
	RequireSuccess(t, result)
	RequireOutputContains(t, result, "GPUs available")
}

func TestProviderStatus(t *testing.T) {
	RequireEnv(t, "KUBECONFIG")
	result := RunKfctl(t, "", "status", "kaito", "-o", "json")
	RequireSuccess(t, result)
	RequireOutputContains(t, result, `"provider"`)
}
