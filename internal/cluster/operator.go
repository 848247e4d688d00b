package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// OperatorStatus checks that the provider CRD is established and that at
// least one operator pod is running and ready.
func (c *Client) OperatorStatus(ctx context.Context, crd models.CRDConfig, op models.OperatorRef) (models.InstallationStatus, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var status models.InstallationStatus

	var def apiextensionsv1.CustomResourceDefinition
	switch err := c.c.Get(ctx, client.ObjectKey{Name: crd.CRDName()}, &def); {
	case err == nil:
		status.CRDFound = crdEstablished(&def)
	case IsNotFound(err):
	default:
		return status, fmt.Errorf("failed to get CRD %s: %w", crd.CRDName(), err)
	}

	selector, err := labels.Parse(op.LabelSelector)
	if err != nil {
		return status, fmt.Errorf("invalid operator selector %q: %w", op.LabelSelector, err)
	}
	var pods corev1.PodList
	if err := c.c.List(ctx, &pods, client.InNamespace(op.Namespace), client.MatchingLabelsSelector{Selector: selector}); err != nil {
		return status, fmt.Errorf("failed to list operator pods: %w", err)
	}
	for i := range pods.Items {
		if podReady(&pods.Items[i]) {
			status.OperatorRunning = true
			break
		}
	}

	status.Installed = status.CRDFound && status.OperatorRunning
	switch {
	case status.Installed:
		status.Message = "installed"
	case !status.CRDFound:
		status.Message = fmt.Sprintf("CRD %s not found", crd.CRDName())
	case len(pods.Items) == 0:
		status.Message = fmt.Sprintf("no operator pods found in namespace %s", op.Namespace)
	default:
		status.Message = "operator pods are not ready"
	}
	return status, nil
}

// InstallationStatus reports the installation status of a provider.
func (c *Client) InstallationStatus(ctx context.Context, p providers.Provider) (models.InstallationStatus, error) {
	return c.OperatorStatus(ctx, p.CRDConfig(), p.Operator())
}

func crdEstablished(def *apiextensionsv1.CustomResourceDefinition) bool {
	if len(def.Status.Conditions) == 0 {
		// Freshly created CRDs may not have conditions yet; presence is enough.
		return true
	}
	for _, cond := range def.Status.Conditions {
		if cond.Type == apiextensionsv1.Established {
			return cond.Status == apiextensionsv1.ConditionTrue
		}
	}
	return true
}

func podReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
