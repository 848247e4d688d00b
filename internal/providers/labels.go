package providers

import (
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Label and annotation keys stamped on every synthesized resource.
const (
	LabelName       = "app.kubernetes.io/name"
	LabelManagedBy  = "app.kubernetes.io/managed-by"
	LabelProvider   = "kubefoundry.io/provider"
	AnnotationModel = "kubefoundry.io/model-id"

	ManagedBy = "kubefoundry"
)

// Labels returns the labels identifying a deployment.
func Labels(req *models.DeploymentRequest) map[string]string {
	return map[string]string{
		LabelName:      req.Name,
		LabelManagedBy: ManagedBy,
		LabelProvider:  req.Provider,
	}
}

// ManagedSelector selects every resource created through a given provider.
func ManagedSelector(providerID string) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedBy,
		LabelProvider:  providerID,
	}
}

// RejectKaitoOptions reports kaito-only options set on another provider's request.
func RejectKaitoOptions(req *models.DeploymentRequest) []string {
	if req.Kaito != nil {
		return []string{"kaito options are only valid for the kaito provider"}
	}
	return nil
}
