// Package router contains API routing logic
package router

import (
	"github.com/danielgtaylor/huma/v2"

	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
)

// RegisterRoutes registers all API routes under /v0.
func RegisterRoutes(api huma.API, svc *v0.Services, versionInfo *v0.VersionBody) {
	pathPrefix := "/v0"

	v0.RegisterPingEndpoint(api, pathPrefix)
	v0.RegisterVersionEndpoint(api, pathPrefix, versionInfo)
	v0.RegisterProvidersEndpoints(api, pathPrefix, svc)
	v0.RegisterCatalogEndpoints(api, pathPrefix, svc)
	v0.RegisterDeploymentsEndpoints(api, pathPrefix, svc)
}
