package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// VersionBody represents the version information
type VersionBody struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"gitCommit" example:"abc123" doc:"Git commit hash"`
	BuildTime string `json:"buildTime" example:"2024-01-01T00:00:00Z" doc:"Build timestamp"`
}

// RegisterVersionEndpoint registers the version endpoint
func RegisterVersionEndpoint(api huma.API, pathPrefix string, info *VersionBody) {
	huma.Register(api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/version",
		Summary:     "Get version information",
		Description: "Returns version, build time, and git commit information",
		Tags:        []string{"version"},
	}, func(_ context.Context, _ *struct{}) (*Response[VersionBody], error) {
		if info == nil {
			return &Response[VersionBody]{}, nil
		}
		return &Response[VersionBody]{Body: *info}, nil
	})
}
