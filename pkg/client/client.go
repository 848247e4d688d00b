package client

import (
	"github.com/kubefoundry/kubefoundry/internal/client"
)

// Exposing internal client for external use
func NewClientFromEnv() *client.Client {
	return client.NewClientFromEnv()
}

func NewClient(baseURL string) *client.Client {
	return client.NewClient(baseURL)
}
