// Package client is a small HTTP client for the kubefoundry /v0 API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// DefaultBaseURL is where a local "kfctl serve" listens.
const DefaultBaseURL = "http://localhost:3001"

const (
	pingAttempts = 5
	pingBackoff  = 100 * time.Millisecond
)

// Client calls a kubefoundry server.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Errors     []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server returned %d", e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Title != "" {
		msg += ": " + e.Title
	}
	if len(e.Errors) > 0 {
		msg += " (" + strings.Join(e.Errors, "; ") + ")"
	}
	return msg
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientFromEnv uses KUBEFOUNDRY_API_URL, falling back to DefaultBaseURL.
func NewClientFromEnv() *Client {
	baseURL := os.Getenv("KUBEFOUNDRY_API_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return NewClient(baseURL)
}

// Ping checks that the server answers.
func (c *Client) Ping() error {
	return c.do(http.MethodGet, "/v0/ping", nil, nil)
}

// GetVersion returns the server's build information.
func (c *Client) GetVersion() (*v0.VersionBody, error) {
	var out v0.VersionBody
	if err := c.do(http.MethodGet, "/v0/version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProviders returns the providers the server knows.
func (c *Client) ListProviders() ([]models.ProviderInfo, error) {
	var out v0.ProvidersListBody
	if err := c.do(http.MethodGet, "/v0/providers", nil, &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// Plan asks the server to plan a raw JSON deployment request.
func (c *Client) Plan(raw []byte) (*models.DeploymentPlan, error) {
	var out models.DeploymentPlan
	if err := c.do(http.MethodPost, "/v0/deployments/plan", raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Title = body.Title
		apiErr.Detail = body.Detail
		for _, e := range body.Errors {
			apiErr.Errors = append(apiErr.Errors, e.Message)
		}
	}
	return apiErr
}

// pingWithRetry pings with a short linear backoff, for callers that have
// just started a server.
func pingWithRetry(c *Client) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = c.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * pingBackoff)
	}
	return fmt.Errorf("server at %s is not reachable: %w", c.BaseURL, err)
}

// WaitReady blocks until the server answers a ping or retries run out.
func (c *Client) WaitReady() error {
	return pingWithRetry(c)
}
