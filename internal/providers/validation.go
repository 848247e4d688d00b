package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Bounds applied to every provider's request.
const (
	MaxReplicas      = 100
	MaxGPUsPerWorker = 64
)

var engineArgKey = regexp.MustCompile(`^-{0,2}[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidationError lists every field-level problem with a request.
type ValidationError struct {
	Errors []string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "invalid deployment request: " + strings.Join(e.Errors, "; ")
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Rules parameterises the validation every provider shares.
type Rules struct {
	ProviderID         string
	DefaultNamespace   string
	Engines            []string
	DefaultEngine      string
	AllowDisaggregated bool
	// AllowZeroGPUs permits resources.gpu == 0 for CPU-only runtimes.
	AllowZeroGPUs bool
	// Defaults applies provider-specific defaults before the engine default.
	// It receives a copy and may replace nested pointers.
	Defaults func(*models.DeploymentRequest)
}

// DecodeRequest strictly decodes a raw JSON request. Unknown fields are rejected.
func DecodeRequest(raw []byte) (*models.DeploymentRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var req models.DeploymentRequest
	if err := dec.Decode(&req); err != nil {
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("malformed request: %v", err)}}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ValidationError{Errors: []string{"malformed request: trailing data after JSON object"}}
	}
	return &req, nil
}

// Normalize returns a copy of req with the shared defaults applied.
func Normalize(req *models.DeploymentRequest, rules Rules) *models.DeploymentRequest {
	out := *req
	out.Provider = rules.ProviderID
	if out.Namespace == "" {
		out.Namespace = rules.DefaultNamespace
	}
	if out.Mode == "" {
		out.Mode = models.ModeAggregated
	}
	if out.RouterMode == "" {
		out.RouterMode = models.RouterModeNone
	}
	if rules.Defaults != nil {
		rules.Defaults(&out)
	}
	if out.Engine == "" {
		out.Engine = rules.DefaultEngine
	}
	out.Engine = strings.ToLower(out.Engine)
	if out.CloudProvider != "" {
		out.CloudProvider = strings.ToLower(out.CloudProvider)
	}
	return &out
}

// ValidateCommon checks the fields every provider interprets the same way.
// It expects a normalized request and returns all violations.
func ValidateCommon(req *models.DeploymentRequest, rules Rules) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if req.Name == "" {
		add("name is required")
	} else {
		for _, msg := range validation.IsDNS1123Label(req.Name) {
			add("name: %s", msg)
		}
	}
	for _, msg := range validation.IsDNS1123Label(req.Namespace) {
		add("namespace: %s", msg)
	}
	if strings.TrimSpace(req.ModelID) == "" {
		add("modelId is required")
	}
	if len(rules.Engines) > 0 && !slices.Contains(rules.Engines, req.Engine) {
		add("engine %q is not supported by %s (supported: %s)", req.Engine, rules.ProviderID, strings.Join(rules.Engines, ", "))
	}

	switch req.Mode {
	case models.ModeAggregated:
		for field, v := range map[string]*int{
			"prefillReplicas": req.PrefillReplicas, "decodeReplicas": req.DecodeReplicas,
			"prefillGpus": req.PrefillGPUs, "decodeGpus": req.DecodeGPUs,
		} {
			if v != nil {
				add("%s is only valid in disaggregated mode", field)
			}
		}
	case models.ModeDisaggregated:
		if !rules.AllowDisaggregated {
			add("disaggregated mode is not supported by %s", rules.ProviderID)
		}
		if req.Replicas != nil {
			add("replicas is only valid in aggregated mode; use prefillReplicas and decodeReplicas")
		}
	default:
		add("mode must be %q or %q", models.ModeAggregated, models.ModeDisaggregated)
	}

	switch req.RouterMode {
	case models.RouterModeNone, models.RouterModeKV, models.RouterModeRoundRobin:
	default:
		add("routerMode must be one of none, kv, round-robin")
	}

	checkRange := func(field string, v *int, lo, hi int) {
		if v != nil && (*v < lo || *v > hi) {
			add("%s must be between %d and %d", field, lo, hi)
		}
	}
	checkRange("replicas", req.Replicas, 1, MaxReplicas)
	checkRange("prefillReplicas", req.PrefillReplicas, 1, MaxReplicas)
	checkRange("decodeReplicas", req.DecodeReplicas, 1, MaxReplicas)
	checkRange("prefillGpus", req.PrefillGPUs, 1, MaxGPUsPerWorker)
	checkRange("decodeGpus", req.DecodeGPUs, 1, MaxGPUsPerWorker)
	if req.ContextLength != nil && *req.ContextLength <= 0 {
		add("contextLength must be positive")
	}

	if r := req.Resources; r != nil {
		minGPU := 1
		if rules.AllowZeroGPUs {
			minGPU = 0
		}
		checkRange("resources.gpu", r.GPU, minGPU, MaxGPUsPerWorker)
		for field, q := range map[string]string{"resources.memory": r.Memory, "resources.cpu": r.CPU} {
			if q == "" {
				continue
			}
			if _, err := resource.ParseQuantity(q); err != nil {
				add("%s: %q is not a valid quantity", field, q)
			}
		}
	}

	if req.HFTokenSecret != "" {
		for _, msg := range validation.IsDNS1123Subdomain(req.HFTokenSecret) {
			add("hfTokenSecret: %s", msg)
		}
	}

	for _, arg := range req.EngineArgs {
		if !engineArgKey.MatchString(arg.Key) {
			add("engineArgs: %q is not a valid flag name", arg.Key)
		}
	}

	switch req.CloudProvider {
	case "", models.CloudNone, models.CloudAWS, models.CloudAzure, models.CloudGCP, models.CloudOnPrem:
	default:
		add("cloudProvider must be one of aws, azure, gcp, on-prem, none")
	}
	if req.CustomHourlyRate != nil && *req.CustomHourlyRate < 0 {
		add("customHourlyRate must not be negative")
	}

	slices.Sort(errs)
	return errs
}

// Validate runs DecodeRequest, Normalize, ValidateCommon and then extra
// provider checks, folding every problem into one *ValidationError.
func Validate(raw []byte, rules Rules, extra func(*models.DeploymentRequest) []string) (*models.DeploymentRequest, error) {
	req, err := DecodeRequest(raw)
	if err != nil {
		return nil, err
	}
	norm := Normalize(req, rules)
	errs := ValidateCommon(norm, rules)
	if extra != nil {
		errs = append(errs, extra(norm)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return norm, nil
}
