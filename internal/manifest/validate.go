// Package manifest holds the structural checks and argument assembly shared by
// the runtime manifest synthesizers.
package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Layout describes where a runtime keeps its role entries inside a manifest.
//
// RolesPath points at the services-equivalent map (empty means the object
// root). Roles are either keys of that map or, when WorkerList is set, named
// entries of a list inside it.
type Layout struct {
	APIVersion string
	Kind       string
	RolesPath  []string

	FrontendKeys []string
	WorkerKeys   []string

	// WorkerList is a list field under RolesPath whose entries are workers,
	// identified by WorkerNameField and accepted when named in WorkerNames.
	WorkerList      string
	WorkerNameField string
	WorkerNames     []string
}

// Validate checks a candidate manifest against a layout and returns every
// violation found. An empty result means the manifest is structurally valid.
func Validate(obj *unstructured.Unstructured, layout Layout) []string {
	if obj == nil || obj.Object == nil {
		return []string{"manifest is empty"}
	}
	var errs []string

	if v := obj.GetAPIVersion(); v == "" {
		errs = append(errs, "apiVersion is required")
	} else if layout.APIVersion != "" && v != layout.APIVersion {
		errs = append(errs, fmt.Sprintf("apiVersion must be %q, got %q", layout.APIVersion, v))
	}
	if k := obj.GetKind(); k == "" {
		errs = append(errs, "kind is required")
	} else if layout.Kind != "" && k != layout.Kind {
		errs = append(errs, fmt.Sprintf("kind must be %q, got %q", layout.Kind, k))
	}
	if obj.GetName() == "" {
		errs = append(errs, "metadata.name must not be empty")
	}
	if obj.GetNamespace() == "" {
		errs = append(errs, "metadata.namespace must not be empty")
	}

	roles := obj.Object
	if len(layout.RolesPath) > 0 {
		m, found, err := unstructured.NestedMap(obj.Object, layout.RolesPath...)
		if err != nil || !found {
			errs = append(errs, fmt.Sprintf("%s is required", strings.Join(layout.RolesPath, ".")))
			return errs
		}
		roles = m
	}

	frontends := 0
	for _, key := range layout.FrontendKeys {
		if _, ok := roles[key]; ok {
			frontends++
		}
	}
	if frontends != 1 {
		errs = append(errs, fmt.Sprintf("expected exactly one frontend entry (%s), found %d",
			strings.Join(layout.FrontendKeys, "|"), frontends))
	}

	workers := 0
	for _, key := range layout.WorkerKeys {
		if _, ok := roles[key]; ok {
			workers++
		}
	}
	if layout.WorkerList != "" {
		workers += countNamedWorkers(roles, layout)
	}
	if workers == 0 {
		errs = append(errs, "expected at least one recognised worker entry")
	}
	return errs
}

func countNamedWorkers(roles map[string]any, layout Layout) int {
	list, ok := roles[layout.WorkerList].([]any)
	if !ok {
		return 0
	}
	n := 0
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry[layout.WorkerNameField].(string)
		for _, allowed := range layout.WorkerNames {
			if name == allowed {
				n++
				break
			}
		}
	}
	return n
}
