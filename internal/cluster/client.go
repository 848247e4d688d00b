// Package cluster talks to the Kubernetes API: it applies and reads
// provider custom resources and inspects nodes, pods and CRDs for GPU
// capacity and operator health.
package cluster

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// FieldOwner is the server-side apply manager name.
const FieldOwner = "kubefoundry"

// DefaultTimeout bounds every API call when none is configured.
const DefaultTimeout = 5 * time.Second

// NewScheme returns the scheme for the typed objects the client reads.
func NewScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	utilruntime.Must(corev1.AddToScheme(s))
	utilruntime.Must(apiextensionsv1.AddToScheme(s))
	return s
}

// RestConfig loads a rest config from an explicit kubeconfig path, or from
// the default loading rules (KUBECONFIG, ~/.kube/config, in-cluster).
func RestConfig(kubeconfig string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return cfg, nil
}

// Client wraps a controller-runtime client. Every call is bounded by Timeout
// so an unreachable cluster degrades callers instead of hanging them.
type Client struct {
	c       client.Client
	timeout time.Duration
}

// New connects using kubeconfig.
func New(kubeconfig string, timeout time.Duration) (*Client, error) {
	cfg, err := RestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout
	c, err := client.New(cfg, client.Options{Scheme: NewScheme()})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return NewWithClient(c, timeout), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c client.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{c: c, timeout: timeout}
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// IsNotFound reports whether err is a Kubernetes not-found error.
func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

// GVK returns the group/version/kind of a provider's custom resource.
func GVK(crd models.CRDConfig) schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: crd.APIGroup, Version: crd.APIVersion, Kind: crd.Kind}
}

// ApplyManifest creates or updates obj with server-side apply.
func (c *Client) ApplyManifest(ctx context.Context, obj *unstructured.Unstructured) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	obj = obj.DeepCopy()
	obj.SetManagedFields(nil)
	obj.SetResourceVersion("")
	if err := c.c.Patch(ctx, obj, client.Apply, client.FieldOwner(FieldOwner), client.ForceOwnership); err != nil {
		return fmt.Errorf("failed to apply %s %s/%s: %w", obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
	}
	return nil
}

// GetCustomResource reads one custom resource.
func (c *Client) GetCustomResource(ctx context.Context, crd models.CRDConfig, namespace, name string) (*unstructured.Unstructured, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(GVK(crd))
	if err := c.c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// DeleteCustomResource deletes one custom resource.
func (c *Client) DeleteCustomResource(ctx context.Context, crd models.CRDConfig, namespace, name string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(GVK(crd))
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return c.c.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground))
}

// ListCustomResources lists custom resources matching labels. An empty
// namespace lists across all namespaces.
func (c *Client) ListCustomResources(ctx context.Context, crd models.CRDConfig, namespace string, labels map[string]string) ([]unstructured.Unstructured, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	list := &unstructured.UnstructuredList{}
	gvk := GVK(crd)
	gvk.Kind += "List"
	list.SetGroupVersionKind(gvk)

	opts := []client.ListOption{client.MatchingLabels(labels)}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}
	if err := c.c.List(ctx, list, opts...); err != nil {
		return nil, err
	}
	return list.Items, nil
}
