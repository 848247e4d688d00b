// Package builtin assembles the registry of providers shipped with kubefoundry.
package builtin

import (
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/internal/providers/dynamo"
	"github.com/kubefoundry/kubefoundry/internal/providers/kaito"
	"github.com/kubefoundry/kubefoundry/internal/providers/kuberay"
)

// Default returns the registry of all built-in providers with stock settings.
func Default() *providers.Registry {
	return New("")
}

// New returns the registry of all built-in providers. hfTokenSecret, when
// non-empty, is the token secret Dynamo workers mount by default. It panics
// if the static descriptors are inconsistent, which is a programming error.
func New(hfTokenSecret string) *providers.Registry {
	d := dynamo.New()
	d.HFTokenSecret = hfTokenSecret
	r, err := providers.NewRegistry(d, kuberay.New(), kaito.New())
	if err != nil {
		panic(err)
	}
	return r
}
