package main

import (
	"os"

	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/kubefoundry/kubefoundry/pkg/cli"
)

func main() {
	if err := cli.Root().ExecuteContext(signals.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}
