package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/kubefoundry/kubefoundry/internal/api"
	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/internal/version"
)

func main() {
	outputPath := flag.String("output", "openapi.yaml", "Output path for OpenAPI spec")
	versionOverride := flag.String("version", "", "Override the API version (defaults to version.Version)")
	flag.Parse()

	if *versionOverride != "" {
		version.Version = *versionOverride
	}

	// Services are only dereferenced inside handler closures, so an empty
	// set is enough to register every route.
	doc := api.NewServer(&v0.Services{}, api.Options{}).OpenAPI()

	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		log.Fatalf("Failed to marshal OpenAPI spec to YAML: %v", err)
	}

	if err := os.WriteFile(*outputPath, yamlData, 0644); err != nil {
		log.Fatalf("Failed to write OpenAPI spec to %s: %v", *outputPath, err)
	}

	absPath, err := filepath.Abs(*outputPath)
	if err != nil {
		absPath = *outputPath
	}
	fmt.Printf("OpenAPI spec generated: %s\n", absPath)
}
