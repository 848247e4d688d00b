//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/kubefoundry/kubefoundry/pkg/client"
)

// serverURL is set during TestMain setup and used by all API tests.
var serverURL string

func TestMain(m *testing.M) {
	log.SetPrefix("[e2e] ")
	log.SetFlags(log.Ltime)

	checkPrerequisites()

	var cleanup func()
	if os.Getenv("E2E_SKIP_SETUP") == "true" {
		log.Printf("E2E_SKIP_SETUP=true, skipping server startup")
		serverURL = os.Getenv("KUBEFOUNDRY_API_URL")
		if serverURL == "" {
			log.Fatal("KUBEFOUNDRY_API_URL must be set when E2E_SKIP_SETUP=true")
		}
	} else {
		cleanup = startServer()
	}

	log.Printf("Configuration:")
	log.Printf("  KUBEFOUNDRY_API_URL: %s", serverURL)
	log.Printf("  KUBECONFIG:          %s", maskEnv("KUBECONFIG"))

	code := m.Run()

	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

func checkPrerequisites() {
	if _, err := os.Stat(resolveKfctlBinaryPath()); err != nil {
		log.Fatalf("kfctl binary not found at %s\nBuild it first with: go build -o bin/kfctl ./cmd/cli", resolveKfctlBinaryPath())
	}
}

func resolveKfctlBinaryPath() string {
	bin := os.Getenv("KFCTL_BINARY")
	if bin == "" {
		bin = filepath.Join("..", "bin", "kfctl")
	}
	abs, err := filepath.Abs(bin)
	if err != nil {
		log.Fatalf("Failed to resolve kfctl binary path %q: %v", bin, err)
	}
	return abs
}

// startServer runs "kfctl serve" on a free port and waits until it answers.
func startServer() func() {
	port, err := freePort()
	if err != nil {
		log.Fatalf("Failed to find a free port: %v", err)
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	serverURL = "http://" + addr

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, resolveKfctlBinaryPath(), "serve", "--listen", addr)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 10 * time.Second
	if err := cmd.Start(); err != nil {
		cancel()
		log.Fatalf("Failed to start kfctl serve: %v", err)
	}

	if err := client.NewClient(serverURL).WaitReady(); err != nil {
		cancel()
		_ = cmd.Wait()
		log.Fatalf("kfctl serve did not become ready: %v", err)
	}
	log.Printf("Server ready at %s", serverURL)

	return func() {
		log.Printf("Stopping kfctl serve...")
		cancel()
		_ = cmd.Wait()
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func maskEnv(name string) string {
	if os.Getenv(name) == "" {
		return "(not set)"
	}
	return "(set)"
}
