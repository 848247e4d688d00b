//go:build e2e

package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// kfctlBinary returns the absolute path to the pre-built kfctl binary.
// exec.Command resolves relative paths against cmd.Dir, so the path is made absolute.
func kfctlBinary(t *testing.T) string {
	t.Helper()
	bin := os.Getenv("KFCTL_BINARY")
	if bin == "" {
		bin = filepath.Join("..", "bin", "kfctl")
	}
	abs, err := filepath.Abs(bin)
	if err != nil {
		t.Fatalf("Failed to resolve absolute path for kfctl binary %q: %v", bin, err)
	}
	return abs
}

// KfctlResult holds the output from running kfctl.
type KfctlResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// RunKfctl executes kfctl with the given args, feeding stdin when non-empty.
func RunKfctl(t *testing.T, stdin string, args ...string) KfctlResult {
	t.Helper()
	bin := kfctlBinary(t)
	t.Logf("Running: %s %s", bin, strings.Join(args, " "))

	cmd := exec.Command(bin, args...)
	cmd.Env = os.Environ()
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	result := KfctlResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Err:      err,
	}

	t.Logf("Exit code: %d", result.ExitCode)
	if result.Stdout != "" {
		t.Logf("Stdout:\n%s", result.Stdout)
	}
	if result.Stderr != "" {
		t.Logf("Stderr:\n%s", result.Stderr)
	}
	return result
}

// RequireSuccess asserts the command succeeded (exit code 0).
func RequireSuccess(t *testing.T, result KfctlResult) {
	t.Helper()
	if result.ExitCode != 0 {
		t.Fatalf("Expected exit code 0 but got %d.\nStdout: %s\nStderr: %s",
			result.ExitCode, result.Stdout, result.Stderr)
	}
}

// RequireFailure asserts the command failed (non-zero exit code).
func RequireFailure(t *testing.T, result KfctlResult) {
	t.Helper()
	if result.ExitCode == 0 {
		t.Fatalf("Expected non-zero exit code but got 0.\nStdout: %s\nStderr: %s",
			result.Stdout, result.Stderr)
	}
}

// RequireOutputContains asserts stdout or stderr contains the given substring.
func RequireOutputContains(t *testing.T, result KfctlResult, substr string) {
	t.Helper()
	combined := result.Stdout + result.Stderr
	if !strings.Contains(combined, substr) {
		t.Fatalf("Expected output to contain %q but got:\nStdout: %s\nStderr: %s",
			substr, result.Stdout, result.Stderr)
	}
}

// RequireEnv skips the test if the given environment variable is not set.
func RequireEnv(t *testing.T, envVar string) string {
	t.Helper()
	val := os.Getenv(envVar)
	if val == "" {
		t.Skipf("Skipping: requires %s environment variable", envVar)
	}
	return val
}

// ServerURL returns the server URL set during TestMain setup.
func ServerURL(t *testing.T) string {
	t.Helper()
	if serverURL == "" {
		t.Fatal("serverURL not set -- server startup may have failed")
	}
	return serverURL
}
