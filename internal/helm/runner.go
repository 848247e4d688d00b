// Package helm runs the Helm CLI and streams its output line by line.
package helm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrCLIUnavailable is returned when the helm binary cannot be found or run.
var ErrCLIUnavailable = errors.New("helm CLI is not available")

// Stream identifies which output stream a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// LineFunc receives each output line as it is produced. It is advisory and
// must not block for long.
type LineFunc func(line string, stream Stream)

// Result is the outcome of one CLI invocation. A non-zero ExitCode is a
// normal result, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited zero.
func (r *Result) Success() bool { return r.ExitCode == 0 }

// Runner executes helm subcommands.
type Runner interface {
	// Run executes helm with args. The error is non-nil only when the
	// command could not be started or was cancelled.
	Run(ctx context.Context, args []string, onLine LineFunc) (*Result, error)
	// Available returns ErrCLIUnavailable when helm cannot be used.
	Available(ctx context.Context) error
}

// ExecRunner runs a local helm binary.
type ExecRunner struct {
	Binary     string
	Kubeconfig string
}

// NewExecRunner returns a runner for binary (default "helm").
func NewExecRunner(binary, kubeconfig string) *ExecRunner {
	if binary == "" {
		binary = "helm"
	}
	return &ExecRunner{Binary: binary, Kubeconfig: kubeconfig}
}

func (r *ExecRunner) Available(ctx context.Context) error {
	path, err := exec.LookPath(r.Binary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCLIUnavailable, err)
	}
	if err := exec.CommandContext(ctx, path, "version", "--short").Run(); err != nil {
		return fmt.Errorf("%w: %s version: %v", ErrCLIUnavailable, path, err)
	}
	return nil
}

func (r *ExecRunner) Run(ctx context.Context, args []string, onLine LineFunc) (*Result, error) {
	if r.Kubeconfig != "" {
		args = append(append([]string(nil), args...), "--kubeconfig", r.Kubeconfig)
	}
	cmd := exec.CommandContext(ctx, r.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrCLIUnavailable, err)
		}
		return nil, fmt.Errorf("failed to start %s: %w", r.Binary, err)
	}

	var outBuf, errBuf strings.Builder
	var mu sync.Mutex
	emit := func(line string, stream Stream) {
		if onLine == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onLine(line, stream)
	}

	var g errgroup.Group
	g.Go(func() error { return scan(stdout, &outBuf, Stdout, emit) })
	g.Go(func() error { return scan(stderr, &errBuf, Stderr, emit) })
	scanErr := g.Wait()

	waitErr := cmd.Wait()
	res := &Result{Stdout: outBuf.String(), Stderr: errBuf.String()}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, waitErr
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if scanErr != nil {
		return res, fmt.Errorf("failed to read %s output: %w", r.Binary, scanErr)
	}
	return res, nil
}

func scan(rd io.Reader, buf *strings.Builder, stream Stream, emit LineFunc) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		emit(line, stream)
	}
	return sc.Err()
}
