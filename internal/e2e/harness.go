// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It runs the persona command line in an isolated working directory and
// captures what it writes.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/klauern/persona/internal/cli"
	"github.com/klauern/persona/internal/config"
	"github.com/klauern/persona/internal/logging"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Stderr contains the captured standard error (logs).
	Stderr string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness runs CLI commands inside a temporary workspace that acts as the
// working directory, so the default .agent input and AGENTS.md catalog
// resolve inside it.
type Harness struct {
	t   *testing.T
	dir string
}

// NewHarness creates a harness with an empty workspace and a clean
// PERSONA_* environment.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	for _, k := range config.EnvVars {
		t.Setenv(k, "")
	}

	old := logging.Default()
	t.Cleanup(func() { logging.SetDefault(old) })

	return &Harness{t: t, dir: dir}
}

// Dir returns the workspace directory.
func (h *Harness) Dir() string {
	return h.dir
}

// Workspace returns a fixture rooted at the workspace.
func (h *Harness) Workspace() *Fixture {
	return NewFixture(h.t, h.dir)
}

// Run executes a CLI command with the given arguments and captures stdout
// and stderr.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "persona" {
		args = append([]string{"persona", "--no-color"}, args...)
	}

	stdout := h.capture(&os.Stdout)
	stderr := h.capture(&os.Stderr)

	cmdErr := cli.Run(context.Background(), args)

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdout(),
		Stderr:   stderr(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// capture redirects *target into a pipe and returns a function that
// restores it and yields everything written in between. The pipe is read
// concurrently so large outputs cannot block the command.
func (h *Harness) capture(target **os.File) func() string {
	h.t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create pipe: %v", err)
	}
	old := *target
	*target = w

	var buf bytes.Buffer
	var copyErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, copyErr = io.Copy(&buf, r)
	}()

	return func() string {
		if err := w.Close(); err != nil {
			h.t.Fatalf("failed to close pipe writer: %v", err)
		}
		*target = old
		<-done
		if copyErr != nil {
			h.t.Fatalf("failed to read captured output: %v", copyErr)
		}
		return buf.String()
	}
}
