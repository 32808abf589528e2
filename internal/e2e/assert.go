package e2e

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/klauern/persona/internal/util"
)

// AssertSuccess fails the test if the command did not succeed.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	if !r.Success() {
		t.Fatalf("expected success, got error: %v\nstdout: %s\nstderr: %s", r.Err, r.Stdout, r.Stderr)
	}
}

// AssertErrorIs fails the test if the command error does not match target.
func AssertErrorIs(t *testing.T, r *Result, target error) {
	t.Helper()
	if !errors.Is(r.Err, target) {
		t.Fatalf("expected error matching %v, got: %v\nstdout: %s", target, r.Err, r.Stdout)
	}
	if r.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", r.ExitCode)
	}
}

// AssertErrorContains fails the test if the command error message doesn't
// contain the substring.
func AssertErrorContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if r.Err == nil {
		t.Fatalf("expected error containing %q, got success\nstdout: %s", substr, r.Stdout)
	}
	if !strings.Contains(r.Err.Error(), substr) {
		t.Errorf("expected error to contain %q\ngot: %v", substr, r.Err)
	}
}

// AssertOutputContains fails the test if stdout doesn't contain the substring.
func AssertOutputContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if !strings.Contains(r.Stdout, substr) {
		t.Errorf("expected output to contain %q\ngot: %s", substr, r.Stdout)
	}
}

// AssertStderrContains fails the test if stderr doesn't contain the substring.
func AssertStderrContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if !strings.Contains(r.Stderr, substr) {
		t.Errorf("expected stderr to contain %q\ngot: %s", substr, r.Stderr)
	}
}

// AssertOutputEquals fails the test if stdout doesn't match exactly.
func AssertOutputEquals(t *testing.T, r *Result, expected string) {
	t.Helper()
	if r.Stdout != expected {
		t.Errorf("output mismatch\nexpected: %q\ngot: %q", expected, r.Stdout)
	}
}

// AssertFileMatches compares a file against testdataDir/name.golden.
func AssertFileMatches(t *testing.T, path, testdataDir, name string) {
	t.Helper()
	// #nosec G304 - path is provided by test code
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	util.GoldenFile(t, testdataDir, name, string(got))
}

// AssertFileExists fails the test if the file doesn't exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file to NOT exist: %s", path)
	}
}
