package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/persona/internal/budget"
	"github.com/klauern/persona/internal/collector"
	"github.com/klauern/persona/internal/config"
	"github.com/klauern/persona/internal/drift"
	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/util"
)

const pythonHelper = `---
name: python-helper
description: Assists with Python coding tasks.
license: MIT
---
# Python helper
`

type fixture struct {
	root    string
	catalog string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, "skills", "HEADER.md"), "Skill catalog.\n")
	util.WriteFile(t, filepath.Join(root, "skills", "coding", "python-helper", "SKILL.md"), pythonHelper)
	util.WriteFile(t, filepath.Join(root, "skills", "coding", "python-helper", "scripts", "run.sh"), "#!/bin/sh\n")
	util.WriteFile(t, filepath.Join(root, "personas", "creative", "writer", "PERSONA.md"),
		"---\nname: writer\ndescription: A creative writing assistant.\n---\nWrite well.\n")
	return fixture{root: root, catalog: filepath.Join(t.TempDir(), "AGENTS.md")}
}

// run executes the CLI with args after the program name and returns what
// was written to stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	old := logging.Default()
	t.Cleanup(func() { logging.SetDefault(old) })

	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(context.Background(), append([]string{"persona", "--no-color"}, args...))
	return out.String(), errOut.String(), err
}

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	util.AssertNoError(t, err)

	for _, want := range []string{"persona version", "commit:", "built:", "go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantDebug bool
		wantInfo  bool
	}{
		"no flags logs warnings only": {args: []string{"version"}},
		"verbose enables info":        {args: []string{"--verbose", "version"}, wantInfo: true},
		"debug enables debug":         {args: []string{"--debug", "version"}, wantInfo: true, wantDebug: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			util.AssertNoError(t, err)

			ctx := context.Background()
			if got := logging.Default().Enabled(ctx, logging.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logging.Default().Enabled(ctx, logging.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestListCommand(t *testing.T) {
	f := newFixture(t)

	out, _, err := run(t, "-i", f.root, "list")
	util.AssertNoError(t, err)

	want := "personas/\n  creative/\n    writer\nskills/\n  coding/\n    python-helper\n"
	if out != want {
		t.Errorf("list output:\n%s\nwant:\n%s", out, want)
	}
}

func TestListFormats(t *testing.T) {
	f := newFixture(t)

	tests := map[string]struct {
		format  string
		want    string
		wantErr bool
	}{
		"json":     {format: "json", want: `"name": "python-helper"`},
		"yaml":     {format: "yaml", want: "category: skills/coding"},
		"markdown": {format: "markdown", want: "### writer"},
		"invalid":  {format: "xml", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := run(t, "-i", f.root, "list", "--format", tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("list error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("list output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestBuildThenCheck(t *testing.T) {
	f := newFixture(t)

	_, _, err := run(t, "-i", f.root, "check", "--catalog", f.catalog)
	if !errors.Is(err, drift.ErrMissing) {
		t.Fatalf("check before build error = %v, want ErrMissing", err)
	}

	out, _, err := run(t, "-i", f.root, "build", "--catalog", f.catalog)
	util.AssertNoError(t, err)
	if !strings.Contains(out, "Generated "+f.catalog+" (2 entities") {
		t.Errorf("build output = %q", out)
	}

	// #nosec G304 - test fixture path
	data, err := os.ReadFile(f.catalog)
	util.AssertNoError(t, err)
	for _, want := range []string{
		"<persona-context>\n",
		"<directions>Skill catalog.</directions>",
		"<license>MIT</license>",
		"<writer path=",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("catalog missing %q:\n%s", want, data)
		}
	}

	out, _, err = run(t, "-i", f.root, "check", "--catalog", f.catalog)
	util.AssertNoError(t, err)
	if !strings.Contains(out, "is up to date") {
		t.Errorf("check output = %q", out)
	}

	util.WriteFile(t, filepath.Join(f.root, "skills", "coding", "python-helper", "SKILL.md"),
		strings.Replace(pythonHelper, "MIT", "Apache-2.0", 1))
	out, _, err = run(t, "-i", f.root, "check", "--catalog", f.catalog)
	if !errors.Is(err, drift.ErrStale) {
		t.Fatalf("check after edit error = %v, want ErrStale", err)
	}
	if !strings.Contains(err.Error(), "Run 'persona build' to update it.") {
		t.Errorf("check error = %q", err)
	}
	if out != "" {
		t.Errorf("failed check should leave reporting to the caller, got output %q", out)
	}
}

func TestBuildMirrorsAssets(t *testing.T) {
	f := newFixture(t)
	dist := filepath.Join(t.TempDir(), "dist")

	out, _, err := run(t, "-i", f.root, "build", "--catalog", f.catalog, "-o", dist)
	util.AssertNoError(t, err)

	for _, rel := range []string{
		"skills/coding/python-helper/SKILL.md",
		"skills/coding/python-helper/scripts/run.sh",
		"skills/HEADER.md",
		"personas/creative/writer/PERSONA.md",
	} {
		if _, err := os.Stat(filepath.Join(dist, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s in output: %v", rel, err)
		}
	}
	if !strings.Contains(out, "Mirrored 2 entities and 1 header") {
		t.Errorf("build output = %q", out)
	}
}

func TestValidationFailure(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(f.root, "skills", "broken", "SKILL.md")
	util.WriteFile(t, bad, "no front block here\n")

	for _, command := range []string{"check", "build", "list"} {
		t.Run(command, func(t *testing.T) {
			_, stderr, err := run(t, "-i", f.root, command)
			if !errors.Is(err, collector.ErrValidationFailed) {
				t.Fatalf("%s error = %v, want ErrValidationFailed", command, err)
			}
			if !strings.Contains(err.Error(), "1 error") {
				t.Errorf("error = %q, want error count", err)
			}
			if !strings.Contains(stderr, "missing frontmatter") {
				t.Errorf("stderr missing collected error:\n%s", stderr)
			}
		})
	}

	if _, err := os.Stat(f.catalog); !os.IsNotExist(err) {
		t.Error("catalog written despite validation failure")
	}
}

func TestMissingInput(t *testing.T) {
	_, stderr, err := run(t, "-i", filepath.Join(t.TempDir(), "nope"), "list")
	if !errors.Is(err, collector.ErrValidationFailed) {
		t.Fatalf("error = %v, want ErrValidationFailed", err)
	}
	if !strings.Contains(stderr, "directory does not exist") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestTokenBudget(t *testing.T) {
	f := newFixture(t)

	_, _, err := run(t, "-i", f.root, "--warn-token-count", "0", "--error-token-count", "1", "build", "--catalog", f.catalog)
	if !errors.Is(err, budget.ErrOverBudget) {
		t.Fatalf("build error = %v, want ErrOverBudget", err)
	}
	if _, err := os.Stat(f.catalog); !os.IsNotExist(err) {
		t.Error("catalog written despite exceeding the budget")
	}

	_, stderr, err := run(t, "-i", f.root, "--warn-token-count", "1", "--error-token-count", "0", "build", "--catalog", f.catalog)
	util.AssertNoError(t, err)
	if !strings.Contains(stderr, "warning threshold") {
		t.Errorf("stderr missing budget warning:\n%s", stderr)
	}
}

func TestInvalidTokenLimits(t *testing.T) {
	_, _, err := run(t, "--warn-token-count", "100", "--error-token-count", "10", "version")
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestConfigFile(t *testing.T) {
	f := newFixture(t)
	top := filepath.Join(t.TempDir(), "TOP.md")
	util.WriteFile(t, top, "\nTop directions.\n")

	tests := map[string]struct {
		file    string
		content string
	}{
		"yaml": {
			file:    "persona.yaml",
			content: "inputs: ['" + f.root + "']\ncatalog: '" + f.catalog + "'\nheader: '" + top + "'\n",
		},
		"toml": {
			file:    "persona.toml",
			content: "inputs = ['" + f.root + "']\ncatalog = '" + f.catalog + "'\nheader = '" + top + "'\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), tt.file)
			util.WriteFile(t, cfgPath, tt.content)

			_, _, err := run(t, "--config", cfgPath, "build")
			util.AssertNoError(t, err)

			// #nosec G304 - test fixture path
			data, err := os.ReadFile(f.catalog)
			util.AssertNoError(t, err)
			if !strings.HasPrefix(string(data), "<persona-context>\n  <directions>Top directions.</directions>\n") {
				t.Errorf("catalog does not start with the header:\n%s", data)
			}
		})
	}
}

func TestUnreadableHeaderIsSkipped(t *testing.T) {
	f := newFixture(t)
	cfgPath := filepath.Join(t.TempDir(), "persona.yaml")
	// a directory cannot be read as a file
	util.WriteFile(t, cfgPath, "header: '"+f.root+"'\n")

	_, stderr, err := run(t, "--config", cfgPath, "-i", f.root, "build", "--catalog", f.catalog)
	util.AssertNoError(t, err)
	if !strings.Contains(stderr, "failed to read header") {
		t.Errorf("stderr missing header warning:\n%s", stderr)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "persona.yaml")
	util.WriteFile(t, cfgPath, "output:\n  color: rainbow\n")

	_, _, err := run(t, "--config", cfgPath, "version")
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestJSONLogs(t *testing.T) {
	f := newFixture(t)

	_, stderr, err := run(t, "-i", f.root, "--verbose", "--log-json", "build", "--catalog", f.catalog)
	util.AssertNoError(t, err)
	if !strings.Contains(stderr, `"msg":"wrote catalog"`) {
		t.Errorf("stderr is not JSON logging:\n%s", stderr)
	}
}

func TestConfigCommand(t *testing.T) {
	out, _, err := run(t, "-i", "agents", "-i", "shared", "config")
	util.AssertNoError(t, err)

	for _, want := range []string{"inputs:\n    - agents\n    - shared\n", "catalog: AGENTS.md", "warn: 5000"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".persona.yaml")

	_, _, err := run(t, "config", "init", path)
	util.AssertNoError(t, err)

	cfg, err := config.LoadFromPath(path)
	util.AssertNoError(t, err)
	util.AssertEqual(t, cfg.Catalog, "AGENTS.md")

	if _, _, err := run(t, "config", "init", path); err == nil {
		t.Error("expected error when the file exists")
	}
	_, _, err = run(t, "config", "init", "--force", path)
	util.AssertNoError(t, err)
}

func TestBrowseNeedsTerminal(t *testing.T) {
	f := newFixture(t)

	_, _, err := run(t, "-i", f.root, "browse")
	if err == nil || !strings.Contains(err.Error(), "interactive terminal") {
		t.Errorf("browse error = %v, want terminal error", err)
	}
}
