package config

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/klauern/persona/internal/budget"
	"github.com/klauern/persona/internal/util"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PERSONA_INPUTS", "PERSONA_CATALOG", "PERSONA_HEADER",
		"PERSONA_WARN_TOKENS", "PERSONA_ERROR_TOKENS", "PERSONA_COLOR", "PERSONA_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if !slices.Equal(cfg.Inputs, []string{".agent"}) {
		t.Errorf("Inputs = %v, want [.agent]", cfg.Inputs)
	}
	util.AssertEqual(t, cfg.Catalog, "AGENTS.md")
	util.AssertEqual(t, cfg.Header, filepath.Join(".agent", "HEADER.md"))
	util.AssertEqual(t, cfg.Budget, budget.Limits{Warn: 5000, Error: 10000})
	util.AssertEqual(t, cfg.Output.Color, "auto")
	util.AssertEqual(t, cfg.Output.LogFormat, LogFormatText)
	util.AssertNoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		files map[string]string
		want  func(*Config)
	}{
		"no file": {
			want: func(*Config) {},
		},
		"yaml": {
			files: map[string]string{
				".persona.yaml": "inputs: [agents, shared]\ncatalog: CONTEXT.md\nbudget:\n  warn: 100\n",
			},
			want: func(c *Config) {
				c.Inputs = []string{"agents", "shared"}
				c.Catalog = "CONTEXT.md"
				c.Budget.Warn = 100
			},
		},
		"yml": {
			files: map[string]string{".persona.yml": "output:\n  color: never\n"},
			want:  func(c *Config) { c.Output.Color = "never" },
		},
		"toml": {
			files: map[string]string{
				".persona.toml": "inputs = [\"agents\"]\nheader = \"agents/HEADER.md\"\n\n[budget]\nerror = 20000\n",
			},
			want: func(c *Config) {
				c.Inputs = []string{"agents"}
				c.Header = "agents/HEADER.md"
				c.Budget.Error = 20000
			},
		},
		"yaml wins over toml": {
			files: map[string]string{
				".persona.yaml": "catalog: FROM_YAML.md\n",
				".persona.toml": "catalog = \"FROM_TOML.md\"\n",
			},
			want: func(c *Config) { c.Catalog = "FROM_YAML.md" },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			for file, content := range tt.files {
				util.WriteFile(t, filepath.Join(dir, file), content)
			}

			got, err := Load(dir)
			util.AssertNoError(t, err)

			want := Default()
			tt.want(want)
			assertConfig(t, got, want)
		})
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	util.WriteFile(t, badYAML, "inputs: [unclosed\n")
	badTOML := filepath.Join(dir, "bad.toml")
	util.WriteFile(t, badTOML, "inputs = \n")

	tests := map[string]string{
		"missing file": filepath.Join(dir, "nope.yaml"),
		"bad yaml":     badYAML,
		"bad toml":     badTOML,
	}

	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFromPath(path); err == nil {
				t.Errorf("LoadFromPath(%q) expected error", path)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PERSONA_INPUTS", "one: two ::three")
	t.Setenv("PERSONA_CATALOG", "OUT.md")
	t.Setenv("PERSONA_HEADER", "one/HEADER.md")
	t.Setenv("PERSONA_WARN_TOKENS", "10")
	t.Setenv("PERSONA_ERROR_TOKENS", "not-a-number")
	t.Setenv("PERSONA_COLOR", "always")
	t.Setenv("PERSONA_LOG_FORMAT", "JSON")

	dir := t.TempDir()
	util.WriteFile(t, filepath.Join(dir, ".persona.yaml"), "catalog: FILE.md\n")

	got, err := Load(dir)
	util.AssertNoError(t, err)

	want := Default()
	want.Inputs = []string{"one", "two", "three"}
	want.Catalog = "OUT.md"
	want.Header = "one/HEADER.md"
	want.Budget.Warn = 10
	want.Output.Color = "always"
	want.Output.LogFormat = LogFormatJSON
	assertConfig(t, got, want)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"defaults":          {mutate: func(*Config) {}},
		"limits disabled":   {mutate: func(c *Config) { c.Budget = budget.Limits{} }},
		"no inputs":         {mutate: func(c *Config) { c.Inputs = nil }, wantErr: true},
		"negative limit":    {mutate: func(c *Config) { c.Budget.Warn = -1 }, wantErr: true},
		"warn above error":  {mutate: func(c *Config) { c.Budget.Warn = 20000 }, wantErr: true},
		"warn only":         {mutate: func(c *Config) { c.Budget = budget.Limits{Warn: 20000} }},
		"bad color":         {mutate: func(c *Config) { c.Output.Color = "rainbow" }, wantErr: true},
		"bad log format":    {mutate: func(c *Config) { c.Output.LogFormat = "xml" }, wantErr: true},
		"json log format":   {mutate: func(c *Config) { c.Output.LogFormat = LogFormatJSON }},
		"never color valid": {mutate: func(c *Config) { c.Output.Color = "never" }},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSaveToPathRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", ".persona.yaml")

	cfg := Default()
	cfg.Inputs = []string{"agents"}
	cfg.Budget.Error = 0
	util.AssertNoError(t, cfg.SaveToPath(path))

	got, err := LoadFromPath(path)
	util.AssertNoError(t, err)
	assertConfig(t, got, cfg)
}

func TestYAMLKeys(t *testing.T) {
	data, err := Default().YAML()
	util.AssertNoError(t, err)

	var m map[string]any
	util.AssertNoError(t, yaml.Unmarshal(data, &m))
	for _, key := range []string{"inputs", "catalog", "header", "budget", "output"} {
		if _, ok := m[key]; !ok {
			t.Errorf("YAML() missing key %q:\n%s", key, data)
		}
	}
	if !strings.Contains(string(data), "log_format: text") {
		t.Errorf("YAML() missing log_format:\n%s", data)
	}
}

func TestInputPaths(t *testing.T) {
	cfg := Default()
	cfg.Inputs = []string{".agent", "/abs/agents"}

	got := cfg.InputPaths("/work")
	want := []string{filepath.Join("/work", ".agent"), "/abs/agents"}
	if !slices.Equal(got, want) {
		t.Errorf("InputPaths() = %v, want %v", got, want)
	}
}

func assertConfig(t *testing.T, got, want *Config) {
	t.Helper()
	if !slices.Equal(got.Inputs, want.Inputs) {
		t.Errorf("Inputs = %v, want %v", got.Inputs, want.Inputs)
	}
	if got.Catalog != want.Catalog {
		t.Errorf("Catalog = %q, want %q", got.Catalog, want.Catalog)
	}
	if got.Header != want.Header {
		t.Errorf("Header = %q, want %q", got.Header, want.Header)
	}
	if got.Budget != want.Budget {
		t.Errorf("Budget = %+v, want %+v", got.Budget, want.Budget)
	}
	if got.Output != want.Output {
		t.Errorf("Output = %+v, want %+v", got.Output, want.Output)
	}
}
