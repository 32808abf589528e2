package drift

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/persona/internal/catalog"
	"github.com/klauern/persona/internal/collector"
	"github.com/klauern/persona/internal/util"
)

func TestCompare(t *testing.T) {
	tests := map[string]struct {
		persisted *string
		generated string
		wantErr   error
		wantLine  int
	}{
		"equal": {
			persisted: ptr("<persona-context>\n</persona-context>\n"),
			generated: "<persona-context>\n</persona-context>\n",
		},
		"missing": {
			generated: "<persona-context>\n</persona-context>\n",
			wantErr:   ErrMissing,
		},
		"changed line": {
			persisted: ptr("a\nb\nc\n"),
			generated: "a\nB\nc\n",
			wantErr:   ErrStale,
			wantLine:  2,
		},
		"trailing newline only": {
			persisted: ptr("a\nb"),
			generated: "a\nb\n",
			wantErr:   ErrStale,
			wantLine:  2,
		},
		"persisted empty": {
			persisted: ptr(""),
			generated: "a\n",
			wantErr:   ErrStale,
			wantLine:  1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "AGENTS.md")
			if tt.persisted != nil {
				util.WriteFile(t, path, *tt.persisted)
			}

			err := Compare(tt.generated, path)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Compare() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Compare() error = %v, want %v", err, tt.wantErr)
			}

			var de *Error
			if !errors.As(err, &de) {
				t.Fatalf("Compare() error %T is not *Error", err)
			}
			if de.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", de.Line, tt.wantLine)
			}
			if de.Path != path {
				t.Errorf("Path = %q, want %q", de.Path, path)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  *Error
		want string
	}{
		"missing": {
			err:  &Error{Kind: Missing, Path: "AGENTS.md"},
			want: "AGENTS.md is missing. Run 'persona build' to generate it.",
		},
		"stale": {
			err:  &Error{Kind: Stale, Path: "AGENTS.md", Line: 4},
			want: "AGENTS.md is out of date. Run 'persona build' to update it.",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if errors.Is(&Error{Kind: Missing}, ErrStale) {
		t.Error("Missing error matches ErrStale")
	}
}

func TestFirstDifference(t *testing.T) {
	tests := map[string]struct {
		a, b string
		want int
	}{
		"equal":          {a: "x\ny\n", b: "x\ny\n", want: 0},
		"first line":     {a: "x\n", b: "y\n", want: 1},
		"extra line":     {a: "x\n", b: "x\ny\n", want: 2},
		"both empty":     {a: "", b: "", want: 0},
		"crlf vs lf":     {a: "x\r\ny\n", b: "x\ny\n", want: 1},
		"shorter second": {a: "x\ny\nz\n", b: "x\ny\n", want: 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := FirstDifference(tt.a, tt.b); got != tt.want {
				t.Errorf("FirstDifference() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, "skills", "x", "SKILL.md"),
		"---\nname: x\ndescription: d\n---\nbody\n")
	persisted := filepath.Join(t.TempDir(), "AGENTS.md")

	if err := Check([]string{root}, persisted, catalog.Options{}); !errors.Is(err, ErrMissing) {
		t.Fatalf("Check() before build error = %v, want ErrMissing", err)
	}

	cat, err := catalog.Generate([]string{root}, catalog.Options{})
	util.AssertNoError(t, err)
	util.WriteFile(t, persisted, cat.Text)

	if err := Check([]string{root}, persisted, catalog.Options{}); err != nil {
		t.Fatalf("Check() after build error = %v", err)
	}

	if err := Check([]string{root}, persisted, catalog.Options{Header: "new header"}); !errors.Is(err, ErrStale) {
		t.Errorf("Check() with changed header error = %v, want ErrStale", err)
	}
}

func TestCheckValidationFailure(t *testing.T) {
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, "skills", "x", "SKILL.md"), "no front block\n")
	persisted := filepath.Join(t.TempDir(), "AGENTS.md")
	util.WriteFile(t, persisted, "anything")

	err := Check([]string{root}, persisted, catalog.Options{})
	if !errors.Is(err, collector.ErrValidationFailed) {
		t.Errorf("Check() error = %v, want ErrValidationFailed", err)
	}
	if _, statErr := os.Stat(persisted); statErr != nil {
		t.Errorf("Check() touched the persisted catalog: %v", statErr)
	}
}

func ptr(s string) *string { return &s }
