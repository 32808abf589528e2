package ui

import (
	"testing"
)

func TestStatusFunctions(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := map[string]struct {
		fn    func(string) string
		input string
		want  string
	}{
		"success empty":    {fn: StatusSuccess, want: SymbolSuccess},
		"success with msg": {fn: StatusSuccess, input: "AGENTS.md written", want: SymbolSuccess + " AGENTS.md written"},
		"error empty":      {fn: StatusError, want: SymbolError},
		"error with msg":   {fn: StatusError, input: "stale", want: SymbolError + " stale"},
		"warning empty":    {fn: StatusWarning, want: SymbolWarning},
		"warning with msg": {fn: StatusWarning, input: "large", want: SymbolWarning + " large"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorFunctionsPlainWhenDisabled(t *testing.T) {
	DisableColors()
	defer EnableColors()

	for name, fn := range map[string]func(...any) string{
		"Success":  Success,
		"Error":    Error,
		"Warning":  Warning,
		"Category": Category,
		"Bold":     Bold,
		"Dim":      Dim,
	} {
		if got := fn("test"); got != "test" {
			t.Errorf("%s() = %q, want %q", name, got, "test")
		}
	}
}

func TestConfigure(t *testing.T) {
	initial := IsColorEnabled()
	t.Cleanup(func() {
		if initial {
			EnableColors()
		} else {
			DisableColors()
		}
	})

	tests := map[string]struct {
		mode    string
		want    bool
		wantErr bool
	}{
		"always":  {mode: ColorAlways, want: true},
		"never":   {mode: ColorNever, want: false},
		"invalid": {mode: "sometimes", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := Configure(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Configure(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if !tt.wantErr && IsColorEnabled() != tt.want {
				t.Errorf("IsColorEnabled() = %v, want %v", IsColorEnabled(), tt.want)
			}
		})
	}
}

func TestConfigureAutoHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	defer EnableColors()

	if err := Configure(ColorAuto); err != nil {
		t.Fatal(err)
	}
	if IsColorEnabled() {
		t.Error("colors enabled despite NO_COLOR")
	}
}
