// Package ui provides terminal output helpers for persona.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Styled text helpers.
var (
	// Success marks completed operations (green).
	Success = color.New(color.FgGreen).SprintFunc()
	// Error marks failures (red).
	Error = color.New(color.FgRed).SprintFunc()
	// Warning marks cautions (yellow).
	Warning = color.New(color.FgYellow).SprintFunc()
	// Category renders category names in listings (cyan).
	Category = color.New(color.FgCyan).SprintFunc()
	// Bold is used for emphasis.
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information.
	Dim = color.New(color.Faint).SprintFunc()
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
)

// Color modes accepted by Configure.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// StatusSuccess returns a green checkmark followed by msg.
func StatusSuccess(msg string) string {
	return status(Success(SymbolSuccess), msg)
}

// StatusError returns a red cross followed by msg.
func StatusError(msg string) string {
	return status(Error(SymbolError), msg)
}

// StatusWarning returns a yellow warning sign followed by msg.
func StatusWarning(msg string) string {
	return status(Warning(SymbolWarning), msg)
}

func status(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// Configure applies a color mode. Auto enables color only when stdout is a
// terminal and NO_COLOR is unset.
func Configure(mode string) error {
	switch mode {
	case ColorAlways:
		EnableColors()
	case ColorNever:
		DisableColors()
	case ColorAuto, "":
		_, noColor := os.LookupEnv("NO_COLOR")
		color.NoColor = noColor || !term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("invalid color mode %q (want %s, %s or %s)", mode, ColorAuto, ColorAlways, ColorNever)
	}
	return nil
}

// DisableColors disables all color output.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
