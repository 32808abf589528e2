// Package budget estimates the token cost of generated text and enforces
// the configured limits.
package budget

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/klauern/persona/internal/logging"
)

// CharsPerToken is the rough number of characters per model token.
const CharsPerToken = 5

// ErrOverBudget is returned when an estimate exceeds the error limit.
var ErrOverBudget = errors.New("token budget exceeded")

// Limits holds the warning and error thresholds in tokens. Zero disables a
// threshold.
type Limits struct {
	Warn  int `yaml:"warn" toml:"warn"`
	Error int `yaml:"error" toml:"error"`
}

// Estimate returns the approximate token count of text.
func Estimate(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}

// Check estimates text and compares it with limits. Exceeding Warn logs a
// warning, exceeding Error returns ErrOverBudget. The estimate is returned
// in both cases.
func Check(name, text string, limits Limits) (int, error) {
	tokens := Estimate(text)
	logging.Debug("estimated tokens",
		logging.Path(name),
		logging.Count(tokens),
	)

	if limits.Error > 0 && tokens > limits.Error {
		return tokens, fmt.Errorf("%w: %s is about %s tokens, limit is %s",
			ErrOverBudget, name, humanize.Comma(int64(tokens)), humanize.Comma(int64(limits.Error)))
	}
	if limits.Warn > 0 && tokens > limits.Warn {
		logging.Warn(fmt.Sprintf("%s is about %s tokens, above the %s token warning threshold",
			name, humanize.Comma(int64(tokens)), humanize.Comma(int64(limits.Warn))),
			logging.Path(name),
			logging.Count(tokens),
		)
	}
	return tokens, nil
}
