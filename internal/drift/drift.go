// Package drift detects when a persisted catalog no longer matches what
// the current documents would generate.
package drift

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/klauern/persona/internal/catalog"
	"github.com/klauern/persona/internal/logging"
)

var (
	// ErrMissing is matched by an Error for a catalog file that does not exist.
	ErrMissing = errors.New("catalog is missing")
	// ErrStale is matched by an Error for a catalog file whose content differs.
	ErrStale = errors.New("catalog is out of date")
)

// Kind classifies a drift.
type Kind int

const (
	// Missing means the persisted catalog does not exist.
	Missing Kind = iota
	// Stale means the persisted catalog differs from the generated one.
	Stale
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error reports a drift between the persisted and the generated catalog.
type Error struct {
	Kind Kind
	// Path is the persisted catalog path.
	Path string
	// Line is the first differing line, 1-based. Zero for Missing.
	Line int
}

func (e *Error) Error() string {
	if e.Kind == Missing {
		return fmt.Sprintf("%s is missing. Run 'persona build' to generate it.", e.Path)
	}
	return fmt.Sprintf("%s is out of date. Run 'persona build' to update it.", e.Path)
}

// Is matches ErrMissing or ErrStale according to Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case Missing:
		return target == ErrMissing
	case Stale:
		return target == ErrStale
	}
	return false
}

// Check generates the catalog for roots and compares it with the file at
// persistedPath. It returns nil when they are byte-identical.
func Check(roots []string, persistedPath string, opts catalog.Options) error {
	cat, err := catalog.Generate(roots, opts)
	if err != nil {
		return err
	}
	return Compare(cat.Text, persistedPath)
}

// Compare checks generated against the file at persistedPath.
func Compare(generated, persistedPath string) error {
	// #nosec G304 - persistedPath is the configured catalog location
	data, err := os.ReadFile(persistedPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: Missing, Path: persistedPath}
	}
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	persisted := string(data)
	if persisted == generated {
		logging.Debug("catalog is current", logging.Path(persistedPath))
		return nil
	}

	line := FirstDifference(persisted, generated)
	logging.Debug("catalog drift",
		logging.Path(persistedPath),
		"line", line,
		"expected", generated,
		"actual", persisted,
	)
	return &Error{Kind: Stale, Path: persistedPath, Line: line}
}

// FirstDifference returns the 1-based number of the first line at which a
// and b differ, or 0 when they are equal.
func FirstDifference(a, b string) int {
	if a == b {
		return 0
	}
	al := strings.SplitAfter(a, "\n")
	bl := strings.SplitAfter(b, "\n")
	for i := 0; i < len(al) && i < len(bl); i++ {
		if al[i] != bl[i] {
			return i + 1
		}
	}
	return min(len(al), len(bl)) + 1
}
