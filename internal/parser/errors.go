package parser

import (
	"errors"
	"fmt"
)

// Validation failures produced by ParseFile. Each is returned wrapped with
// the offending value, so match with errors.Is.
var (
	ErrIO                 = errors.New("IO error")
	ErrDecode             = errors.New("YAML parsing error")
	ErrInvalidFilename    = errors.New("invalid filename")
	ErrMissingFrontmatter = errors.New("missing frontmatter")
	ErrInvalidNameFormat  = errors.New("invalid name")
	ErrEmptyDescription   = errors.New("missing or empty description")
	ErrEmptyBody          = errors.New("missing or empty body content")
	ErrNameMismatch       = errors.New("name mismatch")
)

// NameMismatchError reports a declared name that differs from the name of
// the directory holding the document.
type NameMismatchError struct {
	Declared string
	Actual   string
}

// Error returns the formatted mismatch.
func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("name mismatch: frontmatter name %q does not match parent directory %q",
		e.Declared, e.Actual)
}

// Is reports whether target is ErrNameMismatch.
func (e *NameMismatchError) Is(target error) bool {
	return target == ErrNameMismatch
}
