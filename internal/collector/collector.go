// Package collector walks input roots, parses every recognised entity
// document and gathers directory headers. Failures are accumulated across
// the whole walk so a single run reports every broken document.
package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/parser"
)

// HeaderFileName is the reserved file name of a directory header.
const HeaderFileName = "HEADER.md"

// DocumentExt is the extension of candidate documents, compared
// case-insensitively.
const DocumentExt = ".md"

var (
	// ErrRootMissing is recorded for an input root that does not exist.
	ErrRootMissing = errors.New("directory does not exist")
	// ErrValidationFailed matches the aggregate error returned by Collect.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError is the aggregate failure of a collection run. It carries
// every recorded error in walk order.
type ValidationError struct {
	Errors []error
}

// Messages returns the recorded errors as strings, in order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

// Error returns a summary followed by one line per recorded error.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d error(s):", len(e.Errors))
	for _, msg := range e.Messages() {
		b.WriteString("\n  - ")
		b.WriteString(msg)
	}
	return b.String()
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Unwrap exposes the recorded errors to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// Result holds everything gathered by a collection run.
type Result struct {
	// Items are the parsed entities and headers in walk order.
	Items []model.Item
	// Errors are the recorded failures in walk order.
	Errors []error
}

// Err returns the aggregate error for the run, or nil if nothing failed.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

func (r *Result) record(path string, err error) {
	logging.Debug("recorded error", logging.Path(path), logging.Err(err))
	r.Errors = append(r.Errors, fmt.Errorf("%s: %w", path, err))
}

// Collect walks every root and returns the items found. If any error was
// recorded the returned error is a *ValidationError and the items in the
// result must not be used as a catalog.
func Collect(roots []string) (Result, error) {
	defer logging.Timer("collect")()

	var res Result
	for _, root := range roots {
		collectRoot(&res, root)
	}

	logging.Debug("collection finished",
		logging.Count(len(res.Items)),
		"errors", len(res.Errors),
	)

	return res, res.Err()
}

func collectRoot(res *Result, root string) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Errors = append(res.Errors, fmt.Errorf("%w: %q", ErrRootMissing, root))
		} else {
			res.record(root, fmt.Errorf("%w: %w", parser.ErrIO, err))
		}
		logging.Debug("input root unavailable", logging.Root(root), logging.Err(err))
		return
	}

	// WalkDir does not descend into a symlinked root, so walk its target
	// and report paths under the configured spelling.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		res.record(root, fmt.Errorf("%w: %w", parser.ErrIO, err))
		return
	}

	logging.Debug("walking input root", logging.Root(root), logging.Path(resolved))

	// WalkDir only returns errors from the callback, which never fails.
	_ = filepath.WalkDir(resolved, func(walked string, d fs.DirEntry, err error) error {
		path := underRoot(root, resolved, walked)
		if err != nil {
			res.record(path, fmt.Errorf("%w: %w", parser.ErrIO, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isDocument(d.Name()) {
			return nil
		}

		switch {
		case d.Name() == HeaderFileName:
			header, err := readHeader(path)
			if err != nil {
				res.record(path, err)
				return nil
			}
			res.Items = append(res.Items, header)
		case parser.IsRecognizedName(d.Name()):
			entity, err := parser.ParseFile(path)
			if err != nil {
				res.record(path, err)
				return nil
			}
			res.Items = append(res.Items, entity)
		default:
			logging.Debug("skipping unrecognised document", logging.Path(path))
		}
		return nil
	})
}

// underRoot maps a path found below resolved back below root.
func underRoot(root, resolved, walked string) string {
	if root == resolved {
		return walked
	}
	rel, err := filepath.Rel(resolved, walked)
	if err != nil {
		return walked
	}
	return filepath.Join(root, rel)
}

func isDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), DocumentExt)
}

func readHeader(path string) (model.Header, error) {
	// #nosec G304 - path comes from walking a configured input root
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Header{}, fmt.Errorf("%w: %w", parser.ErrIO, err)
	}
	logging.Debug("read header", logging.Path(path))
	return model.Header{
		Path: path,
		Body: strings.TrimSpace(string(content)),
	}, nil
}
