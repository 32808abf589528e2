// Package catalog renders the entity hierarchy as the persona-context
// markup document that agents load as context.
//
// The layout mirrors the directory tree: category directories become
// elements named after the directory, entity directories become elements
// named after the entity with a path attribute, a description child and one
// child per extra front-block field. Header text becomes a directions child.
//
// Text content is written as is. The catalog is read by language models,
// not XML parsers, so document text (which is usually Markdown) is kept
// byte-for-byte. Only the path attribute value is escaped, to keep the
// attribute delimited.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/tree"
)

const (
	// RootElement is the container element of every catalog.
	RootElement = "persona-context"
	// DirectionsElement holds free-text header content.
	DirectionsElement = "directions"
	// DescriptionElement holds an entity description.
	DescriptionElement = "description"
	// ItemElement wraps each entry of a sequence field.
	ItemElement = "item"

	indent = "  "
)

// ErrSerialization is returned for front-block fields that have no markup
// representation: non-string mapping keys and custom-tagged values.
var ErrSerialization = errors.New("serialization error")

// Options configures serialization.
type Options struct {
	// Header is the top-level free text emitted first as directions of the
	// root element. Blank means no header.
	Header string
	// BaseDir is the directory absolute entity paths are made relative to
	// when they lie below it. Generate defaults it to the working directory.
	BaseDir string
	// Roots are the input roots. An absolute entity path outside BaseDir is
	// written relative to the root that contains it.
	Roots []string
}

// displayPath returns the slash-separated path written to the path
// attribute. Relative paths are kept as collected so the catalog does not
// depend on where the checkout lives.
func (o Options) displayPath(p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	if o.BaseDir != "" {
		if rel, err := filepath.Rel(o.BaseDir, p); err == nil && !escapes(rel) {
			return filepath.ToSlash(rel)
		}
	}
	if rel, ok := tree.RelativePath(p, o.Roots); ok {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Serialize renders the tree below root.
func Serialize(root *tree.Node, opts Options) (string, error) {
	w := &writer{opts: opts}
	w.open(0, RootElement, "")
	if header := strings.TrimSpace(opts.Header); header != "" {
		w.text(1, DirectionsElement, header)
	}
	for _, child := range root.Children() {
		if err := w.node(1, child); err != nil {
			return "", err
		}
	}
	w.close(0, RootElement)
	return w.String(), nil
}

type writer struct {
	strings.Builder
	opts Options
}

func (w *writer) pad(depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

func (w *writer) open(depth int, tag, attrs string) {
	w.pad(depth)
	w.WriteString("<" + tag + attrs + ">\n")
}

func (w *writer) close(depth int, tag string) {
	w.pad(depth)
	w.WriteString("</" + tag + ">\n")
}

// text writes an element whose whole content is s, on one line.
func (w *writer) text(depth int, tag, s string) {
	w.pad(depth)
	w.WriteString("<" + tag + ">" + s + "</" + tag + ">\n")
}

func (w *writer) node(depth int, n *tree.Node) error {
	tag, attrs := n.Name, ""
	if n.Entity != nil {
		tag = n.Entity.Name
		attrs = ` path="` + attrEscaper.Replace(w.opts.displayPath(n.Entity.Path)) + `"`
	}

	w.open(depth, tag, attrs)
	if n.Entity != nil {
		if err := w.entity(depth+1, n.Entity); err != nil {
			return err
		}
	}
	if n.Header != nil {
		w.text(depth+1, DirectionsElement, strings.TrimSpace(n.Header.Body))
	}
	for _, child := range n.Children() {
		if err := w.node(depth+1, child); err != nil {
			return err
		}
	}
	w.close(depth, tag)
	return nil
}

func (w *writer) entity(depth int, e *model.Entity) error {
	w.text(depth, DescriptionElement, e.Description)
	for _, f := range e.Other {
		if err := w.field(depth, f.Key, f.Value); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	return nil
}

// field writes one key/value pair as an element named after the key.
func (w *writer) field(depth int, key, value *yaml.Node) error {
	key = resolve(key)
	if key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
		return fmt.Errorf("%w: line %d: mapping key must be a string", ErrSerialization, key.Line)
	}
	return w.value(depth, key.Value, value)
}

// value writes node as the content of an element named tag.
//
// Scalars become text (null becomes an empty element), sequences become one
// item child per entry and mappings become one child per key.
func (w *writer) value(depth int, tag string, node *yaml.Node) error {
	node = resolve(node)
	if isCustomTag(node.Tag) {
		return fmt.Errorf("%w: line %d: tagged value %s not supported", ErrSerialization, node.Line, node.Tag)
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			w.text(depth, tag, "")
			return nil
		}
		w.text(depth, tag, node.Value)
		return nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			w.text(depth, tag, "")
			return nil
		}
		w.open(depth, tag, "")
		for _, entry := range node.Content {
			if err := w.value(depth+1, ItemElement, entry); err != nil {
				return err
			}
		}
		w.close(depth, tag)
		return nil
	case yaml.MappingNode:
		if len(node.Content) == 0 {
			w.text(depth, tag, "")
			return nil
		}
		w.open(depth, tag, "")
		for i := 0; i+1 < len(node.Content); i += 2 {
			if err := w.field(depth+1, node.Content[i], node.Content[i+1]); err != nil {
				return err
			}
		}
		w.close(depth, tag)
		return nil
	default:
		return fmt.Errorf("%w: line %d: unsupported value", ErrSerialization, node.Line)
	}
}

// isCustomTag reports whether tag is an application tag such as !secret
// rather than a core schema tag or the non-specific "!".
func isCustomTag(tag string) bool {
	return tag != "" && tag != "!" && !strings.HasPrefix(tag, "!!") &&
		!strings.HasPrefix(tag, "tag:yaml.org,2002:")
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")
