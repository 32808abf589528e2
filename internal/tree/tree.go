// Package tree reduces the flat list of collected items into a hierarchy
// keyed by directory component. Children are always visited in lexical
// order so the same items yield the same tree regardless of discovery order.
package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
)

var (
	// ErrDuplicateAtPath is returned when two items of the same kind resolve
	// to the same directory.
	ErrDuplicateAtPath = errors.New("duplicate item at path")
	// ErrRootItem is returned for an entity that resolves to the root itself.
	ErrRootItem = errors.New("entity resolves to the catalog root")
	// ErrOutsideRoots is returned for an absolute item path that is not under
	// any configured root.
	ErrOutsideRoots = errors.New("item is outside every input root")
)

// DuplicateError reports two items of the same kind in one directory.
type DuplicateError struct {
	// Path is the slash-separated directory both items resolve to.
	Path string
	// Kind is "entity" or "header".
	Kind string
	// First and Second are the colliding file paths.
	First, Second string
}

// Error returns the formatted collision.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s at path %q: %s and %s", e.Kind, e.Path, e.First, e.Second)
}

// Is reports whether target is ErrDuplicateAtPath.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateAtPath
}

// Node is one directory in the hierarchy. A node owns its children; there
// are no parent links.
type Node struct {
	// Name is the directory component; empty for the root.
	Name string
	// Entity is the entity defined in this directory, if any.
	Entity *model.Entity
	// Header is the header of this directory, if any.
	Header *model.Header

	children map[string]*Node
}

func newNode(name string) *Node {
	return &Node{Name: name, children: make(map[string]*Node)}
}

// Children returns the child nodes sorted by name.
func (n *Node) Children() []*Node {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]*Node, len(names))
	for i, name := range names {
		out[i] = n.children[name]
	}
	return out
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

func (n *Node) child(name string) *Node {
	c, ok := n.children[name]
	if !ok {
		c = newNode(name)
		n.children[name] = c
	}
	return c
}

// Walk visits n and its descendants in pre-order with sorted children. The
// path passed to fn holds the component names below n leading to the visited
// node, so it is empty for n itself.
func (n *Node) Walk(fn func(path []string, node *Node) error) error {
	return n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := c.walk(append(slices.Clip(path), c.Name), fn); err != nil {
			return err
		}
	}
	return nil
}

// Build places every item under the root node by the parent directory of
// its path relative to the first matching root.
func Build(items []model.Item, roots []string) (*Node, error) {
	root := newNode("")
	for _, item := range items {
		components, err := placement(item.ItemPath(), roots)
		if err != nil {
			return nil, err
		}

		if len(components) == 0 {
			if _, ok := item.(model.Header); ok {
				logging.Debug("skipping root-level header", logging.Path(item.ItemPath()))
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrRootItem, item.ItemPath())
		}

		node := root
		for _, c := range components {
			node = node.child(c)
		}

		if err := attach(node, item, strings.Join(components, "/")); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func attach(node *Node, item model.Item, dir string) error {
	switch it := item.(type) {
	case model.Entity:
		if node.Entity != nil {
			return &DuplicateError{Path: dir, Kind: "entity", First: node.Entity.Path, Second: it.Path}
		}
		node.Entity = &it
	case model.Header:
		if node.Header != nil {
			return &DuplicateError{Path: dir, Kind: "header", First: node.Header.Path, Second: it.Path}
		}
		node.Header = &it
	}
	return nil
}

// placement returns the directory components an item path maps to.
func placement(path string, roots []string) ([]string, error) {
	rel, ok := relativeToRoots(path, roots)
	if !ok {
		rel = filepath.Clean(path)
		if filepath.IsAbs(rel) || escapes(rel) {
			return nil, fmt.Errorf("%w: %s", ErrOutsideRoots, path)
		}
	}

	dir := filepath.ToSlash(filepath.Dir(rel))
	var components []string
	for i, c := range strings.Split(dir, "/") {
		if c == "" || (i == 0 && c == ".") {
			continue
		}
		components = append(components, c)
	}
	return components, nil
}

// RelativePath returns path relative to the first root containing it.
func RelativePath(path string, roots []string) (string, bool) {
	return relativeToRoots(path, roots)
}

func relativeToRoots(path string, roots []string) (string, bool) {
	for _, root := range roots {
		rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
		if err != nil {
			continue
		}
		if escapes(rel) {
			continue
		}
		return rel, true
	}
	return "", false
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
