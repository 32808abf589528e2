package tree

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauern/persona/internal/model"
)

// WriteHierarchy writes a plain-text pre-order listing of the tree below
// root: two spaces of indentation per level, category directories as
// "name/" and entity directories as the entity name.
func WriteHierarchy(w io.Writer, root *Node) error {
	bw := bufio.NewWriter(w)
	err := root.Walk(func(path []string, n *Node) error {
		if len(path) == 0 {
			return nil
		}
		bw.WriteString(strings.Repeat("  ", len(path)-1))
		if n.Entity != nil {
			bw.WriteString(n.Entity.Name)
		} else {
			bw.WriteString(n.Name)
			bw.WriteByte('/')
		}
		return bw.WriteByte('\n')
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Entry is an entity together with the category path leading to it.
type Entry struct {
	// Category is the slash-separated path of the directories above the
	// entity directory; empty for entities directly below the root.
	Category string
	Entity   model.Entity
}

// Entries returns the entities of the tree in pre-order.
func (n *Node) Entries() []Entry {
	var out []Entry
	_ = n.Walk(func(path []string, node *Node) error {
		if node.Entity != nil && len(path) > 0 {
			out = append(out, Entry{
				Category: strings.Join(path[:len(path)-1], "/"),
				Entity:   *node.Entity,
			})
		}
		return nil
	})
	return out
}
