package model

import "gopkg.in/yaml.v3"

// Entity is a validated entity document: a skill, persona or capability
// module whose declared name matches the directory that holds it.
type Entity struct {
	// Path is the document path as discovered (root-joined, OS separators).
	Path string `json:"path"`
	// Name is the declared front-block name.
	Name string `json:"name"`
	// Description is the declared front-block description.
	Description string `json:"description"`
	// Other holds the remaining front-block fields in declaration order.
	Other []Field `json:"-"`
	// Body is the document content after the closing delimiter line, verbatim.
	Body string `json:"body"`
}

// Field is one extra front-block entry. Key and Value keep the decoded YAML
// nodes so the original type, tag and nesting survive until serialization.
type Field struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// Name returns the field key as written.
func (f Field) Name() string {
	if f.Key == nil {
		return ""
	}
	return f.Key.Value
}

// Header is a free-text directory description. It annotates the directory
// that holds it and is not an entity.
type Header struct {
	Path string `json:"path"`
	Body string `json:"body"`
}

// Item is either an Entity or a Header.
type Item interface {
	// ItemPath returns the path of the file the item was read from.
	ItemPath() string
	isItem()
}

// ItemPath implements Item.
func (e Entity) ItemPath() string { return e.Path }

func (Entity) isItem() {}

// ItemPath implements Item.
func (h Header) ItemPath() string { return h.Path }

func (Header) isItem() {}

// Entities returns the entities among items, preserving order.
func Entities(items []Item) []Entity {
	var out []Entity
	for _, it := range items {
		if e, ok := it.(Entity); ok {
			out = append(out, e)
		}
	}
	return out
}
