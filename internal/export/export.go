// Package export renders the entity hierarchy in formats meant for other
// tools and for people, as opposed to the agent-facing catalog.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/tree"
)

// Format represents the output format of a listing.
type Format string

const (
	// FormatTree prints the indented hierarchy.
	FormatTree Format = "tree"
	// FormatJSON prints one JSON array of entities.
	FormatJSON Format = "json"
	// FormatYAML prints one YAML sequence of entities.
	FormatYAML Format = "yaml"
	// FormatMarkdown prints a Markdown overview grouped by category.
	FormatMarkdown Format = "markdown"
)

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatTree, FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported format %q (valid: tree, json, yaml, markdown)", s)
	}
	return format, nil
}

// Record is the exported form of one entity.
type Record struct {
	Name        string         `json:"name" yaml:"name"`
	Category    string         `json:"category" yaml:"category"`
	Path        string         `json:"path" yaml:"path"`
	Description string         `json:"description" yaml:"description"`
	Fields      map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Records converts the entities of root into records, in tree order.
func Records(root *tree.Node) ([]Record, error) {
	entries := root.Entries()
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		r := Record{
			Name:        e.Entity.Name,
			Category:    e.Category,
			Path:        e.Entity.Path,
			Description: e.Entity.Description,
		}
		for _, f := range e.Entity.Other {
			var v any
			if err := f.Value.Decode(&v); err != nil {
				return nil, fmt.Errorf("entity %q field %q: %w", e.Entity.Name, f.Name(), err)
			}
			if r.Fields == nil {
				r.Fields = make(map[string]any, len(e.Entity.Other))
			}
			r.Fields[f.Name()] = v
		}
		out = append(out, r)
	}
	return out, nil
}

// Write renders root to w in the given format.
func Write(w io.Writer, root *tree.Node, format Format) error {
	defer logging.Timer("export")()
	logging.Debug("starting export", slog.String("format", string(format)))

	if format == FormatTree {
		return tree.WriteHierarchy(w, root)
	}

	records, err := Records(root)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		return writeMarkdown(w, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeMarkdown(w io.Writer, records []Record) error {
	var sb strings.Builder
	sb.WriteString("# Entities\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d\n", len(records)))

	category := "\x00"
	for _, r := range records {
		if r.Category != category {
			category = r.Category
			title := category
			if title == "" {
				title = "(root)"
			}
			sb.WriteString("\n## " + title + "\n")
		}
		sb.WriteString(fmt.Sprintf("\n### %s\n\n%s\n\n`%s`\n", r.Name, r.Description, r.Path))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
