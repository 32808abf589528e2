package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
)

// MaxNameLength is the longest accepted entity name.
const MaxNameLength = 64

// ParseFile parses and validates the entity document at path.
func ParseFile(path string) (model.Entity, error) {
	if !IsRecognizedName(filepath.Base(path)) {
		return model.Entity{}, fmt.Errorf("%w: %q must have an ALL CAPS stem (e.g., SKILL.md)",
			ErrInvalidFilename, filepath.Base(path))
	}

	// #nosec G304 - path comes from walking a configured input root
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Entity{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	front, body, err := SplitFrontBlock(string(content))
	if err != nil {
		return model.Entity{}, err
	}

	fm, err := decodeFrontBlock(front)
	if err != nil {
		return model.Entity{}, err
	}

	if !IsValidName(fm.name) {
		return model.Entity{}, fmt.Errorf("%w: %q must be 1-%d chars, lowercase alphanumeric and hyphens",
			ErrInvalidNameFormat, fm.name, MaxNameLength)
	}
	if strings.TrimSpace(fm.description) == "" {
		return model.Entity{}, ErrEmptyDescription
	}
	if strings.TrimSpace(body) == "" {
		return model.Entity{}, ErrEmptyBody
	}

	if dir := parentDirName(path); dir != fm.name {
		return model.Entity{}, &NameMismatchError{Declared: fm.name, Actual: dir}
	}

	logging.Debug("parsed entity",
		logging.Path(path),
		logging.Entity(fm.name),
		logging.Count(len(fm.other)),
	)

	return model.Entity{
		Path:        path,
		Name:        fm.name,
		Description: fm.description,
		Other:       fm.other,
		Body:        body,
	}, nil
}

// IsRecognizedName reports whether a file name has a non-empty stem with no
// lowercase characters. Only such files are treated as entity documents.
func IsRecognizedName(fileName string) bool {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if stem == "" {
		return false
	}
	return !strings.ContainsFunc(stem, unicode.IsLower)
}

// IsValidName reports whether name is 1-64 characters of ASCII lowercase
// letters, digits and hyphens.
func IsValidName(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func parentDirName(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return filepath.Base(dir)
}

// frontBlock is the decoded front-block: the two required fields plus
// everything else in declaration order.
type frontBlock struct {
	name        string
	description string
	other       []model.Field
}

func decodeFrontBlock(text string) (frontBlock, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return frontBlock{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var fm frontBlock
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return fm, fmt.Errorf("%w: missing field `name`", ErrDecode)
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return fm, fmt.Errorf("%w: line %d: front-block must be a mapping", ErrDecode, root.Line)
	}

	var hasName, hasDescription bool
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		if key.Kind == yaml.ScalarNode {
			if seen[key.Value] {
				return fm, fmt.Errorf("%w: line %d: duplicate key %q", ErrDecode, key.Line, key.Value)
			}
			seen[key.Value] = true
		}

		switch {
		case isStringKey(key, "name"):
			s, err := requireString(key.Value, value)
			if err != nil {
				return fm, err
			}
			fm.name, hasName = s, true
		case isStringKey(key, "description"):
			s, err := requireString(key.Value, value)
			if err != nil {
				return fm, err
			}
			fm.description, hasDescription = s, true
		default:
			fm.other = append(fm.other, model.Field{Key: key, Value: value})
		}
	}

	if !hasName {
		return fm, fmt.Errorf("%w: missing field `name`", ErrDecode)
	}
	if !hasDescription {
		return fm, fmt.Errorf("%w: missing field `description`", ErrDecode)
	}
	return fm, nil
}

func isStringKey(key *yaml.Node, name string) bool {
	return key.Kind == yaml.ScalarNode && key.ShortTag() == "!!str" && key.Value == name
}

// requireString returns the value of a string scalar, rejecting nulls,
// numbers, booleans and collections the way a typed decode would.
func requireString(field string, value *yaml.Node) (string, error) {
	value = resolveAlias(value)
	if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
		return "", fmt.Errorf("%w: line %d: field `%s` must be a string",
			ErrDecode, value.Line, field)
	}
	return value.Value, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
