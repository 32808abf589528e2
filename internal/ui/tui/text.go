package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var titleCaser = cases.Title(language.English)

// truncateText shortens text to width terminal cells.
func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if width <= 3 {
		return runewidth.Truncate(text, width, "")
	}
	return runewidth.Truncate(text, width, "...")
}

// categoryLabel renders a slash-separated category path for display,
// e.g. "skills/code-review" becomes "Skills › Code Review".
func categoryLabel(category string) string {
	if category == "" {
		return "-"
	}
	parts := strings.Split(category, "/")
	for i, p := range parts {
		parts[i] = titleCaser.String(strings.ReplaceAll(p, "-", " "))
	}
	return strings.Join(parts, " › ")
}

// fieldText renders a front-block value on one line.
func fieldText(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	flow := *node
	flow.Style = yaml.FlowStyle
	data, err := yaml.Marshal(&flow)
	if err != nil {
		return node.Value
	}
	return strings.TrimSpace(string(data))
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
