package parser

import (
	"strings"
	"unicode"
)

const (
	// delimiter opens and closes the front-block.
	delimiter = "---"
	// closing is a delimiter at the start of a line.
	closing = "\n" + delimiter
)

// SplitFrontBlock separates the front-block text from the body.
//
// Leading whitespace is ignored and the content must then start with "---".
// The closing delimiter is the first "\n---" that occupies its whole line,
// i.e. is followed by end of input, "\n" or "\r\n". Occurrences followed by
// anything else (a "---" run inside a code example, "---foo") are skipped.
// The body starts after the closing line's terminator and is returned as is.
func SplitFrontBlock(content string) (front, body string, err error) {
	text := strings.TrimLeftFunc(content, unicode.IsSpace)
	if !strings.HasPrefix(text, delimiter) {
		return "", "", ErrMissingFrontmatter
	}

	pos := len(delimiter)
	for pos <= len(text) {
		idx := strings.Index(text[pos:], closing)
		if idx < 0 {
			break
		}
		at := pos + idx
		rest := text[at+len(closing):]
		if n, ok := lineTerminator(rest); ok {
			return text[len(delimiter):at], rest[n:], nil
		}
		pos = at + 1
	}

	return "", "", ErrMissingFrontmatter
}

// lineTerminator reports whether s starts a new line (or is empty) and the
// number of terminator bytes to consume.
func lineTerminator(s string) (int, bool) {
	switch {
	case s == "":
		return 0, true
	case strings.HasPrefix(s, "\r\n"):
		return 2, true
	case strings.HasPrefix(s, "\n"):
		return 1, true
	default:
		return 0, false
	}
}
