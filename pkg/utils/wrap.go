package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Wrap splits s into lines of at most width runes. Lines break at whitespace
// or after a hyphen inside a word. A single word longer than width is hard
// split, since there is no other way to respect the width.
//
// A width <= 0 disables wrapping. Whitespace at a break point is dropped.
func Wrap(s string, width int) []string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return []string{s}
	}

	var (
		lines   []string
		current strings.Builder
		curLen  int
	)
	flush := func() {
		line := strings.TrimRightFunc(current.String(), unicode.IsSpace)
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
		curLen = 0
	}

	for _, chunk := range splitChunks(s) {
		n := utf8.RuneCountInString(chunk)
		isSpace := strings.TrimSpace(chunk) == ""

		if isSpace {
			// leading whitespace on a fresh line is dropped
			if curLen == 0 && len(lines) > 0 {
				continue
			}
			if curLen+n > width {
				flush()
				continue
			}
			current.WriteString(chunk)
			curLen += n
			continue
		}

		if curLen+n <= width {
			current.WriteString(chunk)
			curLen += n
			continue
		}

		if n <= width {
			flush()
			current.WriteString(chunk)
			curLen = n
			continue
		}

		// unbreakable token wider than a whole line
		flush()
		runes := []rune(chunk)
		for len(runes) > width {
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		current.WriteString(string(runes))
		curLen = len(runes)
	}
	flush()

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// splitChunks splits s into alternating runs of whitespace and words, with
// words further split after embedded hyphens ("well-known" -> "well-", "known").
func splitChunks(s string) []string {
	var chunks []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if i > start && unicode.IsSpace(r) != unicode.IsSpace(runes[i-1]) {
			chunks = append(chunks, string(runes[start:i]))
			start = i
		}
		if r == '-' && i > start && i+1 < len(runes) &&
			isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
			chunks = append(chunks, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		chunks = append(chunks, string(runes[start:]))
	}
	return chunks
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
