package domain

import "strings"

// DefaultSeparator is the CSV field separator.
const DefaultSeparator = ','

// TokenizeLine splits one CSV line into trimmed fields. A double quote toggles
// the "inside quotes" state and is dropped; separators inside quotes are kept
// as field content. Quote escaping ("") is not supported: every quote toggles.
// The field after the last separator is always emitted, even when empty.
func TokenizeLine(line string, sep rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == sep && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// SplitLines splits CSV text into lines, dropping carriage returns and
// whitespace-only lines.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// TokenizeCSV splits CSV text into rows of fields.
func TokenizeCSV(text string) [][]string {
	lines := SplitLines(text)
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = TokenizeLine(line, DefaultSeparator)
	}
	return rows
}
