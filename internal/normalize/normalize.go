// Package normalize holds the comparison forms used for deduplication and display.
// Normalized values are never written over the originals.
package normalize

import (
	"strings"
	"unicode"
)

// Name trims and lowercases a business name
func Name(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Address trims, lowercases and collapses whitespace runs to a single space
func Address(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

// Zip keeps at most the first five digits, dropping everything else
func Zip(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 5 {
			break
		}
	}
	return b.String()
}

// FileSafe reduces a label to characters safe for a download filename
func FileSafe(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
