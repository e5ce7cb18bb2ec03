package lexer

import "golang.org/x/text/unicode/norm"

// Normalize applies Unicode NFC normalization to source text before
// tokenizing, so that combining-character and precomposed-character
// spellings of the same identifier lex identically. Grounded on the
// teacher's internal/lexer/normalize.go.
func Normalize(src string) string {
	return norm.NFC.String(src)
}
