package session

import (
	"strings"

	"github.com/hydromatic/morel-go/internal/lexer"
)

// SplitStatements divides source text into statements at `;` tokens that
// sit at statement scope: outside parentheses, brackets, braces, and
// `let ... end` (spec.md Sec. 6 REPL grammar). Strings and comments are
// handled by the lexer, so a `;` inside either never splits.
func SplitStatements(src string) []string {
	toks := lexer.New("<split>", src).Tokenize()
	var out []string
	depth := 0
	start := 0
	lines := strings.Split(src, "\n")
	// Positions count runes per line; slicing needs byte offsets.
	offset := func(pos lexer.Position) int {
		n := 0
		for i := 0; i < pos.Line-1 && i < len(lines); i++ {
			n += len(lines[i]) + 1
		}
		if pos.Line-1 < len(lines) {
			col := pos.Col - 1
			for i := range lines[pos.Line-1] {
				if col == 0 {
					return n + i
				}
				col--
			}
			return n + len(lines[pos.Line-1])
		}
		return n
	}
	for _, t := range toks {
		switch t.Kind {
		case lexer.LParen, lexer.LBracket, lexer.LBrace, lexer.KwLet:
			depth++
		case lexer.RParen, lexer.RBracket, lexer.RBrace, lexer.KwEnd:
			if depth > 0 {
				depth--
			}
		case lexer.Semi:
			if depth == 0 {
				end := offset(t.Start)
				if end > start {
					out = append(out, src[start:end])
				}
				start = offset(t.End)
			}
		case lexer.EOF:
			if start < len(src) && strings.TrimSpace(src[start:]) != "" {
				out = append(out, src[start:])
			}
			return out
		}
	}
	return out
}

// Complete reports whether buffered REPL input holds at least one full
// statement: a `;` at statement scope. Multi-line statements accumulate
// until this turns true.
func Complete(src string) bool {
	toks := lexer.New("<split>", src).Tokenize()
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case lexer.LParen, lexer.LBracket, lexer.LBrace, lexer.KwLet:
			depth++
		case lexer.RParen, lexer.RBracket, lexer.RBrace, lexer.KwEnd:
			if depth > 0 {
				depth--
			}
		case lexer.Semi:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
