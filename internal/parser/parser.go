// Package parser implements Morel's recursive-descent, precedence-climbing
// parser: source text (via internal/lexer) to internal/ast. Grounded on the
// teacher's internal/parser/parser.go family (parseExpr -> parseBinary(prec)
// -> parseUnary -> parsePrimary structure, split across per-concern files).
package parser

import (
	"fmt"

	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/lexer"
)

// Error is a fatal parse error with a source position (spec.md Sec. 7:
// ParseError is fatal and the input is discarded).
type Error struct {
	Pos     ast.Pos
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

// Parser consumes a pre-lexed token stream and builds AST nodes.
type Parser struct {
	file   string
	toks   []lexer.Token
	pos    int
	errors []error
}

// New returns a Parser over src, attributed to file for error messages.
func New(file, src string) *Parser {
	lx := lexer.New(file, src)
	toks := lx.Tokenize()
	p := &Parser{file: file, toks: toks}
	for _, e := range lx.Errors() {
		p.errors = append(p.errors, e)
	}
	return p
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) accept(k lexer.Kind) (lexer.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("expected %s, got %s %q", k, p.cur().Kind, p.cur().Text)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, &Error{Pos: p.pos2ast(p.cur().Start), Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) pos2ast(s lexer.Position) ast.Pos {
	return ast.Pos{File: s.File, Line: s.Line, Col: s.Col}
}

func (p *Parser) span(start lexer.Position) ast.Pos {
	pos := p.pos2ast(start)
	end := p.cur().Start
	pos.EndLine = end.Line
	pos.EndCol = end.Col
	return pos
}

// ParseProgram parses a sequence of semicolon-terminated top-level
// declarations/expressions until EOF (spec.md Sec. 6 REPL grammar, used in
// batch/file mode for the whole file).
func ParseProgram(file, src string) ([]ast.Decl, []error) {
	p := New(file, src)
	var decls []ast.Decl
	for !p.at(lexer.EOF) {
		d := p.parseTopDecl()
		if d != nil {
			decls = append(decls, d)
		}
		if _, ok := p.accept(lexer.Semi); !ok {
			if !p.at(lexer.EOF) {
				p.errorf("expected ';' after declaration")
				p.advance()
			}
		}
	}
	return decls, p.errors
}

// ParseOneDecl parses a single declaration/expression chunk up to (but not
// including) its terminating `;`, for the Session's statement-at-a-time
// REPL grammar (spec.md Sec. 6).
func ParseOneDecl(file, src string) (ast.Decl, []error) {
	p := New(file, src)
	d := p.parseTopDecl()
	return d, p.errors
}
