package parser

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/lexer"
)

// parsePattern parses a full pattern, including `::` (lowest precedence,
// right-associative) and trailing `: ty` annotation.
func (p *Parser) parsePattern() ast.Pattern {
	lhs := p.parseConsPattern()
	if _, ok := p.accept(lexer.Colon); ok {
		ty := p.parseType()
		return &ast.AnnotatedPat{Pattern: lhs, Type: ty, Pos: lhs.Position()}
	}
	return lhs
}

func (p *Parser) parseConsPattern() ast.Pattern {
	start := p.cur().Start
	head := p.parseAppPattern()
	if _, ok := p.accept(lexer.ColonColon); ok {
		tail := p.parseConsPattern()
		return &ast.ConsPat{Head: head, Tail: tail, Pos: p.span(start)}
	}
	return head
}

// parseAppPattern handles constructor application `SOME x` (a constructor
// name applied to one atomic pattern argument).
func (p *Parser) parseAppPattern() ast.Pattern {
	start := p.cur().Start
	if p.at(lexer.Ident) && isConstructorName(p.cur().Text) {
		name := p.advance()
		if p.startsAtomPattern() {
			arg := p.parseAtomPattern()
			return &ast.ConPat{Ctor: name.Text, Arg: arg, Pos: p.span(start)}
		}
		return &ast.ConPat{Ctor: name.Text, Pos: p.span(start)}
	}
	return p.parseAtomPattern()
}

func (p *Parser) startsAtomPattern() bool {
	switch p.cur().Kind {
	case lexer.Ident, lexer.IntLit, lexer.RealLit, lexer.StringLit, lexer.CharLit,
		lexer.LParen, lexer.LBracket, lexer.LBrace, lexer.KwTrue, lexer.KwFalse, lexer.KwNil:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtomPattern() ast.Pattern {
	start := p.cur().Start
	switch {
	case p.at(lexer.Ident) && p.cur().Text == "_":
		p.advance()
		return &ast.WildcardPat{Pos: p.span(start)}
	case p.at(lexer.Ident):
		tok := p.advance()
		if tok.Text == "_" {
			return &ast.WildcardPat{Pos: p.span(start)}
		}
		id, err := ast.BuildIdentPattern(p.pos2ast(tok.Start), tok.Text)
		if err != nil {
			p.errors = append(p.errors, err)
		}
		return id
	case p.at(lexer.KwNil):
		p.advance()
		return &ast.ListPat{Pos: p.span(start)}
	case p.at(lexer.KwTrue):
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: true, Pos: p.span(start)}
	case p.at(lexer.KwFalse):
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: false, Pos: p.span(start)}
	case p.at(lexer.IntLit):
		tok := p.advance()
		return &ast.Literal{Kind: ast.IntLit, Value: tok.Value, Pos: p.span(start)}
	case p.at(lexer.RealLit):
		tok := p.advance()
		return &ast.Literal{Kind: ast.RealLit, Value: tok.Value, Pos: p.span(start)}
	case p.at(lexer.StringLit):
		tok := p.advance()
		return &ast.Literal{Kind: ast.StringLit, Value: tok.Value, Pos: p.span(start)}
	case p.at(lexer.CharLit):
		tok := p.advance()
		return &ast.Literal{Kind: ast.CharLit, Value: tok.Value, Pos: p.span(start)}
	case p.at(lexer.LParen):
		p.advance()
		if _, ok := p.accept(lexer.RParen); ok {
			return &ast.Literal{Kind: ast.UnitLit, Value: nil, Pos: p.span(start)}
		}
		first := p.parsePattern()
		if _, ok := p.accept(lexer.Comma); ok {
			elems := []ast.Pattern{first}
			for {
				elems = append(elems, p.parsePattern())
				if _, ok := p.accept(lexer.Comma); !ok {
					break
				}
			}
			p.expect(lexer.RParen)
			return &ast.TuplePat{Elements: elems, Pos: p.span(start)}
		}
		p.expect(lexer.RParen)
		return first
	case p.at(lexer.LBracket):
		p.advance()
		var elems []ast.Pattern
		for !p.at(lexer.RBracket) && !p.at(lexer.EOF) {
			elems = append(elems, p.parsePattern())
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		p.expect(lexer.RBracket)
		return &ast.ListPat{Elements: elems, Pos: p.span(start)}
	case p.at(lexer.LBrace):
		return p.parseRecordPattern(start)
	default:
		p.errorf("expected pattern, got %s", p.cur().Kind)
		p.advance()
		return &ast.WildcardPat{Pos: p.span(start)}
	}
}

func (p *Parser) parseRecordPattern(start lexer.Position) ast.Pattern {
	p.expect(lexer.LBrace)
	var fields []ast.RecordPatField
	rest := false
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		if _, ok := p.accept(lexer.DotDotDot); ok {
			rest = true
			break
		}
		name := p.expect(lexer.Ident)
		var value ast.Pattern
		if _, ok := p.accept(lexer.Equals); ok {
			value = p.parsePattern()
		} else {
			id, err := ast.BuildIdentPattern(p.pos2ast(name.Start), name.Text)
			if err != nil {
				p.errors = append(p.errors, err)
			}
			value = id
		}
		fields = append(fields, ast.RecordPatField{Label: name.Text, Value: value})
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RBrace)
	pat, err := ast.BuildRecordPat(p.span(start), fields, rest)
	if err != nil {
		p.errors = append(p.errors, err)
	}
	return pat
}

// isConstructorName reports whether name looks like an SML constructor
// (capitalized), used to distinguish `SOME x` (constructor application)
// from a variable pattern applied to nothing.
func isConstructorName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}
