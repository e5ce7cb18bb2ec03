package parser

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/lexer"
)

// parseType parses a surface type expression: `ty1 -> ty2` is the loosest
// binding (right-associative), then `*`-separated tuple types, then
// applied/atomic types.
func (p *Parser) parseType() ast.TypeExpr {
	lhs := p.parseTupleType()
	if _, ok := p.accept(lexer.Arrow); ok {
		rhs := p.parseType()
		return &ast.FnType{Param: lhs, Result: rhs, Pos: lhs.Position()}
	}
	return lhs
}

func (p *Parser) parseTupleType() ast.TypeExpr {
	start := p.cur().Start
	first := p.parseAppType()
	if !p.at(lexer.Star) {
		return first
	}
	elems := []ast.TypeExpr{first}
	for {
		if _, ok := p.accept(lexer.Star); !ok {
			break
		}
		elems = append(elems, p.parseAppType())
	}
	return &ast.TupleType{Elements: elems, Pos: p.span(start)}
}

// parseAppType parses a possibly-applied named type: `int`, `'a option`,
// `(int, string) tree`, `'a list list`.
func (p *Parser) parseAppType() ast.TypeExpr {
	start := p.cur().Start
	atom := p.parseAtomType()
	for p.at(lexer.Ident) && !p.atTypeBoundary() {
		name := p.advance()
		atom = &ast.NamedType{Name: name.Text, Args: []ast.TypeExpr{atom}, Pos: p.span(start)}
	}
	return atom
}

// atTypeBoundary guards against consuming an identifier that starts the
// next construct rather than a postfix type constructor name; callers of
// parseAppType only ever expect bare lowercase names here, so this is
// always false in practice but keeps the loop safe if extended later.
func (p *Parser) atTypeBoundary() bool { return false }

func (p *Parser) parseAtomType() ast.TypeExpr {
	start := p.cur().Start
	switch {
	case p.at(lexer.Ident) && isTypeVarText(p.cur().Text):
		tok := p.advance()
		eq, _ := tok.Value.(bool)
		return &ast.VarType{Name: tok.Text, Equality: eq, Pos: p.span(start)}
	case p.at(lexer.Ident):
		tok := p.advance()
		return &ast.NamedType{Name: tok.Text, Pos: p.span(start)}
	case p.at(lexer.LParen):
		p.advance()
		first := p.parseType()
		if _, ok := p.accept(lexer.Comma); ok {
			args := []ast.TypeExpr{first}
			for {
				args = append(args, p.parseType())
				if _, ok := p.accept(lexer.Comma); !ok {
					break
				}
			}
			p.expect(lexer.RParen)
			name := p.expect(lexer.Ident)
			return &ast.NamedType{Name: name.Text, Args: args, Pos: p.span(start)}
		}
		p.expect(lexer.RParen)
		return first
	case p.at(lexer.LBrace):
		return p.parseRecordType(start)
	default:
		p.errorf("expected type, got %s", p.cur().Kind)
		p.advance()
		return &ast.NamedType{Name: "?", Pos: p.span(start)}
	}
}

func (p *Parser) parseRecordType(start lexer.Position) ast.TypeExpr {
	p.expect(lexer.LBrace)
	fields := make(map[string]ast.TypeExpr)
	var order []string
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		name := p.expect(lexer.Ident)
		p.expect(lexer.Colon)
		ty := p.parseType()
		fields[name.Text] = ty
		order = append(order, name.Text)
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RBrace)
	return &ast.RecordType{Fields: fields, Order: order, Pos: p.span(start)}
}

func isTypeVarText(s string) bool {
	return len(s) > 0 && s[0] == '\''
}
