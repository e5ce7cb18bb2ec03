package parser

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/lexer"
)

// parseTopDecl parses one top-level declaration or a bare expression
// (wrapped in ExprDecl; the Session synthesizes `val it = e` from it).
func (p *Parser) parseTopDecl() ast.Decl {
	switch p.cur().Kind {
	case lexer.KwVal, lexer.KwFun, lexer.KwDatatype, lexer.KwType, lexer.KwOver, lexer.KwInst:
		return p.parseDecl()
	case lexer.EOF:
		return nil
	default:
		start := p.cur().Start
		e := p.parseExpr()
		return &ast.ExprDecl{Value: e, Pos: p.span(start)}
	}
}

// parseDecl parses a single declaration; `and`-joined val/fun groups are
// collected into one AndDecl so the resolver can treat them as a mutually
// recursive group.
func (p *Parser) parseDecl() ast.Decl {
	start := p.cur().Start
	switch p.cur().Kind {
	case lexer.KwVal:
		first := p.parseValDecl()
		return p.collectAnd(start, first)
	case lexer.KwFun:
		first := p.parseFunDecl()
		return p.collectAnd(start, first)
	case lexer.KwDatatype:
		return p.parseDatatypeDecl()
	case lexer.KwType:
		return p.parseTypeDecl()
	case lexer.KwOver:
		return p.parseOverDecl()
	case lexer.KwInst:
		return p.parseInstDecl()
	default:
		p.errorf("expected declaration, got %s %q", p.cur().Kind, p.cur().Text)
		p.advance()
		return nil
	}
}

func (p *Parser) collectAnd(start lexer.Position, first ast.Decl) ast.Decl {
	if !p.at(lexer.KwAnd) {
		return first
	}
	decls := []ast.Decl{first}
	for {
		if _, ok := p.accept(lexer.KwAnd); !ok {
			break
		}
		// An `and` continues whichever form the group started with unless
		// the next tokens say otherwise; `fun` clauses start with a name,
		// `val` bindings with a pattern, both parsed as their own decl.
		if p.at(lexer.Ident) && p.peekAt(1).Kind != lexer.Equals && p.peekAt(1).Kind != lexer.Colon {
			decls = append(decls, p.parseFunClauses())
		} else {
			decls = append(decls, p.parseValBinding())
		}
	}
	return &ast.AndDecl{Decls: decls, Pos: p.span(start)}
}

func (p *Parser) parseValDecl() ast.Decl {
	p.expect(lexer.KwVal)
	return p.parseValBinding()
}

// parseValBinding parses `[rec] pat = expr` (the `val` keyword already
// consumed, or following an `and`).
func (p *Parser) parseValBinding() ast.Decl {
	start := p.cur().Start
	rec := false
	if _, ok := p.accept(lexer.KwRec); ok {
		rec = true
	}
	pat := p.parsePattern()
	p.expect(lexer.Equals)
	value := p.parseExpr()
	return &ast.ValDecl{Rec: rec, Pattern: pat, Value: value, Pos: p.span(start)}
}

func (p *Parser) parseFunDecl() ast.Decl {
	p.expect(lexer.KwFun)
	return p.parseFunClauses()
}

// parseFunClauses parses `f p1 ... pn = e | f p1 ... pn = e | ...` (the
// `fun` keyword already consumed). Every clause must repeat the same
// function name.
func (p *Parser) parseFunClauses() ast.Decl {
	start := p.cur().Start
	name := p.expect(lexer.Ident)
	var clauses []ast.FunClause
	for {
		clauseStart := p.cur().Start
		var params []ast.Pattern
		for p.startsAtomPattern() {
			params = append(params, p.parseAppPattern())
		}
		if len(params) == 0 {
			p.errorf("fun clause for %q has no parameters", name.Text)
		}
		p.expect(lexer.Equals)
		body := p.parseExpr()
		clauses = append(clauses, ast.FunClause{Params: params, Body: body, Pos: p.span(clauseStart)})
		if _, ok := p.accept(lexer.Bar); !ok {
			break
		}
		next := p.expect(lexer.Ident)
		if next.Text != name.Text {
			p.errorf("clauses of %q may not switch to %q", name.Text, next.Text)
		}
	}
	return &ast.FunDecl{Name: name.Text, Clauses: clauses, Pos: p.span(start)}
}

// parseDatatypeDecl parses `datatype ['a | ('a,'b)] name = Ctor [of ty] | ...`.
func (p *Parser) parseDatatypeDecl() ast.Decl {
	start := p.cur().Start
	p.expect(lexer.KwDatatype)
	params := p.parseTypeParams()
	name := p.expect(lexer.Ident)
	p.expect(lexer.Equals)
	var ctors []ast.CtorDecl
	for {
		ctor := p.expect(lexer.Ident)
		var arg ast.TypeExpr
		if _, ok := p.accept(lexer.KwOf); ok {
			arg = p.parseType()
		}
		ctors = append(ctors, ast.CtorDecl{Name: ctor.Text, Arg: arg})
		if _, ok := p.accept(lexer.Bar); !ok {
			break
		}
	}
	return &ast.DatatypeDecl{Params: params, Name: name.Text, Ctors: ctors, Pos: p.span(start)}
}

func (p *Parser) parseTypeDecl() ast.Decl {
	start := p.cur().Start
	p.expect(lexer.KwType)
	params := p.parseTypeParams()
	name := p.expect(lexer.Ident)
	p.expect(lexer.Equals)
	def := p.parseType()
	return &ast.TypeDecl{Params: params, Name: name.Text, Def: def, Pos: p.span(start)}
}

// parseTypeParams parses the optional type-parameter prefix of a
// datatype/type declaration: `'a` or `('a, 'b)`, or nothing.
func (p *Parser) parseTypeParams() []string {
	if p.at(lexer.Ident) && isTypeVarText(p.cur().Text) {
		tok := p.advance()
		return []string{typeVarName(tok.Text)}
	}
	if p.at(lexer.LParen) && p.peekAt(1).Kind == lexer.Ident && isTypeVarText(p.peekAt(1).Text) {
		p.advance()
		var params []string
		for {
			tok := p.expect(lexer.Ident)
			params = append(params, typeVarName(tok.Text))
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		p.expect(lexer.RParen)
		return params
	}
	return nil
}

func typeVarName(s string) string {
	for len(s) > 0 && s[0] == '\'' {
		s = s[1:]
	}
	return s
}

func (p *Parser) parseOverDecl() ast.Decl {
	start := p.cur().Start
	p.expect(lexer.KwOver)
	name := p.expect(lexer.Ident)
	var ty ast.TypeExpr
	if _, ok := p.accept(lexer.Colon); ok {
		ty = p.parseType()
	}
	return &ast.OverDecl{Name: name.Text, Type: ty, Pos: p.span(start)}
}

func (p *Parser) parseInstDecl() ast.Decl {
	start := p.cur().Start
	p.expect(lexer.KwInst)
	name := p.expect(lexer.Ident)
	p.expect(lexer.Equals)
	value := p.parseExpr()
	return &ast.InstDecl{Name: name.Text, Value: value, Pos: p.span(start)}
}
