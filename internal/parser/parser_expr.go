package parser

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/lexer"
)

// Binary operator precedence, loosest first. `orelse`/`andalso` are not
// in this table because they are distinct short-circuit nodes; `::` and
// `@` are right-associative (SML infixr 5).
var binaryPrec = map[lexer.Kind]int{
	lexer.Equals:     4,
	lexer.Ne:         4,
	lexer.Lt:         4,
	lexer.Le:         4,
	lexer.Gt:         4,
	lexer.Ge:         4,
	lexer.ColonColon: 5,
	lexer.At:         5,
	lexer.Plus:       6,
	lexer.Minus:      6,
	lexer.Star:       7,
	lexer.Slash:      7,
	lexer.Percent:    7,
}

var rightAssoc = map[lexer.Kind]bool{
	lexer.ColonColon: true,
	lexer.At:         true,
}

var opText = map[lexer.Kind]string{
	lexer.Equals: "=", lexer.Ne: "<>", lexer.Lt: "<", lexer.Le: "<=",
	lexer.Gt: ">", lexer.Ge: ">=", lexer.ColonColon: "::", lexer.At: "@",
	lexer.Plus: "+", lexer.Minus: "-", lexer.Star: "*", lexer.Slash: "/",
	lexer.Percent: "mod",
}

// parseExpr parses a full expression, including the keyword-headed forms
// (`fn`, `case`, `if`, `let`, `from`) and trailing `: ty` annotation.
func (p *Parser) parseExpr() ast.Expr {
	start := p.cur().Start
	var e ast.Expr
	switch p.cur().Kind {
	case lexer.KwFn:
		e = p.parseLambda()
	case lexer.KwCase:
		e = p.parseCase()
	case lexer.KwIf:
		e = p.parseIf()
	case lexer.KwLet:
		e = p.parseLet()
	case lexer.KwFrom:
		e = p.parseFrom()
	default:
		e = p.parseOrElse()
	}
	if _, ok := p.accept(lexer.Colon); ok {
		ty := p.parseType()
		return &ast.Annotated{Expr: e, Type: ty, Pos: p.span(start)}
	}
	return e
}

func (p *Parser) parseOrElse() ast.Expr {
	start := p.cur().Start
	lhs := p.parseAndAlso()
	for p.at(lexer.KwOrElse) {
		p.advance()
		rhs := p.parseAndAlso()
		lhs = &ast.OrElse{Left: lhs, Right: rhs, Pos: p.span(start)}
	}
	return lhs
}

func (p *Parser) parseAndAlso() ast.Expr {
	start := p.cur().Start
	lhs := p.parseBinary(0)
	for p.at(lexer.KwAndAlso) {
		p.advance()
		rhs := p.parseBinary(0)
		lhs = &ast.AndAlso{Left: lhs, Right: rhs, Pos: p.span(start)}
	}
	return lhs
}

// parseBinary is precedence-climbing over the binaryPrec table, the same
// structure the teacher's parser uses for its operator grammar.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.cur().Start
	lhs := p.parseApply()
	for {
		prec, ok := binaryPrec[p.cur().Kind]
		text := ""
		// `div` and `mod` lex as identifiers but are infix at the same
		// precedence as `*` and `/`.
		if !ok && p.at(lexer.Ident) && (p.cur().Text == "div" || p.cur().Text == "mod") {
			prec, ok = 7, true
			text = p.cur().Text
		}
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.advance()
		if text == "" {
			text = opText[op.Kind]
		}
		nextMin := prec + 1
		if rightAssoc[op.Kind] {
			nextMin = prec
		}
		rhs := p.parseBinary(nextMin)
		lhs = &ast.BinaryOp{Op: text, Left: lhs, Right: rhs, Pos: p.span(start)}
	}
}

// parseApply parses left-associative function application `f a b`.
func (p *Parser) parseApply() ast.Expr {
	start := p.cur().Start
	fn := p.parseUnary()
	for p.startsAtomExpr() {
		arg := p.parsePostfix()
		fn = &ast.Apply{Fn: fn, Arg: arg, Pos: p.span(start)}
	}
	return fn
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur().Start
	switch p.cur().Kind {
	case lexer.Tilde:
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Op: "~", Operand: operand, Pos: p.span(start)}
	case lexer.KwNot:
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Op: "not", Operand: operand, Pos: p.span(start)}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses an atom followed by `.label` field accesses.
func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Start
	e := p.parseAtomExpr()
	for p.at(lexer.Dot) {
		p.advance()
		name := p.expect(lexer.Ident)
		e = &ast.FieldAccess{Record: e, Field: name.Text, Pos: p.span(start)}
	}
	return e
}

func (p *Parser) startsAtomExpr() bool {
	switch p.cur().Kind {
	case lexer.Ident:
		// `div`/`mod` are infix, never application arguments.
		return p.cur().Text != "div" && p.cur().Text != "mod"
	case lexer.IntLit, lexer.RealLit, lexer.StringLit, lexer.CharLit,
		lexer.LParen, lexer.LBracket, lexer.LBrace, lexer.Hash,
		lexer.KwTrue, lexer.KwFalse, lexer.KwNil:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtomExpr() ast.Expr {
	start := p.cur().Start
	switch p.cur().Kind {
	case lexer.Ident:
		tok := p.advance()
		return &ast.Ident{Name: tok.Text, Pos: p.span(start)}
	case lexer.KwTrue:
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: true, Pos: p.span(start)}
	case lexer.KwFalse:
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: false, Pos: p.span(start)}
	case lexer.KwNil:
		p.advance()
		return &ast.ListExpr{Pos: p.span(start)}
	case lexer.IntLit:
		tok := p.advance()
		return &ast.Literal{Kind: ast.IntLit, Value: tok.Value, Pos: p.span(start)}
	case lexer.RealLit:
		tok := p.advance()
		return &ast.Literal{Kind: ast.RealLit, Value: tok.Value, Pos: p.span(start)}
	case lexer.StringLit:
		tok := p.advance()
		return &ast.Literal{Kind: ast.StringLit, Value: tok.Value, Pos: p.span(start)}
	case lexer.CharLit:
		tok := p.advance()
		return &ast.Literal{Kind: ast.CharLit, Value: tok.Value, Pos: p.span(start)}
	case lexer.Hash:
		p.advance()
		name := p.expect(lexer.Ident)
		return &ast.Selector{Field: name.Text, Pos: p.span(start)}
	case lexer.LParen:
		p.advance()
		if _, ok := p.accept(lexer.RParen); ok {
			return &ast.Literal{Kind: ast.UnitLit, Pos: p.span(start)}
		}
		first := p.parseExpr()
		if _, ok := p.accept(lexer.Comma); ok {
			elems := []ast.Expr{first}
			for {
				elems = append(elems, p.parseExpr())
				if _, ok := p.accept(lexer.Comma); !ok {
					break
				}
			}
			p.expect(lexer.RParen)
			return &ast.TupleExpr{Elements: elems, Pos: p.span(start)}
		}
		p.expect(lexer.RParen)
		return first
	case lexer.LBracket:
		p.advance()
		var elems []ast.Expr
		for !p.at(lexer.RBracket) && !p.at(lexer.EOF) {
			elems = append(elems, p.parseExpr())
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		p.expect(lexer.RBracket)
		return &ast.ListExpr{Elements: elems, Pos: p.span(start)}
	case lexer.LBrace:
		return p.parseRecordExpr(start)
	default:
		p.errorf("expected expression, got %s %q", p.cur().Kind, p.cur().Text)
		p.advance()
		return &ast.Literal{Kind: ast.UnitLit, Pos: p.span(start)}
	}
}

func (p *Parser) parseRecordExpr(start lexer.Position) ast.Expr {
	p.expect(lexer.LBrace)
	var fields []ast.RecordFieldSource
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		fieldStart := p.cur().Start
		// `label = expr` when an identifier is immediately followed by `=`;
		// otherwise the field is a bare expression and its label is derived
		// (implicit labels, spec.md Sec. 4.2).
		if p.at(lexer.Ident) && p.peekAt(1).Kind == lexer.Equals {
			name := p.advance()
			p.advance() // `=`
			value := p.parseExpr()
			fields = append(fields, ast.RecordFieldSource{Label: name.Text, Value: value, Pos: p.pos2ast(fieldStart)})
		} else {
			value := p.parseExpr()
			fields = append(fields, ast.RecordFieldSource{Value: value, Pos: p.pos2ast(fieldStart)})
		}
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RBrace)
	rec, err := ast.BuildRecordExpr(p.span(start), fields)
	if err != nil {
		p.errors = append(p.errors, err)
		return &ast.RecordExpr{Pos: p.span(start)}
	}
	return rec
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.cur().Start
	p.expect(lexer.KwFn)
	arms := p.parseMatchArms()
	if len(arms) == 1 && arms[0].Guard == nil {
		return &ast.Lambda{Param: arms[0].Pattern, Body: arms[0].Body, Pos: p.span(start)}
	}
	// Multi-arm `fn` desugars here to a lambda over the internal name
	// `$fnarg` whose body is a case over that name with the written arms.
	param := &ast.Ident{Name: "$fnarg", Pos: p.span(start)}
	scrut := &ast.Ident{Name: "$fnarg", Pos: p.span(start)}
	return &ast.Lambda{
		Param: param,
		Body:  &ast.CaseExpr{Scrutinee: scrut, Arms: arms, Pos: p.span(start)},
		Pos:   p.span(start),
	}
}

func (p *Parser) parseMatchArms() []ast.MatchArm {
	var arms []ast.MatchArm
	for {
		armStart := p.cur().Start
		pat := p.parsePattern()
		p.expect(lexer.FatArrow)
		body := p.parseExpr()
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body, Pos: p.span(armStart)})
		if _, ok := p.accept(lexer.Bar); !ok {
			return arms
		}
	}
}

func (p *Parser) parseCase() ast.Expr {
	start := p.cur().Start
	p.expect(lexer.KwCase)
	scrut := p.parseExpr()
	p.expect(lexer.KwOf)
	arms := p.parseMatchArms()
	return &ast.CaseExpr{Scrutinee: scrut, Arms: arms, Pos: p.span(start)}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.cur().Start
	p.expect(lexer.KwIf)
	cond := p.parseExpr()
	p.expect(lexer.KwThen)
	then := p.parseExpr()
	p.expect(lexer.KwElse)
	els := p.parseExpr()
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Pos: p.span(start)}
}

func (p *Parser) parseLet() ast.Expr {
	start := p.cur().Start
	p.expect(lexer.KwLet)
	var decls []ast.Decl
	for !p.at(lexer.KwIn) && !p.at(lexer.EOF) {
		d := p.parseDecl()
		if d != nil {
			decls = append(decls, d)
		}
		p.accept(lexer.Semi)
	}
	p.expect(lexer.KwIn)
	body := p.parseExpr()
	p.expect(lexer.KwEnd)
	return &ast.LetExpr{Decls: decls, Body: body, Pos: p.span(start)}
}

// parseFrom parses `from clause, clause, ... step...`. Each clause is
// `pat in e` (scan) or `x = e` (bind); the distinction is tagged on the
// clause per spec.md Sec. 4.2.
func (p *Parser) parseFrom() ast.Expr {
	start := p.cur().Start
	p.expect(lexer.KwFrom)
	var clauses []ast.FromClause
	for {
		clauseStart := p.cur().Start
		pat := p.parsePattern()
		switch {
		case p.at(lexer.KwIn):
			p.advance()
			rhs := p.parseExpr()
			clauses = append(clauses, *ast.BuildFromClause(p.span(clauseStart), pat, rhs, false))
		case p.at(lexer.Equals):
			p.advance()
			rhs := p.parseExpr()
			clauses = append(clauses, *ast.BuildFromClause(p.span(clauseStart), pat, rhs, true))
		default:
			p.errorf("expected 'in' or '=' in from clause, got %s", p.cur().Kind)
			return &ast.FromExpr{Clauses: clauses, Pos: p.span(start)}
		}
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	var steps []ast.FromStep
	for {
		step, ok := p.parseFromStep()
		if !ok {
			break
		}
		steps = append(steps, step)
	}
	return &ast.FromExpr{Clauses: clauses, Steps: steps, Pos: p.span(start)}
}

func (p *Parser) parseFromStep() (ast.FromStep, bool) {
	start := p.cur().Start
	switch p.cur().Kind {
	case lexer.KwWhere:
		p.advance()
		cond := p.parseExpr()
		return ast.FromStep{Kind: ast.StepWhere, Cond: cond, Pos: p.span(start)}, true
	case lexer.KwSkip:
		p.advance()
		count := p.parseExpr()
		return ast.FromStep{Kind: ast.StepSkip, Count: count, Pos: p.span(start)}, true
	case lexer.KwTake:
		p.advance()
		count := p.parseExpr()
		return ast.FromStep{Kind: ast.StepTake, Count: count, Pos: p.span(start)}, true
	case lexer.KwOrder:
		p.advance()
		var keys []ast.OrderKey
		for {
			expr := p.parseBinary(0)
			desc := false
			if _, ok := p.accept(lexer.KwDesc); ok {
				desc = true
			}
			keys = append(keys, ast.OrderKey{Expr: expr, Descending: desc})
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		return ast.FromStep{Kind: ast.StepOrder, Keys: keys, Pos: p.span(start)}, true
	case lexer.KwGroup:
		p.advance()
		var keys []ast.GroupKey
		for {
			name := p.expect(lexer.Ident)
			p.expect(lexer.Equals)
			expr := p.parseBinary(0)
			keys = append(keys, ast.GroupKey{Label: name.Text, Expr: expr})
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		var aggs []ast.Aggregate
		if _, ok := p.accept(lexer.KwCompute); ok {
			aggs = p.parseAggregates()
		}
		return ast.FromStep{Kind: ast.StepGroup, GroupKeys: keys, Aggregates: aggs, Pos: p.span(start)}, true
	case lexer.KwYield:
		p.advance()
		expr := p.parseExpr()
		return ast.FromStep{Kind: ast.StepYield, Yield: expr, Pos: p.span(start)}, true
	case lexer.KwDistinct:
		p.advance()
		return ast.FromStep{Kind: ast.StepDistinct, Pos: p.span(start)}, true
	case lexer.KwUnorder:
		p.advance()
		return ast.FromStep{Kind: ast.StepUnorder, Pos: p.span(start)}, true
	case lexer.KwUnion, lexer.KwIntersect, lexer.KwExcept:
		kindTok := p.advance()
		kind := map[lexer.Kind]ast.StepKind{
			lexer.KwUnion:     ast.StepUnion,
			lexer.KwIntersect: ast.StepIntersect,
			lexer.KwExcept:    ast.StepExcept,
		}[kindTok.Kind]
		distinct := false
		if _, ok := p.accept(lexer.KwDistinct); ok {
			distinct = true
		}
		var args []ast.Expr
		for {
			args = append(args, p.parseBinary(0))
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		return ast.FromStep{Kind: kind, SetArgs: args, Distinct: distinct, Pos: p.span(start)}, true
	default:
		return ast.FromStep{}, false
	}
}

// parseAggregates parses `{label = aggFn [of expr], ...}` or a single
// bare `label = aggFn [of expr]`.
func (p *Parser) parseAggregates() []ast.Aggregate {
	var aggs []ast.Aggregate
	braced := false
	if _, ok := p.accept(lexer.LBrace); ok {
		braced = true
	}
	for {
		name := p.expect(lexer.Ident)
		p.expect(lexer.Equals)
		fn := p.parsePostfix()
		var of ast.Expr
		if _, ok := p.accept(lexer.KwOf); ok {
			of = p.parseBinary(0)
		}
		aggs = append(aggs, ast.Aggregate{Label: name.Text, Fn: fn, Of: of})
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	if braced {
		p.expect(lexer.RBrace)
	}
	return aggs
}
