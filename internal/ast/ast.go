// Package ast defines Morel's surface abstract syntax tree: an immutable,
// position-carrying tree produced by the parser and consumed by the
// resolver. Grounded on the teacher's internal/ast/ast.go (Node/Pos
// interfaces, Identifier/Literal/BinaryOp shapes), extended with Morel's
// `from`/`where`/`group`/`yield` query comprehensions and ML-style
// pattern/decl surface forms.
package ast

import "fmt"

// Pos is a source position: file plus a start/end line/column span.
type Pos struct {
	File      string
	Line, Col int
	EndLine   int
	EndCol    int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Pattern is any pattern node.
type Pattern interface {
	Node
	patternNode()
}

// TypeExpr is a surface type annotation (distinct from internal/types.Type,
// which is the resolved type).
type TypeExpr interface {
	Node
	typeExprNode()
}

// Decl is a top-level or `let`-local declaration.
type Decl interface {
	Node
	declNode()
}

// ----- Identifiers reserved by the language (spec.md Sec. 4.2) -----

// ReservedNames cannot be rebound by a pattern or `val` declaration.
var ReservedNames = map[string]bool{
	"true": true, "false": true, "nil": true, "ref": true, "it": true,
}

// ----- Expressions -----

// Ident references a named value.
type Ident struct {
	Name string
	Pos  Pos
}

func (i *Ident) Position() Pos { return i.Pos }
func (i *Ident) exprNode()     {}
func (i *Ident) patternNode()  {}

// LitKind distinguishes the kind of a literal.
type LitKind int

const (
	IntLit LitKind = iota
	RealLit
	StringLit
	CharLit
	BoolLit
	UnitLit
)

// Literal is a constant value appearing in source.
type Literal struct {
	Kind  LitKind
	Value interface{}
	Pos   Pos
}

func (l *Literal) Position() Pos { return l.Pos }
func (l *Literal) exprNode()     {}
func (l *Literal) patternNode()  {}

// TupleExpr is a parenthesized comma-separated sequence `(e1, e2, ...)`.
type TupleExpr struct {
	Elements []Expr
	Pos      Pos
}

func (t *TupleExpr) Position() Pos { return t.Pos }
func (t *TupleExpr) exprNode()     {}

// RecordField is one field of a record expression/pattern, with the
// label the parser derived (explicit, or implicit per spec.md Sec. 4.2).
type RecordField struct {
	Label string
	Value Expr
	Pos   Pos
}

// RecordExpr is `{label = expr, ...}`.
type RecordExpr struct {
	Fields []RecordField
	Pos    Pos
}

func (r *RecordExpr) Position() Pos { return r.Pos }
func (r *RecordExpr) exprNode()     {}

// ListExpr is `[e1, e2, ...]`.
type ListExpr struct {
	Elements []Expr
	Pos      Pos
}

func (l *ListExpr) Position() Pos { return l.Pos }
func (l *ListExpr) exprNode()     {}

// Apply is function application `f e`.
type Apply struct {
	Fn   Expr
	Arg  Expr
	Pos  Pos
}

func (a *Apply) Position() Pos { return a.Pos }
func (a *Apply) exprNode()     {}

// BinaryOp is an infix operator application.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

func (b *BinaryOp) Position() Pos { return b.Pos }
func (b *BinaryOp) exprNode()     {}

// UnaryOp is a prefix operator application (`~`, `not`).
type UnaryOp struct {
	Op      string
	Operand Expr
	Pos     Pos
}

func (u *UnaryOp) Position() Pos { return u.Pos }
func (u *UnaryOp) exprNode()     {}

// AndAlso / OrElse are the short-circuit boolean connectives, kept
// distinct from BinaryOp because the compiler must not evaluate both
// operands eagerly (spec.md Sec. 4.5).
type AndAlso struct {
	Left, Right Expr
	Pos         Pos
}

func (a *AndAlso) Position() Pos { return a.Pos }
func (a *AndAlso) exprNode()     {}

type OrElse struct {
	Left, Right Expr
	Pos         Pos
}

func (o *OrElse) Position() Pos { return o.Pos }
func (o *OrElse) exprNode()     {}

// IfExpr is `if c then a else b`.
type IfExpr struct {
	Cond, Then, Else Expr
	Pos              Pos
}

func (i *IfExpr) Position() Pos { return i.Pos }
func (i *IfExpr) exprNode()     {}

// Lambda is `fn pat => body`.
type Lambda struct {
	Param Pattern
	Body  Expr
	Pos   Pos
}

func (l *Lambda) Position() Pos { return l.Pos }
func (l *Lambda) exprNode()     {}

// MatchArm is one `pattern => expr` arm of a `case`/`fn`/`fun` clause set.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // optional `when` guard; nil if absent
	Body    Expr
	Pos     Pos
}

// CaseExpr is `case e of arm | arm | ...`.
type CaseExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Pos       Pos
}

func (c *CaseExpr) Position() Pos { return c.Pos }
func (c *CaseExpr) exprNode()     {}

// LetExpr is `let decl... in body end`.
type LetExpr struct {
	Decls []Decl
	Body  Expr
	Pos   Pos
}

func (l *LetExpr) Position() Pos { return l.Pos }
func (l *LetExpr) exprNode()     {}

// Annotated is an expression with an explicit type annotation `e : ty`.
type Annotated struct {
	Expr Expr
	Type TypeExpr
	Pos  Pos
}

func (a *Annotated) Position() Pos { return a.Pos }
func (a *Annotated) exprNode()     {}

// A constructor application such as `SOME x` has no node of its own: the
// parser produces a plain Apply/Ident and the resolver recognizes the head
// as a constructor (spec.md Sec. 4.3).

// ----- from/where/group/yield query comprehensions -----

// FromClause is one `x = e` (bind) or `x in e` (scan) clause introducing
// x into scope for the rest of the `from`.
type FromClause struct {
	Var Pattern
	Rhs Expr
	// Bind is true for `x = e` (binds x to the value of e); false for
	// `x in e` (scans the collection e). spec.md Sec. 4.2.
	Bind bool
	Pos  Pos
}

// StepKind enumerates from-step kinds recognized by the parser, carried
// through to internal/core's FromStep variants by the resolver.
type StepKind int

const (
	StepWhere StepKind = iota
	StepSkip
	StepTake
	StepOrder
	StepGroup
	StepYield
	StepDistinct
	StepUnorder
	StepUnion
	StepIntersect
	StepExcept
)

// OrderKey is one `expr [desc]` key of an `order` step.
type OrderKey struct {
	Expr       Expr
	Descending bool
}

// GroupKey is one `label = expr` grouping key of a `group` step.
type GroupKey struct {
	Label string
	Expr  Expr
}

// Aggregate is one `label = aggFn of expr` computed aggregate of a
// `group ... compute ...` step.
type Aggregate struct {
	Label string
	Fn    Expr // the aggregate function, e.g. `count`, `sum`
	Of    Expr // may be nil (e.g. bare `count`)
}

// FromStep is one step following the initial clauses of a `from`.
type FromStep struct {
	Kind StepKind
	Pos  Pos

	// StepWhere
	Cond Expr
	// StepSkip / StepTake
	Count Expr
	// StepOrder
	Keys []OrderKey
	// StepGroup
	GroupKeys  []GroupKey
	Aggregates []Aggregate
	// StepYield
	Yield Expr
	// StepUnion / StepIntersect / StepExcept
	SetArgs    []Expr
	Distinct   bool
}

// FromExpr is `from clause, clause, ... step step ...`.
type FromExpr struct {
	Clauses []FromClause
	Steps   []FromStep
	Pos     Pos
}

func (f *FromExpr) Position() Pos { return f.Pos }
func (f *FromExpr) exprNode()     {}

// ----- Patterns -----

// WildcardPat is `_`.
type WildcardPat struct{ Pos Pos }

func (w *WildcardPat) Position() Pos { return w.Pos }
func (w *WildcardPat) patternNode()  {}

// ConsPat is `h :: t`.
type ConsPat struct {
	Head, Tail Pattern
	Pos        Pos
}

func (c *ConsPat) Position() Pos { return c.Pos }
func (c *ConsPat) patternNode()  {}

// ListPat is `[p1, p2, ...]`.
type ListPat struct {
	Elements []Pattern
	Pos      Pos
}

func (l *ListPat) Position() Pos { return l.Pos }
func (l *ListPat) patternNode()  {}

// TuplePat is `(p1, p2, ...)`.
type TuplePat struct {
	Elements []Pattern
	Pos      Pos
}

func (t *TuplePat) Position() Pos { return t.Pos }
func (t *TuplePat) patternNode()  {}

// RecordPatField is one field of a record pattern.
type RecordPatField struct {
	Label string
	Value Pattern
}

// RecordPat is `{l1 = p1, ..., ...}`; Rest is true if `...` was present.
type RecordPat struct {
	Fields []RecordPatField
	Rest   bool
	Pos    Pos
}

func (r *RecordPat) Position() Pos { return r.Pos }
func (r *RecordPat) patternNode()  {}

// ConPat is a constructor pattern, e.g. `SOME x`, `NONE`.
type ConPat struct {
	Ctor string
	Arg  Pattern // nil for a nullary constructor
	Pos  Pos
}

func (c *ConPat) Position() Pos { return c.Pos }
func (c *ConPat) patternNode()  {}

// AnnotatedPat is `pat : ty`.
type AnnotatedPat struct {
	Pattern Pattern
	Type    TypeExpr
	Pos     Pos
}

func (a *AnnotatedPat) Position() Pos { return a.Pos }
func (a *AnnotatedPat) patternNode()  {}

// ----- Surface type expressions -----

// NamedType is a primitive or datatype name, possibly applied to type
// arguments, e.g. `int`, `'a option`, `(int, string) tree`.
type NamedType struct {
	Name string
	Args []TypeExpr
	Pos  Pos
}

func (n *NamedType) Position() Pos  { return n.Pos }
func (n *NamedType) typeExprNode() {}

// VarType is a type variable `'a` or equality type variable `''a`.
type VarType struct {
	Name     string
	Equality bool
	Pos      Pos
}

func (v *VarType) Position() Pos  { return v.Pos }
func (v *VarType) typeExprNode() {}

// FnType is `ty -> ty`.
type FnType struct {
	Param, Result TypeExpr
	Pos           Pos
}

func (f *FnType) Position() Pos  { return f.Pos }
func (f *FnType) typeExprNode() {}

// TupleType is `ty * ty * ...`.
type TupleType struct {
	Elements []TypeExpr
	Pos      Pos
}

func (t *TupleType) Position() Pos  { return t.Pos }
func (t *TupleType) typeExprNode() {}

// RecordType is `{l1: ty1, ...}`.
type RecordType struct {
	Fields map[string]TypeExpr
	Order  []string // field order as written, for error messages
	Pos    Pos
}

func (r *RecordType) Position() Pos  { return r.Pos }
func (r *RecordType) typeExprNode() {}

// ----- Declarations -----

// FunClause is one `f p1 ... pn = e` clause of a `fun` declaration.
type FunClause struct {
	Params []Pattern
	Guard  Expr // optional
	Body   Expr
	Pos    Pos
}

// ValDecl is `val [rec] pat = expr`.
type ValDecl struct {
	Rec     bool
	Pattern Pattern
	Value   Expr
	Pos     Pos
}

func (v *ValDecl) Position() Pos { return v.Pos }
func (v *ValDecl) declNode()     {}

// FunDecl is `fun f clause | clause | ...`, possibly together with other
// mutually-recursive `fun`/`val rec` bindings via `and`.
type FunDecl struct {
	Name    string
	Clauses []FunClause
	Pos     Pos
}

func (f *FunDecl) Position() Pos { return f.Pos }
func (f *FunDecl) declNode()     {}

// AndDecl groups mutually recursive ValDecl/FunDecl bindings joined by
// `and`.
type AndDecl struct {
	Decls []Decl
	Pos   Pos
}

func (a *AndDecl) Position() Pos { return a.Pos }
func (a *AndDecl) declNode()     {}

// CtorDecl is one constructor of a `datatype` declaration.
type CtorDecl struct {
	Name string
	Arg  TypeExpr // nil if nullary
}

// DatatypeDecl is `datatype ['a] name = Ctor [of ty] | ...`.
type DatatypeDecl struct {
	Params []string
	Name   string
	Ctors  []CtorDecl
	Pos    Pos
}

func (d *DatatypeDecl) Position() Pos { return d.Pos }
func (d *DatatypeDecl) declNode()     {}

// TypeDecl is a type alias `type name = ty`.
type TypeDecl struct {
	Params []string
	Name   string
	Def    TypeExpr
	Pos    Pos
}

func (t *TypeDecl) Position() Pos { return t.Pos }
func (t *TypeDecl) declNode()     {}

// OverDecl is `over name : ty`, declaring name as overloadable.
type OverDecl struct {
	Name string
	Type TypeExpr
	Pos  Pos
}

func (o *OverDecl) Position() Pos { return o.Pos }
func (o *OverDecl) declNode()     {}

// InstDecl is `inst name = expr` (or `inst (name : ty) = expr`), binding
// one instance of an overloaded name.
type InstDecl struct {
	Name  string
	Value Expr
	Pos   Pos
}

func (i *InstDecl) Position() Pos { return i.Pos }
func (i *InstDecl) declNode()     {}

// ExprDecl wraps a bare top-level expression, synthesized by the Session
// as `val it = e` (spec.md Sec. 4.8).
type ExprDecl struct {
	Value Expr
	Pos   Pos
}

func (e *ExprDecl) Position() Pos { return e.Pos }
func (e *ExprDecl) declNode()     {}
