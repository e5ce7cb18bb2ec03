// Package core defines Morel's typed internal tree: a strictly smaller
// language than the surface AST, produced by the resolver and consumed by
// the compiler. `if` has been lowered to `case`, `fun` to `fn` + `case`,
// and multi-declaration `let`s to nested single-binding `Let`s. Every node
// carries its inferred type.
package core

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/types"
)

// Exp is any core expression.
type Exp interface {
	Type() types.Type
	expNode()
}

// Pat is any core pattern; patterns carry the type they match.
type Pat interface {
	Type() types.Type
	patNode()
}

// Decl is a core declaration.
type Decl interface {
	declNode()
}

// Binding associates a named pattern (name plus disambiguating ordinal)
// with its type. The evaluator adds the value dimension via its own
// environment frames.
type Binding struct {
	Name    string
	Ordinal int
	Ty      types.Type
}

// StepEnv is the environment visible after a `from` step: the bindings in
// scope, plus the atom and ordered flags (spec.md Sec. 3).
type StepEnv struct {
	Bindings []Binding
	// Atom is true when the step's output is a single unlabeled value per
	// row rather than a record.
	Atom bool
	// Ordered is true when the step's output preserves a deterministic
	// row order.
	Ordered bool
}

// Lookup finds a binding by name.
func (e StepEnv) Lookup(name string) (Binding, bool) {
	for _, b := range e.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// ----- Expressions -----

// Id references a named pattern.
type Id struct {
	Name    string
	Ordinal int
	Ty      types.Type
	Pos     ast.Pos
}

func (e *Id) Type() types.Type { return e.Ty }
func (e *Id) expNode()         {}
func (e *Id) patNode()         {} // an Id is also the identifier pattern

// LitKind distinguishes literal kinds in core.
type LitKind int

const (
	IntLit LitKind = iota
	RealLit
	StringLit
	CharLit
	BoolLit
	UnitLit
	// FnLit is a built-in function literal; Value is the BuiltIn tag name
	// resolved by the compiler against the built-in table.
	FnLit
)

// Literal is a constant. Interned by the builder for the common cases.
type Literal struct {
	Kind  LitKind
	Value interface{}
	Ty    types.Type
}

func (e *Literal) Type() types.Type { return e.Ty }
func (e *Literal) expNode()         {}
func (e *Literal) patNode()         {}

// Tuple is an ordered sequence of expressions; with Labels set (in
// canonical order) it represents a record (spec.md Sec. 3: Tuple also
// represents records).
type Tuple struct {
	Labels []string // nil for a positional tuple
	Args   []Exp
	Ty     types.Type
}

func (e *Tuple) Type() types.Type { return e.Ty }
func (e *Tuple) expNode()         {}

// List is a list construction expression (`[e1, ..., en]`; also the
// singleton source a `from` bind clause scans over).
type List struct {
	Elements []Exp
	Ty       types.Type
}

func (e *List) Type() types.Type { return e.Ty }
func (e *List) expNode()         {}

// Apply is function application.
type Apply struct {
	Fn  Exp
	Arg Exp
	Ty  types.Type
	Pos ast.Pos
}

func (e *Apply) Type() types.Type { return e.Ty }
func (e *Apply) expNode()         {}

// Fn is a single-argument lambda.
type Fn struct {
	Param Pat
	Body  Exp
	Ty    types.Type
}

func (e *Fn) Type() types.Type { return e.Ty }
func (e *Fn) expNode()         {}

// Match is one `pattern => expression` arm of a Case.
type Match struct {
	Pat Pat
	Exp Exp
}

// Case evaluates its scrutinee once, then selects the first arm whose
// pattern matches.
type Case struct {
	Scrutinee Exp
	Arms      []Match
	Ty        types.Type
	Pos       ast.Pos
}

func (e *Case) Type() types.Type { return e.Ty }
func (e *Case) expNode()         {}

// Let binds one declaration around a body.
type Let struct {
	Decl Decl // NonRecValDecl or RecValDecl
	Body Exp
}

func (e *Let) Type() types.Type { return e.Body.Type() }
func (e *Let) expNode()         {}

// Local scopes a datatype declaration around a body.
type Local struct {
	Datatype *types.Datatype
	Body     Exp
}

func (e *Local) Type() types.Type { return e.Body.Type() }
func (e *Local) expNode()         {}

// RecordSelector is the function form of `#label`: it projects the field
// at Slot (the index in canonical field order) out of a record.
type RecordSelector struct {
	Field string
	Slot  int
	Ty    types.Type
}

func (e *RecordSelector) Type() types.Type { return e.Ty }
func (e *RecordSelector) expNode()         {}

// From is a query comprehension: a pipeline of steps.
type From struct {
	Steps []FromStep
	Ty    types.Type
	Pos   ast.Pos
}

func (e *From) Type() types.Type { return e.Ty }
func (e *From) expNode()         {}

// ----- Patterns -----

// WildcardPat matches anything and binds nothing.
type WildcardPat struct {
	Ty types.Type
}

func (p *WildcardPat) Type() types.Type { return p.Ty }
func (p *WildcardPat) patNode()         {}

// ConPat matches a constructed value by constructor tag, with an optional
// payload sub-pattern.
type ConPat struct {
	Ctor     string
	Datatype *types.Datatype
	Arg      Pat // nil for a nullary constructor
	Ty       types.Type
}

func (p *ConPat) Type() types.Type { return p.Ty }
func (p *ConPat) patNode()         {}

// ConsPat matches a non-empty list into head and tail.
type ConsPat struct {
	Head, Tail Pat
	Ty         types.Type
}

func (p *ConsPat) Type() types.Type { return p.Ty }
func (p *ConsPat) patNode()         {}

// ListPat matches a list of exactly len(Elements) elements.
type ListPat struct {
	Elements []Pat
	Ty       types.Type
}

func (p *ListPat) Type() types.Type { return p.Ty }
func (p *ListPat) patNode()         {}

// TuplePat matches a tuple positionally.
type TuplePat struct {
	Elements []Pat
	Ty       types.Type
}

func (p *TuplePat) Type() types.Type { return p.Ty }
func (p *TuplePat) patNode()         {}

// RecordPat matches a record; Labels are in canonical order and every
// field of the record type is materialized (omitted fields carry fresh
// wildcards, installed by the resolver).
type RecordPat struct {
	Labels []string
	Fields []Pat
	Ty     types.Type
}

func (p *RecordPat) Type() types.Type { return p.Ty }
func (p *RecordPat) patNode()         {}

// ----- Declarations -----

// NonRecValDecl binds one pattern to one expression.
type NonRecValDecl struct {
	Pat Pat
	Exp Exp
}

func (d *NonRecValDecl) declNode() {}

// RecBinding is one name = fn binding of a recursive group.
type RecBinding struct {
	Pat *Id
	Exp Exp // always function-valued (spec.md Sec. 4.5)
}

// RecValDecl is a list of mutually recursive bindings.
type RecValDecl struct {
	Bindings []RecBinding
}

func (d *RecValDecl) declNode() {}

// DatatypeDecl introduces (and registers) an algebraic datatype.
type DatatypeDecl struct {
	Datatype *types.Datatype
}

func (d *DatatypeDecl) declNode() {}

// TypeDecl is a type alias.
type TypeDecl struct {
	Name string
	Ty   types.Type
}

func (d *TypeDecl) declNode() {}

// OverDecl declares a name overloadable.
type OverDecl struct {
	Name string
}

func (d *OverDecl) declNode() {}

// ----- From steps -----

// FromStep is one step of a From pipeline. Each step records the StepEnv
// of its output.
type FromStep interface {
	Env() StepEnv
	stepNode()
}

// Scan introduces a pattern ranging over a collection, with an optional
// filter fused in.
type Scan struct {
	Pat    Pat
	Source Exp
	Filter Exp // nil if absent
	OutEnv StepEnv
}

func (s *Scan) Env() StepEnv { return s.OutEnv }
func (s *Scan) stepNode()    {}

// Where filters rows.
type Where struct {
	Cond   Exp
	OutEnv StepEnv
}

func (s *Where) Env() StepEnv { return s.OutEnv }
func (s *Where) stepNode()    {}

// Skip drops the first Count rows.
type Skip struct {
	Count  Exp
	OutEnv StepEnv
}

func (s *Skip) Env() StepEnv { return s.OutEnv }
func (s *Skip) stepNode()    {}

// Take keeps the first Count rows.
type Take struct {
	Count  Exp
	OutEnv StepEnv
}

func (s *Take) Env() StepEnv { return s.OutEnv }
func (s *Take) stepNode()    {}

// OrderKey is one sort key of an Order step.
type OrderKey struct {
	Exp        Exp
	Descending bool
}

// Order establishes the declared row order.
type Order struct {
	Keys   []OrderKey
	OutEnv StepEnv
}

func (s *Order) Env() StepEnv { return s.OutEnv }
func (s *Order) stepNode()    {}

// GroupKey is one `label = expr` grouping key.
type GroupKey struct {
	Label string
	Exp   Exp
}

// Aggregate is one computed aggregate of a Group step. Fn is the
// aggregate function, applied to the list of grouped values of Arg.
type Aggregate struct {
	Label string
	Fn    Exp
	Arg   Exp // per-row value; the whole row when the source has no `of`
}

// Group groups by a key tuple and computes aggregates; one output row per
// distinct key, unordered.
type Group struct {
	Keys       []GroupKey
	Aggregates []Aggregate
	OutEnv     StepEnv
}

func (s *Group) Env() StepEnv { return s.OutEnv }
func (s *Group) stepNode()    {}

// Yield replaces each row with the value of an expression.
type Yield struct {
	Exp    Exp
	OutEnv StepEnv
}

func (s *Yield) Env() StepEnv { return s.OutEnv }
func (s *Yield) stepNode()    {}

// Unorder discards the row order, producing a bag.
type Unorder struct {
	OutEnv StepEnv
}

func (s *Unorder) Env() StepEnv { return s.OutEnv }
func (s *Unorder) stepNode()    {}

// SetOpKind enumerates the set-operation steps.
type SetOpKind int

const (
	UnionOp SetOpKind = iota
	IntersectOp
	ExceptOp
)

// SetOp is union/intersect/except against one or more argument
// collections, with bag semantics unless Distinct.
type SetOp struct {
	Kind     SetOpKind
	Args     []Exp
	Distinct bool
	OutEnv   StepEnv
}

func (s *SetOp) Env() StepEnv { return s.OutEnv }
func (s *SetOp) stepNode()    {}
