package core

import (
	"fmt"

	"github.com/hydromatic/morel-go/internal/types"
)

// The builder is the single construction surface for core nodes,
// enforcing the invariants of spec.md Sec. 4.4: value types must be
// assignable to pattern types, common literals are interned, and certain
// shapes normalize on construction (1-arity tuples collapse to their sole
// element).

var (
	trueLit  = &Literal{Kind: BoolLit, Value: true, Ty: types.Bool}
	falseLit = &Literal{Kind: BoolLit, Value: false, Ty: types.Bool}
	unitLit  = &Literal{Kind: UnitLit, Ty: types.Unit}

	smallInts [256]*Literal
)

func init() {
	for i := range smallInts {
		smallInts[i] = &Literal{Kind: IntLit, Value: i, Ty: types.Int}
	}
}

// BoolLiteral returns the interned boolean literal.
func BoolLiteral(b bool) *Literal {
	if b {
		return trueLit
	}
	return falseLit
}

// UnitLiteral returns the interned unit literal.
func UnitLiteral() *Literal { return unitLit }

// IntLiteral interns small non-negative ints.
func IntLiteral(v int) *Literal {
	if v >= 0 && v < len(smallInts) {
		return smallInts[v]
	}
	return &Literal{Kind: IntLit, Value: v, Ty: types.Int}
}

// FnLiteral wraps a built-in tag as a function literal.
func FnLiteral(tag string, ty types.Type) *Literal {
	return &Literal{Kind: FnLit, Value: tag, Ty: ty}
}

// NewTuple builds a tuple, collapsing a 1-arity tuple to its sole value.
func NewTuple(args []Exp) Exp {
	if len(args) == 1 {
		return args[0]
	}
	elems := make([]types.Type, len(args))
	for i, a := range args {
		elems[i] = a.Type()
	}
	return &Tuple{Args: args, Ty: &types.Tuple{Elements: elems}}
}

// NewRecord builds a record tuple; labels must already be in canonical
// order (the resolver sorts with types.LabelLess before calling).
func NewRecord(labels []string, args []Exp) (*Tuple, error) {
	if len(labels) != len(args) {
		return nil, fmt.Errorf("record has %d labels but %d values", len(labels), len(args))
	}
	for i := 1; i < len(labels); i++ {
		if !types.LabelLess(labels[i-1], labels[i]) {
			return nil, fmt.Errorf("record labels out of canonical order: %q before %q", labels[i-1], labels[i])
		}
	}
	fields := make(map[string]types.Type, len(labels))
	for i, l := range labels {
		fields[l] = args[i].Type()
	}
	return &Tuple{Labels: labels, Args: args, Ty: &types.Record{Fields: fields}}, nil
}

// NewValDecl checks that the value's type is assignable to the pattern's
// type before building the binding (spec.md Sec. 4.4).
func NewValDecl(pat Pat, exp Exp) (*NonRecValDecl, error) {
	if !assignable(pat.Type(), exp.Type()) {
		return nil, fmt.Errorf("cannot assign value of type %s to pattern of type %s", exp.Type(), pat.Type())
	}
	return &NonRecValDecl{Pat: pat, Exp: exp}, nil
}

// assignable is structural compatibility modulo type variables (a type
// variable on either side is assignable; full equality was already
// established by unification in the resolver).
func assignable(pt, vt types.Type) bool {
	if _, ok := pt.(*types.TVar); ok {
		return true
	}
	if _, ok := vt.(*types.TVar); ok {
		return true
	}
	if f, ok := vt.(*types.Forall); ok {
		return assignable(pt, f.Body)
	}
	if f, ok := pt.(*types.Forall); ok {
		return assignable(f.Body, vt)
	}
	switch p := pt.(type) {
	case *types.Fn:
		v, ok := vt.(*types.Fn)
		return ok && assignable(p.Param, v.Param) && assignable(p.Result, v.Result)
	case *types.Tuple:
		v, ok := vt.(*types.Tuple)
		if !ok || len(p.Elements) != len(v.Elements) {
			return false
		}
		for i := range p.Elements {
			if !assignable(p.Elements[i], v.Elements[i]) {
				return false
			}
		}
		return true
	case *types.List:
		v, ok := vt.(*types.List)
		return ok && assignable(p.Element, v.Element)
	case *types.Record:
		v, ok := vt.(*types.Record)
		if !ok || len(p.Fields) != len(v.Fields) {
			return false
		}
		for name, ft := range p.Fields {
			vf, ok := v.Fields[name]
			if !ok || !assignable(ft, vf) {
				return false
			}
		}
		return true
	default:
		return pt.Equals(vt)
	}
}

// IfCase normalizes `if c then a else b` to its case form
// (spec.md Sec. 3: `if` is lowered to `case`).
func IfCase(cond, then, els Exp) *Case {
	return &Case{
		Scrutinee: cond,
		Arms: []Match{
			{Pat: &Literal{Kind: BoolLit, Value: true, Ty: types.Bool}, Exp: then},
			{Pat: &WildcardPat{Ty: types.Bool}, Exp: els},
		},
		Ty: then.Type(),
	}
}
