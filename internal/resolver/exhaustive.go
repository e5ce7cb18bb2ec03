package resolver

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

// checkMatch verifies a match's arms: every constructor variant of the
// scrutinee's type must be covered (else NonExhaustive, with a witness
// pattern), and no arm may be unreachable (RedundantMatch). Redundant
// arms are a hard error. A non-exhaustive match is a warning, and the
// match still compiles to code that raises Bind on fall-through, unless
// the session's StrictMatch policy is set, which makes it an error
// (spec.md Sec. 7, DESIGN.md Open Question (a)).
func (r *Resolver) checkMatch(arms []core.Match, scrutTy types.Type, pos ast.Pos) error {
	for i := range arms {
		if i > 0 && r.redundant(arms[i].Pat, arms[:i], scrutTy) {
			return &TypeError{Pos: pos, Wrapped: &types.RedundantMatchError{Pos: pos.String()}}
		}
	}
	if !r.covered(arms, scrutTy) {
		err := &types.NonExhaustiveError{Pos: pos.String(), Witness: r.witness(arms, scrutTy)}
		if r.StrictMatch {
			return &TypeError{Pos: pos, Wrapped: err}
		}
		r.Warnings = append(r.Warnings, err)
	}
	return nil
}

// irrefutable reports whether a pattern matches every value of its type.
func irrefutable(p core.Pat) bool {
	switch p := p.(type) {
	case *core.Id, *core.WildcardPat:
		return true
	case *core.TuplePat:
		for _, e := range p.Elements {
			if !irrefutable(e) {
				return false
			}
		}
		return true
	case *core.RecordPat:
		for _, e := range p.Fields {
			if !irrefutable(e) {
				return false
			}
		}
		return true
	case *core.ConPat:
		// Only irrefutable when the datatype has a single constructor.
		if p.Datatype == nil || len(p.Datatype.Constructors) != 1 {
			return false
		}
		return p.Arg == nil || irrefutable(p.Arg)
	default:
		return false
	}
}

// covered reports whether the arms jointly match every value of the
// scrutinee type. The analysis is constructor-level: nested refutable
// sub-patterns are treated conservatively as not covering.
func (r *Resolver) covered(arms []core.Match, scrutTy types.Type) bool {
	for _, arm := range arms {
		if irrefutable(arm.Pat) {
			return true
		}
	}
	switch t := r.apply(scrutTy).(type) {
	case *types.DatatypeApp:
		for _, ctor := range t.Datatype.Constructors {
			if !ctorCovered(arms, ctor.Name) {
				return false
			}
		}
		return true
	case *types.Primitive:
		if t.Name == "bool" {
			return literalCovered(arms, true) && literalCovered(arms, false)
		}
		if t.Name == "unit" {
			return len(arms) > 0
		}
		return false
	case *types.List:
		return nilCovered(arms) && consCovered(arms)
	default:
		return false
	}
}

func ctorCovered(arms []core.Match, ctor string) bool {
	for _, arm := range arms {
		if cp, ok := arm.Pat.(*core.ConPat); ok && cp.Ctor == ctor {
			if cp.Arg == nil || irrefutable(cp.Arg) {
				return true
			}
		}
	}
	return false
}

func literalCovered(arms []core.Match, want bool) bool {
	for _, arm := range arms {
		if lit, ok := arm.Pat.(*core.Literal); ok && lit.Kind == core.BoolLit && lit.Value == want {
			return true
		}
	}
	return false
}

func nilCovered(arms []core.Match) bool {
	for _, arm := range arms {
		if lp, ok := arm.Pat.(*core.ListPat); ok && len(lp.Elements) == 0 {
			return true
		}
	}
	return false
}

func consCovered(arms []core.Match) bool {
	for _, arm := range arms {
		if cp, ok := arm.Pat.(*core.ConsPat); ok {
			if irrefutable(cp.Head) && irrefutable(cp.Tail) {
				return true
			}
		}
	}
	return false
}

// redundant reports whether pat cannot fire given the earlier arms.
func (r *Resolver) redundant(pat core.Pat, earlier []core.Match, scrutTy types.Type) bool {
	if r.covered(earlier, scrutTy) {
		return true
	}
	switch p := pat.(type) {
	case *core.Literal:
		for _, arm := range earlier {
			if lit, ok := arm.Pat.(*core.Literal); ok && lit.Kind == p.Kind && eval.Equals(litValue(lit), litValue(p)) {
				return true
			}
		}
	case *core.ConPat:
		if p.Arg == nil || irrefutable(p.Arg) {
			return ctorCovered(earlier, p.Ctor)
		}
	case *core.ListPat:
		if len(p.Elements) == 0 {
			return nilCovered(earlier)
		}
	case *core.ConsPat:
		if irrefutable(p.Head) && irrefutable(p.Tail) {
			return consCovered(earlier)
		}
	}
	return false
}

func litValue(l *core.Literal) eval.Value {
	switch l.Kind {
	case core.IntLit:
		return &eval.IntValue{Value: l.Value.(int)}
	case core.RealLit:
		return &eval.RealValue{Value: l.Value.(float64)}
	case core.StringLit:
		return &eval.StringValue{Value: l.Value.(string)}
	case core.CharLit:
		return &eval.CharValue{Value: l.Value.(rune)}
	case core.BoolLit:
		return eval.Bool(l.Value.(bool))
	default:
		return eval.Unit
	}
}

// witness produces an example pattern the arms fail to match.
func (r *Resolver) witness(arms []core.Match, scrutTy types.Type) string {
	switch t := r.apply(scrutTy).(type) {
	case *types.DatatypeApp:
		for _, ctor := range t.Datatype.Constructors {
			if !ctorCovered(arms, ctor.Name) {
				if ctor.Arg == nil {
					return ctor.Name
				}
				return ctor.Name + " _"
			}
		}
	case *types.Primitive:
		if t.Name == "bool" {
			if !literalCovered(arms, true) {
				return "true"
			}
			return "false"
		}
	case *types.List:
		if !nilCovered(arms) {
			return "[]"
		}
		return "_ :: _"
	}
	return "_"
}
