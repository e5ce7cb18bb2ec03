package resolver

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

// Overloaded operators dispatch on the inferred type at compile time: the
// resolver chooses the specific built-in instance here, so the evaluator
// never tests value kinds (spec.md Sec. 4.7).

func (r *Resolver) resolveBinary(e *ast.BinaryOp, env *types.Env) (core.Exp, error) {
	l, err := r.ResolveExp(e.Left, env)
	if err != nil {
		return nil, err
	}
	rr, err := r.ResolveExp(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+", "-", "*":
		if err := r.unify(l.Type(), rr.Type(), e.Pos); err != nil {
			return nil, err
		}
		operand, err := r.numericOperand(l.Type(), e.Pos)
		if err != nil {
			return nil, err
		}
		tags := map[string]map[string]eval.BuiltIn{
			"+": {"int": eval.OpPlusInt, "real": eval.OpPlusReal},
			"-": {"int": eval.OpMinusInt, "real": eval.OpMinusReal},
			"*": {"int": eval.OpTimesInt, "real": eval.OpTimesReal},
		}
		return r.opApply(tags[e.Op][operand.(*types.Primitive).Name], l, rr, operand, operand, e.Pos), nil

	case "/":
		if err := r.unify(l.Type(), types.Real, e.Left.Position()); err != nil {
			return nil, err
		}
		if err := r.unify(rr.Type(), types.Real, e.Right.Position()); err != nil {
			return nil, err
		}
		return r.opApply(eval.OpDivideReal, l, rr, types.Real, types.Real, e.Pos), nil

	case "div", "mod":
		if err := r.unify(l.Type(), types.Int, e.Left.Position()); err != nil {
			return nil, err
		}
		if err := r.unify(rr.Type(), types.Int, e.Right.Position()); err != nil {
			return nil, err
		}
		tag := eval.OpDivInt
		if e.Op == "mod" {
			tag = eval.OpModInt
		}
		return r.opApply(tag, l, rr, types.Int, types.Int, e.Pos), nil

	case "<", "<=", ">", ">=":
		if err := r.unify(l.Type(), rr.Type(), e.Pos); err != nil {
			return nil, err
		}
		operand, err := r.orderedOperand(l.Type(), e.Pos)
		if err != nil {
			return nil, err
		}
		prefix := map[string]string{"<": "OP_LT_", "<=": "OP_LE_", ">": "OP_GT_", ">=": "OP_GE_"}[e.Op]
		suffix := map[string]string{"int": "INT", "real": "REAL", "string": "STRING", "char": "CHAR"}[operand.(*types.Primitive).Name]
		return r.opApply(eval.BuiltIn(prefix+suffix), l, rr, operand, types.Bool, e.Pos), nil

	case "=", "<>":
		eq := types.NewEqualityTypeVar()
		if err := r.unify(l.Type(), eq, e.Left.Position()); err != nil {
			return nil, err
		}
		if err := r.unify(rr.Type(), eq, e.Right.Position()); err != nil {
			return nil, err
		}
		tag := eval.OpEq
		if e.Op == "<>" {
			tag = eval.OpNe
		}
		return r.opApply(tag, l, rr, eq, types.Bool, e.Pos), nil

	case "::":
		if err := r.unify(rr.Type(), &types.List{Element: l.Type()}, e.Pos); err != nil {
			return nil, err
		}
		return r.opApply2(eval.OpCons, l, rr, rr.Type(), e.Pos), nil

	case "@":
		elem := types.NewTypeVar()
		if err := r.unify(l.Type(), &types.List{Element: elem}, e.Left.Position()); err != nil {
			return nil, err
		}
		if err := r.unify(rr.Type(), l.Type(), e.Pos); err != nil {
			return nil, err
		}
		return r.opApply2(eval.OpAt, l, rr, l.Type(), e.Pos), nil

	case "^":
		if err := r.unify(l.Type(), types.String, e.Left.Position()); err != nil {
			return nil, err
		}
		if err := r.unify(rr.Type(), types.String, e.Right.Position()); err != nil {
			return nil, err
		}
		return r.opApply(eval.OpCaret, l, rr, types.String, types.String, e.Pos), nil

	default:
		return nil, r.errf(e.Pos, "unknown operator %q", e.Op)
	}
}

// numericOperand resolves the operand type of an arithmetic operator,
// defaulting an unconstrained type variable to int (SML's default
// overloading rule).
func (r *Resolver) numericOperand(t types.Type, pos ast.Pos) (types.Type, error) {
	resolved := r.apply(t)
	if _, ok := resolved.(*types.TVar); ok {
		if err := r.unify(resolved, types.Int, pos); err != nil {
			return nil, err
		}
		return types.Int, nil
	}
	if p, ok := resolved.(*types.Primitive); ok && (p.Name == "int" || p.Name == "real") {
		return p, nil
	}
	return nil, r.errf(pos, "operator requires int or real operands, got %s", resolved)
}

func (r *Resolver) orderedOperand(t types.Type, pos ast.Pos) (types.Type, error) {
	resolved := r.apply(t)
	if _, ok := resolved.(*types.TVar); ok {
		if err := r.unify(resolved, types.Int, pos); err != nil {
			return nil, err
		}
		return types.Int, nil
	}
	if p, ok := resolved.(*types.Primitive); ok {
		switch p.Name {
		case "int", "real", "string", "char":
			return p, nil
		}
	}
	return nil, r.errf(pos, "comparison requires int, real, string, or char operands, got %s", resolved)
}

// opApply builds `Apply(tag, (l, r))` for an operator whose operands both
// have type operand and whose result has type result.
func (r *Resolver) opApply(tag eval.BuiltIn, l, rr core.Exp, operand, result types.Type, pos ast.Pos) core.Exp {
	fnTy := &types.Fn{
		Param:  &types.Tuple{Elements: []types.Type{operand, operand}},
		Result: result,
	}
	return &core.Apply{
		Fn:  core.FnLiteral(string(tag), fnTy),
		Arg: core.NewTuple([]core.Exp{l, rr}),
		Ty:  result,
		Pos: pos,
	}
}

// opApply2 is opApply for operators whose operand types differ (`::`, `@`).
func (r *Resolver) opApply2(tag eval.BuiltIn, l, rr core.Exp, result types.Type, pos ast.Pos) core.Exp {
	fnTy := &types.Fn{
		Param:  &types.Tuple{Elements: []types.Type{l.Type(), rr.Type()}},
		Result: result,
	}
	return &core.Apply{
		Fn:  core.FnLiteral(string(tag), fnTy),
		Arg: core.NewTuple([]core.Exp{l, rr}),
		Ty:  result,
		Pos: pos,
	}
}

func (r *Resolver) resolveUnary(e *ast.UnaryOp, env *types.Env) (core.Exp, error) {
	operand, err := r.ResolveExp(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "~":
		t, err := r.numericOperand(operand.Type(), e.Pos)
		if err != nil {
			return nil, err
		}
		tag := eval.OpNegateInt
		if t.(*types.Primitive).Name == "real" {
			tag = eval.OpNegateReal
		}
		return &core.Apply{
			Fn:  core.FnLiteral(string(tag), &types.Fn{Param: t, Result: t}),
			Arg: operand,
			Ty:  t,
			Pos: e.Pos,
		}, nil
	case "not":
		if err := r.unify(operand.Type(), types.Bool, e.Pos); err != nil {
			return nil, err
		}
		return &core.Apply{
			Fn:  core.FnLiteral(string(eval.OpNot), &types.Fn{Param: types.Bool, Result: types.Bool}),
			Arg: operand,
			Ty:  types.Bool,
			Pos: e.Pos,
		}, nil
	default:
		return nil, r.errf(e.Pos, "unknown unary operator %q", e.Op)
	}
}
