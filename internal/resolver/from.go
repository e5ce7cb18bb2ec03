package resolver

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/types"
)

// resolveFrom types a `from` comprehension, computing the StepEnv of each
// step as it goes (spec.md Sec. 4.3 point 7). Open Question (b) is
// resolved (DESIGN.md): a `from` must have at least one clause.
func (r *Resolver) resolveFrom(e *ast.FromExpr, env *types.Env) (core.Exp, error) {
	if len(e.Clauses) == 0 {
		return nil, r.errf(e.Pos, "`from` requires at least one clause")
	}
	b := core.NewFromBuilder()
	stepEnv := env

	for _, clause := range e.Clauses {
		rhs, err := r.ResolveExp(clause.Rhs, stepEnv)
		if err != nil {
			return nil, err
		}
		if clause.Bind {
			// `x = e` binds x to a single value: a scan over a singleton.
			pat, _, err := r.resolvePat(clause.Var, rhs.Type(), stepEnv)
			if err != nil {
				return nil, err
			}
			source := &core.List{Elements: []core.Exp{rhs}, Ty: &types.List{Element: rhs.Type()}}
			b.Scan(pat, source, nil, true)
		} else {
			elem := types.Type(types.NewTypeVar())
			if err := r.unify(rhs.Type(), &types.List{Element: elem}, clause.Rhs.Position()); err != nil {
				return nil, err
			}
			pat, _, err := r.resolvePat(clause.Var, elem, stepEnv)
			if err != nil {
				return nil, err
			}
			b.Scan(pat, rhs, nil, true)
		}
		stepEnv = r.stepTypeEnv(env, b.Env())
	}

	for _, step := range e.Steps {
		switch step.Kind {
		case ast.StepWhere:
			cond, err := r.ResolveExp(step.Cond, stepEnv)
			if err != nil {
				return nil, err
			}
			if err := r.unify(cond.Type(), types.Bool, step.Pos); err != nil {
				return nil, err
			}
			b.Where(cond)

		case ast.StepSkip, ast.StepTake:
			count, err := r.ResolveExp(step.Count, env)
			if err != nil {
				return nil, err
			}
			if err := r.unify(count.Type(), types.Int, step.Pos); err != nil {
				return nil, err
			}
			if step.Kind == ast.StepSkip {
				b.Skip(count)
			} else {
				b.Take(count)
			}

		case ast.StepOrder:
			keys := make([]core.OrderKey, len(step.Keys))
			for i, k := range step.Keys {
				keyExp, err := r.ResolveExp(k.Expr, stepEnv)
				if err != nil {
					return nil, err
				}
				keys[i] = core.OrderKey{Exp: keyExp, Descending: k.Descending}
			}
			b.Order(keys)

		case ast.StepGroup:
			if err := r.resolveGroup(step, b, stepEnv, env); err != nil {
				return nil, err
			}

		case ast.StepDistinct:
			// `distinct` is grouping by every current binding.
			keys := make([]core.GroupKey, len(b.Env().Bindings))
			for i, bd := range b.Env().Bindings {
				keys[i] = core.GroupKey{
					Label: bd.Name,
					Exp:   &core.Id{Name: bd.Name, Ordinal: bd.Ordinal, Ty: bd.Ty},
				}
			}
			b.Group(keys, nil)

		case ast.StepUnorder:
			b.Unorder()

		case ast.StepYield:
			y, err := r.ResolveExp(step.Yield, stepEnv)
			if err != nil {
				return nil, err
			}
			b.Yield(y)

		case ast.StepUnion, ast.StepIntersect, ast.StepExcept:
			rowTy := b.RowType()
			args := make([]core.Exp, len(step.SetArgs))
			for i, a := range step.SetArgs {
				arg, err := r.ResolveExp(a, env)
				if err != nil {
					return nil, err
				}
				if err := r.unify(arg.Type(), &types.List{Element: rowTy}, a.Position()); err != nil {
					return nil, err
				}
				args[i] = arg
			}
			kind := map[ast.StepKind]core.SetOpKind{
				ast.StepUnion:     core.UnionOp,
				ast.StepIntersect: core.IntersectOp,
				ast.StepExcept:    core.ExceptOp,
			}[step.Kind]
			b.SetOp(kind, args, step.Distinct, true)

		default:
			return nil, r.errf(step.Pos, "unsupported from step")
		}
		stepEnv = r.stepTypeEnv(env, b.Env())
	}

	return b.Build(), nil
}

// resolveGroup types a `group k = e, ... compute {c = agg of e, ...}`
// step. Aggregate functions take the list of grouped argument values.
func (r *Resolver) resolveGroup(step ast.FromStep, b *core.FromBuilder, stepEnv, outer *types.Env) error {
	keys := make([]core.GroupKey, len(step.GroupKeys))
	for i, k := range step.GroupKeys {
		keyExp, err := r.ResolveExp(k.Expr, stepEnv)
		if err != nil {
			return err
		}
		keys[i] = core.GroupKey{Label: k.Label, Exp: keyExp}
	}
	aggs := make([]core.Aggregate, len(step.Aggregates))
	for i, a := range step.Aggregates {
		var arg core.Exp
		var err error
		if a.Of != nil {
			arg, err = r.ResolveExp(a.Of, stepEnv)
		} else {
			arg, err = r.rowExp(b.Env())
		}
		if err != nil {
			return err
		}
		listTy := &types.List{Element: arg.Type()}
		fn, _, err := r.resolveAggFn(a.Fn, listTy, outer, step.Pos)
		if err != nil {
			return err
		}
		aggs[i] = core.Aggregate{Label: a.Label, Fn: fn, Arg: arg}
	}
	b.Group(keys, aggs)
	return nil
}

// resolveAggFn resolves the aggregate function against the grouped-list
// argument type, going through overload resolution for overloaded names
// such as `sum`.
func (r *Resolver) resolveAggFn(fnExpr ast.Expr, argTy types.Type, env *types.Env, pos ast.Pos) (core.Exp, types.Type, error) {
	if id, ok := fnExpr.(*ast.Ident); ok {
		if _, bound := env.Lookup(id.Name); !bound && r.Overloads.IsOverloaded(id.Name) {
			inst, sub, err := r.Overloads.Resolve(id.Name, r.apply(argTy), r.sub, pos.String())
			if err != nil {
				return nil, nil, &TypeError{Pos: pos, Wrapped: err}
			}
			r.sub = sub
			instTy := inst.Type.Instantiate()
			result := types.NewTypeVar()
			if err := r.unify(instTy, &types.Fn{Param: argTy, Result: result}, pos); err != nil {
				return nil, nil, err
			}
			if entry, ok := r.builtins[inst.CoreName]; ok {
				return core.FnLiteral(string(entry.Tag), instTy), result, nil
			}
			return &core.Id{Name: inst.CoreName, Ty: instTy, Pos: pos}, result, nil
		}
	}
	fn, err := r.ResolveExp(fnExpr, env)
	if err != nil {
		return nil, nil, err
	}
	result := types.NewTypeVar()
	if err := r.unify(fn.Type(), &types.Fn{Param: argTy, Result: result}, pos); err != nil {
		return nil, nil, err
	}
	return fn, result, nil
}

// rowExp materializes the current row as an expression: the atom binding
// itself, or the record of every binding.
func (r *Resolver) rowExp(env core.StepEnv) (core.Exp, error) {
	if env.Atom && len(env.Bindings) == 1 {
		bd := env.Bindings[0]
		return &core.Id{Name: bd.Name, Ordinal: bd.Ordinal, Ty: bd.Ty}, nil
	}
	labels := make([]string, len(env.Bindings))
	args := make([]core.Exp, len(env.Bindings))
	for i, bd := range env.Bindings {
		labels[i] = bd.Name
		args[i] = &core.Id{Name: bd.Name, Ordinal: bd.Ordinal, Ty: bd.Ty}
	}
	sortWithArgs(labels, args)
	return core.NewRecord(labels, args)
}

func sortWithArgs(labels []string, args []core.Exp) {
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && types.LabelLess(labels[j], labels[j-1]); j-- {
			labels[j], labels[j-1] = labels[j-1], labels[j]
			args[j], args[j-1] = args[j-1], args[j]
		}
	}
}

// stepTypeEnv projects a StepEnv into the type environment used to
// resolve the expressions of subsequent steps.
func (r *Resolver) stepTypeEnv(outer *types.Env, env core.StepEnv) *types.Env {
	if len(env.Bindings) == 0 {
		return outer
	}
	m := make(map[string]*types.Forall, len(env.Bindings))
	for _, bd := range env.Bindings {
		m[bd.Name] = types.Monomorphic(bd.Ty)
	}
	return outer.ExtendMany(m)
}
