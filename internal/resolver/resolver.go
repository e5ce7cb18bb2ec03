// Package resolver implements type inference (Algorithm W with
// let-polymorphism) and lowering from the surface AST to the typed core
// tree. Each visit threads a substitution through unification; surface
// constructs absent from core (`if`, `fun`, multi-declaration `let`) are
// lowered here (spec.md Sec. 4.3).
package resolver

import (
	"fmt"

	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/library"
	"github.com/hydromatic/morel-go/internal/types"
)

// Resolver holds the state of one declaration's resolution: the threaded
// substitution, the datatype registry, the overload environment, and the
// library's built-in table.
type Resolver struct {
	Registry  *types.Registry
	Overloads *types.OverloadEnv

	// StrictMatch turns non-exhaustive matches into hard errors instead
	// of warnings (session policy, spec.md Sec. 7).
	StrictMatch bool
	// Warnings accumulates non-fatal diagnostics of the current
	// declaration.
	Warnings []error

	sub      types.Substitution
	aliases  map[string]aliasDef
	builtins map[string]library.Entry
	ordinals map[string]int
	instSeq  int
}

type aliasDef struct {
	params []*types.TVar
	body   types.Type
}

// New returns a Resolver over the given registry and overload
// environment. The overload environment is pre-seeded with the library's
// overloaded names (`abs`, `sum`).
func New(registry *types.Registry, overloads *types.OverloadEnv) *Resolver {
	r := &Resolver{
		Registry:  registry,
		Overloads: overloads,
		sub:       make(types.Substitution),
		aliases:   make(map[string]aliasDef),
		builtins:  make(map[string]library.Entry),
		ordinals:  make(map[string]int),
	}
	for _, e := range library.Entries() {
		r.builtins[e.Name] = e
	}
	for _, o := range library.Overloads() {
		overloads.Declare(o.Name)
		for _, inst := range o.Instances {
			_ = overloads.AddInstance(o.Name, &types.OverloadInstance{
				Name: o.Name, Type: inst.Scheme, CoreName: inst.CoreName,
			})
			r.builtins[inst.CoreName] = library.Entry{Name: inst.CoreName, Tag: inst.Tag, Scheme: inst.Scheme}
		}
	}
	return r
}

// InstBindings returns the internal bindings the session must install for
// the library's overload instances (core name to built-in tag).
func InstBindings() map[string]eval.BuiltIn {
	out := make(map[string]eval.BuiltIn)
	for _, o := range library.Overloads() {
		for _, inst := range o.Instances {
			out[inst.CoreName] = inst.Tag
		}
	}
	return out
}

// TypeError is a resolver failure with a source position; the declaration
// it arose in does not extend the environment (spec.md Sec. 7).
type TypeError struct {
	Pos     ast.Pos
	Wrapped error
}

func (e *TypeError) Error() string { return e.Wrapped.Error() }
func (e *TypeError) Unwrap() error { return e.Wrapped }

func (r *Resolver) errf(pos ast.Pos, format string, args ...interface{}) error {
	return &TypeError{Pos: pos, Wrapped: fmt.Errorf("%s: "+format, append([]interface{}{pos}, args...)...)}
}

func (r *Resolver) unify(t1, t2 types.Type, pos ast.Pos) error {
	sub, err := types.Unify(t1, t2, r.sub, pos.String())
	if err != nil {
		return &TypeError{Pos: pos, Wrapped: err}
	}
	r.sub = sub
	return nil
}

// apply resolves t under the current substitution.
func (r *Resolver) apply(t types.Type) types.Type {
	return types.ApplySubstitution(r.sub, t)
}

func (r *Resolver) ordinal(name string) int {
	r.ordinals[name]++
	return r.ordinals[name] - 1
}

// ResolveExp infers the type of e and lowers it to core.
func (r *Resolver) ResolveExp(e ast.Expr, env *types.Env) (core.Exp, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return r.resolveLiteral(e)

	case *ast.Ident:
		return r.resolveIdent(e, env)

	case *ast.Selector:
		// A bare `#label` needs its record type from context; only the
		// applied form `#label e` determines it (handled in Apply).
		return nil, r.errf(e.Pos, "cannot determine the record type of #%s; apply it to an argument", e.Field)

	case *ast.FieldAccess:
		return r.resolveFieldAccess(e, env)

	case *ast.TupleExpr:
		args := make([]core.Exp, len(e.Elements))
		for i, el := range e.Elements {
			a, err := r.ResolveExp(el, env)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return core.NewTuple(args), nil

	case *ast.RecordExpr:
		return r.resolveRecord(e, env)

	case *ast.ListExpr:
		elemTy := types.Type(types.NewTypeVar())
		elems := make([]core.Exp, len(e.Elements))
		for i, el := range e.Elements {
			c, err := r.ResolveExp(el, env)
			if err != nil {
				return nil, err
			}
			if err := r.unify(elemTy, c.Type(), el.Position()); err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &core.List{Elements: elems, Ty: &types.List{Element: elemTy}}, nil

	case *ast.Apply:
		return r.resolveApply(e, env)

	case *ast.BinaryOp:
		return r.resolveBinary(e, env)

	case *ast.UnaryOp:
		return r.resolveUnary(e, env)

	case *ast.AndAlso:
		// Short-circuit: `a andalso b` is `case a of true => b | _ => false`.
		return r.resolveShortCircuit(e.Left, e.Right, true, e.Pos, env)

	case *ast.OrElse:
		return r.resolveShortCircuit(e.Left, e.Right, false, e.Pos, env)

	case *ast.IfExpr:
		cond, err := r.ResolveExp(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if err := r.unify(cond.Type(), types.Bool, e.Cond.Position()); err != nil {
			return nil, err
		}
		then, err := r.ResolveExp(e.Then, env)
		if err != nil {
			return nil, err
		}
		els, err := r.ResolveExp(e.Else, env)
		if err != nil {
			return nil, err
		}
		if err := r.unify(then.Type(), els.Type(), e.Pos); err != nil {
			return nil, err
		}
		return core.IfCase(cond, then, els), nil

	case *ast.Lambda:
		paramTy := types.NewTypeVar()
		pat, bindings, err := r.resolvePat(e.Param, paramTy, env)
		if err != nil {
			return nil, err
		}
		bodyEnv := extendMono(env, bindings)
		body, err := r.ResolveExp(e.Body, bodyEnv)
		if err != nil {
			return nil, err
		}
		// A single-arm fn is a one-arm match; a refutable parameter
		// pattern leaves the function partial.
		if err := r.checkMatch([]core.Match{{Pat: pat, Exp: body}}, r.apply(paramTy), e.Pos); err != nil {
			return nil, err
		}
		return &core.Fn{Param: pat, Body: body, Ty: &types.Fn{Param: paramTy, Result: body.Type()}}, nil

	case *ast.CaseExpr:
		return r.resolveCase(e, env)

	case *ast.LetExpr:
		return r.resolveLet(e, env)

	case *ast.Annotated:
		inner, err := r.ResolveExp(e.Expr, env)
		if err != nil {
			return nil, err
		}
		want, err := r.resolveTypeExpr(e.Type, nil)
		if err != nil {
			return nil, err
		}
		if err := r.unify(inner.Type(), want, e.Pos); err != nil {
			return nil, err
		}
		return inner, nil

	case *ast.FromExpr:
		return r.resolveFrom(e, env)

	default:
		return nil, r.errf(e.Position(), "unsupported expression %T", e)
	}
}

func (r *Resolver) resolveLiteral(e *ast.Literal) (core.Exp, error) {
	switch e.Kind {
	case ast.IntLit:
		return core.IntLiteral(e.Value.(int)), nil
	case ast.RealLit:
		return &core.Literal{Kind: core.RealLit, Value: e.Value, Ty: types.Real}, nil
	case ast.StringLit:
		return &core.Literal{Kind: core.StringLit, Value: e.Value, Ty: types.String}, nil
	case ast.CharLit:
		return &core.Literal{Kind: core.CharLit, Value: e.Value, Ty: types.Char}, nil
	case ast.BoolLit:
		return core.BoolLiteral(e.Value.(bool)), nil
	case ast.UnitLit:
		return core.UnitLiteral(), nil
	default:
		return nil, r.errf(e.Pos, "unknown literal kind")
	}
}

func (r *Resolver) resolveIdent(e *ast.Ident, env *types.Env) (core.Exp, error) {
	if scheme, ok := env.Lookup(e.Name); ok {
		return &core.Id{Name: e.Name, Ty: scheme.Instantiate(), Pos: e.Pos}, nil
	}
	if entry, ok := r.builtins[e.Name]; ok {
		return r.builtinExp(entry), nil
	}
	if dt, ctor, ok := r.Registry.LookupConstructor(e.Name); ok {
		return r.ctorExp(dt, ctor), nil
	}
	if r.Overloads.IsOverloaded(e.Name) {
		return nil, &TypeError{Pos: e.Pos, Wrapped: &types.OverloadNoMatchError{
			Name: e.Name, ArgType: types.NewTypeVar(), Pos: e.Pos.String()}}
	}
	return nil, r.errf(e.Pos, "unbound name %q", e.Name)
}

func (r *Resolver) builtinExp(entry library.Entry) core.Exp {
	if entry.Value != nil {
		if rv, ok := entry.Value.(*eval.RealValue); ok {
			return &core.Literal{Kind: core.RealLit, Value: rv.Value, Ty: entry.Scheme.Instantiate()}
		}
	}
	return core.FnLiteral(string(entry.Tag), entry.Scheme.Instantiate())
}

// ctorExp builds the core form of a constructor reference: a constructed
// value for a nullary constructor, a function literal otherwise.
func (r *Resolver) ctorExp(dt *types.Datatype, ctor *types.Constructor) core.Exp {
	s := make(types.Substitution, len(dt.Params))
	args := make([]types.Type, len(dt.Params))
	for i, p := range dt.Params {
		fresh := types.NewTypeVar()
		s[p.ID] = fresh
		args[i] = fresh
	}
	result := types.Type(&types.DatatypeApp{Datatype: dt, Args: args})
	if ctor.Arg == nil {
		return core.FnLiteral("CON0:"+ctor.Name, result)
	}
	argTy := types.ApplySubstitution(s, ctor.Arg)
	return core.FnLiteral("CON:"+ctor.Name, &types.Fn{Param: argTy, Result: result})
}

func (r *Resolver) resolveFieldAccess(e *ast.FieldAccess, env *types.Env) (core.Exp, error) {
	// `List.map` style structure-qualified library names: the "record" is
	// an unbound module-like identifier known to the library.
	if id, ok := e.Record.(*ast.Ident); ok {
		if _, bound := env.Lookup(id.Name); !bound {
			if entry, ok := r.builtins[id.Name+"."+e.Field]; ok {
				return r.builtinExp(entry), nil
			}
		}
	}
	rec, err := r.ResolveExp(e.Record, env)
	if err != nil {
		return nil, err
	}
	sel, err := r.selector(e.Field, rec.Type(), e.Pos)
	if err != nil {
		return nil, err
	}
	fnTy := sel.Ty.(*types.Fn)
	return &core.Apply{Fn: sel, Arg: rec, Ty: fnTy.Result, Pos: e.Pos}, nil
}

// selector builds a RecordSelector for field against a (substituted)
// record type.
func (r *Resolver) selector(field string, recTy types.Type, pos ast.Pos) (*core.RecordSelector, error) {
	t := r.apply(recTy)
	rec, ok := t.(*types.Record)
	if !ok {
		return nil, r.errf(pos, "#%s applied to non-record type %s", field, t)
	}
	labels := rec.SortedLabels()
	for slot, l := range labels {
		if l == field {
			return &core.RecordSelector{
				Field: field,
				Slot:  slot,
				Ty:    &types.Fn{Param: rec, Result: rec.Fields[l]},
			}, nil
		}
	}
	return nil, &TypeError{Pos: pos, Wrapped: &types.FieldMismatchError{
		T1: rec, T2: rec, Field: field, Pos: pos.String()}}
}

func (r *Resolver) resolveRecord(e *ast.RecordExpr, env *types.Env) (core.Exp, error) {
	byLabel := make(map[string]core.Exp, len(e.Fields))
	for _, f := range e.Fields {
		v, err := r.ResolveExp(f.Value, env)
		if err != nil {
			return nil, err
		}
		byLabel[f.Label] = v
	}
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sortLabels(labels)
	args := make([]core.Exp, len(labels))
	for i, l := range labels {
		args[i] = byLabel[l]
	}
	rec, err := core.NewRecord(labels, args)
	if err != nil {
		return nil, r.errf(e.Pos, "%v", err)
	}
	return rec, nil
}

func (r *Resolver) resolveApply(e *ast.Apply, env *types.Env) (core.Exp, error) {
	// `#label arg`: the argument's record type fixes the selector.
	if sel, ok := e.Fn.(*ast.Selector); ok {
		arg, err := r.ResolveExp(e.Arg, env)
		if err != nil {
			return nil, err
		}
		s, err := r.selector(sel.Field, arg.Type(), sel.Pos)
		if err != nil {
			return nil, err
		}
		return &core.Apply{Fn: s, Arg: arg, Ty: s.Ty.(*types.Fn).Result, Pos: e.Pos}, nil
	}
	// Overloaded head: infer the argument first, then pick the unique
	// instance whose principal type unifies (spec.md Sec. 9).
	if id, ok := e.Fn.(*ast.Ident); ok {
		if _, bound := env.Lookup(id.Name); !bound && r.Overloads.IsOverloaded(id.Name) {
			return r.resolveOverloadedApply(id, e.Arg, e.Pos, env)
		}
	}
	fn, err := r.ResolveExp(e.Fn, env)
	if err != nil {
		return nil, err
	}
	arg, err := r.ResolveExp(e.Arg, env)
	if err != nil {
		return nil, err
	}
	result := types.NewTypeVar()
	if err := r.unify(fn.Type(), &types.Fn{Param: arg.Type(), Result: result}, e.Pos); err != nil {
		return nil, err
	}
	return &core.Apply{Fn: fn, Arg: arg, Ty: result, Pos: e.Pos}, nil
}

func (r *Resolver) resolveOverloadedApply(id *ast.Ident, argExpr ast.Expr, pos ast.Pos, env *types.Env) (core.Exp, error) {
	arg, err := r.ResolveExp(argExpr, env)
	if err != nil {
		return nil, err
	}
	inst, sub, err := r.Overloads.Resolve(id.Name, r.apply(arg.Type()), r.sub, pos.String())
	if err != nil {
		return nil, &TypeError{Pos: pos, Wrapped: err}
	}
	r.sub = sub
	instTy := inst.Type.Instantiate()
	result := types.NewTypeVar()
	if err := r.unify(instTy, &types.Fn{Param: arg.Type(), Result: result}, pos); err != nil {
		return nil, err
	}
	var fn core.Exp
	if entry, ok := r.builtins[inst.CoreName]; ok {
		fn = core.FnLiteral(string(entry.Tag), instTy)
	} else {
		fn = &core.Id{Name: inst.CoreName, Ty: instTy, Pos: pos}
	}
	return &core.Apply{Fn: fn, Arg: arg, Ty: result, Pos: pos}, nil
}

func (r *Resolver) resolveShortCircuit(left, right ast.Expr, isAnd bool, pos ast.Pos, env *types.Env) (core.Exp, error) {
	l, err := r.ResolveExp(left, env)
	if err != nil {
		return nil, err
	}
	if err := r.unify(l.Type(), types.Bool, left.Position()); err != nil {
		return nil, err
	}
	rr, err := r.ResolveExp(right, env)
	if err != nil {
		return nil, err
	}
	if err := r.unify(rr.Type(), types.Bool, right.Position()); err != nil {
		return nil, err
	}
	if isAnd {
		return core.IfCase(l, rr, core.BoolLiteral(false)), nil
	}
	return core.IfCase(l, core.BoolLiteral(true), rr), nil
}

func (r *Resolver) resolveCase(e *ast.CaseExpr, env *types.Env) (core.Exp, error) {
	scrut, err := r.ResolveExp(e.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	resultTy := types.Type(types.NewTypeVar())
	arms := make([]core.Match, len(e.Arms))
	for i, arm := range e.Arms {
		pat, bindings, err := r.resolvePat(arm.Pattern, scrut.Type(), env)
		if err != nil {
			return nil, err
		}
		body, err := r.ResolveExp(arm.Body, extendMono(env, bindings))
		if err != nil {
			return nil, err
		}
		if err := r.unify(resultTy, body.Type(), arm.Pos); err != nil {
			return nil, err
		}
		arms[i] = core.Match{Pat: pat, Exp: body}
	}
	if err := r.checkMatch(arms, r.apply(scrut.Type()), e.Pos); err != nil {
		return nil, err
	}
	return &core.Case{Scrutinee: scrut, Arms: arms, Ty: resultTy, Pos: e.Pos}, nil
}

func (r *Resolver) resolveLet(e *ast.LetExpr, env *types.Env) (core.Exp, error) {
	return r.resolveLetDecls(e.Decls, e.Body, env)
}

// resolveLetDecls lowers a multi-declaration let into nested single-
// binding Lets (spec.md Sec. 4.3 point 4).
func (r *Resolver) resolveLetDecls(decls []ast.Decl, body ast.Expr, env *types.Env) (core.Exp, error) {
	if len(decls) == 0 {
		return r.ResolveExp(body, env)
	}
	d, newEnv, err := r.ResolveDecl(decls[0], env)
	if err != nil {
		return nil, err
	}
	rest, err := r.resolveLetDecls(decls[1:], body, newEnv)
	if err != nil {
		return nil, err
	}
	if dt, ok := d.(*core.DatatypeDecl); ok {
		return &core.Local{Datatype: dt.Datatype, Body: rest}, nil
	}
	return &core.Let{Decl: d, Body: rest}, nil
}

func extendMono(env *types.Env, bindings []core.Binding) *types.Env {
	if len(bindings) == 0 {
		return env
	}
	m := make(map[string]*types.Forall, len(bindings))
	for _, b := range bindings {
		m[b.Name] = types.Monomorphic(b.Ty)
	}
	return env.ExtendMany(m)
}

func sortLabels(labels []string) {
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && types.LabelLess(labels[j], labels[j-1]); j-- {
			labels[j], labels[j-1] = labels[j-1], labels[j]
		}
	}
}
