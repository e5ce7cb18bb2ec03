package resolver

import (
	"fmt"

	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/types"
)

// ResolveDecl infers and lowers one declaration, returning the core form
// and the environment extended with the declared bindings. On error the
// input environment is unchanged (spec.md Sec. 7: declarations commit
// atomically).
func (r *Resolver) ResolveDecl(d ast.Decl, env *types.Env) (core.Decl, *types.Env, error) {
	switch d := d.(type) {
	case *ast.ValDecl:
		if d.Rec {
			return r.resolveRecGroup([]recSource{{name: nameOfPattern(d.Pattern), value: d.Value, pos: d.Pos}}, env)
		}
		return r.resolveNonRecVal(d, env)

	case *ast.FunDecl:
		return r.resolveRecGroup([]recSource{funSource(d)}, env)

	case *ast.AndDecl:
		sources := make([]recSource, 0, len(d.Decls))
		for _, member := range d.Decls {
			switch m := member.(type) {
			case *ast.ValDecl:
				sources = append(sources, recSource{name: nameOfPattern(m.Pattern), value: m.Value, pos: m.Pos})
			case *ast.FunDecl:
				sources = append(sources, funSource(m))
			default:
				return nil, nil, r.errf(member.Position(), "only val/fun declarations may be joined with `and`")
			}
		}
		return r.resolveRecGroup(sources, env)

	case *ast.DatatypeDecl:
		return r.resolveDatatypeDecl(d, env)

	case *ast.TypeDecl:
		tvars := make(map[string]*types.TVar, len(d.Params))
		params := make([]*types.TVar, len(d.Params))
		for i, p := range d.Params {
			tv := types.NewTypeVar()
			tvars[p] = tv
			params[i] = tv
		}
		body, err := r.resolveTypeExpr(d.Def, tvars)
		if err != nil {
			return nil, nil, err
		}
		r.aliases[d.Name] = aliasDef{params: params, body: body}
		return &core.TypeDecl{Name: d.Name, Ty: body}, env, nil

	case *ast.OverDecl:
		r.Overloads.Declare(d.Name)
		return &core.OverDecl{Name: d.Name}, env, nil

	case *ast.InstDecl:
		return r.resolveInstDecl(d, env)

	case *ast.ExprDecl:
		// The Session wraps bare expressions as `val it = e` before
		// resolution; a raw ExprDecl reaching here binds `it` directly.
		return r.resolveNonRecVal(&ast.ValDecl{
			Pattern: &ast.Ident{Name: "it", Pos: d.Pos},
			Value:   d.Value,
			Pos:     d.Pos,
		}, env)

	default:
		return nil, nil, r.errf(d.Position(), "unsupported declaration %T", d)
	}
}

func (r *Resolver) resolveNonRecVal(d *ast.ValDecl, env *types.Env) (core.Decl, *types.Env, error) {
	value, err := r.ResolveExp(d.Value, env)
	if err != nil {
		return nil, nil, err
	}
	pat, bindings, err := r.resolvePat(d.Pattern, value.Type(), env)
	if err != nil {
		return nil, nil, err
	}
	r.zonkExp(value)
	r.zonkPat(pat)
	decl, err := core.NewValDecl(pat, value)
	if err != nil {
		return nil, nil, r.errf(d.Pos, "%v", err)
	}
	schemes := make(map[string]*types.Forall, len(bindings))
	for _, b := range bindings {
		schemes[b.Name] = types.Generalize(env, r.apply(b.Ty))
	}
	return decl, env.ExtendMany(schemes), nil
}

// recSource is one member of a (possibly mutually) recursive binding
// group: a name and its function-valued body.
type recSource struct {
	name  string
	value ast.Expr
	pos   ast.Pos
}

// funSource lowers a `fun` declaration to a recSource whose value is the
// `fn`/`case` form: `fun f p1 ... pn = e | ...` becomes
// `fn v1 => ... => fn vn => case (v1, ..., vn) of (p1, ..., pn) => e | ...`
// (spec.md Sec. 4.3 point 4).
func funSource(d *ast.FunDecl) recSource {
	n := len(d.Clauses[0].Params)
	pos := d.Pos

	if n == 1 {
		arms := make([]ast.MatchArm, len(d.Clauses))
		for i, c := range d.Clauses {
			arms[i] = ast.MatchArm{Pattern: c.Params[0], Body: c.Body, Pos: c.Pos}
		}
		return recSource{name: d.Name, value: lambdaOverArms(arms, pos), pos: pos}
	}

	// Curried parameters: fresh names matched all at once as a tuple.
	paramNames := make([]string, n)
	scrutElems := make([]ast.Expr, n)
	for i := 0; i < n; i++ {
		paramNames[i] = fmt.Sprintf("$v%d", i)
		scrutElems[i] = &ast.Ident{Name: paramNames[i], Pos: pos}
	}
	arms := make([]ast.MatchArm, len(d.Clauses))
	for i, c := range d.Clauses {
		arms[i] = ast.MatchArm{
			Pattern: &ast.TuplePat{Elements: c.Params, Pos: c.Pos},
			Body:    c.Body,
			Pos:     c.Pos,
		}
	}
	body := ast.Expr(&ast.CaseExpr{
		Scrutinee: &ast.TupleExpr{Elements: scrutElems, Pos: pos},
		Arms:      arms,
		Pos:       pos,
	})
	for i := n - 1; i >= 0; i-- {
		body = &ast.Lambda{Param: &ast.Ident{Name: paramNames[i], Pos: pos}, Body: body, Pos: pos}
	}
	return recSource{name: d.Name, value: body, pos: pos}
}

func lambdaOverArms(arms []ast.MatchArm, pos ast.Pos) ast.Expr {
	if len(arms) == 1 {
		return &ast.Lambda{Param: arms[0].Pattern, Body: arms[0].Body, Pos: pos}
	}
	return &ast.Lambda{
		Param: &ast.Ident{Name: "$fnarg", Pos: pos},
		Body: &ast.CaseExpr{
			Scrutinee: &ast.Ident{Name: "$fnarg", Pos: pos},
			Arms:      arms,
			Pos:       pos,
		},
		Pos: pos,
	}
}

func nameOfPattern(p ast.Pattern) string {
	if id, ok := p.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// resolveRecGroup handles `val rec` and `fun` groups: fresh type
// variables are introduced for each bound name, every body is inferred
// with those placeholders in scope, then the results are generalized
// together (spec.md Sec. 4.3 Termination).
func (r *Resolver) resolveRecGroup(sources []recSource, env *types.Env) (core.Decl, *types.Env, error) {
	placeholders := make(map[string]*types.Forall, len(sources))
	tvs := make([]types.Type, len(sources))
	for i, s := range sources {
		if s.name == "" {
			return nil, nil, r.errf(s.pos, "`val rec` requires a plain name on the left-hand side")
		}
		tv := types.NewTypeVar()
		tvs[i] = tv
		placeholders[s.name] = types.Monomorphic(tv)
	}
	groupEnv := env.ExtendMany(placeholders)

	recBindings := make([]core.RecBinding, len(sources))
	for i, s := range sources {
		value, err := r.ResolveExp(s.value, groupEnv)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := r.apply(value.Type()).(*types.Fn); !ok {
			return nil, nil, r.errf(s.pos, "`val rec` binding %q must be function-valued", s.name)
		}
		if err := r.unify(tvs[i], value.Type(), s.pos); err != nil {
			return nil, nil, err
		}
		recBindings[i] = core.RecBinding{
			Pat: &core.Id{Name: s.name, Ordinal: r.ordinal(s.name), Ty: tvs[i], Pos: s.pos},
			Exp: value,
		}
	}

	schemes := make(map[string]*types.Forall, len(sources))
	for i, s := range sources {
		r.zonkExp(recBindings[i].Exp)
		recBindings[i].Pat.Ty = r.apply(recBindings[i].Pat.Ty)
		schemes[s.name] = types.Generalize(env, r.apply(tvs[i]))
	}
	return &core.RecValDecl{Bindings: recBindings}, env.ExtendMany(schemes), nil
}

func (r *Resolver) resolveDatatypeDecl(d *ast.DatatypeDecl, env *types.Env) (core.Decl, *types.Env, error) {
	tvars := make(map[string]*types.TVar, len(d.Params))
	params := make([]*types.TVar, len(d.Params))
	for i, p := range d.Params {
		tv := types.NewTypeVar()
		tvars[p] = tv
		params[i] = tv
	}
	// Register the (empty) datatype first so recursive constructor
	// argument types like `'a tree * 'a * 'a tree` resolve.
	dt := r.Registry.Declare(d.Name, params, nil)
	// Redeclaration in the same session rebinds the interned object.
	dt.Params = params
	ctors := make([]types.Constructor, len(d.Ctors))
	seen := make(map[string]bool, len(d.Ctors))
	for i, c := range d.Ctors {
		if seen[c.Name] {
			return nil, nil, r.errf(d.Pos, "duplicate constructor %q", c.Name)
		}
		seen[c.Name] = true
		var argTy types.Type
		if c.Arg != nil {
			var err error
			argTy, err = r.resolveTypeExpr(c.Arg, tvars)
			if err != nil {
				return nil, nil, err
			}
		}
		ctors[i] = types.Constructor{Name: c.Name, Arg: argTy}
	}
	dt.Constructors = ctors
	return &core.DatatypeDecl{Datatype: dt}, env, nil
}

func (r *Resolver) resolveInstDecl(d *ast.InstDecl, env *types.Env) (core.Decl, *types.Env, error) {
	if !r.Overloads.IsOverloaded(d.Name) {
		return nil, nil, r.errf(d.Pos, "`inst` of %q without a prior `over` declaration", d.Name)
	}
	value, err := r.ResolveExp(d.Value, env)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := r.apply(value.Type()).(*types.Fn); !ok {
		return nil, nil, r.errf(d.Pos, "instance of %q must be function-valued", d.Name)
	}
	r.zonkExp(value)
	scheme := types.Generalize(env, r.apply(value.Type()))
	r.instSeq++
	coreName := fmt.Sprintf("$%s_%d", d.Name, r.instSeq)
	if err := r.Overloads.AddInstance(d.Name, &types.OverloadInstance{
		Name: d.Name, Type: scheme, CoreName: coreName,
	}); err != nil {
		return nil, nil, r.errf(d.Pos, "%v", err)
	}
	pat := &core.Id{Name: coreName, Ty: r.apply(value.Type()), Pos: d.Pos}
	return &core.NonRecValDecl{Pat: pat, Exp: value}, env.Extend(coreName, scheme), nil
}
