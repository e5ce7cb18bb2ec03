package resolver

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/types"
)

// resolvePat converts a surface pattern to a core pattern, unifying with
// the expected (scrutinee) type and collecting the bindings it
// introduces. Fresh type variables are assigned where types are not
// explicit (spec.md Sec. 4.3 point 1).
func (r *Resolver) resolvePat(p ast.Pattern, expected types.Type, env *types.Env) (core.Pat, []core.Binding, error) {
	var bindings []core.Binding
	seen := make(map[string]bool)
	pat, err := r.pat(p, expected, &bindings, seen)
	if err != nil {
		return nil, nil, err
	}
	return pat, bindings, nil
}

func (r *Resolver) pat(p ast.Pattern, expected types.Type, bindings *[]core.Binding, seen map[string]bool) (core.Pat, error) {
	switch p := p.(type) {
	case *ast.Ident:
		// A lowercase identifier that names a nullary constructor in scope
		// matches that constructor, not a fresh binding.
		if dt, ctor, ok := r.Registry.LookupConstructor(p.Name); ok && ctor.Arg == nil {
			return r.conPat(dt, ctor, nil, expected, bindings, seen, p.Pos)
		}
		if seen[p.Name] {
			return nil, r.errf(p.Pos, "duplicate variable %q in pattern", p.Name)
		}
		seen[p.Name] = true
		ord := r.ordinal(p.Name)
		*bindings = append(*bindings, core.Binding{Name: p.Name, Ordinal: ord, Ty: expected})
		return &core.Id{Name: p.Name, Ordinal: ord, Ty: expected, Pos: p.Pos}, nil

	case *ast.WildcardPat:
		return &core.WildcardPat{Ty: expected}, nil

	case *ast.Literal:
		lit, err := r.resolveLiteral(p)
		if err != nil {
			return nil, err
		}
		l := lit.(*core.Literal)
		if err := r.unify(expected, l.Ty, p.Pos); err != nil {
			return nil, err
		}
		return l, nil

	case *ast.ConsPat:
		elem := types.Type(types.NewTypeVar())
		listTy := &types.List{Element: elem}
		if err := r.unify(expected, listTy, p.Pos); err != nil {
			return nil, err
		}
		head, err := r.pat(p.Head, elem, bindings, seen)
		if err != nil {
			return nil, err
		}
		tail, err := r.pat(p.Tail, listTy, bindings, seen)
		if err != nil {
			return nil, err
		}
		return &core.ConsPat{Head: head, Tail: tail, Ty: listTy}, nil

	case *ast.ListPat:
		elem := types.Type(types.NewTypeVar())
		listTy := &types.List{Element: elem}
		if err := r.unify(expected, listTy, p.Pos); err != nil {
			return nil, err
		}
		elems := make([]core.Pat, len(p.Elements))
		for i, el := range p.Elements {
			c, err := r.pat(el, elem, bindings, seen)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &core.ListPat{Elements: elems, Ty: listTy}, nil

	case *ast.TuplePat:
		elemTys := make([]types.Type, len(p.Elements))
		for i := range p.Elements {
			elemTys[i] = types.NewTypeVar()
		}
		tupleTy := &types.Tuple{Elements: elemTys}
		if err := r.unify(expected, tupleTy, p.Pos); err != nil {
			return nil, err
		}
		elems := make([]core.Pat, len(p.Elements))
		for i, el := range p.Elements {
			c, err := r.pat(el, elemTys[i], bindings, seen)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &core.TuplePat{Elements: elems, Ty: tupleTy}, nil

	case *ast.RecordPat:
		return r.recordPat(p, expected, bindings, seen)

	case *ast.ConPat:
		dt, ctor, ok := r.Registry.LookupConstructor(p.Ctor)
		if !ok {
			return nil, r.errf(p.Pos, "unknown constructor %q", p.Ctor)
		}
		return r.conPat(dt, ctor, p.Arg, expected, bindings, seen, p.Pos)

	case *ast.AnnotatedPat:
		want, err := r.resolveTypeExpr(p.Type, nil)
		if err != nil {
			return nil, err
		}
		if err := r.unify(expected, want, p.Pos); err != nil {
			return nil, err
		}
		return r.pat(p.Pattern, expected, bindings, seen)

	default:
		return nil, r.errf(p.Position(), "unsupported pattern %T", p)
	}
}

// recordPat materializes every field of the record type: fields omitted
// under `...` get fresh wildcards (spec.md Sec. 4.3 point 4). Without
// `...` the pattern's labels fix the record type exactly.
func (r *Resolver) recordPat(p *ast.RecordPat, expected types.Type, bindings *[]core.Binding, seen map[string]bool) (core.Pat, error) {
	byLabel := make(map[string]ast.Pattern, len(p.Fields))
	for _, f := range p.Fields {
		byLabel[f.Label] = f.Value
	}

	var recTy *types.Record
	if p.Rest {
		// The ellipsis needs the scrutinee's full field set.
		resolved := r.apply(expected)
		rec, ok := resolved.(*types.Record)
		if !ok {
			return nil, r.errf(p.Pos, "cannot resolve `...` in record pattern: record type not known here")
		}
		for l := range byLabel {
			if _, ok := rec.Fields[l]; !ok {
				return nil, &TypeError{Pos: p.Pos, Wrapped: &types.FieldMismatchError{
					T1: rec, T2: rec, Field: l, Pos: p.Pos.String()}}
			}
		}
		recTy = rec
	} else {
		fields := make(map[string]types.Type, len(p.Fields))
		for l := range byLabel {
			fields[l] = types.NewTypeVar()
		}
		recTy = &types.Record{Fields: fields}
		if err := r.unify(expected, recTy, p.Pos); err != nil {
			return nil, err
		}
	}

	labels := recTy.SortedLabels()
	pats := make([]core.Pat, len(labels))
	for i, l := range labels {
		fieldTy := recTy.Fields[l]
		if sub, ok := byLabel[l]; ok {
			c, err := r.pat(sub, fieldTy, bindings, seen)
			if err != nil {
				return nil, err
			}
			pats[i] = c
		} else {
			pats[i] = &core.WildcardPat{Ty: fieldTy}
		}
	}
	return &core.RecordPat{Labels: labels, Fields: pats, Ty: recTy}, nil
}

func (r *Resolver) conPat(dt *types.Datatype, ctor *types.Constructor, arg ast.Pattern, expected types.Type, bindings *[]core.Binding, seen map[string]bool, pos ast.Pos) (core.Pat, error) {
	s := make(types.Substitution, len(dt.Params))
	tyArgs := make([]types.Type, len(dt.Params))
	for i, param := range dt.Params {
		fresh := types.NewTypeVar()
		s[param.ID] = fresh
		tyArgs[i] = fresh
	}
	dtTy := &types.DatatypeApp{Datatype: dt, Args: tyArgs}
	if err := r.unify(expected, dtTy, pos); err != nil {
		return nil, err
	}
	if ctor.Arg == nil {
		if arg != nil {
			return nil, r.errf(pos, "constructor %s takes no argument", ctor.Name)
		}
		return &core.ConPat{Ctor: ctor.Name, Datatype: dt, Ty: dtTy}, nil
	}
	if arg == nil {
		return nil, r.errf(pos, "constructor %s requires an argument", ctor.Name)
	}
	argTy := types.ApplySubstitution(s, ctor.Arg)
	argPat, err := r.pat(arg, argTy, bindings, seen)
	if err != nil {
		return nil, err
	}
	return &core.ConPat{Ctor: ctor.Name, Datatype: dt, Arg: argPat, Ty: dtTy}, nil
}
