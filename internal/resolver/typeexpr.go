package resolver

import (
	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/types"
)

var primitives = map[string]types.Type{
	"unit":   types.Unit,
	"bool":   types.Bool,
	"int":    types.Int,
	"real":   types.Real,
	"char":   types.Char,
	"string": types.String,
}

// resolveTypeExpr converts a surface type annotation to a resolved type.
// tvars scopes named type variables (`'a`) within one declaration; pass
// nil for an independent scope.
func (r *Resolver) resolveTypeExpr(t ast.TypeExpr, tvars map[string]*types.TVar) (types.Type, error) {
	if tvars == nil {
		tvars = make(map[string]*types.TVar)
	}
	switch t := t.(type) {
	case *ast.VarType:
		if tv, ok := tvars[t.Name]; ok {
			return tv, nil
		}
		tv := types.NewTypeVar()
		tv.Equality = t.Equality
		tvars[t.Name] = tv
		return tv, nil

	case *ast.FnType:
		param, err := r.resolveTypeExpr(t.Param, tvars)
		if err != nil {
			return nil, err
		}
		result, err := r.resolveTypeExpr(t.Result, tvars)
		if err != nil {
			return nil, err
		}
		return &types.Fn{Param: param, Result: result}, nil

	case *ast.TupleType:
		elems := make([]types.Type, len(t.Elements))
		for i, e := range t.Elements {
			et, err := r.resolveTypeExpr(e, tvars)
			if err != nil {
				return nil, err
			}
			elems[i] = et
		}
		return &types.Tuple{Elements: elems}, nil

	case *ast.RecordType:
		fields := make(map[string]types.Type, len(t.Fields))
		for name, fe := range t.Fields {
			ft, err := r.resolveTypeExpr(fe, tvars)
			if err != nil {
				return nil, err
			}
			fields[name] = ft
		}
		return &types.Record{Fields: fields}, nil

	case *ast.NamedType:
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			at, err := r.resolveTypeExpr(a, tvars)
			if err != nil {
				return nil, err
			}
			args[i] = at
		}
		if len(args) == 0 {
			if prim, ok := primitives[t.Name]; ok {
				return prim, nil
			}
		}
		if t.Name == "list" && len(args) == 1 {
			return &types.List{Element: args[0]}, nil
		}
		if alias, ok := r.aliases[t.Name]; ok {
			if len(alias.params) != len(args) {
				return nil, r.errf(t.Pos, "type %q expects %d arguments, got %d", t.Name, len(alias.params), len(args))
			}
			s := make(types.Substitution, len(args))
			for i, p := range alias.params {
				s[p.ID] = args[i]
			}
			return types.ApplySubstitution(s, alias.body), nil
		}
		if dt, ok := r.Registry.Lookup(t.Name, len(args)); ok {
			return &types.DatatypeApp{Datatype: dt, Args: args}, nil
		}
		return nil, &TypeError{Pos: t.Pos, Wrapped: &types.UnknownTypeError{Name: t.Name, Pos: t.Pos.String()}}

	default:
		return nil, r.errf(t.Position(), "unsupported type expression %T", t)
	}
}
