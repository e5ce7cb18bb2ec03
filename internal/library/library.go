// Package library declares the initial environment of a session: the
// built-in List, String, Math, and Relational functions, each binding a
// name to a BuiltIn tag and a type scheme. The resolver consumes the
// schemes; the session consumes the values (spec.md Sec. 4.7).
package library

import (
	"math"

	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

// Entry is one library binding. Tag is empty for constants, which carry
// Value directly (e.g. Math.pi).
type Entry struct {
	Name   string
	Tag    eval.BuiltIn
	Value  eval.Value
	Scheme *types.Forall
}

// OverloadInstanceSeed is one pre-registered instance of an overloaded
// library name (`abs`, `sum`), using the same over/inst machinery as
// user-declared overloads.
type OverloadInstanceSeed struct {
	CoreName string
	Tag      eval.BuiltIn
	Scheme   *types.Forall
}

// OverloadSeed is one overloaded library name with its instances.
type OverloadSeed struct {
	Name      string
	Instances []OverloadInstanceSeed
}

func fn(param, result types.Type) types.Type {
	return &types.Fn{Param: param, Result: result}
}

func list(t types.Type) types.Type { return &types.List{Element: t} }

func pair(a, b types.Type) types.Type {
	return &types.Tuple{Elements: []types.Type{a, b}}
}

func mono(t types.Type) *types.Forall { return &types.Forall{Body: t} }

func poly1(mk func(a *types.TVar) types.Type) *types.Forall {
	a := types.NewTypeVar()
	return &types.Forall{Vars: []*types.TVar{a}, Body: mk(a)}
}

func poly2(mk func(a, b *types.TVar) types.Type) *types.Forall {
	a, b := types.NewTypeVar(), types.NewTypeVar()
	return &types.Forall{Vars: []*types.TVar{a, b}, Body: mk(a, b)}
}

// Entries returns every non-overloaded library binding, under both its
// structure-qualified name (`List.map`) and, where unambiguous, its flat
// name (`map`).
func Entries() []Entry {
	var out []Entry
	add := func(qualified, flat string, tag eval.BuiltIn, scheme *types.Forall) {
		out = append(out, Entry{Name: qualified, Tag: tag, Scheme: scheme})
		if flat != "" {
			out = append(out, Entry{Name: flat, Tag: tag, Scheme: scheme})
		}
	}

	// List
	add("List.map", "map", eval.ListMap,
		poly2(func(a, b *types.TVar) types.Type { return fn(fn(a, b), fn(list(a), list(b))) }))
	add("List.filter", "filter", eval.ListFilter,
		poly1(func(a *types.TVar) types.Type { return fn(fn(a, types.Bool), fn(list(a), list(a))) }))
	add("List.length", "length", eval.ListLength,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), types.Int) }))
	add("List.rev", "rev", eval.ListRev,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), list(a)) }))
	add("List.hd", "hd", eval.ListHd,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), a) }))
	add("List.tl", "tl", eval.ListTl,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), list(a)) }))
	add("List.null", "null", eval.ListNull,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), types.Bool) }))
	add("List.nth", "nth", eval.ListNth,
		poly1(func(a *types.TVar) types.Type { return fn(pair(list(a), types.Int), a) }))
	add("List.foldl", "foldl", eval.ListFoldl,
		poly2(func(a, b *types.TVar) types.Type { return fn(fn(pair(a, b), b), fn(b, fn(list(a), b))) }))
	add("List.foldr", "foldr", eval.ListFoldr,
		poly2(func(a, b *types.TVar) types.Type { return fn(fn(pair(a, b), b), fn(b, fn(list(a), b))) }))
	add("List.concat", "", eval.ListConcat,
		poly1(func(a *types.TVar) types.Type { return fn(list(list(a)), list(a)) }))
	add("List.exists", "exists", eval.ListExists,
		poly1(func(a *types.TVar) types.Type { return fn(fn(a, types.Bool), fn(list(a), types.Bool)) }))
	add("List.all", "all", eval.ListAll,
		poly1(func(a *types.TVar) types.Type { return fn(fn(a, types.Bool), fn(list(a), types.Bool)) }))

	// String
	add("String.size", "size", eval.StringSize, mono(fn(types.String, types.Int)))
	add("String.sub", "", eval.StringSub, mono(fn(pair(types.String, types.Int), types.Char)))
	add("String.substring", "substring", eval.StringSubstring,
		mono(fn(&types.Tuple{Elements: []types.Type{types.String, types.Int, types.Int}}, types.String)))
	add("String.concat", "", eval.StringConcat, mono(fn(list(types.String), types.String)))
	add("String.str", "str", eval.StringStr, mono(fn(types.Char, types.String)))
	add("String.implode", "implode", eval.StringImplode, mono(fn(list(types.Char), types.String)))
	add("String.explode", "explode", eval.StringExplode, mono(fn(types.String, list(types.Char))))

	// Math / Real
	add("Math.sqrt", "sqrt", eval.MathSqrt, mono(fn(types.Real, types.Real)))
	add("Math.sin", "", eval.MathSin, mono(fn(types.Real, types.Real)))
	add("Math.cos", "", eval.MathCos, mono(fn(types.Real, types.Real)))
	add("Math.exp", "", eval.MathExp, mono(fn(types.Real, types.Real)))
	add("Math.ln", "", eval.MathLn, mono(fn(types.Real, types.Real)))
	add("Math.pow", "", eval.MathPow, mono(fn(pair(types.Real, types.Real), types.Real)))
	add("Real.floor", "floor", eval.RealFloor, mono(fn(types.Real, types.Int)))
	add("Real.ceil", "ceil", eval.RealCeil, mono(fn(types.Real, types.Int)))
	add("Real.round", "round", eval.RealRound, mono(fn(types.Real, types.Int)))
	add("Real.fromInt", "real", eval.RealFromInt, mono(fn(types.Int, types.Real)))
	out = append(out, Entry{Name: "Math.pi", Value: &eval.RealValue{Value: math.Pi}, Scheme: mono(types.Real)})

	// Relational aggregates
	add("Relational.count", "count", eval.RelCount,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), types.Int) }))
	add("Relational.min", "min", eval.RelMin,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), a) }))
	add("Relational.max", "max", eval.RelMax,
		poly1(func(a *types.TVar) types.Type { return fn(list(a), a) }))

	return out
}

// Overloads returns the library names resolved through the overload
// machinery: one instance per principal argument type.
func Overloads() []OverloadSeed {
	return []OverloadSeed{
		{
			Name: "abs",
			Instances: []OverloadInstanceSeed{
				{CoreName: "$abs_int", Tag: eval.OpAbsInt, Scheme: mono(fn(types.Int, types.Int))},
				{CoreName: "$abs_real", Tag: eval.OpAbsReal, Scheme: mono(fn(types.Real, types.Real))},
			},
		},
		{
			Name: "sum",
			Instances: []OverloadInstanceSeed{
				{CoreName: "$sum_int", Tag: eval.RelSumInt, Scheme: mono(fn(list(types.Int), types.Int))},
				{CoreName: "$sum_real", Tag: eval.RelSumReal, Scheme: mono(fn(list(types.Real), types.Real))},
			},
		},
	}
}
