package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/parser"
	"github.com/hydromatic/morel-go/internal/types"
)

func newTestResolver() *Resolver {
	return New(types.NewLayeredRegistry(types.Base), types.NewOverloadEnv())
}

func resolveExprSrc(t *testing.T, r *Resolver, env *types.Env, src string) (core.Exp, error) {
	t.Helper()
	d, errs := parser.ParseOneDecl("<test>", src)
	require.Empty(t, errs)
	ed, ok := d.(*ast.ExprDecl)
	require.True(t, ok)
	return r.ResolveExp(ed.Value, env)
}

func resolveDeclSrc(t *testing.T, r *Resolver, env *types.Env, src string) (core.Decl, *types.Env, error) {
	t.Helper()
	d, errs := parser.ParseOneDecl("<test>", src)
	require.Empty(t, errs)
	return r.ResolveDecl(d, env)
}

func TestInferArithmetic(t *testing.T) {
	r := newTestResolver()
	e, err := resolveExprSrc(t, r, types.NewEnv(), "1 + 2 * 3")
	require.NoError(t, err)
	require.Equal(t, types.Int, r.apply(e.Type()))
}

func TestInferRealDivide(t *testing.T) {
	r := newTestResolver()
	e, err := resolveExprSrc(t, r, types.NewEnv(), "1.0 / 2.0")
	require.NoError(t, err)
	require.Equal(t, types.Real, r.apply(e.Type()))
}

func TestArithmeticTypeMismatch(t *testing.T) {
	r := newTestResolver()
	_, err := resolveExprSrc(t, r, types.NewEnv(), "1 + \"two\"")
	require.Error(t, err)
}

func TestIfLowersToCase(t *testing.T) {
	r := newTestResolver()
	e, err := resolveExprSrc(t, r, types.NewEnv(), "if true then 1 else 2")
	require.NoError(t, err)
	c, ok := e.(*core.Case)
	require.True(t, ok, "if must lower to case, got %T", e)
	require.Len(t, c.Arms, 2)
}

func TestLetPolymorphism(t *testing.T) {
	r := newTestResolver()
	_, env, err := resolveDeclSrc(t, r, types.NewEnv(), "val id = fn x => x")
	require.NoError(t, err)
	scheme, ok := env.Lookup("id")
	require.True(t, ok)
	require.Len(t, scheme.Vars, 1, "id : 'a -> 'a must generalize")

	// Both instantiations must work in one expression.
	e, err := resolveExprSrc(t, r, env, "(id 1, id \"s\")")
	require.NoError(t, err)
	tup := r.apply(e.Type()).(*types.Tuple)
	require.Equal(t, types.Int, tup.Elements[0])
	require.Equal(t, types.String, tup.Elements[1])
}

func TestGeneralizationSafety(t *testing.T) {
	r := newTestResolver()
	_, env, err := resolveDeclSrc(t, r, types.NewEnv(), "fun twice f x = f (f x)")
	require.NoError(t, err)
	scheme, ok := env.Lookup("twice")
	require.True(t, ok)
	// No free variable outside the forall prefix.
	free := make(map[int]bool)
	collectFree(scheme.Body, free)
	for _, v := range scheme.Vars {
		delete(free, v.ID)
	}
	require.Empty(t, free)
}

func collectFree(t types.Type, out map[int]bool) {
	switch t := t.(type) {
	case *types.TVar:
		out[t.ID] = true
	case *types.Fn:
		collectFree(t.Param, out)
		collectFree(t.Result, out)
	case *types.Tuple:
		for _, e := range t.Elements {
			collectFree(e, out)
		}
	case *types.List:
		collectFree(t.Element, out)
	}
}

func TestFunLowersToRecFn(t *testing.T) {
	r := newTestResolver()
	d, env, err := resolveDeclSrc(t, r, types.NewEnv(), "fun fact 0 = 1 | fact n = n * fact (n - 1)")
	require.NoError(t, err)
	rec, ok := d.(*core.RecValDecl)
	require.True(t, ok)
	require.Len(t, rec.Bindings, 1)
	_, ok = rec.Bindings[0].Exp.(*core.Fn)
	require.True(t, ok, "fun must lower to fn")

	scheme, _ := env.Lookup("fact")
	fn := scheme.Body.(*types.Fn)
	require.Equal(t, types.Int, fn.Param)
	require.Equal(t, types.Int, fn.Result)
}

func TestMutualRecursion(t *testing.T) {
	r := newTestResolver()
	_, env, err := resolveDeclSrc(t, r, types.NewEnv(),
		"val rec even = fn 0 => true | n => odd (n - 1) and odd = fn 0 => false | n => even (n - 1)")
	require.NoError(t, err)
	for _, name := range []string{"even", "odd"} {
		scheme, ok := env.Lookup(name)
		require.True(t, ok)
		fn := scheme.Body.(*types.Fn)
		require.Equal(t, types.Int, fn.Param)
		require.Equal(t, types.Bool, fn.Result)
	}
}

func TestValRecMustBeFunction(t *testing.T) {
	r := newTestResolver()
	_, _, err := resolveDeclSrc(t, r, types.NewEnv(), "val rec x = 1")
	require.Error(t, err)
}

func TestDatatypeAndConstructors(t *testing.T) {
	r := newTestResolver()
	env := types.NewEnv()
	_, env, err := resolveDeclSrc(t, r, env, "datatype color = RED | GREEN | BLUE")
	require.NoError(t, err)
	e, err := resolveExprSrc(t, r, env, "RED")
	require.NoError(t, err)
	app, ok := r.apply(e.Type()).(*types.DatatypeApp)
	require.True(t, ok)
	require.Equal(t, "color", app.Datatype.Name)
}

func TestOverloadedLibrarySum(t *testing.T) {
	r := newTestResolver()
	e, err := resolveExprSrc(t, r, types.NewEnv(), "sum [1, 2, 3]")
	require.NoError(t, err)
	require.Equal(t, types.Int, r.apply(e.Type()))

	e, err = resolveExprSrc(t, r, types.NewEnv(), "sum [1.0, 2.0]")
	require.NoError(t, err)
	require.Equal(t, types.Real, r.apply(e.Type()))
}

func TestOverloadNoMatch(t *testing.T) {
	r := newTestResolver()
	_, err := resolveExprSrc(t, r, types.NewEnv(), "sum [\"a\"]")
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	var noMatch *types.OverloadNoMatchError
	require.ErrorAs(t, err, &noMatch)
}

func TestUserOverloadDeclaration(t *testing.T) {
	r := newTestResolver()
	env := types.NewEnv()
	_, env, err := resolveDeclSrc(t, r, env, "over describe")
	require.NoError(t, err)
	_, env, err = resolveDeclSrc(t, r, env, "inst describe = fn (x : int) => \"int\"")
	require.NoError(t, err)
	_, env, err = resolveDeclSrc(t, r, env, "inst describe = fn (s : string) => \"string\"")
	require.NoError(t, err)
	e, err := resolveExprSrc(t, r, env, "describe 3")
	require.NoError(t, err)
	require.Equal(t, types.String, r.apply(e.Type()))
}

func TestNonExhaustiveIsWarningByDefault(t *testing.T) {
	r := newTestResolver()
	env := types.NewEnv()
	_, env, err := resolveDeclSrc(t, r, env, "datatype sign = POS | NEG")
	require.NoError(t, err)
	r.Warnings = nil
	_, err = resolveExprSrc(t, r, env, "fn POS => 1")
	require.NoError(t, err)
	require.NotEmpty(t, r.Warnings)
	var ne *types.NonExhaustiveError
	require.ErrorAs(t, r.Warnings[0], &ne)
	require.Equal(t, "NEG", ne.Witness)
}

func TestNonExhaustiveStrictPolicy(t *testing.T) {
	r := newTestResolver()
	r.StrictMatch = true
	env := types.NewEnv()
	_, env, err := resolveDeclSrc(t, r, env, "datatype sign = POS | NEG")
	require.NoError(t, err)
	_, err = resolveExprSrc(t, r, env, "fn POS => 1")
	require.Error(t, err)
}

func TestRedundantMatchIsError(t *testing.T) {
	r := newTestResolver()
	_, err := resolveExprSrc(t, r, types.NewEnv(), "fn x => case x of _ => 1 | true => 2")
	require.Error(t, err)
	var red *types.RedundantMatchError
	require.ErrorAs(t, err, &red)
}

func TestSelectorNeedsContext(t *testing.T) {
	r := newTestResolver()
	_, err := resolveExprSrc(t, r, types.NewEnv(), "#dept")
	require.Error(t, err)
}

func TestSelectorAgainstRecord(t *testing.T) {
	r := newTestResolver()
	e, err := resolveExprSrc(t, r, types.NewEnv(), "#a {a = 1, b = \"x\"}")
	require.NoError(t, err)
	require.Equal(t, types.Int, r.apply(e.Type()))
	app := e.(*core.Apply)
	sel := app.Fn.(*core.RecordSelector)
	require.Equal(t, 0, sel.Slot)
}

func TestFromStepEnvs(t *testing.T) {
	r := newTestResolver()
	env := types.NewEnv().Extend("xs", types.Monomorphic(&types.List{Element: types.Int}))
	e, err := resolveExprSrc(t, r, env, "from x in xs where x > 1 order x")
	require.NoError(t, err)
	f := e.(*core.From)
	require.Equal(t, &types.List{Element: types.Int}, r.apply(f.Type()))
	last := f.Steps[len(f.Steps)-1].Env()
	require.True(t, last.Atom)
	require.True(t, last.Ordered)
}

func TestGroupComputeTypes(t *testing.T) {
	r := newTestResolver()
	rowTy := &types.Record{Fields: map[string]types.Type{"id": types.Int, "dept": types.String}}
	env := types.NewEnv().Extend("emps", types.Monomorphic(&types.List{Element: rowTy}))
	e, err := resolveExprSrc(t, r, env, "from e in emps group d = #dept e compute {c = count of e}")
	require.NoError(t, err)
	f := e.(*core.From)
	row := r.apply(f.Type()).(*types.List).Element.(*types.Record)
	require.Equal(t, types.String, row.Fields["d"])
	require.Equal(t, types.Int, row.Fields["c"])
}

func TestEmptyFromIsIllegal(t *testing.T) {
	// The parser requires at least one clause; a stepless `from` is fine
	// but a clauseless one cannot be written.
	_, errs := parser.ParseOneDecl("<test>", "from where true")
	require.NotEmpty(t, errs)
}

func TestEqualityRejectsFunctions(t *testing.T) {
	r := newTestResolver()
	_, err := resolveExprSrc(t, r, types.NewEnv(), "(fn x => x) = (fn y => y)")
	require.Error(t, err)
}
