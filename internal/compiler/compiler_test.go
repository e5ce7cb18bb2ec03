package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

func intLit(v int) *core.Literal { return core.IntLiteral(v) }

func TestDecisionTreeBucketsByConstructor(t *testing.T) {
	arms := []core.Match{
		{Pat: &core.ConPat{Ctor: "NONE", Ty: types.Int}, Exp: intLit(0)},
		{Pat: &core.ConPat{Ctor: "SOME", Arg: &core.WildcardPat{Ty: types.Int}, Ty: types.Int}, Exp: intLit(1)},
		{Pat: &core.WildcardPat{Ty: types.Int}, Exp: intLit(2)},
	}
	tree, err := buildDecisionTree(arms)
	require.NoError(t, err)
	require.True(t, tree.discriminate)

	some := &eval.TaggedValue{Ctor: "SOME", Payload: &eval.IntValue{Value: 7}}
	assert.Equal(t, []int{1, 2}, tree.candidates(some))
	none := &eval.TaggedValue{Ctor: "NONE"}
	assert.Equal(t, []int{0, 2}, tree.candidates(none))
	other := &eval.TaggedValue{Ctor: "OTHER"}
	assert.Equal(t, []int{2}, tree.candidates(other))
}

func TestDecisionTreeSourceOrderWithinBucket(t *testing.T) {
	arms := []core.Match{
		{Pat: &core.WildcardPat{Ty: types.Bool}, Exp: intLit(0)},
		{Pat: &core.Literal{Kind: core.BoolLit, Value: true, Ty: types.Bool}, Exp: intLit(1)},
	}
	tree, err := buildDecisionTree(arms)
	require.NoError(t, err)
	// The earlier wildcard stays ahead of the literal arm.
	assert.Equal(t, []int{0, 1}, tree.candidates(eval.True))
}

func TestBinderConsPattern(t *testing.T) {
	pat := &core.ConsPat{
		Head: &core.Id{Name: "h", Ty: types.Int},
		Tail: &core.Id{Name: "t", Ty: &types.List{Element: types.Int}},
		Ty:   &types.List{Element: types.Int},
	}
	b, err := compileBinder(pat)
	require.NoError(t, err)

	env := eval.NewEvalEnv()
	frame := env.Child()
	list := &eval.ListValue{Elements: []eval.Value{&eval.IntValue{Value: 1}, &eval.IntValue{Value: 2}}}
	require.True(t, b.match(list, frame))
	h, _ := frame.Get("h")
	assert.Equal(t, "1", h.String())
	tail, _ := frame.Get("t")
	assert.Equal(t, "[2]", tail.String())

	require.False(t, b.match(&eval.ListValue{}, env.Child()))
}

func TestCaseEvaluatesScrutineeOnce(t *testing.T) {
	calls := 0
	scrut := countingCode{calls: &calls, value: eval.True}
	tree, err := buildDecisionTree([]core.Match{
		{Pat: &core.WildcardPat{Ty: types.Bool}, Exp: intLit(1)},
	})
	require.NoError(t, err)
	c := &caseCode{scrut: scrut, tree: tree}
	_, err = c.Eval(eval.NewEvalEnv())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type countingCode struct {
	calls *int
	value eval.Value
}

func (c countingCode) Eval(*eval.EvalEnv) (eval.Value, error) {
	*c.calls++
	return c.value, nil
}

func TestCaseFallThroughRaisesBind(t *testing.T) {
	tree, err := buildDecisionTree([]core.Match{
		{Pat: &core.Literal{Kind: core.BoolLit, Value: true, Ty: types.Bool}, Exp: intLit(1)},
	})
	require.NoError(t, err)
	c := &caseCode{scrut: &constCode{value: eval.False}, tree: tree}
	_, err = c.Eval(eval.NewEvalEnv())
	var re *eval.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, eval.Bind, re.Kind)
}

func buildSimpleFrom(steps ...core.FromStep) *core.From {
	return &core.From{Steps: steps, Ty: &types.List{Element: types.Int}}
}

func scanStepOf(name string, source core.Exp) *core.Scan {
	pat := &core.Id{Name: name, Ty: types.Int}
	return &core.Scan{
		Pat:    pat,
		Source: source,
		OutEnv: core.StepEnv{Bindings: core.PatBindings(pat), Atom: true, Ordered: true},
	}
}

func TestPlannerRoutingHeuristic(t *testing.T) {
	xs := &core.Id{Name: "xs", Ty: &types.List{Element: types.Int}}

	// Single scan + where: simple, stays nested-loop.
	simple := buildSimpleFrom(
		scanStepOf("x", xs),
		&core.Where{Cond: core.BoolLiteral(false), OutEnv: core.StepEnv{}},
	)
	assert.False(t, usePlanner(simple))

	// Two uncorrelated scans: a join, routed to the planner.
	join := buildSimpleFrom(scanStepOf("x", xs), scanStepOf("y", xs))
	assert.True(t, usePlanner(join))

	// A correlated scan must stay nested-loop even with an order step.
	correlated := buildSimpleFrom(
		scanStepOf("x", &core.Id{Name: "xss", Ty: &types.List{Element: &types.List{Element: types.Int}}}),
		scanStepOf("y", &core.Id{Name: "x", Ty: &types.List{Element: types.Int}}),
		&core.Order{Keys: []core.OrderKey{{Exp: &core.Id{Name: "y", Ty: types.Int}}}},
	)
	assert.False(t, usePlanner(correlated))

	// Group routes to the planner.
	grouped := buildSimpleFrom(
		scanStepOf("x", xs),
		&core.Group{Keys: []core.GroupKey{{Label: "k", Exp: &core.Id{Name: "x", Ty: types.Int}}}},
	)
	assert.True(t, usePlanner(grouped))
}

func TestEvalNonRecDecl(t *testing.T) {
	pat := &core.Id{Name: "x", Ty: types.Int}
	decl, err := core.NewValDecl(pat, intLit(42))
	require.NoError(t, err)
	values, err := EvalDecl(decl, eval.NewEvalEnv())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "x", values[0].Name)
	assert.Equal(t, "42", values[0].Value.String())
}

func TestRecDeclClosuresSeeEachOther(t *testing.T) {
	// val rec f = fn x => x  (a one-binding group is the degenerate case;
	// the frame-fill behavior is shared with mutual groups).
	fnExp := &core.Fn{
		Param: &core.Id{Name: "x", Ty: types.Int},
		Body:  &core.Id{Name: "f", Ty: &types.Fn{Param: types.Int, Result: types.Int}},
		Ty:    &types.Fn{Param: types.Int, Result: types.Int},
	}
	decl := &core.RecValDecl{Bindings: []core.RecBinding{{
		Pat: &core.Id{Name: "f", Ty: fnExp.Ty},
		Exp: fnExp,
	}}}
	values, err := EvalDecl(decl, eval.NewEvalEnv())
	require.NoError(t, err)
	f := values[0].Value.(*eval.Closure)
	// Applying f returns f itself: the recursive name resolved through the
	// filled frame.
	v, err := f.Apply(&eval.IntValue{Value: 0})
	require.NoError(t, err)
	assert.Same(t, f, v)
}
