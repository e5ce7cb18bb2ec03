package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply2(t *testing.T, tag BuiltIn, a, b Value) (Value, error) {
	t.Helper()
	fn, err := NewBuiltin(tag)
	require.NoError(t, err)
	return fn.Apply(&TupleValue{Elements: []Value{a, b}})
}

func TestIntArithmetic(t *testing.T) {
	v, err := apply2(t, OpPlusInt, &IntValue{Value: 1}, &IntValue{Value: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, v.(*IntValue).Value)

	v, err = apply2(t, OpTimesInt, &IntValue{Value: 6}, &IntValue{Value: 7})
	require.NoError(t, err)
	assert.Equal(t, 42, v.(*IntValue).Value)
}

func TestDivModFloorSemantics(t *testing.T) {
	// SML `div` floors toward negative infinity; `mod` has the divisor's
	// sign.
	v, err := apply2(t, OpDivInt, &IntValue{Value: -7}, &IntValue{Value: 2})
	require.NoError(t, err)
	assert.Equal(t, -4, v.(*IntValue).Value)

	v, err = apply2(t, OpModInt, &IntValue{Value: -7}, &IntValue{Value: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, v.(*IntValue).Value)
}

func TestDivisionByZeroRaisesDiv(t *testing.T) {
	_, err := apply2(t, OpDivInt, &IntValue{Value: 1}, &IntValue{Value: 0})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Div, re.Kind)
}

func TestCurriedPartialApplication(t *testing.T) {
	mapFn, err := NewBuiltin(ListMap)
	require.NoError(t, err)

	inc := &Closure{
		Env: NewEvalEnv(),
		Bind: func(arg Value, env *EvalEnv) (*EvalEnv, error) {
			return env.Extend("x", arg), nil
		},
		Body: codeFunc(func(env *EvalEnv) (Value, error) {
			x, _ := env.Get("x")
			return &IntValue{Value: x.(*IntValue).Value + 1}, nil
		}),
	}

	partial, err := mapFn.Apply(inc)
	require.NoError(t, err)
	_, isBuiltin := partial.(*Builtin)
	require.True(t, isBuiltin, "LIST_MAP applied to one argument curries")

	v, err := Apply(partial, &ListValue{Elements: []Value{&IntValue{Value: 1}, &IntValue{Value: 2}}})
	require.NoError(t, err)
	assert.Equal(t, "[2,3]", v.String())
}

type codeFunc func(env *EvalEnv) (Value, error)

func (f codeFunc) Eval(env *EvalEnv) (Value, error) { return f(env) }

func TestHdOfEmptyRaisesEmpty(t *testing.T) {
	hd, err := NewBuiltin(ListHd)
	require.NoError(t, err)
	_, err = hd.Apply(&ListValue{})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Empty, re.Kind)
}

func TestNthOutOfRangeRaisesSubscript(t *testing.T) {
	nth, err := NewBuiltin(ListNth)
	require.NoError(t, err)
	_, err = nth.Apply(&TupleValue{Elements: []Value{
		&ListValue{Elements: []Value{&IntValue{Value: 1}}},
		&IntValue{Value: 5},
	}})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Subscript, re.Kind)
}

func TestStructuralEquality(t *testing.T) {
	a := &RecordValue{Labels: []string{"x", "y"}, Values: []Value{&IntValue{Value: 1}, &StringValue{Value: "s"}}}
	b := &RecordValue{Labels: []string{"x", "y"}, Values: []Value{&IntValue{Value: 1}, &StringValue{Value: "s"}}}
	assert.True(t, Equals(a, b))

	some7 := &TaggedValue{Ctor: "SOME", Payload: &IntValue{Value: 7}}
	some8 := &TaggedValue{Ctor: "SOME", Payload: &IntValue{Value: 8}}
	assert.False(t, Equals(some7, some8))
	assert.True(t, Equals(some7, &TaggedValue{Ctor: "SOME", Payload: &IntValue{Value: 7}}))
}

func TestCompareOrdersLexicographically(t *testing.T) {
	a := &ListValue{Elements: []Value{&IntValue{Value: 1}, &IntValue{Value: 2}}}
	b := &ListValue{Elements: []Value{&IntValue{Value: 1}, &IntValue{Value: 3}}}
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, -1, Compare(&ListValue{}, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestNegativeIntPrintsWithTilde(t *testing.T) {
	assert.Equal(t, "~3", (&IntValue{Value: -3}).String())
	assert.Equal(t, "~1.5", (&RealValue{Value: -1.5}).String())
}

func TestAggregates(t *testing.T) {
	count, err := NewBuiltin(RelCount)
	require.NoError(t, err)
	v, err := count.Apply(&ListValue{Elements: []Value{Unit, Unit, Unit}})
	require.NoError(t, err)
	assert.Equal(t, 3, v.(*IntValue).Value)

	sum, err := NewBuiltin(RelSumInt)
	require.NoError(t, err)
	v, err = sum.Apply(&ListValue{Elements: []Value{&IntValue{Value: 1}, &IntValue{Value: 2}, &IntValue{Value: 3}}})
	require.NoError(t, err)
	assert.Equal(t, 6, v.(*IntValue).Value)

	max, err := NewBuiltin(RelMax)
	require.NoError(t, err)
	v, err = max.Apply(&ListValue{Elements: []Value{&IntValue{Value: 2}, &IntValue{Value: 9}, &IntValue{Value: 4}}})
	require.NoError(t, err)
	assert.Equal(t, 9, v.(*IntValue).Value)

	min, err := NewBuiltin(RelMin)
	require.NoError(t, err)
	_, err = min.Apply(&ListValue{})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Empty, re.Kind)
}

func TestValRecFrameUpdateVisibleToClosure(t *testing.T) {
	env := NewEvalEnv()
	frame := env.Child()
	closure := &Closure{
		Env: frame,
		Bind: func(arg Value, captured *EvalEnv) (*EvalEnv, error) {
			return captured.Extend("n", arg), nil
		},
		Body: codeFunc(func(env *EvalEnv) (Value, error) {
			v, ok := env.Get("self")
			require.True(t, ok, "recursive name must be visible after setup")
			return v, nil
		}),
	}
	// The frame is filled exactly once after the closure captured it.
	frame.Set("self", closure)
	v, err := closure.Apply(Unit)
	require.NoError(t, err)
	assert.Same(t, closure, v)
}
