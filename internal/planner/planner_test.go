package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/eval"
)

func ints(vs ...int) []eval.Value {
	out := make([]eval.Value, len(vs))
	for i, v := range vs {
		out[i] = &eval.IntValue{Value: v}
	}
	return out
}

func scanOf(vs ...int) *Scan {
	rows := ints(vs...)
	return &Scan{Source: func() ([]eval.Value, error) { return rows, nil }, IsOrdered: true}
}

func rowStrings(t *testing.T, r Rel) []string {
	t.Helper()
	rows, err := r.Rows()
	require.NoError(t, err)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.String()
	}
	return out
}

func TestFilterPreservesOrder(t *testing.T) {
	rel := &Filter{
		Input: scanOf(5, 1, 4, 2, 3),
		Pred: func(row eval.Value) (bool, error) {
			return row.(*eval.IntValue).Value > 2, nil
		},
	}
	assert.Equal(t, []string{"5", "4", "3"}, rowStrings(t, rel))
	assert.True(t, rel.Ordered())
}

func TestJoinIsCartesianProductPlusFilter(t *testing.T) {
	rel := &Join{
		Left:  scanOf(1, 2),
		Right: scanOf(10, 20),
		Pred: func(l, r eval.Value) (bool, error) {
			return l.(*eval.IntValue).Value*10 == r.(*eval.IntValue).Value, nil
		},
		Combine: func(l, r eval.Value) eval.Value {
			return &eval.TupleValue{Elements: []eval.Value{l, r}}
		},
	}
	assert.Equal(t, []string{"(1,10)", "(2,20)"}, rowStrings(t, rel))
}

func TestAggregateOneRowPerKey(t *testing.T) {
	rel := &Aggregate{
		Input: scanOf(1, 2, 1, 1, 2),
		Key:   func(row eval.Value) (eval.Value, error) { return row, nil },
		Calls: []AggCall{{
			Arg: func(row eval.Value) (eval.Value, error) { return row, nil },
			Fn: func(group *eval.ListValue) (eval.Value, error) {
				return &eval.IntValue{Value: len(group.Elements)}, nil
			},
		}},
		Combine: func(key eval.Value, aggs []eval.Value) eval.Value {
			return &eval.TupleValue{Elements: []eval.Value{key, aggs[0]}}
		},
	}
	rows := rowStrings(t, rel)
	assert.ElementsMatch(t, []string{"(1,3)", "(2,2)"}, rows)
	assert.False(t, rel.Ordered())
}

func TestSortThenLimitThenOffset(t *testing.T) {
	sorted := &Sort{
		Input: scanOf(3, 1, 2),
		Keys: []SortKey{{
			Key: func(row eval.Value) (eval.Value, error) { return row, nil },
		}},
	}
	assert.Equal(t, []string{"1", "2", "3"}, rowStrings(t, sorted))
	assert.True(t, sorted.Ordered())

	desc := &Sort{
		Input: scanOf(3, 1, 2),
		Keys: []SortKey{{
			Key:        func(row eval.Value) (eval.Value, error) { return row, nil },
			Descending: true,
		}},
	}
	assert.Equal(t, []string{"3", "2", "1"}, rowStrings(t, desc))

	limited := &Limit{Input: sorted, N: func() (int, error) { return 2, nil }}
	assert.Equal(t, []string{"1", "2"}, rowStrings(t, limited))

	offset := &Offset{Input: sorted, N: func() (int, error) { return 2, nil }}
	assert.Equal(t, []string{"3"}, rowStrings(t, offset))
}

func TestEmptySortIsNoOp(t *testing.T) {
	rel := &Sort{Input: scanOf(3, 1, 2)}
	assert.Equal(t, []string{"3", "1", "2"}, rowStrings(t, rel))
}

func TestUnionBagAndSetSemantics(t *testing.T) {
	bag := &SetOp{Kind: Union, Left: scanOf(1, 2), Args: []Rel{scanOf(2, 3)}}
	assert.Equal(t, []string{"1", "2", "2", "3"}, rowStrings(t, bag))

	set := &SetOp{Kind: Union, Left: scanOf(1, 2), Args: []Rel{scanOf(2, 3)}, Distinct: true}
	assert.Equal(t, []string{"1", "2", "3"}, rowStrings(t, set))
}

func TestIntersectRespectsMultiplicity(t *testing.T) {
	rel := &SetOp{Kind: Intersect, Left: scanOf(1, 1, 2, 3), Args: []Rel{scanOf(1, 2, 2)}}
	assert.Equal(t, []string{"1", "2"}, rowStrings(t, rel))
}

func TestExceptRemovesOncePerOccurrence(t *testing.T) {
	rel := &SetOp{Kind: Except, Left: scanOf(1, 1, 2, 3), Args: []Rel{scanOf(1, 3)}}
	assert.Equal(t, []string{"1", "2"}, rowStrings(t, rel))
}

func TestSetOpOrderedOnlyWhenAllInputsOrdered(t *testing.T) {
	unordered := &Scan{Source: func() ([]eval.Value, error) { return ints(9), nil }, IsOrdered: false}
	rel := &SetOp{Kind: Union, Left: scanOf(1), Args: []Rel{unordered}}
	assert.False(t, rel.Ordered())
}

func TestDistinctIsIdempotent(t *testing.T) {
	once := &SetOp{Kind: Union, Left: scanOf(1, 1, 2), Args: nil, Distinct: true}
	twice := &SetOp{Kind: Union, Left: once, Args: nil, Distinct: true}
	assert.Equal(t, rowStrings(t, once), rowStrings(t, twice))
}
