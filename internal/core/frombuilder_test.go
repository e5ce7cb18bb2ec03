package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/types"
)

func intListSource() Exp {
	return &Id{Name: "xs", Ty: &types.List{Element: types.Int}}
}

func scanX(b *FromBuilder) {
	b.Scan(&Id{Name: "x", Ty: types.Int}, intListSource(), nil, true)
}

func TestWhereTrueDropped(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	b.Where(BoolLiteral(true))
	require.Len(t, b.steps, 1)

	b.Where(&Id{Name: "p", Ty: types.Bool})
	require.Len(t, b.steps, 2)
}

func TestSkipZeroAndEmptyOrderDropped(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	b.Skip(IntLiteral(0))
	b.Order(nil)
	require.Len(t, b.steps, 1)
}

func TestTrivialYieldDropped(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	// `yield x` over the atom binding x reproduces the row exactly.
	b.Yield(&Id{Name: "x", Ty: types.Int})
	require.Len(t, b.steps, 1)
}

func TestSingleFieldYieldKeptOnlyWhileLast(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	rec, err := NewRecord([]string{"x"}, []Exp{&Id{Name: "x", Ty: types.Int}})
	require.NoError(t, err)
	b.Yield(rec)
	// As the last step it wraps the atom into a singleton record.
	require.Len(t, b.steps, 2)
	require.False(t, b.Env().Atom)

	// Appending anything after it removes it again.
	b.Where(&Id{Name: "p", Ty: types.Bool})
	require.Len(t, b.steps, 2)
	_, isScan := b.steps[0].(*Scan)
	_, isWhere := b.steps[1].(*Where)
	require.True(t, isScan && isWhere)
	require.True(t, b.Env().Atom)
}

func TestOrderingFlags(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	require.True(t, b.Env().Ordered, "scan of a list is ordered")

	b.Group([]GroupKey{{Label: "k", Exp: &Id{Name: "x", Ty: types.Int}}}, nil)
	require.False(t, b.Env().Ordered, "group output is a bag")

	b.Order([]OrderKey{{Exp: &Id{Name: "k", Ty: types.Int}}})
	require.True(t, b.Env().Ordered, "order always establishes order")

	b.Unorder()
	require.False(t, b.Env().Ordered)
}

func TestScanOfUnorderedSourceIsUnordered(t *testing.T) {
	b := NewFromBuilder()
	b.Scan(&Id{Name: "x", Ty: types.Int}, intListSource(), nil, false)
	require.False(t, b.Env().Ordered)
}

func TestFlattenNestedFrom(t *testing.T) {
	inner := NewFromBuilder()
	inner.Scan(&Id{Name: "y", Ty: types.Int}, intListSource(), nil, true)
	innerFrom := inner.Build()

	b := NewFromBuilder()
	b.Scan(&Id{Name: "x", Ty: types.Int}, innerFrom, nil, true)
	// One scan plus the rename yield; no scan-over-From remains.
	for _, s := range b.steps {
		if scan, ok := s.(*Scan); ok {
			_, nested := scan.Source.(*From)
			require.False(t, nested, "nested from should be flattened")
		}
	}
	require.Len(t, b.steps, 2)
	_, found := b.Env().Lookup("x")
	require.True(t, found)
}

func TestFlattenSameNameLeavesAtom(t *testing.T) {
	inner := NewFromBuilder()
	inner.Scan(&Id{Name: "x", Ty: types.Int}, intListSource(), nil, true)
	innerFrom := inner.Build()

	b := NewFromBuilder()
	b.Scan(&Id{Name: "x", Ty: types.Int}, innerFrom, nil, true)
	require.Len(t, b.steps, 1)
	require.True(t, b.Env().Atom)
}

func TestGroupBindingsSorted(t *testing.T) {
	b := NewFromBuilder()
	scanX(b)
	b.Group(
		[]GroupKey{{Label: "d", Exp: &Id{Name: "x", Ty: types.Int}}},
		[]Aggregate{{Label: "c", Fn: &Id{Name: "count", Ty: &types.Fn{Param: &types.List{Element: types.Int}, Result: types.Int}}, Arg: &Id{Name: "x", Ty: types.Int}}},
	)
	env := b.Env()
	require.Equal(t, "c", env.Bindings[0].Name)
	require.Equal(t, "d", env.Bindings[1].Name)
	require.Equal(t, types.Int, env.Bindings[0].Ty)
}
