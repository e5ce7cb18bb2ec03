package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/ast"
)

func parseExprChunk(t *testing.T, src string) ast.Expr {
	t.Helper()
	d, errs := ParseOneDecl("<test>", src)
	require.Empty(t, errs)
	ed, ok := d.(*ast.ExprDecl)
	require.True(t, ok, "expected expression, got %T", d)
	return ed.Value
}

func TestPrecedence(t *testing.T) {
	e := parseExprChunk(t, "1 + 2 * 3")
	add, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", add.Op)
	mul, ok := add.Right.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
}

func TestConsIsRightAssociative(t *testing.T) {
	e := parseExprChunk(t, "1 :: 2 :: nil")
	outer, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "::", outer.Op)
	inner, ok := outer.Right.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "::", inner.Op)
}

func TestApplicationBindsTighterThanOperators(t *testing.T) {
	e := parseExprChunk(t, "f x + g y")
	add := e.(*ast.BinaryOp)
	_, lOk := add.Left.(*ast.Apply)
	_, rOk := add.Right.(*ast.Apply)
	require.True(t, lOk && rOk)
}

func TestRecordImplicitLabels(t *testing.T) {
	e := parseExprChunk(t, "{e.id, dept = e.dept, y}")
	rec := e.(*ast.RecordExpr)
	labels := []string{rec.Fields[0].Label, rec.Fields[1].Label, rec.Fields[2].Label}
	require.Equal(t, []string{"id", "dept", "y"}, labels)
}

func TestRecordFieldWithoutLabelIsError(t *testing.T) {
	_, errs := ParseOneDecl("<test>", "{1 + 2}")
	require.NotEmpty(t, errs)
}

func TestReservedNamesNotRebindable(t *testing.T) {
	for _, src := range []string{"val it = 1", "fun f ref = 1"} {
		_, errs := ParseOneDecl("<test>", src)
		require.NotEmpty(t, errs, "expected error for %q", src)
	}
}

func TestFromClausesDistinguishBindAndScan(t *testing.T) {
	e := parseExprChunk(t, "from x in xs, y = 10 where x > y")
	f := e.(*ast.FromExpr)
	require.Len(t, f.Clauses, 2)
	require.False(t, f.Clauses[0].Bind)
	require.True(t, f.Clauses[1].Bind)
	require.Len(t, f.Steps, 1)
	require.Equal(t, ast.StepWhere, f.Steps[0].Kind)
}

func TestFromSteps(t *testing.T) {
	e := parseExprChunk(t,
		"from e in emps where e > 1 order e desc skip 1 take 2 yield e")
	f := e.(*ast.FromExpr)
	kinds := make([]ast.StepKind, len(f.Steps))
	for i, s := range f.Steps {
		kinds[i] = s.Kind
	}
	require.Equal(t, []ast.StepKind{
		ast.StepWhere, ast.StepOrder, ast.StepSkip, ast.StepTake, ast.StepYield,
	}, kinds)
	require.True(t, f.Steps[1].Keys[0].Descending)
}

func TestGroupCompute(t *testing.T) {
	e := parseExprChunk(t, "from e in emps group d = e compute {c = count of e}")
	f := e.(*ast.FromExpr)
	require.Len(t, f.Steps, 1)
	g := f.Steps[0]
	require.Equal(t, ast.StepGroup, g.Kind)
	require.Equal(t, "d", g.GroupKeys[0].Label)
	require.Equal(t, "c", g.Aggregates[0].Label)
	require.NotNil(t, g.Aggregates[0].Of)
}

func TestFunClausesKeepOneName(t *testing.T) {
	d, errs := ParseOneDecl("<test>", "fun fact 0 = 1 | fact n = n * fact (n - 1)")
	require.Empty(t, errs)
	f := d.(*ast.FunDecl)
	require.Equal(t, "fact", f.Name)
	require.Len(t, f.Clauses, 2)

	_, errs = ParseOneDecl("<test>", "fun f 0 = 1 | g n = n")
	require.NotEmpty(t, errs)
}

// Round-trip printing: parse(print(a)) is structurally equal to a up to
// positions.
func TestPrintRoundTrip(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"fn x => x + 1",
		"if a then b else c",
		"case xs of [] => 0 | h :: t => h",
		"let val x = 1 in x + 1 end",
		"{a = 1, b = \"two\"}",
		"from x in xs where x > 1 order x desc yield x + 1",
		"from e in emps group d = e compute {c = count of e}",
		"(1, 2.5, #\"c\")",
	}
	ignorePos := cmpopts.IgnoreTypes(ast.Pos{})
	for _, src := range sources {
		d1, errs := ParseOneDecl("<test>", src)
		require.Empty(t, errs, "parse %q", src)
		printed := ast.Print(d1)
		d2, errs := ParseOneDecl("<test>", printed)
		require.Empty(t, errs, "reparse %q (printed %q)", src, printed)
		if diff := cmp.Diff(d1, d2, ignorePos); diff != "" {
			t.Errorf("round trip of %q via %q changed the tree:\n%s", src, printed, diff)
		}
	}
}
