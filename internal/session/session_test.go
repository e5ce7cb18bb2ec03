package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Out = &out
	s, err := New(cfg)
	require.NoError(t, err)
	return s, &out
}

func runLines(t *testing.T, src string) []string {
	t.Helper()
	s, out := newTestSession(t)
	s.Run(src)
	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestArithmetic(t *testing.T) {
	lines := runLines(t, "1 + 2 * 3;")
	require.Equal(t, []string{"val it = 7 : int"}, lines)
}

func TestFactorial(t *testing.T) {
	lines := runLines(t, "fun fact 0 = 1 | fact n = n * fact (n - 1); fact 5;")
	require.Equal(t, []string{
		"val fact = fn : int -> int",
		"val it = 120 : int",
	}, lines)
}

func TestOrderStep(t *testing.T) {
	lines := runLines(t, "val xs = [3,1,2]; from x in xs order x;")
	require.Equal(t, []string{
		"val xs = [3,1,2] : int list",
		"val it = [1,2,3] : int list",
	}, lines)
}

func TestGroupCompute(t *testing.T) {
	lines := runLines(t,
		`from e in [{id=1,dept="A"},{id=2,dept="B"},{id=3,dept="A"}] group d = #dept e compute {c = count of e};`)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `{c=2,d="A"}`)
	assert.Contains(t, lines[0], `{c=1,d="B"}`)
	assert.Contains(t, lines[0], ": {c:int, d:string} list")
}

func TestDatatypeOption(t *testing.T) {
	lines := runLines(t,
		"datatype 'a option = NONE | SOME of 'a; fun nvl NONE = 0 | nvl (SOME x) = x; nvl (SOME 7);")
	require.Equal(t, []string{
		"datatype option",
		"val nvl = fn : int option -> int",
		"val it = 7 : int",
	}, lines)
}

func TestMutualRecursionInLet(t *testing.T) {
	lines := runLines(t,
		"let val rec even = fn 0 => true | n => odd (n-1) and odd = fn 0 => false | n => even (n-1) in even 10 end;")
	require.Equal(t, []string{"val it = true : bool"}, lines)
}

func TestPolymorphicValuePrintsScheme(t *testing.T) {
	lines := runLines(t, "val id = fn x => x;")
	require.Equal(t, []string{"val id = fn : 'a -> 'a"}, lines)
}

func TestItShadowing(t *testing.T) {
	lines := runLines(t, "1 + 1; it * 10;")
	require.Equal(t, []string{
		"val it = 2 : int",
		"val it = 20 : int",
	}, lines)
}

func TestWhereYieldPipeline(t *testing.T) {
	lines := runLines(t, "from x in [1,2,3,4] where x > 1 yield x * 10;")
	require.Equal(t, []string{"val it = [20,30,40] : int list"}, lines)
}

func TestJoinTwoScans(t *testing.T) {
	lines := runLines(t,
		"from x in [1,2], y in [10,20] where x * 10 = y yield x + y;")
	require.Equal(t, []string{"val it = [11,22] : int list"}, lines)
}

func TestBindClause(t *testing.T) {
	lines := runLines(t, "from x in [1,2,3], y = 10 yield x * y;")
	require.Equal(t, []string{"val it = [10,20,30] : int list"}, lines)
}

func TestCorrelatedScan(t *testing.T) {
	lines := runLines(t, "from xs in [[1,2],[3]], x in xs yield x;")
	require.Equal(t, []string{"val it = [1,2,3] : int list"}, lines)
}

func TestSkipTake(t *testing.T) {
	lines := runLines(t, "from x in [1,2,3,4,5] skip 1 take 2;")
	require.Equal(t, []string{"val it = [2,3] : int list"}, lines)
}

func TestDistinct(t *testing.T) {
	lines := runLines(t, "from x in [1,2,1,3,2] distinct order x;")
	require.Equal(t, []string{"val it = [1,2,3] : int list"}, lines)
}

func TestUnionBagSemantics(t *testing.T) {
	lines := runLines(t, "from x in [1,2] union [2,3] order x;")
	require.Equal(t, []string{"val it = [1,2,2,3] : int list"}, lines)
}

func TestUnionDistinct(t *testing.T) {
	lines := runLines(t, "from x in [1,2] union distinct [2,3] order x;")
	require.Equal(t, []string{"val it = [1,2,3] : int list"}, lines)
}

func TestExceptIntersect(t *testing.T) {
	lines := runLines(t, "from x in [1,1,2,3] except [1] order x; from x in [1,2,3] intersect [2,3,4] order x;")
	require.Equal(t, []string{
		"val it = [1,2,3] : int list",
		"val it = [2,3] : int list",
	}, lines)
}

func TestGroupSingleKeyYieldsAtoms(t *testing.T) {
	lines := runLines(t, "from x in [1,2,1] group k = x order k;")
	require.Equal(t, []string{"val it = [1,2] : int list"}, lines)
}

func TestRecordSelectorFunction(t *testing.T) {
	lines := runLines(t, `val e = {id = 5, dept = "A"}; #id e;`)
	require.Equal(t, []string{
		`val e = {dept="A",id=5} : {dept:string, id:int}`,
		"val it = 5 : int",
	}, lines)
}

func TestTupleValue(t *testing.T) {
	lines := runLines(t, "(7, true);")
	require.Equal(t, []string{"val it = (7,true) : int * bool"}, lines)
}

func TestRuntimeErrorLeavesEnvironmentUntouched(t *testing.T) {
	s, out := newTestSession(t)
	require.Equal(t, OK, s.Execute("val x = 1"))
	require.Equal(t, RuntimeError, s.Execute("val y = 1 div 0"))
	assert.Contains(t, out.String(), "Div")
	out.Reset()
	require.Equal(t, StaticError, s.Execute("y"), "y must not have been bound")
	out.Reset()
	require.Equal(t, OK, s.Execute("x"))
	assert.Contains(t, out.String(), "val it = 1 : int")
}

func TestTypeErrorReportsPosition(t *testing.T) {
	s, out := newTestSession(t)
	require.Equal(t, StaticError, s.Execute(`1 + "two"`))
	assert.Contains(t, out.String(), "<stdin>:")
}

func TestNonExhaustiveMatchWarnsThenRaisesBind(t *testing.T) {
	s, out := newTestSession(t)
	require.Equal(t, OK, s.Execute("val f = fn 0 => 1"))
	assert.Contains(t, out.String(), "warning:")
	out.Reset()
	require.Equal(t, RuntimeError, s.Execute("f 5"))
	assert.Contains(t, out.String(), "Bind")
}

func TestRedundantMatchRejected(t *testing.T) {
	s, out := newTestSession(t)
	require.Equal(t, StaticError, s.Execute("fn x => case x of _ => 1 | true => 2"))
	assert.Contains(t, out.String(), "redundant")
}

func TestEcho(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Out = &out
	cfg.Echo = true
	s, err := New(cfg)
	require.NoError(t, err)
	s.Execute("1 + 1")
	assert.Equal(t, "1 + 1\nval it = 2 : int\n", out.String())
}

func TestPrintLengthLimit(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Out = &out
	cfg.PrintLength = 3
	s, err := New(cfg)
	require.NoError(t, err)
	s.Execute("[1,2,3,4,5]")
	assert.Contains(t, out.String(), "[1,2,3,...]")
}

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements("val x = 1; let val y = 2; val z = 3 in y + z end; x;")
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[1], "let")
	assert.Contains(t, stmts[1], "end")
}

func TestCompleteTracksNesting(t *testing.T) {
	assert.False(t, Complete("let val x = 1;"))
	assert.True(t, Complete("let val x = 1; in x end;"))
	assert.False(t, Complete("val x ="))
}

func TestUseImportsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.sml")
	require.NoError(t, os.WriteFile(path, []byte("val shared = 21;\n"), 0o644))

	color.NoColor = true
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Out = &out
	cfg.Directory = dir
	s, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, OK, s.Execute(`use "defs.sml"`))
	require.Equal(t, OK, s.Execute("shared * 2"))
	assert.Contains(t, out.String(), "val it = 42 : int")
}
