package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestKeywordsAndOperators(t *testing.T) {
	toks := New("<t>", "val x = 1 + 2;").Tokenize()
	require.Equal(t, []Kind{KwVal, Ident, Equals, IntLit, Plus, IntLit, Semi, EOF}, kinds(toks))
}

func TestLiterals(t *testing.T) {
	toks := New("<t>", `42 2.5 "hi\n" #"c"`).Tokenize()
	require.Equal(t, []Kind{IntLit, RealLit, StringLit, CharLit, EOF}, kinds(toks))
	assert.Equal(t, 42, toks[0].Value)
	assert.Equal(t, 2.5, toks[1].Value)
	assert.Equal(t, "hi\n", toks[2].Value)
	assert.Equal(t, 'c', toks[3].Value)
}

func TestTypeVariables(t *testing.T) {
	toks := New("<t>", "'a ''b").Tokenize()
	require.Equal(t, []Kind{Ident, Ident, EOF}, kinds(toks))
	assert.Equal(t, false, toks[0].Value)
	assert.Equal(t, true, toks[1].Value, "''b is an equality type variable")
}

func TestNestedComments(t *testing.T) {
	toks := New("<t>", "1 (* outer (* inner *) still out *) 2").Tokenize()
	require.Equal(t, []Kind{IntLit, IntLit, EOF}, kinds(toks))
}

// Source is NFC-normalized before tokenizing, so a combining accent and
// the precomposed character lex to the same identifier.
func TestNFCNormalization(t *testing.T) {
	composed := "café"
	decomposed := "café"
	a := New("<t>", composed).Tokenize()
	b := New("<t>", decomposed).Tokenize()
	require.Equal(t, a[0].Text, b[0].Text)
}

func TestPositionsTrackLinesAndColumns(t *testing.T) {
	toks := New("<t>", "val\n  x").Tokenize()
	require.Equal(t, 1, toks[0].Start.Line)
	require.Equal(t, 2, toks[1].Start.Line)
	require.Equal(t, 3, toks[1].Start.Col)
}
