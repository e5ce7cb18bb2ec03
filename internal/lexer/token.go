// Package lexer tokenizes Morel source text. Grounded on the teacher's
// internal/lexer/lexer.go (position-tracking scanner) and normalize.go
// (NFC normalization via golang.org/x/text/unicode/norm).
package lexer

import "fmt"

// Kind enumerates token kinds.
type Kind int

const (
	EOF Kind = iota
	Ident
	IntLit
	RealLit
	StringLit
	CharLit

	// Keywords
	KwVal
	KwFun
	KwRec
	KwAnd
	KwFn
	KwCase
	KwOf
	KwIf
	KwThen
	KwElse
	KwLet
	KwIn
	KwEnd
	KwDatatype
	KwType
	KwOver
	KwInst
	KwFrom
	KwWhere
	KwSkip
	KwTake
	KwOrder
	KwDesc
	KwGroup
	KwCompute
	KwYield
	KwDistinct
	KwUnorder
	KwUnion
	KwIntersect
	KwExcept
	KwAndAlso
	KwOrElse
	KwNot
	KwTrue
	KwFalse
	KwNil

	// Punctuation / operators
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Semi
	Dot
	DotDotDot
	Colon
	ColonColon // `::` cons operator
	Equals
	FatArrow // `=>`
	Arrow    // `->`
	Bar      // `|`
	Star
	Plus
	Minus
	Slash
	Tilde
	Lt
	Le
	Gt
	Ge
	Ne
	At
	Hash // `#` field selector
	Percent

	Illegal
)

var keywords = map[string]Kind{
	"val": KwVal, "fun": KwFun, "rec": KwRec, "and": KwAnd, "fn": KwFn,
	"case": KwCase, "of": KwOf, "if": KwIf, "then": KwThen, "else": KwElse,
	"let": KwLet, "in": KwIn, "end": KwEnd, "datatype": KwDatatype,
	"type": KwType, "over": KwOver, "inst": KwInst, "from": KwFrom,
	"where": KwWhere, "skip": KwSkip, "take": KwTake, "order": KwOrder,
	"desc": KwDesc, "group": KwGroup, "compute": KwCompute, "yield": KwYield,
	"distinct": KwDistinct, "unorder": KwUnorder,
	"union": KwUnion, "intersect": KwIntersect,
	"except": KwExcept, "andalso": KwAndAlso, "orelse": KwOrElse,
	"not": KwNot, "true": KwTrue, "false": KwFalse, "nil": KwNil,
}

// Position is a line/column location within a source file.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col) }

// Token is one lexical token.
type Token struct {
	Kind  Kind
	Text  string
	Value interface{} // parsed literal value for IntLit/RealLit/StringLit/CharLit
	Start Position
	End   Position
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case IntLit:
		return "int literal"
	case RealLit:
		return "real literal"
	case StringLit:
		return "string literal"
	case CharLit:
		return "char literal"
	case Illegal:
		return "illegal token"
	default:
		for text, kind := range keywords {
			if kind == k {
				return text
			}
		}
		return "token"
	}
}
