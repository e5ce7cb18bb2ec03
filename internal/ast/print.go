package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders n back to source-level text, for the round-trip printing
// property in spec.md Sec. 8 ("parse(print(a)) is structurally equal to a up to
// positions").
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Ident:
		b.WriteString(n.Name)
	case *Literal:
		b.WriteString(printLiteral(n))
	case *TupleExpr:
		b.WriteString("(")
		printExprList(b, n.Elements)
		b.WriteString(")")
	case *RecordExpr:
		b.WriteString("{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s = ", f.Label)
			printNode(b, f.Value)
		}
		b.WriteString("}")
	case *ListExpr:
		b.WriteString("[")
		printExprList(b, n.Elements)
		b.WriteString("]")
	case *Apply:
		printNode(b, n.Fn)
		b.WriteString(" ")
		printNode(b, n.Arg)
	case *FieldAccess:
		printNode(b, n.Record)
		b.WriteString(".")
		b.WriteString(n.Field)
	case *Selector:
		b.WriteString("#")
		b.WriteString(n.Field)
	case *BinaryOp:
		printNode(b, n.Left)
		fmt.Fprintf(b, " %s ", n.Op)
		printNode(b, n.Right)
	case *UnaryOp:
		b.WriteString(n.Op)
		printNode(b, n.Operand)
	case *AndAlso:
		printNode(b, n.Left)
		b.WriteString(" andalso ")
		printNode(b, n.Right)
	case *OrElse:
		printNode(b, n.Left)
		b.WriteString(" orelse ")
		printNode(b, n.Right)
	case *IfExpr:
		b.WriteString("if ")
		printNode(b, n.Cond)
		b.WriteString(" then ")
		printNode(b, n.Then)
		b.WriteString(" else ")
		printNode(b, n.Else)
	case *Lambda:
		b.WriteString("fn ")
		printNode(b, n.Param)
		b.WriteString(" => ")
		printNode(b, n.Body)
	case *CaseExpr:
		b.WriteString("case ")
		printNode(b, n.Scrutinee)
		b.WriteString(" of ")
		printArms(b, n.Arms)
	case *LetExpr:
		b.WriteString("let ")
		for i, d := range n.Decls {
			if i > 0 {
				b.WriteString(" ")
			}
			printNode(b, d)
		}
		b.WriteString(" in ")
		printNode(b, n.Body)
		b.WriteString(" end")
	case *Annotated:
		printNode(b, n.Expr)
		b.WriteString(" : ")
		printType(b, n.Type)
	case *FromExpr:
		printFrom(b, n)
	case *WildcardPat:
		b.WriteString("_")
	case *ConsPat:
		printNode(b, n.Head)
		b.WriteString(" :: ")
		printNode(b, n.Tail)
	case *ListPat:
		b.WriteString("[")
		printPatList(b, n.Elements)
		b.WriteString("]")
	case *TuplePat:
		b.WriteString("(")
		printPatList(b, n.Elements)
		b.WriteString(")")
	case *RecordPat:
		b.WriteString("{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s = ", f.Label)
			printNode(b, f.Value)
		}
		if n.Rest {
			if len(n.Fields) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteString("}")
	case *ConPat:
		b.WriteString(n.Ctor)
		if n.Arg != nil {
			b.WriteString(" ")
			printNode(b, n.Arg)
		}
	case *AnnotatedPat:
		printNode(b, n.Pattern)
		b.WriteString(" : ")
		printType(b, n.Type)
	case *ValDecl:
		b.WriteString("val ")
		if n.Rec {
			b.WriteString("rec ")
		}
		printNode(b, n.Pattern)
		b.WriteString(" = ")
		printNode(b, n.Value)
	case *FunDecl:
		b.WriteString("fun ")
		for i, c := range n.Clauses {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(n.Name)
			for _, p := range c.Params {
				b.WriteString(" ")
				printNode(b, p)
			}
			b.WriteString(" = ")
			printNode(b, c.Body)
		}
	case *AndDecl:
		for i, d := range n.Decls {
			if i > 0 {
				b.WriteString(" and ")
			}
			printNode(b, d)
		}
	case *DatatypeDecl:
		b.WriteString("datatype ")
		printTyParams(b, n.Params)
		b.WriteString(n.Name)
		b.WriteString(" = ")
		for i, c := range n.Ctors {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(c.Name)
			if c.Arg != nil {
				b.WriteString(" of ")
				printType(b, c.Arg)
			}
		}
	case *TypeDecl:
		b.WriteString("type ")
		printTyParams(b, n.Params)
		b.WriteString(n.Name)
		b.WriteString(" = ")
		printType(b, n.Def)
	case *OverDecl:
		fmt.Fprintf(b, "over %s", n.Name)
		if n.Type != nil {
			b.WriteString(" : ")
			printType(b, n.Type)
		}
	case *InstDecl:
		fmt.Fprintf(b, "inst %s = ", n.Name)
		printNode(b, n.Value)
	case *ExprDecl:
		printNode(b, n.Value)
	default:
		b.WriteString(fmt.Sprintf("<%T>", n))
	}
}

func printLiteral(l *Literal) string {
	switch l.Kind {
	case IntLit:
		return fmt.Sprintf("%d", l.Value)
	case RealLit:
		return strconv.FormatFloat(l.Value.(float64), 'g', -1, 64)
	case StringLit:
		return strconv.Quote(l.Value.(string))
	case CharLit:
		return "#\"" + string(l.Value.(rune)) + "\""
	case BoolLit:
		if l.Value.(bool) {
			return "true"
		}
		return "false"
	case UnitLit:
		return "()"
	default:
		return fmt.Sprintf("%v", l.Value)
	}
}

func printExprList(b *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		printNode(b, e)
	}
}

func printPatList(b *strings.Builder, ps []Pattern) {
	for i, p := range ps {
		if i > 0 {
			b.WriteString(", ")
		}
		printNode(b, p)
	}
}

func printArms(b *strings.Builder, arms []MatchArm) {
	for i, a := range arms {
		if i > 0 {
			b.WriteString(" | ")
		}
		printNode(b, a.Pattern)
		b.WriteString(" => ")
		printNode(b, a.Body)
	}
}

func printTyParams(b *strings.Builder, params []string) {
	if len(params) == 0 {
		return
	}
	if len(params) == 1 {
		fmt.Fprintf(b, "'%s ", params[0])
		return
	}
	b.WriteString("(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "'%s", p)
	}
	b.WriteString(") ")
}

func printType(b *strings.Builder, t TypeExpr) {
	switch t := t.(type) {
	case *NamedType:
		for _, a := range t.Args {
			printType(b, a)
			b.WriteString(" ")
		}
		b.WriteString(t.Name)
	case *VarType:
		if t.Equality {
			b.WriteString("''")
		} else {
			b.WriteString("'")
		}
		b.WriteString(t.Name)
	case *FnType:
		printType(b, t.Param)
		b.WriteString(" -> ")
		printType(b, t.Result)
	case *TupleType:
		for i, e := range t.Elements {
			if i > 0 {
				b.WriteString(" * ")
			}
			printType(b, e)
		}
	case *RecordType:
		b.WriteString("{")
		for i, name := range t.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", name)
			printType(b, t.Fields[name])
		}
		b.WriteString("}")
	}
}

func printFrom(b *strings.Builder, f *FromExpr) {
	b.WriteString("from ")
	for i, c := range f.Clauses {
		if i > 0 {
			b.WriteString(", ")
		}
		printNode(b, c.Var)
		if c.Bind {
			b.WriteString(" = ")
		} else {
			b.WriteString(" in ")
		}
		printNode(b, c.Rhs)
	}
	for _, s := range f.Steps {
		b.WriteString(" ")
		printStep(b, s)
	}
}

func printStep(b *strings.Builder, s FromStep) {
	switch s.Kind {
	case StepWhere:
		b.WriteString("where ")
		printNode(b, s.Cond)
	case StepSkip:
		b.WriteString("skip ")
		printNode(b, s.Count)
	case StepTake:
		b.WriteString("take ")
		printNode(b, s.Count)
	case StepOrder:
		b.WriteString("order ")
		for i, k := range s.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, k.Expr)
			if k.Descending {
				b.WriteString(" desc")
			}
		}
	case StepGroup:
		b.WriteString("group ")
		for i, k := range s.GroupKeys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s = ", k.Label)
			printNode(b, k.Expr)
		}
		if len(s.Aggregates) > 0 {
			b.WriteString(" compute ")
			for i, a := range s.Aggregates {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(b, "%s = ", a.Label)
				printNode(b, a.Fn)
				if a.Of != nil {
					b.WriteString(" of ")
					printNode(b, a.Of)
				}
			}
		}
	case StepYield:
		b.WriteString("yield ")
		printNode(b, s.Yield)
	case StepDistinct:
		b.WriteString("distinct")
	case StepUnorder:
		b.WriteString("unorder")
	case StepUnion, StepIntersect, StepExcept:
		names := map[StepKind]string{StepUnion: "union", StepIntersect: "intersect", StepExcept: "except"}
		b.WriteString(names[s.Kind])
		if s.Distinct {
			b.WriteString(" distinct")
		}
		for _, a := range s.SetArgs {
			b.WriteString(" ")
			printNode(b, a)
		}
	}
}
