package session

import (
	"fmt"
	"strings"

	"github.com/hydromatic/morel-go/internal/types"
)

// FormatScheme prints a generalized type the way the REPL reports it:
// bound variables renamed to 'a, 'b, ... in order of first appearance
// (''a for equality variables), quantifiers implicit.
func FormatScheme(scheme *types.Forall) string {
	names := make(map[int]string, len(scheme.Vars))
	next := 0
	var assign func(t types.Type)
	assign = func(t types.Type) {
		switch t := t.(type) {
		case *types.TVar:
			if _, ok := names[t.ID]; !ok {
				name := varName(next)
				next++
				if t.Equality {
					names[t.ID] = "''" + name
				} else {
					names[t.ID] = "'" + name
				}
			}
		case *types.Fn:
			assign(t.Param)
			assign(t.Result)
		case *types.Tuple:
			for _, e := range t.Elements {
				assign(e)
			}
		case *types.List:
			assign(t.Element)
		case *types.Record:
			for _, l := range t.SortedLabels() {
				assign(t.Fields[l])
			}
		case *types.DatatypeApp:
			for _, a := range t.Args {
				assign(a)
			}
		}
	}
	assign(scheme.Body)
	return formatType(scheme.Body, names, false)
}

// FormatType prints a type with its raw variable names.
func FormatType(t types.Type) string {
	return formatType(t, nil, false)
}

func varName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("a%d", i)
}

// formatType renders t; paren controls parenthesizing of function and
// tuple types in argument positions.
func formatType(t types.Type, names map[int]string, paren bool) string {
	switch t := t.(type) {
	case *types.Primitive:
		return t.Name

	case *types.TVar:
		if n, ok := names[t.ID]; ok {
			return n
		}
		return t.String()

	case *types.Fn:
		s := formatType(t.Param, names, true) + " -> " + formatType(t.Result, names, false)
		if paren {
			return "(" + s + ")"
		}
		return s

	case *types.Tuple:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = formatType(e, names, true)
		}
		s := strings.Join(parts, " * ")
		if paren {
			return "(" + s + ")"
		}
		return s

	case *types.List:
		return formatType(t.Element, names, true) + " list"

	case *types.Record:
		labels := t.SortedLabels()
		parts := make([]string, len(labels))
		for i, l := range labels {
			parts[i] = l + ":" + formatType(t.Fields[l], names, false)
		}
		return "{" + strings.Join(parts, ", ") + "}"

	case *types.DatatypeApp:
		if len(t.Args) == 0 {
			return t.Datatype.Name
		}
		if len(t.Args) == 1 {
			return formatType(t.Args[0], names, true) + " " + t.Datatype.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = formatType(a, names, false)
		}
		return "(" + strings.Join(parts, ",") + ") " + t.Datatype.Name

	case *types.Datatype:
		return t.Name

	case *types.Forall:
		return formatType(t.Body, names, paren)

	default:
		return t.String()
	}
}
