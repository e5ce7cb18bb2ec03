package eval

import "strings"

// String library built-ins.

const (
	StringSize      BuiltIn = "STRING_SIZE"
	StringSub       BuiltIn = "STRING_SUB"
	StringSubstring BuiltIn = "STRING_SUBSTRING"
	StringConcat    BuiltIn = "STRING_CONCAT"
	StringStr       BuiltIn = "STRING_STR"
	StringImplode   BuiltIn = "STRING_IMPLODE"
	StringExplode   BuiltIn = "STRING_EXPLODE"
)

func init() {
	register(StringSize, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: len(args[0].(*StringValue).Value)}, nil
	})
	register(StringSub, 2, true, func(args []Value) (Value, error) {
		s := args[0].(*StringValue).Value
		i := args[1].(*IntValue).Value
		if i < 0 || i >= len(s) {
			return nil, Raise(Subscript)
		}
		return &CharValue{Value: rune(s[i])}, nil
	})
	register(StringSubstring, 3, true, func(args []Value) (Value, error) {
		s := args[0].(*StringValue).Value
		i := args[1].(*IntValue).Value
		n := args[2].(*IntValue).Value
		if i < 0 || n < 0 || i+n > len(s) {
			return nil, Raise(Subscript)
		}
		return &StringValue{Value: s[i : i+n]}, nil
	})
	register(StringConcat, 1, false, func(args []Value) (Value, error) {
		var b strings.Builder
		for _, v := range args[0].(*ListValue).Elements {
			b.WriteString(v.(*StringValue).Value)
		}
		return &StringValue{Value: b.String()}, nil
	})
	register(StringStr, 1, false, func(args []Value) (Value, error) {
		return &StringValue{Value: string(args[0].(*CharValue).Value)}, nil
	})
	register(StringImplode, 1, false, func(args []Value) (Value, error) {
		var b strings.Builder
		for _, v := range args[0].(*ListValue).Elements {
			b.WriteRune(v.(*CharValue).Value)
		}
		return &StringValue{Value: b.String()}, nil
	})
	register(StringExplode, 1, false, func(args []Value) (Value, error) {
		s := args[0].(*StringValue).Value
		out := make([]Value, 0, len(s))
		for _, r := range s {
			out = append(out, &CharValue{Value: r})
		}
		return &ListValue{Elements: out}, nil
	})
}
