package eval

// Operator built-ins. One tag per resolved instance: the resolver chooses
// OP_PLUS_INT vs OP_PLUS_REAL from the inferred operand type, so no
// implementation inspects value kinds.

const (
	OpPlusInt    BuiltIn = "OP_PLUS_INT"
	OpPlusReal   BuiltIn = "OP_PLUS_REAL"
	OpMinusInt   BuiltIn = "OP_MINUS_INT"
	OpMinusReal  BuiltIn = "OP_MINUS_REAL"
	OpTimesInt   BuiltIn = "OP_TIMES_INT"
	OpTimesReal  BuiltIn = "OP_TIMES_REAL"
	OpDivideReal BuiltIn = "OP_DIVIDE_REAL"
	OpDivInt     BuiltIn = "OP_DIV_INT"
	OpModInt     BuiltIn = "OP_MOD_INT"
	OpNegateInt  BuiltIn = "OP_NEGATE_INT"
	OpNegateReal BuiltIn = "OP_NEGATE_REAL"
	OpAbsInt     BuiltIn = "OP_ABS_INT"
	OpAbsReal    BuiltIn = "OP_ABS_REAL"
	OpNot        BuiltIn = "OP_NOT"
	OpEq         BuiltIn = "OP_EQ"
	OpNe         BuiltIn = "OP_NE"
	OpLtInt      BuiltIn = "OP_LT_INT"
	OpLeInt      BuiltIn = "OP_LE_INT"
	OpGtInt      BuiltIn = "OP_GT_INT"
	OpGeInt      BuiltIn = "OP_GE_INT"
	OpLtReal     BuiltIn = "OP_LT_REAL"
	OpLeReal     BuiltIn = "OP_LE_REAL"
	OpGtReal     BuiltIn = "OP_GT_REAL"
	OpGeReal     BuiltIn = "OP_GE_REAL"
	OpLtString   BuiltIn = "OP_LT_STRING"
	OpLeString   BuiltIn = "OP_LE_STRING"
	OpGtString   BuiltIn = "OP_GT_STRING"
	OpGeString   BuiltIn = "OP_GE_STRING"
	OpLtChar     BuiltIn = "OP_LT_CHAR"
	OpLeChar     BuiltIn = "OP_LE_CHAR"
	OpGtChar     BuiltIn = "OP_GT_CHAR"
	OpGeChar     BuiltIn = "OP_GE_CHAR"
	OpCons       BuiltIn = "OP_CONS"
	OpAt         BuiltIn = "OP_AT"
	OpCaret      BuiltIn = "OP_CARET"
)

const (
	maxInt = int(^uint(0) >> 1)
	minInt = -maxInt - 1
)

func init() {
	intBinop := func(tag BuiltIn, fn func(a, b int) (Value, error)) {
		register(tag, 2, true, func(args []Value) (Value, error) {
			return fn(args[0].(*IntValue).Value, args[1].(*IntValue).Value)
		})
	}
	realBinop := func(tag BuiltIn, fn func(a, b float64) (Value, error)) {
		register(tag, 2, true, func(args []Value) (Value, error) {
			return fn(args[0].(*RealValue).Value, args[1].(*RealValue).Value)
		})
	}

	intBinop(OpPlusInt, func(a, b int) (Value, error) {
		if (b > 0 && a > maxInt-b) || (b < 0 && a < minInt-b) {
			return nil, Raise(Overflow)
		}
		return &IntValue{Value: a + b}, nil
	})
	intBinop(OpMinusInt, func(a, b int) (Value, error) {
		if (b < 0 && a > maxInt+b) || (b > 0 && a < minInt+b) {
			return nil, Raise(Overflow)
		}
		return &IntValue{Value: a - b}, nil
	})
	intBinop(OpTimesInt, func(a, b int) (Value, error) {
		p := a * b
		if a != 0 && p/a != b {
			return nil, Raise(Overflow)
		}
		return &IntValue{Value: p}, nil
	})
	intBinop(OpDivInt, func(a, b int) (Value, error) {
		if b == 0 {
			return nil, Raise(Div)
		}
		// SML `div` floors toward negative infinity.
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return &IntValue{Value: q}, nil
	})
	intBinop(OpModInt, func(a, b int) (Value, error) {
		if b == 0 {
			return nil, Raise(Div)
		}
		m := a % b
		if m != 0 && ((a < 0) != (b < 0)) {
			m += b
		}
		return &IntValue{Value: m}, nil
	})
	realBinop(OpPlusReal, func(a, b float64) (Value, error) { return &RealValue{Value: a + b}, nil })
	realBinop(OpMinusReal, func(a, b float64) (Value, error) { return &RealValue{Value: a - b}, nil })
	realBinop(OpTimesReal, func(a, b float64) (Value, error) { return &RealValue{Value: a * b}, nil })
	realBinop(OpDivideReal, func(a, b float64) (Value, error) { return &RealValue{Value: a / b}, nil })

	register(OpNegateInt, 1, true, func(args []Value) (Value, error) {
		v := args[0].(*IntValue).Value
		if v == minInt {
			return nil, Raise(Overflow)
		}
		return &IntValue{Value: -v}, nil
	})
	register(OpNegateReal, 1, true, func(args []Value) (Value, error) {
		return &RealValue{Value: -args[0].(*RealValue).Value}, nil
	})
	register(OpAbsInt, 1, true, func(args []Value) (Value, error) {
		v := args[0].(*IntValue).Value
		if v == minInt {
			return nil, Raise(Overflow)
		}
		if v < 0 {
			v = -v
		}
		return &IntValue{Value: v}, nil
	})
	register(OpAbsReal, 1, true, func(args []Value) (Value, error) {
		v := args[0].(*RealValue).Value
		if v < 0 {
			v = -v
		}
		return &RealValue{Value: v}, nil
	})
	register(OpNot, 1, true, func(args []Value) (Value, error) {
		return Bool(!args[0].(*BoolValue).Value), nil
	})

	register(OpEq, 2, true, func(args []Value) (Value, error) {
		return Bool(Equals(args[0], args[1])), nil
	})
	register(OpNe, 2, true, func(args []Value) (Value, error) {
		return Bool(!Equals(args[0], args[1])), nil
	})

	cmp := func(tag BuiltIn, want func(c int) bool) {
		register(tag, 2, true, func(args []Value) (Value, error) {
			return Bool(want(Compare(args[0], args[1]))), nil
		})
	}
	for _, suffix := range []string{"INT", "REAL", "STRING", "CHAR"} {
		cmp(BuiltIn("OP_LT_"+suffix), func(c int) bool { return c < 0 })
		cmp(BuiltIn("OP_LE_"+suffix), func(c int) bool { return c <= 0 })
		cmp(BuiltIn("OP_GT_"+suffix), func(c int) bool { return c > 0 })
		cmp(BuiltIn("OP_GE_"+suffix), func(c int) bool { return c >= 0 })
	}

	register(OpCons, 2, true, func(args []Value) (Value, error) {
		tail := args[1].(*ListValue)
		elems := make([]Value, 0, len(tail.Elements)+1)
		elems = append(elems, args[0])
		elems = append(elems, tail.Elements...)
		return &ListValue{Elements: elems}, nil
	})
	register(OpAt, 2, true, func(args []Value) (Value, error) {
		a, b := args[0].(*ListValue), args[1].(*ListValue)
		elems := make([]Value, 0, len(a.Elements)+len(b.Elements))
		elems = append(elems, a.Elements...)
		elems = append(elems, b.Elements...)
		return &ListValue{Elements: elems}, nil
	})
	register(OpCaret, 2, true, func(args []Value) (Value, error) {
		return &StringValue{Value: args[0].(*StringValue).Value + args[1].(*StringValue).Value}, nil
	})
}
