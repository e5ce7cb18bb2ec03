package eval

// Relational built-ins: the aggregate functions usable in
// `group ... compute`, applied by the planner/compiler to the list of
// grouped values.

const (
	RelCount   BuiltIn = "REL_COUNT"
	RelSumInt  BuiltIn = "REL_SUM_INT"
	RelSumReal BuiltIn = "REL_SUM_REAL"
	RelMin     BuiltIn = "REL_MIN"
	RelMax     BuiltIn = "REL_MAX"
)

func init() {
	register(RelCount, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: len(args[0].(*ListValue).Elements)}, nil
	})
	register(RelSumInt, 1, false, func(args []Value) (Value, error) {
		total := 0
		for _, v := range args[0].(*ListValue).Elements {
			total += v.(*IntValue).Value
		}
		return &IntValue{Value: total}, nil
	})
	register(RelSumReal, 1, false, func(args []Value) (Value, error) {
		total := 0.0
		for _, v := range args[0].(*ListValue).Elements {
			total += v.(*RealValue).Value
		}
		return &RealValue{Value: total}, nil
	})
	minmax := func(tag BuiltIn, want int) {
		register(tag, 1, false, func(args []Value) (Value, error) {
			xs := args[0].(*ListValue).Elements
			if len(xs) == 0 {
				return nil, Raise(Empty)
			}
			best := xs[0]
			for _, v := range xs[1:] {
				if c := Compare(v, best); (want < 0 && c < 0) || (want > 0 && c > 0) {
					best = v
				}
			}
			return best, nil
		})
	}
	minmax(RelMin, -1)
	minmax(RelMax, 1)
}
