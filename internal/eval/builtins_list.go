package eval

// List library built-ins.

const (
	ListMap    BuiltIn = "LIST_MAP"
	ListFilter BuiltIn = "LIST_FILTER"
	ListLength BuiltIn = "LIST_LENGTH"
	ListRev    BuiltIn = "LIST_REV"
	ListHd     BuiltIn = "LIST_HD"
	ListTl     BuiltIn = "LIST_TL"
	ListNull   BuiltIn = "LIST_NULL"
	ListNth    BuiltIn = "LIST_NTH"
	ListFoldl  BuiltIn = "LIST_FOLDL"
	ListFoldr  BuiltIn = "LIST_FOLDR"
	ListConcat BuiltIn = "LIST_CONCAT"
	ListExists BuiltIn = "LIST_EXISTS"
	ListAll    BuiltIn = "LIST_ALL"
)

func init() {
	register(ListMap, 2, false, func(args []Value) (Value, error) {
		fn, xs := args[0], args[1].(*ListValue)
		out := make([]Value, len(xs.Elements))
		for i, x := range xs.Elements {
			v, err := Apply(fn, x)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return &ListValue{Elements: out}, nil
	})
	register(ListFilter, 2, false, func(args []Value) (Value, error) {
		fn, xs := args[0], args[1].(*ListValue)
		var out []Value
		for _, x := range xs.Elements {
			v, err := Apply(fn, x)
			if err != nil {
				return nil, err
			}
			if v.(*BoolValue).Value {
				out = append(out, x)
			}
		}
		return &ListValue{Elements: out}, nil
	})
	register(ListLength, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: len(args[0].(*ListValue).Elements)}, nil
	})
	register(ListRev, 1, false, func(args []Value) (Value, error) {
		xs := args[0].(*ListValue).Elements
		out := make([]Value, len(xs))
		for i, x := range xs {
			out[len(xs)-1-i] = x
		}
		return &ListValue{Elements: out}, nil
	})
	register(ListHd, 1, false, func(args []Value) (Value, error) {
		xs := args[0].(*ListValue).Elements
		if len(xs) == 0 {
			return nil, Raise(Empty)
		}
		return xs[0], nil
	})
	register(ListTl, 1, false, func(args []Value) (Value, error) {
		xs := args[0].(*ListValue).Elements
		if len(xs) == 0 {
			return nil, Raise(Empty)
		}
		return &ListValue{Elements: xs[1:]}, nil
	})
	register(ListNull, 1, false, func(args []Value) (Value, error) {
		return Bool(len(args[0].(*ListValue).Elements) == 0), nil
	})
	register(ListNth, 2, true, func(args []Value) (Value, error) {
		xs := args[0].(*ListValue).Elements
		i := args[1].(*IntValue).Value
		if i < 0 || i >= len(xs) {
			return nil, Raise(Subscript)
		}
		return xs[i], nil
	})
	register(ListFoldl, 3, false, func(args []Value) (Value, error) {
		fn, acc, xs := args[0], args[1], args[2].(*ListValue)
		for _, x := range xs.Elements {
			v, err := Apply(fn, &TupleValue{Elements: []Value{x, acc}})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
	register(ListFoldr, 3, false, func(args []Value) (Value, error) {
		fn, acc, xs := args[0], args[1], args[2].(*ListValue)
		for i := len(xs.Elements) - 1; i >= 0; i-- {
			v, err := Apply(fn, &TupleValue{Elements: []Value{xs.Elements[i], acc}})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
	register(ListConcat, 1, false, func(args []Value) (Value, error) {
		var out []Value
		for _, xs := range args[0].(*ListValue).Elements {
			out = append(out, xs.(*ListValue).Elements...)
		}
		return &ListValue{Elements: out}, nil
	})
	register(ListExists, 2, false, func(args []Value) (Value, error) {
		fn, xs := args[0], args[1].(*ListValue)
		for _, x := range xs.Elements {
			v, err := Apply(fn, x)
			if err != nil {
				return nil, err
			}
			if v.(*BoolValue).Value {
				return True, nil
			}
		}
		return False, nil
	})
	register(ListAll, 2, false, func(args []Value) (Value, error) {
		fn, xs := args[0], args[1].(*ListValue)
		for _, x := range xs.Elements {
			v, err := Apply(fn, x)
			if err != nil {
				return nil, err
			}
			if !v.(*BoolValue).Value {
				return False, nil
			}
		}
		return True, nil
	})
}
