package eval

import "fmt"

// BuiltIn is the symbolic tag of a built-in implementation, e.g.
// LIST_MAP, STRING_SIZE, OP_PLUS_INT (spec.md Sec. 4.7). Overloaded
// operators have one tag per instance; the resolver picks the instance at
// compile time, so implementations never test value kinds at runtime.
type BuiltIn string

// Impl is one registered built-in: its arity (1..4) and implementation.
// TupleArgs marks uncurried built-ins (the infix operators and the
// SML-style pair/triple functions): they receive all arguments at once as
// a tuple.
type Impl struct {
	Tag       BuiltIn
	Arity     int
	TupleArgs bool
	Fn        func(args []Value) (Value, error)
}

// Registry is the process-wide built-in table, append-only after init
// (spec.md Sec. 9 "Global mutable state").
var Registry = make(map[BuiltIn]*Impl)

func register(tag BuiltIn, arity int, tupleArgs bool, fn func([]Value) (Value, error)) {
	Registry[tag] = &Impl{Tag: tag, Arity: arity, TupleArgs: tupleArgs, Fn: fn}
}

// Lookup finds a built-in implementation by tag.
func Lookup(tag BuiltIn) (*Impl, bool) {
	impl, ok := Registry[tag]
	return impl, ok
}

// NewBuiltin wraps a tag as a function value, or fails for an unknown tag
// (a compiler invariant violation).
func NewBuiltin(tag BuiltIn) (*Builtin, error) {
	impl, ok := Registry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown built-in %q", tag)
	}
	return &Builtin{impl: impl}, nil
}

// Builtin is a built-in function value, possibly partially applied; curry
// adapters are generated automatically (spec.md Sec. 4.7).
type Builtin struct {
	impl    *Impl
	applied []Value
}

func (b *Builtin) String() string { return "fn" }

// Tag returns the built-in's symbolic tag.
func (b *Builtin) Tag() BuiltIn { return b.impl.Tag }

// Apply adds one argument, running the implementation once all arguments
// are present. Uncurried built-ins unpack their single tuple argument.
func (b *Builtin) Apply(arg Value) (Value, error) {
	if b.impl.TupleArgs {
		if b.impl.Arity == 1 {
			return b.impl.Fn([]Value{arg})
		}
		t, ok := arg.(*TupleValue)
		if !ok || len(t.Elements) != b.impl.Arity {
			return nil, fmt.Errorf("built-in %s expects a %d-tuple argument", b.impl.Tag, b.impl.Arity)
		}
		return b.impl.Fn(t.Elements)
	}
	args := make([]Value, len(b.applied)+1)
	copy(args, b.applied)
	args[len(b.applied)] = arg
	if len(args) == b.impl.Arity {
		return b.impl.Fn(args)
	}
	return &Builtin{impl: b.impl, applied: args}, nil
}
