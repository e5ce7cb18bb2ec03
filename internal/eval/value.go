// Package eval implements Morel's runtime: values, the environment chain,
// the Code interface produced by the compiler, and the built-in library
// (List, String, Math, Relational). Value variants mirror the type system
// (spec.md Sec. 4.7).
package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the common interface of every runtime value.
type Value interface {
	String() string
}

// Code is one executable node produced by the compiler: a tree-walking
// evaluator exposing a single operation (spec.md Sec. 4.5).
type Code interface {
	Eval(env *EvalEnv) (Value, error)
}

// UnitValue is `()`, the empty record.
type UnitValue struct{}

func (u *UnitValue) String() string { return "()" }

var Unit = &UnitValue{}

// BoolValue is a boolean.
type BoolValue struct{ Value bool }

func (b *BoolValue) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

var (
	True  = &BoolValue{Value: true}
	False = &BoolValue{Value: false}
)

// Bool returns the interned boolean value.
func Bool(v bool) *BoolValue {
	if v {
		return True
	}
	return False
}

// IntValue is an integer.
type IntValue struct{ Value int }

func (i *IntValue) String() string {
	if i.Value < 0 {
		return "~" + strconv.Itoa(-i.Value)
	}
	return strconv.Itoa(i.Value)
}

// RealValue is a floating-point number.
type RealValue struct{ Value float64 }

func (r *RealValue) String() string {
	s := strconv.FormatFloat(r.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return strings.ReplaceAll(s, "-", "~")
}

// CharValue is a character.
type CharValue struct{ Value rune }

func (c *CharValue) String() string { return "#\"" + string(c.Value) + "\"" }

// StringValue is a string.
type StringValue struct{ Value string }

func (s *StringValue) String() string { return strconv.Quote(s.Value) }

// TupleValue is an ordered sequence of values.
type TupleValue struct{ Elements []Value }

func (t *TupleValue) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// RecordValue is a record: values ordered by canonical label order.
type RecordValue struct {
	Labels []string
	Values []Value
}

func (r *RecordValue) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, l := range r.Labels {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(l)
		b.WriteString("=")
		b.WriteString(r.Values[i].String())
	}
	b.WriteString("}")
	return b.String()
}

// Field returns the value of a label.
func (r *RecordValue) Field(label string) (Value, bool) {
	for i, l := range r.Labels {
		if l == label {
			return r.Values[i], true
		}
	}
	return nil, false
}

// ListValue is a persistent list.
type ListValue struct{ Elements []Value }

func (l *ListValue) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// TaggedValue is a constructed value `<Ctor, payload?>`.
type TaggedValue struct {
	Ctor    string
	Payload Value // nil for a nullary constructor
}

func (t *TaggedValue) String() string {
	if t.Payload == nil {
		return t.Ctor
	}
	return t.Ctor + " " + t.Payload.String()
}

// Closure is a function value: the captured environment, a parameter
// binder produced by the compiler from the parameter pattern, and the
// body code.
type Closure struct {
	Env  *EvalEnv
	Bind func(arg Value, env *EvalEnv) (*EvalEnv, error)
	Body Code
}

func (c *Closure) String() string { return "fn" }

// Apply runs the closure on one argument.
func (c *Closure) Apply(arg Value) (Value, error) {
	env, err := c.Bind(arg, c.Env)
	if err != nil {
		return nil, err
	}
	return c.Body.Eval(env)
}

// Table wraps a foreign tabular source as a value. The evaluator never
// mutates through this interface (spec.md Sec. 6).
type Table struct{ Source Foreign }

func (t *Table) String() string { return "<relation>" }

// Foreign is the evaluator's view of a foreign tabular source: an opaque
// producer of record-valued rows.
type Foreign interface {
	// Rows materializes the source's rows as record values.
	Rows() ([]Value, error)
	// Ordered reports whether Rows has a deterministic order.
	Ordered() bool
	// SameSource reports value equality with another source.
	SameSource(other Foreign) bool
}

// CtorFn is a unary datatype constructor used as a function value; applying
// it builds the constructed value.
type CtorFn struct{ Ctor string }

func (c *CtorFn) String() string { return "fn" }

// SelectorFn is the function value of `#label`: applied to a record it
// projects the field at Slot (the index in canonical label order).
type SelectorFn struct {
	Field string
	Slot  int
}

func (s *SelectorFn) String() string { return "fn" }

// Apply applies any function value (closure, built-in, constructor, or
// field selector) to an argument.
func Apply(fn Value, arg Value) (Value, error) {
	switch fn := fn.(type) {
	case *Closure:
		return fn.Apply(arg)
	case *Builtin:
		return fn.Apply(arg)
	case *CtorFn:
		return &TaggedValue{Ctor: fn.Ctor, Payload: arg}, nil
	case *SelectorFn:
		rec, ok := arg.(*RecordValue)
		if !ok || fn.Slot >= len(rec.Values) {
			return nil, fmt.Errorf("#%s applied to non-record value %s", fn.Field, arg.String())
		}
		return rec.Values[fn.Slot], nil
	default:
		return nil, fmt.Errorf("cannot apply non-function value %s", fn.String())
	}
}

// Equals is structural value equality (SML polymorphic `=`).
func Equals(a, b Value) bool {
	switch a := a.(type) {
	case *UnitValue:
		_, ok := b.(*UnitValue)
		return ok
	case *BoolValue:
		bb, ok := b.(*BoolValue)
		return ok && a.Value == bb.Value
	case *IntValue:
		bb, ok := b.(*IntValue)
		return ok && a.Value == bb.Value
	case *RealValue:
		bb, ok := b.(*RealValue)
		return ok && a.Value == bb.Value
	case *CharValue:
		bb, ok := b.(*CharValue)
		return ok && a.Value == bb.Value
	case *StringValue:
		bb, ok := b.(*StringValue)
		return ok && a.Value == bb.Value
	case *TupleValue:
		bb, ok := b.(*TupleValue)
		if !ok || len(a.Elements) != len(bb.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equals(a.Elements[i], bb.Elements[i]) {
				return false
			}
		}
		return true
	case *RecordValue:
		bb, ok := b.(*RecordValue)
		if !ok || len(a.Labels) != len(bb.Labels) {
			return false
		}
		for i := range a.Labels {
			if a.Labels[i] != bb.Labels[i] || !Equals(a.Values[i], bb.Values[i]) {
				return false
			}
		}
		return true
	case *ListValue:
		bb, ok := b.(*ListValue)
		if !ok || len(a.Elements) != len(bb.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equals(a.Elements[i], bb.Elements[i]) {
				return false
			}
		}
		return true
	case *TaggedValue:
		bb, ok := b.(*TaggedValue)
		if !ok || a.Ctor != bb.Ctor {
			return false
		}
		if a.Payload == nil || bb.Payload == nil {
			return a.Payload == nil && bb.Payload == nil
		}
		return Equals(a.Payload, bb.Payload)
	case *Table:
		bb, ok := b.(*Table)
		return ok && a.Source.SameSource(bb.Source)
	default:
		return false
	}
}

// Compare orders two values of the same type: -1, 0, or +1. Used by
// `order` steps and the min/max aggregates.
func Compare(a, b Value) int {
	switch a := a.(type) {
	case *BoolValue:
		bb := b.(*BoolValue)
		return boolCmp(a.Value, bb.Value)
	case *IntValue:
		bb := b.(*IntValue)
		return intCmp(a.Value, bb.Value)
	case *RealValue:
		bb := b.(*RealValue)
		switch {
		case a.Value < bb.Value:
			return -1
		case a.Value > bb.Value:
			return 1
		default:
			return 0
		}
	case *CharValue:
		bb := b.(*CharValue)
		return intCmp(int(a.Value), int(bb.Value))
	case *StringValue:
		bb := b.(*StringValue)
		return strings.Compare(a.Value, bb.Value)
	case *TupleValue:
		bb := b.(*TupleValue)
		for i := range a.Elements {
			if c := Compare(a.Elements[i], bb.Elements[i]); c != 0 {
				return c
			}
		}
		return 0
	case *RecordValue:
		bb := b.(*RecordValue)
		for i := range a.Values {
			if c := Compare(a.Values[i], bb.Values[i]); c != 0 {
				return c
			}
		}
		return 0
	case *ListValue:
		bb := b.(*ListValue)
		n := len(a.Elements)
		if len(bb.Elements) < n {
			n = len(bb.Elements)
		}
		for i := 0; i < n; i++ {
			if c := Compare(a.Elements[i], bb.Elements[i]); c != 0 {
				return c
			}
		}
		return intCmp(len(a.Elements), len(bb.Elements))
	case *TaggedValue:
		bb := b.(*TaggedValue)
		if c := strings.Compare(a.Ctor, bb.Ctor); c != 0 {
			return c
		}
		if a.Payload == nil || bb.Payload == nil {
			return 0
		}
		return Compare(a.Payload, bb.Payload)
	default:
		return 0
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
