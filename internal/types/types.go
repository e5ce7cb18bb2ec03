// Package types implements Morel's Hindley-Milner type system: primitive,
// function, tuple, record, list, datatype, and type-variable types, with
// unification, generalization, and a process-wide datatype registry.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the common interface for every type variant.
type Type interface {
	String() string
	Equals(Type) bool
	Substitute(Substitution) Type
}

// Substitution maps type variable identity to a replacement type.
type Substitution map[int]Type

// Primitive is one of unit, bool, int, real, char, string.
type Primitive struct {
	Name string
}

var (
	Unit   = &Primitive{Name: "unit"}
	Bool   = &Primitive{Name: "bool"}
	Int    = &Primitive{Name: "int"}
	Real   = &Primitive{Name: "real"}
	Char   = &Primitive{Name: "char"}
	String = &Primitive{Name: "string"}
)

func (t *Primitive) String() string { return t.Name }
func (t *Primitive) Equals(o Type) bool {
	op, ok := o.(*Primitive)
	return ok && op.Name == t.Name
}
func (t *Primitive) Substitute(Substitution) Type { return t }

// Fn is a function type param -> result.
type Fn struct {
	Param  Type
	Result Type
}

func NewFn(param, result Type) *Fn { return &Fn{Param: param, Result: result} }

func (t *Fn) String() string {
	return fmt.Sprintf("%s -> %s", parenIfFn(t.Param), t.Result.String())
}
func parenIfFn(t Type) string {
	if _, ok := t.(*Fn); ok {
		return "(" + t.String() + ")"
	}
	return t.String()
}
func (t *Fn) Equals(o Type) bool {
	op, ok := o.(*Fn)
	return ok && t.Param.Equals(op.Param) && t.Result.Equals(op.Result)
}
func (t *Fn) Substitute(s Substitution) Type {
	return &Fn{Param: t.Param.Substitute(s), Result: t.Result.Substitute(s)}
}

// Tuple is an ordered sequence of element types.
type Tuple struct {
	Elements []Type
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " * ")
}
func (t *Tuple) Equals(o Type) bool {
	op, ok := o.(*Tuple)
	if !ok || len(op.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if !t.Elements[i].Equals(op.Elements[i]) {
			return false
		}
	}
	return true
}
func (t *Tuple) Substitute(s Substitution) Type {
	elems := make([]Type, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.Substitute(s)
	}
	return &Tuple{Elements: elems}
}

// Record maps field label to type. Field sets are compared as sets; there
// is no row polymorphism (spec.md Sec. 3/4.1: closed records only).
type Record struct {
	Fields map[string]Type
}

// SortedLabels returns the record's field labels in canonical order:
// integer labels compare numerically, name labels lexicographically,
// digits sort before letters (spec.md Sec. 9 "Record-field ordering").
func (t *Record) SortedLabels() []string {
	labels := make([]string, 0, len(t.Fields))
	for l := range t.Fields {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return LabelLess(labels[i], labels[j]) })
	return labels
}

func (t *Record) String() string {
	labels := t.SortedLabels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s: %s", l, t.Fields[l].String())
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}
func (t *Record) Equals(o Type) bool {
	op, ok := o.(*Record)
	if !ok || len(op.Fields) != len(t.Fields) {
		return false
	}
	for name, typ := range t.Fields {
		oTyp, exists := op.Fields[name]
		if !exists || !typ.Equals(oTyp) {
			return false
		}
	}
	return true
}
func (t *Record) Substitute(s Substitution) Type {
	fields := make(map[string]Type, len(t.Fields))
	for name, typ := range t.Fields {
		fields[name] = typ.Substitute(s)
	}
	return &Record{Fields: fields}
}

// List is a homogeneous list type.
type List struct {
	Element Type
}

func (t *List) String() string { return fmt.Sprintf("%s list", parenIfFn(t.Element)) }
func (t *List) Equals(o Type) bool {
	op, ok := o.(*List)
	return ok && t.Element.Equals(op.Element)
}
func (t *List) Substitute(s Substitution) Type { return &List{Element: t.Element.Substitute(s)} }

// TVar is a type variable, identified by a unique id. Equality-constrained
// variables (introduced by polymorphic equality uses) may only unify with
// types that admit equality.
type TVar struct {
	ID       int
	Equality bool
}

func (t *TVar) String() string {
	if t.Equality {
		return fmt.Sprintf("''a%d", t.ID)
	}
	return fmt.Sprintf("'a%d", t.ID)
}
func (t *TVar) Equals(o Type) bool {
	op, ok := o.(*TVar)
	return ok && op.ID == t.ID
}
func (t *TVar) Substitute(s Substitution) Type {
	if sub, ok := s[t.ID]; ok {
		return sub
	}
	return t
}

var tyVarCounter int

// NewTypeVar returns a fresh, globally unique type variable.
func NewTypeVar() *TVar {
	tyVarCounter++
	return &TVar{ID: tyVarCounter}
}

// NewEqualityTypeVar returns a fresh type variable constrained to types
// that support equality (used for polymorphic `=`/`<>` and `case`).
func NewEqualityTypeVar() *TVar {
	tv := NewTypeVar()
	tv.Equality = true
	return tv
}

// Forall is a generalized type scheme: zero or more quantified type
// variables bound around a body type.
type Forall struct {
	Vars []*TVar
	Body Type
}

func (t *Forall) String() string {
	if len(t.Vars) == 0 {
		return t.Body.String()
	}
	names := make([]string, len(t.Vars))
	for i, v := range t.Vars {
		names[i] = v.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), t.Body.String())
}
func (t *Forall) Equals(o Type) bool {
	op, ok := o.(*Forall)
	if !ok || len(op.Vars) != len(t.Vars) {
		return false
	}
	return t.Body.Equals(op.Body)
}
func (t *Forall) Substitute(s Substitution) Type {
	// Bound variables shadow outer substitutions of the same id.
	inner := make(Substitution, len(s))
	for k, v := range s {
		inner[k] = v
	}
	for _, v := range t.Vars {
		delete(inner, v.ID)
	}
	return &Forall{Vars: t.Vars, Body: t.Body.Substitute(inner)}
}

// Instantiate replaces every bound variable with a fresh type variable,
// preserving each variable's equality constraint.
func (t *Forall) Instantiate() Type {
	if len(t.Vars) == 0 {
		return t.Body
	}
	s := make(Substitution, len(t.Vars))
	for _, v := range t.Vars {
		fresh := NewTypeVar()
		fresh.Equality = v.Equality
		s[v.ID] = fresh
	}
	return t.Body.Substitute(s)
}

// ApplySubstitution applies s to t; a no-op for an empty substitution.
func ApplySubstitution(s Substitution, t Type) Type {
	if len(s) == 0 {
		return t
	}
	return t.Substitute(s)
}

// Compose returns the substitution equivalent to applying s1 then s2.
func Compose(s1, s2 Substitution) Substitution {
	result := make(Substitution, len(s1)+len(s2))
	for k, v := range s1 {
		result[k] = ApplySubstitution(s2, v)
	}
	for k, v := range s2 {
		if _, ok := result[k]; !ok {
			result[k] = v
		}
	}
	return result
}

// LabelLess implements the canonical record/tuple-field ordering: numeric
// labels compare as integers; otherwise lexicographic; numeric labels sort
// before non-numeric ones (spec.md Sec. 9).
func LabelLess(a, b string) bool {
	an, aIsNum := labelAsInt(a)
	bn, bIsNum := labelAsInt(b)
	switch {
	case aIsNum && bIsNum:
		return an < bn
	case aIsNum && !bIsNum:
		return true
	case !aIsNum && bIsNum:
		return false
	default:
		return a < b
	}
}

func labelAsInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
