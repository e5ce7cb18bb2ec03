package types

import "fmt"

// Unify attempts to unify t1 and t2 under the given substitution, applying
// Robinson-style unification with an occurs check. Record types unify as
// sets of fields: every field must match on both sides, with no row
// polymorphism (spec.md Sec. 4.1). Grounded on the teacher's
// internal/types/unification.go Unify/occurs shape.
func Unify(t1, t2 Type, sub Substitution, pos string) (Substitution, error) {
	t1 = ApplySubstitution(sub, t1)
	t2 = ApplySubstitution(sub, t2)

	if t1.Equals(t2) {
		return sub, nil
	}

	if v, ok := t1.(*TVar); ok {
		return bindVar(v, t2, sub, pos)
	}
	if v, ok := t2.(*TVar); ok {
		return bindVar(v, t1, sub, pos)
	}

	switch a := t1.(type) {
	case *Primitive:
		return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}

	case *Fn:
		b, ok := t2.(*Fn)
		if !ok {
			return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
		}
		sub, err := Unify(a.Param, b.Param, sub, pos)
		if err != nil {
			return nil, err
		}
		return Unify(a.Result, b.Result, sub, pos)

	case *Tuple:
		b, ok := t2.(*Tuple)
		if !ok || len(a.Elements) != len(b.Elements) {
			return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
		}
		var err error
		for i := range a.Elements {
			sub, err = Unify(a.Elements[i], b.Elements[i], sub, pos)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	case *List:
		b, ok := t2.(*List)
		if !ok {
			return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
		}
		return Unify(a.Element, b.Element, sub, pos)

	case *Record:
		b, ok := t2.(*Record)
		if !ok {
			return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
		}
		if len(a.Fields) != len(b.Fields) {
			return nil, &FieldMismatchError{T1: t1, T2: t2, Pos: pos}
		}
		var err error
		for name, ta := range a.Fields {
			tb, ok := b.Fields[name]
			if !ok {
				return nil, &FieldMismatchError{T1: t1, T2: t2, Pos: pos, Field: name}
			}
			sub, err = Unify(ta, tb, sub, pos)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	case *DatatypeApp:
		b, ok := t2.(*DatatypeApp)
		if !ok || a.Datatype != b.Datatype || len(a.Args) != len(b.Args) {
			return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
		}
		var err error
		for i := range a.Args {
			sub, err = Unify(a.Args[i], b.Args[i], sub, pos)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	default:
		return nil, &UnifyError{T1: t1, T2: t2, Pos: pos}
	}
}

func bindVar(v *TVar, t Type, sub Substitution, pos string) (Substitution, error) {
	if other, ok := t.(*TVar); ok && other.ID == v.ID {
		return sub, nil
	}
	if occurs(v.ID, t) {
		return nil, &OccursError{Var: v, T: t, Pos: pos}
	}
	if v.Equality && !admitsEquality(t) {
		return nil, &UnifyError{T1: v, T2: t, Pos: pos}
	}
	// Rewrite existing bindings through v := t so that the substitution
	// stays idempotent: applying it once fully resolves any type.
	next := make(Substitution, len(sub)+1)
	single := Substitution{v.ID: t}
	for k, val := range sub {
		next[k] = val.Substitute(single)
	}
	next[v.ID] = t
	return next, nil
}

func occurs(id int, t Type) bool {
	switch t := t.(type) {
	case *TVar:
		return t.ID == id
	case *Fn:
		return occurs(id, t.Param) || occurs(id, t.Result)
	case *Tuple:
		for _, e := range t.Elements {
			if occurs(id, e) {
				return true
			}
		}
		return false
	case *List:
		return occurs(id, t.Element)
	case *Record:
		for _, f := range t.Fields {
			if occurs(id, f) {
				return true
			}
		}
		return false
	case *DatatypeApp:
		for _, a := range t.Args {
			if occurs(id, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// admitsEquality reports whether a concrete type supports SML-style
// polymorphic equality. Function types and (transitively) anything
// containing one do not.
func admitsEquality(t Type) bool {
	switch t := t.(type) {
	case *Fn:
		return false
	case *TVar:
		return true
	case *Primitive:
		return t.Name != "real"
	case *Tuple:
		for _, e := range t.Elements {
			if !admitsEquality(e) {
				return false
			}
		}
		return true
	case *List:
		return admitsEquality(t.Element)
	case *Record:
		for _, f := range t.Fields {
			if !admitsEquality(f) {
				return false
			}
		}
		return true
	case *DatatypeApp:
		for _, a := range t.Args {
			if !admitsEquality(a) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// UnifyError is a structural mismatch between two types.
type UnifyError struct {
	T1, T2 Type
	Pos    string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("%s: cannot unify %s with %s", e.Pos, e.T1.String(), e.T2.String())
}

// OccursError is raised when unifying a type variable would create a
// cyclic substitution.
type OccursError struct {
	Var *TVar
	T   Type
	Pos string
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("%s: %s occurs in %s", e.Pos, e.Var.String(), e.T.String())
}

// FieldMismatchError is raised when two record types don't have the same
// field set.
type FieldMismatchError struct {
	T1, T2 Type
	Field  string
	Pos    string
}

func (e *FieldMismatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: record field mismatch: %q not present in both %s and %s", e.Pos, e.Field, e.T1, e.T2)
	}
	return fmt.Sprintf("%s: record field mismatch between %s and %s", e.Pos, e.T1, e.T2)
}

// UnknownTypeError is raised when a type name doesn't resolve.
type UnknownTypeError struct {
	Name string
	Pos  string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: unknown type %q", e.Pos, e.Name)
}
