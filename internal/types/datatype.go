package types

import (
	"fmt"
	"strings"
	"sync"
)

// Constructor describes one constructor of a Datatype: an optional
// argument type (nil for a nullary constructor such as NONE or NIL).
type Constructor struct {
	Name string
	Arg  Type // nil if the constructor takes no argument
}

// Datatype is a named algebraic type, parameterized by zero or more type
// variables, with an ordered set of constructors. Two datatypes with the
// same name and same number of type arguments are the same object
// (spec.md Sec. 3 invariant: interned).
type Datatype struct {
	Name         string
	Params       []*TVar
	Constructors []Constructor
}

func (t *Datatype) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	names := make([]string, len(t.Params))
	for i, p := range t.Params {
		names[i] = p.String()
	}
	return fmt.Sprintf("(%s) %s", strings.Join(names, ", "), t.Name)
}

func (t *Datatype) Equals(o Type) bool {
	op, ok := o.(*Datatype)
	return ok && op == t // interned: pointer identity is type identity
}

func (t *Datatype) Substitute(s Substitution) Type {
	// A bare Datatype reference (not applied to arguments) has nothing to
	// substitute; parameterized uses go through DatatypeApp.
	return t
}

// DatatypeApp is a datatype applied to concrete type arguments, e.g.
// `int option` or `(int, string) tree`.
type DatatypeApp struct {
	Datatype *Datatype
	Args     []Type
}

func (t *DatatypeApp) String() string {
	if len(t.Args) == 0 {
		return t.Datatype.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = parenIfFn(a)
	}
	if len(t.Args) == 1 {
		return fmt.Sprintf("%s %s", parts[0], t.Datatype.Name)
	}
	return fmt.Sprintf("(%s) %s", strings.Join(parts, ", "), t.Datatype.Name)
}

func (t *DatatypeApp) Equals(o Type) bool {
	op, ok := o.(*DatatypeApp)
	if !ok || op.Datatype != t.Datatype || len(op.Args) != len(t.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(op.Args[i]) {
			return false
		}
	}
	return true
}

func (t *DatatypeApp) Substitute(s Substitution) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Substitute(s)
	}
	return &DatatypeApp{Datatype: t.Datatype, Args: args}
}

// ConstructorArgType returns the argument type of ctor instantiated for
// this particular application's type arguments (substituting the
// datatype's parameters), and whether ctor exists.
func (t *DatatypeApp) ConstructorArgType(ctor string) (Type, bool, bool) {
	for _, c := range t.Datatype.Constructors {
		if c.Name == ctor {
			if c.Arg == nil {
				return nil, false, true
			}
			s := make(Substitution, len(t.Datatype.Params))
			for i, p := range t.Datatype.Params {
				if i < len(t.Args) {
					s[p.ID] = t.Args[i]
				}
			}
			return ApplySubstitution(s, c.Arg), true, true
		}
	}
	return nil, false, false
}

// Registry is a process-wide, append-only table of interned datatypes,
// keyed by fully-qualified name (spec.md Sec. 3 lifecycle / Sec. 9 "Global
// mutable state"). A Session may layer a private registry over a shared
// base (see internal/session) for test isolation.
type Registry struct {
	mu     sync.RWMutex
	parent *Registry
	byKey  map[string]*Datatype
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Datatype)}
}

// NewLayeredRegistry returns an empty registry that falls back to parent
// on lookup. Sessions layer their own registry above the shared Base for
// isolation (spec.md Sec. 9 "Global mutable state").
func NewLayeredRegistry(parent *Registry) *Registry {
	return &Registry{parent: parent, byKey: make(map[string]*Datatype)}
}

// Declare interns a new datatype, or returns the existing one if a
// datatype with the same name and arity was already declared (the shape is
// not compared here; the resolver's DatatypeDecl handling replaces the
// existing object's parameters and constructors).
func (r *Registry) Declare(name string, params []*TVar, ctors []Constructor) *Datatype {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(name, len(params))
	if dt, ok := r.byKey[key]; ok {
		return dt
	}
	dt := &Datatype{Name: name, Params: params, Constructors: ctors}
	r.byKey[key] = dt
	return dt
}

// Lookup finds a previously declared datatype by name and arity, walking
// the parent chain.
func (r *Registry) Lookup(name string, arity int) (*Datatype, bool) {
	r.mu.RLock()
	dt, ok := r.byKey[registryKey(name, arity)]
	r.mu.RUnlock()
	if !ok && r.parent != nil {
		return r.parent.Lookup(name, arity)
	}
	return dt, ok
}

// LookupConstructor finds the datatype that declares a constructor with
// the given name, scanning this registry then its parents (constructor
// names are unique across a session's open datatypes by convention, as in
// SML).
func (r *Registry) LookupConstructor(ctor string) (*Datatype, *Constructor, bool) {
	r.mu.RLock()
	for _, dt := range r.byKey {
		for i := range dt.Constructors {
			if dt.Constructors[i].Name == ctor {
				r.mu.RUnlock()
				return dt, &dt.Constructors[i], true
			}
		}
	}
	r.mu.RUnlock()
	if r.parent != nil {
		return r.parent.LookupConstructor(ctor)
	}
	return nil, nil, false
}

func registryKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// Base is the shared, process-wide registry layered under every Session's
// own registry (spec.md Sec. 9 "Global mutable state").
var Base = NewRegistry()

func init() {
	// The built-in `'a option` and `'a list`-like datatypes used pervasively
	// by Morel programs. `list` itself has first-class List-type syntax and
	// is not registered here; `order` and `option` are ordinary datatypes.
	a := NewTypeVar()
	Base.Declare("option", []*TVar{a}, []Constructor{
		{Name: "NONE", Arg: nil},
		{Name: "SOME", Arg: a},
	})
	Base.Declare("order", nil, []Constructor{
		{Name: "LESS", Arg: nil},
		{Name: "EQUAL", Arg: nil},
		{Name: "GREATER", Arg: nil},
	})
}
