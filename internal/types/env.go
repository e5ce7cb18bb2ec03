package types

// Env is an immutable, lexically-scoped mapping from name to type scheme.
// Child environments share their parent by reference (spec.md Sec. 3
// "Bindings and environments"). Grounded on the teacher's
// internal/eval/env.go parent-chain shape, applied at the type level.
type Env struct {
	parent *Env
	names  map[string]*Forall
}

// NewEnv returns an empty top-level type environment.
func NewEnv() *Env {
	return &Env{names: make(map[string]*Forall)}
}

// Extend returns a new child environment with name bound to scheme.
func (e *Env) Extend(name string, scheme *Forall) *Env {
	return &Env{parent: e, names: map[string]*Forall{name: scheme}}
}

// ExtendMany returns a new child environment with every (name, scheme)
// pair bound, as a single scope (used for mutually recursive groups).
func (e *Env) ExtendMany(bindings map[string]*Forall) *Env {
	child := &Env{parent: e, names: make(map[string]*Forall, len(bindings))}
	for k, v := range bindings {
		child.names[k] = v
	}
	return child
}

// Lookup walks the environment chain for name.
func (e *Env) Lookup(name string) (*Forall, bool) {
	for env := e; env != nil; env = env.parent {
		if s, ok := env.names[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// FreeVars returns the set of type-variable ids free in e (bound
// variables of each scheme are excluded), used by Generalize to avoid
// quantifying over variables still constrained by the outer environment.
func (e *Env) FreeVars() map[int]bool {
	free := make(map[int]bool)
	for env := e; env != nil; env = env.parent {
		for _, scheme := range env.names {
			freeVarsOf(scheme.Body, free)
			bound := make(map[int]bool, len(scheme.Vars))
			for _, v := range scheme.Vars {
				bound[v.ID] = true
			}
			for id := range free {
				if bound[id] {
					delete(free, id)
				}
			}
		}
	}
	return free
}

func freeVarsOf(t Type, out map[int]bool) {
	switch t := t.(type) {
	case *TVar:
		out[t.ID] = true
	case *Fn:
		freeVarsOf(t.Param, out)
		freeVarsOf(t.Result, out)
	case *Tuple:
		for _, e := range t.Elements {
			freeVarsOf(e, out)
		}
	case *List:
		freeVarsOf(t.Element, out)
	case *Record:
		for _, f := range t.Fields {
			freeVarsOf(f, out)
		}
	case *DatatypeApp:
		for _, a := range t.Args {
			freeVarsOf(a, out)
		}
	case *Forall:
		inner := make(map[int]bool)
		freeVarsOf(t.Body, inner)
		bound := make(map[int]bool, len(t.Vars))
		for _, v := range t.Vars {
			bound[v.ID] = true
		}
		for id := range inner {
			if !bound[id] {
				out[id] = true
			}
		}
	}
}

// Generalize quantifies every type variable free in t but not free in env,
// producing the type scheme stored for let-bound names (spec.md Sec. 4.1).
func Generalize(env *Env, t Type) *Forall {
	envFree := env.FreeVars()
	tFree := make(map[int]bool)
	freeVarsOf(t, tFree)

	var vars []*TVar
	seen := make(map[int]bool)
	var collect func(Type)
	collect = func(t Type) {
		switch t := t.(type) {
		case *TVar:
			if !envFree[t.ID] && !seen[t.ID] {
				seen[t.ID] = true
				vars = append(vars, t)
			}
		case *Fn:
			collect(t.Param)
			collect(t.Result)
		case *Tuple:
			for _, e := range t.Elements {
				collect(e)
			}
		case *List:
			collect(t.Element)
		case *Record:
			for _, l := range t.SortedLabels() {
				collect(t.Fields[l])
			}
		case *DatatypeApp:
			for _, a := range t.Args {
				collect(a)
			}
		}
	}
	collect(t)
	return &Forall{Vars: vars, Body: t}
}

// Monomorphic wraps a type with no quantified variables, for binding
// names whose type must not be generalized (e.g. `val rec` placeholders
// during inference of a mutually-recursive group).
func Monomorphic(t Type) *Forall {
	return &Forall{Body: t}
}
