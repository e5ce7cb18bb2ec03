package types

import "fmt"

// OverloadInstance is one concrete, typed implementation bound to an
// overloaded name via `inst` (spec.md Sec. 3/4.3/9 "Overloading with
// principal types"). Grounded on the teacher's internal/types/instances.go
// ClassInstance: Morel's `over`/`inst` is structurally the same
// one-name-many-principal-types problem as a type class instance.
type OverloadInstance struct {
	Name     string
	Type     *Forall
	CoreName string // the distinct internal name bound to this instance's value
}

// OverloadEnv tracks, for each overloaded name, its registered instances.
// Grounded on the teacher's InstanceEnv (map keyed by canonical string,
// Add/Lookup, coherence checking on registration).
type OverloadEnv struct {
	byName map[string][]*OverloadInstance
}

func NewOverloadEnv() *OverloadEnv {
	return &OverloadEnv{byName: make(map[string][]*OverloadInstance)}
}

// Declare registers name as overloadable (spec.md `over` declaration). It
// is a no-op if already declared.
func (o *OverloadEnv) Declare(name string) {
	if _, ok := o.byName[name]; !ok {
		o.byName[name] = nil
	}
}

// IsOverloaded reports whether name was declared via `over`.
func (o *OverloadEnv) IsOverloaded(name string) bool {
	_, ok := o.byName[name]
	return ok
}

// AddInstance registers inst as an instance of an overloaded name,
// rejecting instances whose principal argument type is structurally
// identical to one already registered (coherence).
func (o *OverloadEnv) AddInstance(name string, inst *OverloadInstance) error {
	for _, existing := range o.byName[name] {
		if principalHead(existing.Type.Body).Equals(principalHead(inst.Type.Body)) {
			return fmt.Errorf("overlapping instance of %q at type %s", name, inst.Type.Body)
		}
	}
	o.byName[name] = append(o.byName[name], inst)
	return nil
}

// Resolve selects the unique instance of name whose principal type
// unifies with argType, given the non-overload-specific substitution sub
// already in force. It returns the chosen instance and the substitution
// extended with the unification of the instance's type with argType.
func (o *OverloadEnv) Resolve(name string, argType Type, sub Substitution, pos string) (*OverloadInstance, Substitution, error) {
	candidates := o.byName[name]
	if len(candidates) == 0 {
		return nil, nil, &OverloadNoMatchError{Name: name, ArgType: argType, Pos: pos}
	}
	var matches []*OverloadInstance
	var matchSubs []Substitution
	for _, cand := range candidates {
		instType := cand.Type.Instantiate()
		instArg, _, ok := splitArgResult(instType)
		if !ok {
			continue
		}
		trySub := cloneSub(sub)
		trySub, err := Unify(instArg, argType, trySub, pos)
		if err != nil {
			continue
		}
		matches = append(matches, cand)
		matchSubs = append(matchSubs, trySub)
	}
	switch len(matches) {
	case 0:
		return nil, nil, &OverloadNoMatchError{Name: name, ArgType: argType, Pos: pos}
	case 1:
		return matches[0], matchSubs[0], nil
	default:
		return nil, nil, &OverloadAmbiguousError{Name: name, ArgType: argType, Pos: pos}
	}
}

func cloneSub(s Substitution) Substitution {
	next := make(Substitution, len(s))
	for k, v := range s {
		next[k] = v
	}
	return next
}

// splitArgResult splits a (possibly curried) function type into its first
// parameter type and the rest; instances are always function-typed since
// overloaded names denote operators/functions.
func splitArgResult(t Type) (param Type, rest Type, ok bool) {
	fn, isFn := t.(*Fn)
	if !isFn {
		return nil, nil, false
	}
	return fn.Param, fn.Result, true
}

// principalHead returns the argument type used to distinguish instances:
// the parameter type of the instance's (possibly curried) function type.
func principalHead(t Type) Type {
	if fn, ok := t.(*Fn); ok {
		return fn.Param
	}
	return t
}

// OverloadAmbiguousError: more than one instance matches the use site.
type OverloadAmbiguousError struct {
	Name    string
	ArgType Type
	Pos     string
}

func (e *OverloadAmbiguousError) Error() string {
	return fmt.Sprintf("%s: ambiguous overload %q at argument type %s", e.Pos, e.Name, e.ArgType)
}

// OverloadNoMatchError: no instance matches the use site.
type OverloadNoMatchError struct {
	Name    string
	ArgType Type
	Pos     string
}

func (e *OverloadNoMatchError) Error() string {
	return fmt.Sprintf("%s: no instance of overloaded %q matches argument type %s", e.Pos, e.Name, e.ArgType)
}
