package compiler

import (
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
)

// NamedValue is one binding produced by executing a declaration.
type NamedValue struct {
	Name  string
	Value eval.Value
}

// EvalDecl compiles and executes one top-level declaration against env,
// returning the bindings it produces in declaration order. The caller
// (the Session) commits them; on error nothing is committed
// (spec.md Sec. 7: transactional at declaration granularity).
func EvalDecl(d core.Decl, env *eval.EvalEnv) ([]NamedValue, error) {
	switch d := d.(type) {
	case *core.NonRecValDecl:
		code, err := CompileExp(d.Exp)
		if err != nil {
			return nil, err
		}
		b, err := compileBinder(d.Pat)
		if err != nil {
			return nil, err
		}
		v, err := code.Eval(env)
		if err != nil {
			return nil, err
		}
		frame := env.Child()
		if !b.match(v, frame) {
			return nil, eval.Raise(eval.Bind)
		}
		var out []NamedValue
		for _, binding := range core.PatBindings(d.Pat) {
			bv, _ := frame.Get(binding.Name)
			out = append(out, NamedValue{Name: binding.Name, Value: bv})
		}
		return out, nil

	case *core.RecValDecl:
		bindings, err := compileRecBindings(d)
		if err != nil {
			return nil, err
		}
		frame, err := evalRecBindings(bindings, env)
		if err != nil {
			return nil, err
		}
		var out []NamedValue
		for _, b := range d.Bindings {
			v, _ := frame.Get(b.Pat.Name)
			out = append(out, NamedValue{Name: b.Pat.Name, Value: v})
		}
		return out, nil

	case *core.DatatypeDecl, *core.TypeDecl, *core.OverDecl:
		// Registered during resolution; no runtime bindings.
		return nil, nil

	default:
		return nil, errf("unsupported declaration %T", d)
	}
}
