// Package compiler lowers typed core into executable Code objects: every
// core variant compiles to a tree-walking node exposing one operation,
// Eval(env) -> Value. Evaluation is call-by-value; `case` evaluates its
// scrutinee once then selects a branch (spec.md Sec. 4.5).
package compiler

import (
	"fmt"
	"strings"

	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
)

// Error is a compile-time invariant violation (spec.md Sec. 7: rare).
type Error struct {
	Message string
}

func (e *Error) Error() string { return "compile error: " + e.Message }

func errf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// CompileExp lowers one core expression to Code.
func CompileExp(e core.Exp) (eval.Code, error) {
	switch e := e.(type) {
	case *core.Id:
		return &idCode{name: e.Name}, nil

	case *core.Literal:
		v, err := literalValue(e)
		if err != nil {
			return nil, err
		}
		return &constCode{value: v}, nil

	case *core.Tuple:
		args := make([]eval.Code, len(e.Args))
		for i, a := range e.Args {
			c, err := CompileExp(a)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		if e.Labels != nil {
			return &recordCode{labels: e.Labels, args: args}, nil
		}
		return &tupleCode{args: args}, nil

	case *core.List:
		elems := make([]eval.Code, len(e.Elements))
		for i, el := range e.Elements {
			c, err := CompileExp(el)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &listCode{elems: elems}, nil

	case *core.Apply:
		fn, err := CompileExp(e.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := CompileExp(e.Arg)
		if err != nil {
			return nil, err
		}
		return &applyCode{fn: fn, arg: arg}, nil

	case *core.Fn:
		binder, err := compileBinder(e.Param)
		if err != nil {
			return nil, err
		}
		body, err := CompileExp(e.Body)
		if err != nil {
			return nil, err
		}
		return &fnCode{binder: binder, body: body}, nil

	case *core.Case:
		return compileCase(e)

	case *core.Let:
		return compileLet(e)

	case *core.Local:
		// The datatype was registered during resolution; only the body
		// executes.
		return CompileExp(e.Body)

	case *core.RecordSelector:
		return &constCode{value: &eval.SelectorFn{Field: e.Field, Slot: e.Slot}}, nil

	case *core.From:
		return compileFrom(e)

	default:
		return nil, errf("unsupported core expression %T", e)
	}
}

// literalValue turns a core literal into its runtime value. Function
// literals resolve against the built-in table; CON:/CON0: tags denote
// datatype constructors.
func literalValue(l *core.Literal) (eval.Value, error) {
	switch l.Kind {
	case core.IntLit:
		return &eval.IntValue{Value: l.Value.(int)}, nil
	case core.RealLit:
		return &eval.RealValue{Value: l.Value.(float64)}, nil
	case core.StringLit:
		return &eval.StringValue{Value: l.Value.(string)}, nil
	case core.CharLit:
		return &eval.CharValue{Value: l.Value.(rune)}, nil
	case core.BoolLit:
		return eval.Bool(l.Value.(bool)), nil
	case core.UnitLit:
		return eval.Unit, nil
	case core.FnLit:
		tag := l.Value.(string)
		if name, ok := strings.CutPrefix(tag, "CON0:"); ok {
			return &eval.TaggedValue{Ctor: name}, nil
		}
		if name, ok := strings.CutPrefix(tag, "CON:"); ok {
			return &eval.CtorFn{Ctor: name}, nil
		}
		return eval.NewBuiltin(eval.BuiltIn(tag))
	default:
		return nil, errf("unknown literal kind %d", l.Kind)
	}
}

// ----- Code nodes -----

type idCode struct{ name string }

func (c *idCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	v, ok := env.Get(c.name)
	if !ok {
		return nil, errf("unbound name %q at runtime", c.name)
	}
	return v, nil
}

type constCode struct{ value eval.Value }

func (c *constCode) Eval(*eval.EvalEnv) (eval.Value, error) { return c.value, nil }

type tupleCode struct{ args []eval.Code }

func (c *tupleCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	elems := make([]eval.Value, len(c.args))
	for i, a := range c.args {
		v, err := a.Eval(env)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return &eval.TupleValue{Elements: elems}, nil
}

type recordCode struct {
	labels []string
	args   []eval.Code
}

func (c *recordCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	values := make([]eval.Value, len(c.args))
	for i, a := range c.args {
		v, err := a.Eval(env)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return &eval.RecordValue{Labels: c.labels, Values: values}, nil
}

type listCode struct{ elems []eval.Code }

func (c *listCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	elems := make([]eval.Value, len(c.elems))
	for i, e := range c.elems {
		v, err := e.Eval(env)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return &eval.ListValue{Elements: elems}, nil
}

type applyCode struct{ fn, arg eval.Code }

func (c *applyCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	fn, err := c.fn.Eval(env)
	if err != nil {
		return nil, err
	}
	arg, err := c.arg.Eval(env)
	if err != nil {
		return nil, err
	}
	return eval.Apply(fn, arg)
}

type fnCode struct {
	binder binder
	body   eval.Code
}

func (c *fnCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	binder := c.binder
	return &eval.Closure{
		Env: env,
		Bind: func(arg eval.Value, captured *eval.EvalEnv) (*eval.EvalEnv, error) {
			frame := captured.Child()
			if !binder.match(arg, frame) {
				return nil, eval.Raise(eval.Bind)
			}
			return frame, nil
		},
		Body: c.body,
	}, nil
}

func compileLet(e *core.Let) (eval.Code, error) {
	body, err := CompileExp(e.Body)
	if err != nil {
		return nil, err
	}
	switch d := e.Decl.(type) {
	case *core.NonRecValDecl:
		value, err := CompileExp(d.Exp)
		if err != nil {
			return nil, err
		}
		binder, err := compileBinder(d.Pat)
		if err != nil {
			return nil, err
		}
		return &letCode{value: value, binder: binder, body: body}, nil
	case *core.RecValDecl:
		rec, err := compileRecBindings(d)
		if err != nil {
			return nil, err
		}
		return &letRecCode{bindings: rec, body: body}, nil
	case *core.TypeDecl, *core.OverDecl:
		// Purely static; only the body executes.
		return body, nil
	default:
		return nil, errf("unsupported let declaration %T", e.Decl)
	}
}

type letCode struct {
	value  eval.Code
	binder binder
	body   eval.Code
}

func (c *letCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	v, err := c.value.Eval(env)
	if err != nil {
		return nil, err
	}
	frame := env.Child()
	if !c.binder.match(v, frame) {
		return nil, eval.Raise(eval.Bind)
	}
	return c.body.Eval(frame)
}

// recBinding is one compiled binding of a `val rec` group.
type recBinding struct {
	name string
	code eval.Code // always a fnCode (spec.md Sec. 4.5)
}

func compileRecBindings(d *core.RecValDecl) ([]recBinding, error) {
	out := make([]recBinding, len(d.Bindings))
	for i, b := range d.Bindings {
		code, err := CompileExp(b.Exp)
		if err != nil {
			return nil, err
		}
		out[i] = recBinding{name: b.Pat.Name, code: code}
	}
	return out, nil
}

// evalRecBindings installs a frame with every recursive name, then fills
// each cell exactly once: every closure captures the shared frame, so all
// names resolve to the appropriate closure before any body runs. The
// evaluator never observes an unresolved cell because all `val rec`
// bindings are function-valued (spec.md Sec. 4.5).
func evalRecBindings(bindings []recBinding, env *eval.EvalEnv) (*eval.EvalEnv, error) {
	frame := env.Child()
	for _, b := range bindings {
		v, err := b.code.Eval(frame)
		if err != nil {
			return nil, err
		}
		frame.Set(b.name, v)
	}
	return frame, nil
}

type letRecCode struct {
	bindings []recBinding
	body     eval.Code
}

func (c *letRecCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	frame, err := evalRecBindings(c.bindings, env)
	if err != nil {
		return nil, err
	}
	return c.body.Eval(frame)
}
