package compiler

import (
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/planner"
	"github.com/hydromatic/morel-go/internal/types"
)

// compileRelational lowers an uncorrelated `from` pipeline onto the
// relational algebra of internal/planner (spec.md Sec. 4.6). Rows inside
// the plan are always records over the step's binding labels (canonical
// order); an atom-shaped result is unwrapped at the end.

type relCode struct {
	steps  []relStep
	outEnv core.StepEnv
}

// relStep extends a relational plan with one step, given the outer
// environment in force at evaluation time.
type relStep interface {
	extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error)
}

func compileRelational(f *core.From) (eval.Code, error) {
	steps := make([]relStep, len(f.Steps))
	var inEnv core.StepEnv
	for i, s := range f.Steps {
		c, err := compileRelStep(s, inEnv)
		if err != nil {
			return nil, err
		}
		steps[i] = c
		inEnv = s.Env()
	}
	return &relCode{steps: steps, outEnv: inEnv}, nil
}

func (c *relCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	var rel planner.Rel = &planner.Scan{
		Source:    func() ([]eval.Value, error) { return []eval.Value{&eval.RecordValue{}}, nil },
		IsOrdered: true,
	}
	first := true
	var err error
	for i, s := range c.steps {
		if i == 0 {
			if scan, ok := s.(*relScanStep); ok && first {
				rel, err = scan.base(env)
				if err != nil {
					return nil, err
				}
				first = false
				continue
			}
		}
		rel, err = s.extend(rel, env)
		if err != nil {
			return nil, err
		}
	}
	rows, err := rel.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]eval.Value, len(rows))
	for i, row := range rows {
		out[i] = unwrapRow(c.outEnv, row)
	}
	return &eval.ListValue{Elements: out}, nil
}

// unwrapRow converts an internal record row to the step's output shape.
func unwrapRow(env core.StepEnv, row eval.Value) eval.Value {
	if env.Atom && len(env.Bindings) == 1 {
		if rec, ok := row.(*eval.RecordValue); ok {
			if v, found := rec.Field(env.Bindings[0].Name); found {
				return v
			}
		}
	}
	return row
}

// wrapRow converts an output-shaped value to the internal record form.
func wrapRow(env core.StepEnv, v eval.Value) eval.Value {
	if env.Atom && len(env.Bindings) == 1 {
		return &eval.RecordValue{Labels: []string{env.Bindings[0].Name}, Values: []eval.Value{v}}
	}
	return v
}

// bindRecordRow builds a frame over outer from an internal record row.
func bindRecordRow(outer *eval.EvalEnv, row eval.Value) (*eval.EvalEnv, error) {
	rec, ok := row.(*eval.RecordValue)
	if !ok {
		return nil, errf("expected record row, got %s", row.String())
	}
	frame := outer.Child()
	for i, l := range rec.Labels {
		frame.Set(l, rec.Values[i])
	}
	return frame, nil
}

func compileRelStep(s core.FromStep, inEnv core.StepEnv) (relStep, error) {
	switch s := s.(type) {
	case *core.Scan:
		source, err := CompileExp(s.Source)
		if err != nil {
			return nil, err
		}
		b, err := compileBinder(s.Pat)
		if err != nil {
			return nil, err
		}
		var filter eval.Code
		if s.Filter != nil {
			filter, err = CompileExp(s.Filter)
			if err != nil {
				return nil, err
			}
		}
		return &relScanStep{source: source, binder: b, filter: filter, outEnv: s.OutEnv, patEnv: scanFragmentEnv(s)}, nil

	case *core.Where:
		cond, err := CompileExp(s.Cond)
		if err != nil {
			return nil, err
		}
		return &relWhereStep{cond: cond}, nil

	case *core.Skip:
		count, err := CompileExp(s.Count)
		if err != nil {
			return nil, err
		}
		return &relSkipStep{count: count}, nil

	case *core.Take:
		count, err := CompileExp(s.Count)
		if err != nil {
			return nil, err
		}
		return &relTakeStep{count: count}, nil

	case *core.Order:
		keys := make([]orderKey, len(s.Keys))
		for i, k := range s.Keys {
			c, err := CompileExp(k.Exp)
			if err != nil {
				return nil, err
			}
			keys[i] = orderKey{code: c, desc: k.Descending}
		}
		return &relOrderStep{keys: keys}, nil

	case *core.Group:
		keys := make([]groupKeyCode, len(s.Keys))
		for i, k := range s.Keys {
			c, err := CompileExp(k.Exp)
			if err != nil {
				return nil, err
			}
			keys[i] = groupKeyCode{label: k.Label, code: c}
		}
		aggs := make([]aggCode, len(s.Aggregates))
		for i, a := range s.Aggregates {
			fn, err := CompileExp(a.Fn)
			if err != nil {
				return nil, err
			}
			arg, err := CompileExp(a.Arg)
			if err != nil {
				return nil, err
			}
			aggs[i] = aggCode{label: a.Label, fn: fn, arg: arg}
		}
		return &relGroupStep{keys: keys, aggs: aggs, outEnv: s.OutEnv}, nil

	case *core.Yield:
		exp, err := CompileExp(s.Exp)
		if err != nil {
			return nil, err
		}
		return &relYieldStep{exp: exp, outEnv: s.OutEnv}, nil

	case *core.Unorder:
		return relUnorderStep{}, nil

	case *core.SetOp:
		args := make([]eval.Code, len(s.Args))
		for i, a := range s.Args {
			c, err := CompileExp(a)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		return &relSetOpStep{kind: s.Kind, args: args, distinct: s.Distinct, outEnv: s.OutEnv}, nil

	default:
		return nil, errf("unsupported relational step %T", s)
	}
}

// scanFragmentEnv is the StepEnv covering only the scan's own pattern
// bindings (the row fragment this scan contributes to a join).
func scanFragmentEnv(s *core.Scan) core.StepEnv {
	return core.StepEnv{Bindings: core.PatBindings(s.Pat)}
}

type relScanStep struct {
	source eval.Code
	binder binder
	filter eval.Code
	outEnv core.StepEnv
	patEnv core.StepEnv
}

// base builds the plan's leaf for the first scan.
func (s *relScanStep) base(outer *eval.EvalEnv) (planner.Rel, error) {
	return s.fragmentRel(outer)
}

// fragmentRel scans the source into fragment record rows (one field per
// pattern binding), filtering rows the pattern rejects.
func (s *relScanStep) fragmentRel(outer *eval.EvalEnv) (planner.Rel, error) {
	src, err := s.source.Eval(outer)
	if err != nil {
		return nil, err
	}
	elems, ordered, err := sourceRows(src)
	if err != nil {
		return nil, err
	}
	binder := s.binder
	patEnv := s.patEnv
	filter := s.filter
	rel := planner.Rel(&planner.Scan{
		Source: func() ([]eval.Value, error) {
			var out []eval.Value
			for _, elem := range elems {
				frame := outer.Child()
				if !binder.match(elem, frame) {
					continue
				}
				row, err := rowRecord(patEnv, frame)
				if err != nil {
					return nil, err
				}
				out = append(out, row)
			}
			return out, nil
		},
		IsOrdered: ordered,
	})
	if filter != nil {
		rel = &planner.Filter{Input: rel, Pred: func(row eval.Value) (bool, error) {
			frame, err := bindRecordRow(outer, row)
			if err != nil {
				return false, err
			}
			v, err := filter.Eval(frame)
			if err != nil {
				return false, err
			}
			return v.(*eval.BoolValue).Value, nil
		}}
	}
	return rel, nil
}

// rowRecord builds the internal record row of a StepEnv from a frame.
func rowRecord(env core.StepEnv, frame *eval.EvalEnv) (eval.Value, error) {
	bs := sortedBindings(env)
	labels := make([]string, len(bs))
	values := make([]eval.Value, len(bs))
	for i, b := range bs {
		v, ok := frame.Get(b.Name)
		if !ok {
			return nil, errf("row binding %q missing", b.Name)
		}
		labels[i] = b.Name
		values[i] = v
	}
	return &eval.RecordValue{Labels: labels, Values: values}, nil
}

func (s *relScanStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	right, err := s.fragmentRel(outer)
	if err != nil {
		return nil, err
	}
	return &planner.Join{
		Left:  rel,
		Right: right,
		Combine: func(l, r eval.Value) eval.Value {
			return mergeRecords(l.(*eval.RecordValue), r.(*eval.RecordValue))
		},
	}, nil
}

// mergeRecords joins two fragment records, keeping canonical label order.
func mergeRecords(a, b *eval.RecordValue) *eval.RecordValue {
	labels := append(append([]string(nil), a.Labels...), b.Labels...)
	values := append(append([]eval.Value(nil), a.Values...), b.Values...)
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && types.LabelLess(labels[j], labels[j-1]); j-- {
			labels[j], labels[j-1] = labels[j-1], labels[j]
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
	return &eval.RecordValue{Labels: labels, Values: values}
}

type relWhereStep struct{ cond eval.Code }

func (s *relWhereStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	cond := s.cond
	return &planner.Filter{Input: rel, Pred: func(row eval.Value) (bool, error) {
		frame, err := bindRecordRow(outer, row)
		if err != nil {
			return false, err
		}
		v, err := cond.Eval(frame)
		if err != nil {
			return false, err
		}
		return v.(*eval.BoolValue).Value, nil
	}}, nil
}

type relSkipStep struct{ count eval.Code }

func (s *relSkipStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	count := s.count
	return &planner.Offset{Input: rel, N: func() (int, error) { return evalInt(count, outer) }}, nil
}

type relTakeStep struct{ count eval.Code }

func (s *relTakeStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	count := s.count
	return &planner.Limit{Input: rel, N: func() (int, error) { return evalInt(count, outer) }}, nil
}

type relOrderStep struct{ keys []orderKey }

func (s *relOrderStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	keys := make([]planner.SortKey, len(s.keys))
	for i, k := range s.keys {
		code := k.code
		keys[i] = planner.SortKey{
			Key: func(row eval.Value) (eval.Value, error) {
				frame, err := bindRecordRow(outer, row)
				if err != nil {
					return nil, err
				}
				return code.Eval(frame)
			},
			Descending: k.desc,
		}
	}
	return &planner.Sort{Input: rel, Keys: keys}, nil
}

type relGroupStep struct {
	keys   []groupKeyCode
	aggs   []aggCode
	outEnv core.StepEnv
}

func (s *relGroupStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	keys := s.keys
	aggs := s.aggs
	outEnv := s.outEnv
	calls := make([]planner.AggCall, len(aggs))
	for i, a := range aggs {
		arg := a.arg
		fn := a.fn
		calls[i] = planner.AggCall{
			Arg: func(row eval.Value) (eval.Value, error) {
				frame, err := bindRecordRow(outer, row)
				if err != nil {
					return nil, err
				}
				return arg.Eval(frame)
			},
			Fn: func(group *eval.ListValue) (eval.Value, error) {
				fnVal, err := fn.Eval(outer)
				if err != nil {
					return nil, err
				}
				return eval.Apply(fnVal, group)
			},
		}
	}
	return &planner.Aggregate{
		Input: rel,
		Key: func(row eval.Value) (eval.Value, error) {
			frame, err := bindRecordRow(outer, row)
			if err != nil {
				return nil, err
			}
			vals := make([]eval.Value, len(keys))
			for i, k := range keys {
				v, err := k.code.Eval(frame)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return &eval.TupleValue{Elements: vals}, nil
		},
		Calls: calls,
		Combine: func(key eval.Value, aggResults []eval.Value) eval.Value {
			keyVals := key.(*eval.TupleValue).Elements
			frame := outer.Child()
			for i, k := range keys {
				frame.Set(k.label, keyVals[i])
			}
			for i, a := range aggs {
				frame.Set(a.label, aggResults[i])
			}
			row, _ := rowRecord(outEnv, frame)
			return row
		},
	}, nil
}

type relYieldStep struct {
	exp    eval.Code
	outEnv core.StepEnv
}

func (s *relYieldStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	exp := s.exp
	outEnv := s.outEnv
	return &planner.Project{Input: rel, Fn: func(row eval.Value) (eval.Value, error) {
		frame, err := bindRecordRow(outer, row)
		if err != nil {
			return nil, err
		}
		v, err := exp.Eval(frame)
		if err != nil {
			return nil, err
		}
		return wrapRow(outEnv, v), nil
	}}, nil
}

type relUnorderStep struct{}

func (relUnorderStep) extend(rel planner.Rel, _ *eval.EvalEnv) (planner.Rel, error) {
	return &planner.Scan{Source: rel.Rows, IsOrdered: false}, nil
}

type relSetOpStep struct {
	kind     core.SetOpKind
	args     []eval.Code
	distinct bool
	outEnv   core.StepEnv
}

func (s *relSetOpStep) extend(rel planner.Rel, outer *eval.EvalEnv) (planner.Rel, error) {
	argRels := make([]planner.Rel, len(s.args))
	for i, a := range s.args {
		v, err := a.Eval(outer)
		if err != nil {
			return nil, err
		}
		elems, ordered, err := sourceRows(v)
		if err != nil {
			return nil, err
		}
		wrapped := make([]eval.Value, len(elems))
		for j, e := range elems {
			wrapped[j] = wrapRow(s.outEnv, e)
		}
		argRels[i] = &planner.Scan{Source: func() ([]eval.Value, error) { return wrapped, nil }, IsOrdered: ordered}
	}
	kinds := map[core.SetOpKind]planner.SetOpKind{
		core.UnionOp:     planner.Union,
		core.IntersectOp: planner.Intersect,
		core.ExceptOp:    planner.Except,
	}
	return &planner.SetOp{Kind: kinds[s.kind], Left: rel, Args: argRels, Distinct: s.distinct}, nil
}
