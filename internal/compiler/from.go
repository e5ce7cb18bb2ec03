package compiler

import (
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/planner"
	"github.com/hydromatic/morel-go/internal/types"
)

// compileFrom lowers a `from` either to nested iteration over
// materialized collections or to a relational plan. The choice is a
// heuristic (spec.md Sec. 4.5): simple single-scan pipelines use
// nested-loop code; uncorrelated multi-scan (join), grouping, ordering,
// and set-operation pipelines are routed to the relational planner.
// Correlated scans always use the nested-loop path.
func compileFrom(f *core.From) (eval.Code, error) {
	if usePlanner(f) {
		return compileRelational(f)
	}
	return compileNestedLoop(f)
}

func usePlanner(f *core.From) bool {
	bound := make(map[string]bool)
	scans, relational := 0, false
	for _, s := range f.Steps {
		switch s := s.(type) {
		case *core.Scan:
			if len(bound) > 0 && referencesAny(s.Source, bound) {
				return false
			}
			scans++
		case *core.Group, *core.Order, *core.SetOp, *core.Skip, *core.Take:
			relational = true
		}
		for _, b := range s.Env().Bindings {
			bound[b.Name] = true
		}
	}
	return scans > 1 || relational
}

// referencesAny reports whether any free identifier of e is in names.
func referencesAny(e core.Exp, names map[string]bool) bool {
	found := false
	var walkPat func(core.Pat)
	var walk func(core.Exp)
	walkPat = func(p core.Pat) {}
	walk = func(e core.Exp) {
		if found || e == nil {
			return
		}
		switch e := e.(type) {
		case *core.Id:
			if names[e.Name] {
				found = true
			}
		case *core.Tuple:
			for _, a := range e.Args {
				walk(a)
			}
		case *core.List:
			for _, a := range e.Elements {
				walk(a)
			}
		case *core.Apply:
			walk(e.Fn)
			walk(e.Arg)
		case *core.Fn:
			walk(e.Body)
		case *core.Case:
			walk(e.Scrutinee)
			for _, arm := range e.Arms {
				walk(arm.Exp)
			}
		case *core.Let:
			switch d := e.Decl.(type) {
			case *core.NonRecValDecl:
				walk(d.Exp)
			case *core.RecValDecl:
				for _, b := range d.Bindings {
					walk(b.Exp)
				}
			}
			walk(e.Body)
		case *core.Local:
			walk(e.Body)
		case *core.From:
			for _, s := range e.Steps {
				switch s := s.(type) {
				case *core.Scan:
					walkPat(s.Pat)
					walk(s.Source)
					walk(s.Filter)
				case *core.Where:
					walk(s.Cond)
				case *core.Skip:
					walk(s.Count)
				case *core.Take:
					walk(s.Count)
				case *core.Order:
					for _, k := range s.Keys {
						walk(k.Exp)
					}
				case *core.Group:
					for _, k := range s.Keys {
						walk(k.Exp)
					}
					for _, a := range s.Aggregates {
						walk(a.Fn)
						walk(a.Arg)
					}
				case *core.Yield:
					walk(s.Exp)
				case *core.SetOp:
					for _, a := range s.Args {
						walk(a)
					}
				}
			}
		}
	}
	walk(e)
	return found
}

// sortedBindings returns a StepEnv's bindings in canonical label order.
func sortedBindings(env core.StepEnv) []core.Binding {
	out := append([]core.Binding(nil), env.Bindings...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && types.LabelLess(out[j].Name, out[j-1].Name); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// rowFromEnv reads the step's output row out of an environment frame: the
// atom binding's value, or the record of every binding.
func rowFromEnv(env core.StepEnv, frame *eval.EvalEnv) (eval.Value, error) {
	if env.Atom && len(env.Bindings) == 1 {
		v, ok := frame.Get(env.Bindings[0].Name)
		if !ok {
			return nil, errf("row binding %q missing", env.Bindings[0].Name)
		}
		return v, nil
	}
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

// bindRow builds an environment frame over outer with the step's bindings
// taken from a row value (the inverse of rowFromEnv).
func bindRow(env core.StepEnv, outer *eval.EvalEnv, row eval.Value) (*eval.EvalEnv, error) {
	frame := outer.Child()
	if env.Atom && len(env.Bindings) == 1 {
		frame.Set(env.Bindings[0].Name, row)
		return frame, nil
	}
	rec, ok := row.(*eval.RecordValue)
	if !ok {
		return nil, errf("expected record row, got %s", row.String())
	}
	for i, l := range rec.Labels {
		frame.Set(l, rec.Values[i])
	}
	return frame, nil
}

// sourceRows materializes a scanned source: a list, or a foreign table's
// rows (spec.md Sec. 6 foreign-value interface).
func sourceRows(v eval.Value) ([]eval.Value, bool, error) {
	switch v := v.(type) {
	case *eval.ListValue:
		return v.Elements, true, nil
	case *eval.Table:
		rows, err := v.Source.Rows()
		if err != nil {
			return nil, false, eval.RaiseForeign(err)
		}
		return rows, v.Source.Ordered(), nil
	default:
		return nil, false, errf("cannot scan non-collection value %s", v.String())
	}
}

// ----- Nested-loop path -----

// stepCode transforms the slice of row environments produced by the
// previous step. Rows are environments so correlated scans see earlier
// bindings naturally.
type stepCode interface {
	run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error)
}

type fromCode struct {
	steps  []stepCode
	outEnv core.StepEnv
}

func compileNestedLoop(f *core.From) (eval.Code, error) {
	steps := make([]stepCode, len(f.Steps))
	for i, s := range f.Steps {
		c, err := compileStep(s)
		if err != nil {
			return nil, err
		}
		steps[i] = c
	}
	var outEnv core.StepEnv
	if len(f.Steps) > 0 {
		outEnv = f.Steps[len(f.Steps)-1].Env()
	}
	return &fromCode{steps: steps, outEnv: outEnv}, nil
}

func (c *fromCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	rows := []*eval.EvalEnv{env}
	var err error
	for _, s := range c.steps {
		rows, err = s.run(rows, env)
		if err != nil {
			return nil, err
		}
	}
	out := make([]eval.Value, len(rows))
	for i, frame := range rows {
		v, err := rowFromEnv(c.outEnv, frame)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return &eval.ListValue{Elements: out}, nil
}

func compileStep(s core.FromStep) (stepCode, error) {
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
		return &scanStep{source: source, binder: b, filter: filter}, nil
	case *core.Where:
		cond, err := CompileExp(s.Cond)
		if err != nil {
			return nil, err
		}
		return &whereStep{cond: cond}, nil
	case *core.Skip:
		count, err := CompileExp(s.Count)
		if err != nil {
			return nil, err
		}
		return &skipStep{count: count}, nil
	case *core.Take:
		count, err := CompileExp(s.Count)
		if err != nil {
			return nil, err
		}
		return &takeStep{count: count}, nil
	case *core.Order:
		keys := make([]orderKey, len(s.Keys))
		for i, k := range s.Keys {
			c, err := CompileExp(k.Exp)
			if err != nil {
				return nil, err
			}
			keys[i] = orderKey{code: c, desc: k.Descending}
		}
		return &orderStep{keys: keys}, nil
	case *core.Group:
		return compileGroupStep(s)
	case *core.Yield:
		exp, err := CompileExp(s.Exp)
		if err != nil {
			return nil, err
		}
		return &yieldStep{exp: exp, outEnv: s.OutEnv}, nil
	case *core.Unorder:
		// Order is a semantic property; the materialized rows pass through.
		return passStep{}, nil
	case *core.SetOp:
		return compileSetOpStep(s)
	default:
		return nil, errf("unsupported from step %T", s)
	}
}

type scanStep struct {
	source eval.Code
	binder binder
	filter eval.Code
}

func (s *scanStep) run(rows []*eval.EvalEnv, _ *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	var out []*eval.EvalEnv
	for _, row := range rows {
		src, err := s.source.Eval(row)
		if err != nil {
			return nil, err
		}
		elems, _, err := sourceRows(src)
		if err != nil {
			return nil, err
		}
		for _, elem := range elems {
			frame := row.Child()
			if !s.binder.match(elem, frame) {
				continue
			}
			if s.filter != nil {
				keep, err := s.filter.Eval(frame)
				if err != nil {
					return nil, err
				}
				if !keep.(*eval.BoolValue).Value {
					continue
				}
			}
			out = append(out, frame)
		}
	}
	return out, nil
}

type whereStep struct{ cond eval.Code }

func (s *whereStep) run(rows []*eval.EvalEnv, _ *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	var out []*eval.EvalEnv
	for _, row := range rows {
		keep, err := s.cond.Eval(row)
		if err != nil {
			return nil, err
		}
		if keep.(*eval.BoolValue).Value {
			out = append(out, row)
		}
	}
	return out, nil
}

type skipStep struct{ count eval.Code }

func (s *skipStep) run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	n, err := evalInt(s.count, outer)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[n:], nil
}

type takeStep struct{ count eval.Code }

func (s *takeStep) run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	n, err := evalInt(s.count, outer)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n], nil
}

func evalInt(c eval.Code, env *eval.EvalEnv) (int, error) {
	v, err := c.Eval(env)
	if err != nil {
		return 0, err
	}
	return v.(*eval.IntValue).Value, nil
}

type orderKey struct {
	code eval.Code
	desc bool
}

type orderStep struct{ keys []orderKey }

func (s *orderStep) run(rows []*eval.EvalEnv, _ *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	type keyed struct {
		row  *eval.EvalEnv
		keys []eval.Value
	}
	ks := make([]keyed, len(rows))
	for i, row := range rows {
		keys := make([]eval.Value, len(s.keys))
		for j, k := range s.keys {
			v, err := k.code.Eval(row)
			if err != nil {
				return nil, err
			}
			keys[j] = v
		}
		ks[i] = keyed{row: row, keys: keys}
	}
	stableSort(ks, func(a, b keyed) int {
		for j := range s.keys {
			c := eval.Compare(a.keys[j], b.keys[j])
			if s.keys[j].desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	out := make([]*eval.EvalEnv, len(ks))
	for i, k := range ks {
		out[i] = k.row
	}
	return out, nil
}

// stableSort is an insertion sort: stable, and the row counts a `from`
// sorts interactively are small.
func stableSort[T any](xs []T, cmp func(a, b T) int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && cmp(xs[j], xs[j-1]) < 0; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

type groupKeyCode struct {
	label string
	code  eval.Code
}

type aggCode struct {
	label string
	fn    eval.Code
	arg   eval.Code
}

type groupStep struct {
	keys   []groupKeyCode
	aggs   []aggCode
	outEnv core.StepEnv
}

func compileGroupStep(s *core.Group) (stepCode, error) {
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
	return &groupStep{keys: keys, aggs: aggs, outEnv: s.OutEnv}, nil
}

func (s *groupStep) run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	type group struct {
		keyVals []eval.Value
		argVals [][]eval.Value
	}
	var groups []*group
	index := make(map[string]*group)
	for _, row := range rows {
		keyVals := make([]eval.Value, len(s.keys))
		for i, k := range s.keys {
			v, err := k.code.Eval(row)
			if err != nil {
				return nil, err
			}
			keyVals[i] = v
		}
		key := (&eval.TupleValue{Elements: keyVals}).String()
		g, ok := index[key]
		if !ok {
			g = &group{keyVals: keyVals, argVals: make([][]eval.Value, len(s.aggs))}
			index[key] = g
			groups = append(groups, g)
		}
		for i, a := range s.aggs {
			v, err := a.arg.Eval(row)
			if err != nil {
				return nil, err
			}
			g.argVals[i] = append(g.argVals[i], v)
		}
	}
	out := make([]*eval.EvalEnv, len(groups))
	for gi, g := range groups {
		frame := outer.Child()
		for i, k := range s.keys {
			frame.Set(k.label, g.keyVals[i])
		}
		for i, a := range s.aggs {
			fn, err := a.fn.Eval(outer)
			if err != nil {
				return nil, err
			}
			v, err := eval.Apply(fn, &eval.ListValue{Elements: g.argVals[i]})
			if err != nil {
				return nil, err
			}
			frame.Set(a.label, v)
		}
		out[gi] = frame
	}
	return out, nil
}

type yieldStep struct {
	exp    eval.Code
	outEnv core.StepEnv
}

func (s *yieldStep) run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	out := make([]*eval.EvalEnv, len(rows))
	for i, row := range rows {
		v, err := s.exp.Eval(row)
		if err != nil {
			return nil, err
		}
		frame, err := bindRow(s.outEnv, outer, v)
		if err != nil {
			return nil, err
		}
		out[i] = frame
	}
	return out, nil
}

type passStep struct{}

func (passStep) run(rows []*eval.EvalEnv, _ *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	return rows, nil
}

type setOpStep struct {
	kind     core.SetOpKind
	args     []eval.Code
	distinct bool
	outEnv   core.StepEnv
}

func compileSetOpStep(s *core.SetOp) (stepCode, error) {
	args := make([]eval.Code, len(s.Args))
	for i, a := range s.Args {
		c, err := CompileExp(a)
		if err != nil {
			return nil, err
		}
		args[i] = c
	}
	return &setOpStep{kind: s.Kind, args: args, distinct: s.Distinct, outEnv: s.OutEnv}, nil
}

func (s *setOpStep) run(rows []*eval.EvalEnv, outer *eval.EvalEnv) ([]*eval.EvalEnv, error) {
	left := make([]eval.Value, len(rows))
	for i, row := range rows {
		v, err := rowFromEnv(s.outEnv, row)
		if err != nil {
			return nil, err
		}
		left[i] = v
	}
	rel := planner.Rel(&planner.Scan{
		Source:    func() ([]eval.Value, error) { return left, nil },
		IsOrdered: true,
	})
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
		argRels[i] = &planner.Scan{Source: func() ([]eval.Value, error) { return elems, nil }, IsOrdered: ordered}
	}
	kinds := map[core.SetOpKind]planner.SetOpKind{
		core.UnionOp:     planner.Union,
		core.IntersectOp: planner.Intersect,
		core.ExceptOp:    planner.Except,
	}
	combined, err := (&planner.SetOp{Kind: kinds[s.kind], Left: rel, Args: argRels, Distinct: s.distinct}).Rows()
	if err != nil {
		return nil, err
	}
	out := make([]*eval.EvalEnv, len(combined))
	for i, v := range combined {
		frame, err := bindRow(s.outEnv, outer, v)
		if err != nil {
			return nil, err
		}
		out[i] = frame
	}
	return out, nil
}
