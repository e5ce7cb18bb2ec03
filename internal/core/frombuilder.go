package core

import (
	"sort"

	"github.com/hydromatic/morel-go/internal/types"
)

// FromBuilder is the stateful helper used by the resolver (and by later
// rewrites) to construct a From node step by step, simplifying as it goes
// and maintaining the StepEnv after each appended step (spec.md Sec. 4.4).
type FromBuilder struct {
	steps []FromStep
	env   StepEnv
}

func NewFromBuilder() *FromBuilder {
	return &FromBuilder{env: StepEnv{Ordered: true}}
}

// Env returns the StepEnv after the last appended step.
func (b *FromBuilder) Env() StepEnv { return b.env }

// addStep appends a step. A single-field trivial yield is kept only while
// it is the last step (spec.md Sec. 4.4): appending anything after it
// removes it first, since its only effect is on the final output shape.
func (b *FromBuilder) addStep(s FromStep) {
	if n := len(b.steps); n > 0 {
		if y, ok := b.steps[n-1].(*Yield); ok && isSingleFieldTrivialYield(y) {
			b.steps = b.steps[:n-1]
			b.env = b.envBefore(n - 1)
			// Pass-through steps copied the yield's env; restore the rows'
			// bindings and atom flag from before the yield.
			switch st := s.(type) {
			case *Where:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			case *Skip:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			case *Take:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			case *Order:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			case *Unorder:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			case *SetOp:
				st.OutEnv.Bindings, st.OutEnv.Atom = b.env.Bindings, b.env.Atom
			}
		}
	}
	b.steps = append(b.steps, s)
	b.env = s.Env()
}

// envBefore reconstructs the StepEnv in force before step index i.
func (b *FromBuilder) envBefore(i int) StepEnv {
	if i == 0 {
		return StepEnv{Ordered: true}
	}
	return b.steps[i-1].Env()
}

func isSingleFieldTrivialYield(y *Yield) bool {
	t, ok := y.Exp.(*Tuple)
	if !ok || len(t.Labels) != 1 {
		return false
	}
	id, ok := t.Args[0].(*Id)
	return ok && id.Name == t.Labels[0]
}

// Scan appends a scan of source under pat, with an optional fused filter.
// sourceOrdered is whether the scanned collection itself has a
// deterministic order (a list: yes; a bag or unordered foreign source:
// no). A scan whose source is itself a From is flattened when it is the
// first step (spec.md Sec. 4.4: `from x in (from y in ys)` becomes
// `from y in ys yield {x = y}`, with a trivial tail yield dropped).
func (b *FromBuilder) Scan(pat Pat, source Exp, filter Exp, sourceOrdered bool) {
	if inner, ok := source.(*From); ok && len(b.steps) == 0 && filter == nil {
		if id, ok := pat.(*Id); ok {
			innerEnv := lastEnv(inner)
			if innerEnv.Atom && len(innerEnv.Bindings) == 1 {
				b.steps = append(b.steps, inner.Steps...)
				b.env = innerEnv
				y := innerEnv.Bindings[0]
				if id.Name == y.Name {
					// The rename yield would be trivial; the inner atom
					// binding already has the outer name.
					return
				}
				rec, err := NewRecord([]string{id.Name}, []Exp{&Id{Name: y.Name, Ordinal: y.Ordinal, Ty: y.Ty}})
				if err == nil {
					b.Yield(rec)
					return
				}
			}
		}
	}
	bindings := append(append([]Binding(nil), b.env.Bindings...), PatBindings(pat)...)
	out := StepEnv{
		Bindings: bindings,
		Atom:     len(bindings) == 1,
		Ordered:  b.env.Ordered && sourceOrdered,
	}
	b.addStep(&Scan{Pat: pat, Source: source, Filter: filter, OutEnv: out})
}

// Where appends a filter step, dropping `where true`.
func (b *FromBuilder) Where(cond Exp) {
	if lit, ok := cond.(*Literal); ok && lit.Kind == BoolLit && lit.Value == true {
		return
	}
	b.addStep(&Where{Cond: cond, OutEnv: b.env})
}

// Skip appends a skip step, dropping `skip 0`.
func (b *FromBuilder) Skip(count Exp) {
	if lit, ok := count.(*Literal); ok && lit.Kind == IntLit && lit.Value == 0 {
		return
	}
	b.addStep(&Skip{Count: count, OutEnv: b.env})
}

// Take appends a take step.
func (b *FromBuilder) Take(count Exp) {
	b.addStep(&Take{Count: count, OutEnv: b.env})
}

// Order appends an order step, dropping an empty one. Order always
// produces an ordered stream.
func (b *FromBuilder) Order(keys []OrderKey) {
	if len(keys) == 0 {
		return
	}
	out := b.env
	out.Ordered = true
	b.addStep(&Order{Keys: keys, OutEnv: out})
}

// Group appends a grouping step. Its output is a bag: one row per
// distinct key, unordered, with bindings for every key and aggregate
// label.
func (b *FromBuilder) Group(keys []GroupKey, aggs []Aggregate) {
	bindings := make([]Binding, 0, len(keys)+len(aggs))
	for _, k := range keys {
		bindings = append(bindings, Binding{Name: k.Label, Ty: k.Exp.Type()})
	}
	for _, a := range aggs {
		bindings = append(bindings, Binding{Name: a.Label, Ty: aggResultType(a)})
	}
	sort.Slice(bindings, func(i, j int) bool { return types.LabelLess(bindings[i].Name, bindings[j].Name) })
	out := StepEnv{
		Bindings: bindings,
		Atom:     len(bindings) == 1,
		Ordered:  false,
	}
	b.addStep(&Group{Keys: keys, Aggregates: aggs, OutEnv: out})
}

func aggResultType(a Aggregate) types.Type {
	if fn, ok := a.Fn.Type().(*types.Fn); ok {
		return fn.Result
	}
	return a.Fn.Type()
}

// Yield appends a yield step. A yield that reproduces the incoming record
// shape exactly is dropped, except that a single-field `{x = x}` is kept
// for now (addStep removes it if anything is appended after it), because
// as the final step it wraps an atom into a singleton record.
func (b *FromBuilder) Yield(exp Exp) {
	if b.isTrivialYield(exp) {
		if t, ok := exp.(*Tuple); !ok || len(t.Labels) != 1 {
			return
		}
	}
	out := b.yieldEnv(exp)
	b.addStep(&Yield{Exp: exp, OutEnv: out})
}

// isTrivialYield reports whether exp is a record `{a = a, b = b, ...}`
// over exactly the current bindings, or (for an atom input) the bare
// current binding itself.
func (b *FromBuilder) isTrivialYield(exp Exp) bool {
	if id, ok := exp.(*Id); ok {
		return b.env.Atom && len(b.env.Bindings) == 1 && b.env.Bindings[0].Name == id.Name
	}
	t, ok := exp.(*Tuple)
	if !ok || t.Labels == nil || len(t.Labels) != len(b.env.Bindings) || b.env.Atom {
		return false
	}
	for i, l := range t.Labels {
		id, ok := t.Args[i].(*Id)
		if !ok || id.Name != l {
			return false
		}
		if _, bound := b.env.Lookup(l); !bound {
			return false
		}
	}
	return true
}

func (b *FromBuilder) yieldEnv(exp Exp) StepEnv {
	if t, ok := exp.(*Tuple); ok && t.Labels != nil {
		bindings := make([]Binding, len(t.Labels))
		for i, l := range t.Labels {
			bindings[i] = Binding{Name: l, Ty: t.Args[i].Type()}
		}
		return StepEnv{Bindings: bindings, Atom: false, Ordered: b.env.Ordered}
	}
	name := "it"
	if id, ok := exp.(*Id); ok {
		name = id.Name
	}
	return StepEnv{
		Bindings: []Binding{{Name: name, Ty: exp.Type()}},
		Atom:     true,
		Ordered:  b.env.Ordered,
	}
}

// Unorder appends an unorder step; the result is a bag.
func (b *FromBuilder) Unorder() {
	if !b.env.Ordered {
		return
	}
	out := b.env
	out.Ordered = false
	b.addStep(&Unorder{OutEnv: out})
}

// SetOp appends a union/intersect/except step. The output is ordered only
// if the input and every argument are ordered lists.
func (b *FromBuilder) SetOp(kind SetOpKind, args []Exp, distinct bool, argsOrdered bool) {
	out := b.env
	out.Ordered = b.env.Ordered && argsOrdered
	b.addStep(&SetOp{Kind: kind, Args: args, Distinct: distinct, OutEnv: out})
}

// Build finalizes the From node, computing its list type from the final
// StepEnv: an atom step yields bare values, otherwise records.
func (b *FromBuilder) Build() *From {
	row := b.RowType()
	return &From{Steps: b.steps, Ty: &types.List{Element: row}}
}

// RowType is the element type produced by the current final step.
func (b *FromBuilder) RowType() types.Type {
	if b.env.Atom && len(b.env.Bindings) == 1 {
		return b.env.Bindings[0].Ty
	}
	fields := make(map[string]types.Type, len(b.env.Bindings))
	for _, bd := range b.env.Bindings {
		fields[bd.Name] = bd.Ty
	}
	return &types.Record{Fields: fields}
}

func lastEnv(f *From) StepEnv {
	if len(f.Steps) == 0 {
		return StepEnv{Ordered: true}
	}
	return f.Steps[len(f.Steps)-1].Env()
}

// PatBindings collects the named bindings a pattern introduces, in
// canonical label order for records and source order otherwise.
func PatBindings(p Pat) []Binding {
	var out []Binding
	var walk func(Pat)
	walk = func(p Pat) {
		switch p := p.(type) {
		case *Id:
			out = append(out, Binding{Name: p.Name, Ordinal: p.Ordinal, Ty: p.Ty})
		case *ConsPat:
			walk(p.Head)
			walk(p.Tail)
		case *ConPat:
			if p.Arg != nil {
				walk(p.Arg)
			}
		case *ListPat:
			for _, e := range p.Elements {
				walk(e)
			}
		case *TuplePat:
			for _, e := range p.Elements {
				walk(e)
			}
		case *RecordPat:
			for _, f := range p.Fields {
				walk(f)
			}
		}
	}
	walk(p)
	return out
}
