package resolver

import "github.com/hydromatic/morel-go/internal/core"

// zonkExp applies the final substitution to every type in a core tree, so
// published core nodes carry concrete (or properly quantified) types and
// no dangling unification variables that were later solved.
func (r *Resolver) zonkExp(e core.Exp) {
	switch e := e.(type) {
	case *core.Id:
		e.Ty = r.apply(e.Ty)
	case *core.Literal:
		e.Ty = r.apply(e.Ty)
	case *core.Tuple:
		e.Ty = r.apply(e.Ty)
		for _, a := range e.Args {
			r.zonkExp(a)
		}
	case *core.List:
		e.Ty = r.apply(e.Ty)
		for _, a := range e.Elements {
			r.zonkExp(a)
		}
	case *core.Apply:
		e.Ty = r.apply(e.Ty)
		r.zonkExp(e.Fn)
		r.zonkExp(e.Arg)
	case *core.Fn:
		e.Ty = r.apply(e.Ty)
		r.zonkPat(e.Param)
		r.zonkExp(e.Body)
	case *core.Case:
		e.Ty = r.apply(e.Ty)
		r.zonkExp(e.Scrutinee)
		for _, arm := range e.Arms {
			r.zonkPat(arm.Pat)
			r.zonkExp(arm.Exp)
		}
	case *core.Let:
		r.zonkDecl(e.Decl)
		r.zonkExp(e.Body)
	case *core.Local:
		r.zonkExp(e.Body)
	case *core.RecordSelector:
		e.Ty = r.apply(e.Ty)
	case *core.From:
		e.Ty = r.apply(e.Ty)
		for _, s := range e.Steps {
			r.zonkStep(s)
		}
	}
}

func (r *Resolver) zonkPat(p core.Pat) {
	switch p := p.(type) {
	case *core.Id:
		p.Ty = r.apply(p.Ty)
	case *core.Literal:
		p.Ty = r.apply(p.Ty)
	case *core.WildcardPat:
		p.Ty = r.apply(p.Ty)
	case *core.ConPat:
		p.Ty = r.apply(p.Ty)
		if p.Arg != nil {
			r.zonkPat(p.Arg)
		}
	case *core.ConsPat:
		p.Ty = r.apply(p.Ty)
		r.zonkPat(p.Head)
		r.zonkPat(p.Tail)
	case *core.ListPat:
		p.Ty = r.apply(p.Ty)
		for _, e := range p.Elements {
			r.zonkPat(e)
		}
	case *core.TuplePat:
		p.Ty = r.apply(p.Ty)
		for _, e := range p.Elements {
			r.zonkPat(e)
		}
	case *core.RecordPat:
		p.Ty = r.apply(p.Ty)
		for _, e := range p.Fields {
			r.zonkPat(e)
		}
	}
}

func (r *Resolver) zonkDecl(d core.Decl) {
	switch d := d.(type) {
	case *core.NonRecValDecl:
		r.zonkPat(d.Pat)
		r.zonkExp(d.Exp)
	case *core.RecValDecl:
		for i := range d.Bindings {
			d.Bindings[i].Pat.Ty = r.apply(d.Bindings[i].Pat.Ty)
			r.zonkExp(d.Bindings[i].Exp)
		}
	}
}

func (r *Resolver) zonkStep(s core.FromStep) {
	zonkEnv := func(env *core.StepEnv) {
		for i := range env.Bindings {
			env.Bindings[i].Ty = r.apply(env.Bindings[i].Ty)
		}
	}
	switch s := s.(type) {
	case *core.Scan:
		r.zonkPat(s.Pat)
		r.zonkExp(s.Source)
		if s.Filter != nil {
			r.zonkExp(s.Filter)
		}
		zonkEnv(&s.OutEnv)
	case *core.Where:
		r.zonkExp(s.Cond)
		zonkEnv(&s.OutEnv)
	case *core.Skip:
		r.zonkExp(s.Count)
		zonkEnv(&s.OutEnv)
	case *core.Take:
		r.zonkExp(s.Count)
		zonkEnv(&s.OutEnv)
	case *core.Order:
		for _, k := range s.Keys {
			r.zonkExp(k.Exp)
		}
		zonkEnv(&s.OutEnv)
	case *core.Group:
		for _, k := range s.Keys {
			r.zonkExp(k.Exp)
		}
		for _, a := range s.Aggregates {
			r.zonkExp(a.Fn)
			if a.Arg != nil {
				r.zonkExp(a.Arg)
			}
		}
		zonkEnv(&s.OutEnv)
	case *core.Yield:
		r.zonkExp(s.Exp)
		zonkEnv(&s.OutEnv)
	case *core.Unorder:
		zonkEnv(&s.OutEnv)
	case *core.SetOp:
		for _, a := range s.Args {
			r.zonkExp(a)
		}
		zonkEnv(&s.OutEnv)
	}
}
