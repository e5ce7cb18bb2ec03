package compiler

import (
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
)

// A binder tests a value against a compiled pattern and, on success,
// installs the pattern-bound names into the given frame (spec.md Sec. 4.5
// "Pattern matching").
type binder interface {
	match(v eval.Value, frame *eval.EvalEnv) bool
}

func compileBinder(p core.Pat) (binder, error) {
	switch p := p.(type) {
	case *core.Id:
		return &idBinder{name: p.Name}, nil
	case *core.WildcardPat:
		return wildBinder{}, nil
	case *core.Literal:
		v, err := literalValue(p)
		if err != nil {
			return nil, err
		}
		return &literalBinder{value: v}, nil
	case *core.ConPat:
		var arg binder
		if p.Arg != nil {
			var err error
			arg, err = compileBinder(p.Arg)
			if err != nil {
				return nil, err
			}
		}
		return &conBinder{ctor: p.Ctor, arg: arg}, nil
	case *core.ConsPat:
		head, err := compileBinder(p.Head)
		if err != nil {
			return nil, err
		}
		tail, err := compileBinder(p.Tail)
		if err != nil {
			return nil, err
		}
		return &consBinder{head: head, tail: tail}, nil
	case *core.ListPat:
		elems := make([]binder, len(p.Elements))
		for i, e := range p.Elements {
			b, err := compileBinder(e)
			if err != nil {
				return nil, err
			}
			elems[i] = b
		}
		return &listBinder{elems: elems}, nil
	case *core.TuplePat:
		elems := make([]binder, len(p.Elements))
		for i, e := range p.Elements {
			b, err := compileBinder(e)
			if err != nil {
				return nil, err
			}
			elems[i] = b
		}
		return &tupleBinder{elems: elems}, nil
	case *core.RecordPat:
		fields := make([]binder, len(p.Fields))
		for i, f := range p.Fields {
			b, err := compileBinder(f)
			if err != nil {
				return nil, err
			}
			fields[i] = b
		}
		return &recordBinder{fields: fields}, nil
	default:
		return nil, errf("unsupported pattern %T", p)
	}
}

type idBinder struct{ name string }

func (b *idBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	frame.Set(b.name, v)
	return true
}

type wildBinder struct{}

func (wildBinder) match(eval.Value, *eval.EvalEnv) bool { return true }

type literalBinder struct{ value eval.Value }

func (b *literalBinder) match(v eval.Value, _ *eval.EvalEnv) bool {
	return eval.Equals(b.value, v)
}

type conBinder struct {
	ctor string
	arg  binder
}

func (b *conBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	t, ok := v.(*eval.TaggedValue)
	if !ok || t.Ctor != b.ctor {
		return false
	}
	if b.arg == nil {
		return t.Payload == nil
	}
	return t.Payload != nil && b.arg.match(t.Payload, frame)
}

type consBinder struct{ head, tail binder }

func (b *consBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	l, ok := v.(*eval.ListValue)
	if !ok || len(l.Elements) == 0 {
		return false
	}
	return b.head.match(l.Elements[0], frame) &&
		b.tail.match(&eval.ListValue{Elements: l.Elements[1:]}, frame)
}

type listBinder struct{ elems []binder }

func (b *listBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	l, ok := v.(*eval.ListValue)
	if !ok || len(l.Elements) != len(b.elems) {
		return false
	}
	for i, e := range b.elems {
		if !e.match(l.Elements[i], frame) {
			return false
		}
	}
	return true
}

type tupleBinder struct{ elems []binder }

func (b *tupleBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	t, ok := v.(*eval.TupleValue)
	if !ok || len(t.Elements) != len(b.elems) {
		return false
	}
	for i, e := range b.elems {
		if !e.match(t.Elements[i], frame) {
			return false
		}
	}
	return true
}

type recordBinder struct{ fields []binder }

func (b *recordBinder) match(v eval.Value, frame *eval.EvalEnv) bool {
	r, ok := v.(*eval.RecordValue)
	if !ok {
		if _, isUnit := v.(*eval.UnitValue); isUnit && len(b.fields) == 0 {
			return true
		}
		return false
	}
	if len(r.Values) != len(b.fields) {
		return false
	}
	for i, f := range b.fields {
		if !f.match(r.Values[i], frame) {
			return false
		}
	}
	return true
}
