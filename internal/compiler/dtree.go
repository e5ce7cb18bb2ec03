package compiler

import (
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
)

// A Case compiles to a decision tree built once at compile time and
// interpreted per call: arms are bucketed by their top-level constructor
// tag (or boolean literal) so dispatch jumps straight to the candidate
// arms, with tie-breaking in source order within a bucket
// (spec.md Sec. 4.5 "Pattern matching").

type compiledArm struct {
	binder binder
	body   eval.Code
}

type decisionTree struct {
	arms []compiledArm
	// byKey maps a top-level discriminant (constructor name, or "true"/
	// "false" for boolean literals) to the source-ordered candidate arm
	// indices: arms with that discriminant plus every arm whose top
	// pattern does not discriminate.
	byKey map[string][]int
	// wild is the candidate list for a discriminant not seen in any arm:
	// only the non-discriminating arms.
	wild []int
	// discriminate is false when no arm has a usable top-level
	// discriminant; every arm is tried in order.
	discriminate bool
}

func compileCase(e *core.Case) (eval.Code, error) {
	scrut, err := CompileExp(e.Scrutinee)
	if err != nil {
		return nil, err
	}
	tree, err := buildDecisionTree(e.Arms)
	if err != nil {
		return nil, err
	}
	return &caseCode{scrut: scrut, tree: tree}, nil
}

func buildDecisionTree(arms []core.Match) (*decisionTree, error) {
	t := &decisionTree{byKey: make(map[string][]int)}
	keys := make([]string, len(arms))
	for i, arm := range arms {
		binder, err := compileBinder(arm.Pat)
		if err != nil {
			return nil, err
		}
		body, err := CompileExp(arm.Exp)
		if err != nil {
			return nil, err
		}
		t.arms = append(t.arms, compiledArm{binder: binder, body: body})
		keys[i] = armKey(arm.Pat)
		if keys[i] != "" {
			t.discriminate = true
		}
	}
	if !t.discriminate {
		return t, nil
	}
	for i, key := range keys {
		if key == "" {
			// A non-discriminating arm is a candidate for every bucket.
			for k := range t.byKey {
				t.byKey[k] = append(t.byKey[k], i)
			}
			t.wild = append(t.wild, i)
			continue
		}
		if _, ok := t.byKey[key]; !ok {
			// A new bucket starts with the non-discriminating arms seen so
			// far, keeping source order.
			t.byKey[key] = append([]int(nil), t.wild...)
		}
		t.byKey[key] = append(t.byKey[key], i)
	}
	return t, nil
}

// armKey extracts a top-level discriminant from a pattern, or "" when the
// pattern does not discriminate on a tag.
func armKey(p core.Pat) string {
	switch p := p.(type) {
	case *core.ConPat:
		return p.Ctor
	case *core.Literal:
		if p.Kind == core.BoolLit {
			if p.Value.(bool) {
				return "true"
			}
			return "false"
		}
	}
	return ""
}

// valueKey extracts the matching discriminant from a scrutinee value.
func valueKey(v eval.Value) (string, bool) {
	switch v := v.(type) {
	case *eval.TaggedValue:
		return v.Ctor, true
	case *eval.BoolValue:
		if v.Value {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

type caseCode struct {
	scrut eval.Code
	tree  *decisionTree
}

func (c *caseCode) Eval(env *eval.EvalEnv) (eval.Value, error) {
	v, err := c.scrut.Eval(env)
	if err != nil {
		return nil, err
	}
	candidates := c.tree.candidates(v)
	for _, i := range candidates {
		arm := c.tree.arms[i]
		frame := env.Child()
		if arm.binder.match(v, frame) {
			return arm.body.Eval(frame)
		}
	}
	return nil, eval.Raise(eval.Bind)
}

func (t *decisionTree) candidates(v eval.Value) []int {
	if !t.discriminate {
		return allIndices(len(t.arms))
	}
	key, ok := valueKey(v)
	if !ok {
		return allIndices(len(t.arms))
	}
	if c, ok := t.byKey[key]; ok {
		return c
	}
	return t.wild
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
