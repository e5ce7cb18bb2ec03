// Package planner implements the relational algebra a `from` lowers to
// when its steps reduce to select-project-join-aggregate-order-limit
// (spec.md Sec. 4.6). Operators are composable Rel nodes; rows are
// runtime values. The planner may reorder filters and projections freely
// as long as the observable multiset and declared ordering are preserved.
package planner

import (
	"sort"

	"github.com/hydromatic/morel-go/internal/eval"
)

// Rel is one relational operator: a producer of rows.
type Rel interface {
	// Rows materializes the operator's output. The order is meaningful
	// only if Ordered reports true.
	Rows() ([]eval.Value, error)
	// Ordered reports whether the output order is deterministic.
	Ordered() bool
}

// Scan yields the rows of its source in source order (if ordered) or an
// unspecified order (if a bag).
type Scan struct {
	Source    func() ([]eval.Value, error)
	IsOrdered bool
}

func (s *Scan) Rows() ([]eval.Value, error) { return s.Source() }
func (s *Scan) Ordered() bool               { return s.IsOrdered }

// Filter keeps the rows satisfying Pred; order-preserving.
type Filter struct {
	Input Rel
	Pred  func(row eval.Value) (bool, error)
}

func (f *Filter) Rows() ([]eval.Value, error) {
	in, err := f.Input.Rows()
	if err != nil {
		return nil, err
	}
	var out []eval.Value
	for _, row := range in {
		keep, err := f.Pred(row)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}
func (f *Filter) Ordered() bool { return f.Input.Ordered() }

// Project maps each row through Fn; order-preserving.
type Project struct {
	Input Rel
	Fn    func(row eval.Value) (eval.Value, error)
}

func (p *Project) Rows() ([]eval.Value, error) {
	in, err := p.Input.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]eval.Value, len(in))
	for i, row := range in {
		v, err := p.Fn(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
func (p *Project) Ordered() bool { return p.Input.Ordered() }

// Join is a conceptual cartesian product followed by a filter, combined
// row-by-row with Combine. Implemented as a nested loop; the result
// multiset is what the specification fixes, not the algorithm.
type Join struct {
	Left, Right Rel
	Pred        func(l, r eval.Value) (bool, error) // nil for a plain product
	Combine     func(l, r eval.Value) eval.Value
}

func (j *Join) Rows() ([]eval.Value, error) {
	left, err := j.Left.Rows()
	if err != nil {
		return nil, err
	}
	right, err := j.Right.Rows()
	if err != nil {
		return nil, err
	}
	var out []eval.Value
	for _, l := range left {
		for _, r := range right {
			if j.Pred != nil {
				keep, err := j.Pred(l, r)
				if err != nil {
					return nil, err
				}
				if !keep {
					continue
				}
			}
			out = append(out, j.Combine(l, r))
		}
	}
	return out, nil
}
func (j *Join) Ordered() bool { return j.Left.Ordered() && j.Right.Ordered() }

// AggCall is one named aggregate of an Aggregate node: Arg extracts the
// aggregated value from each row of the group, Fn folds the collected
// list into the result.
type AggCall struct {
	Arg func(row eval.Value) (eval.Value, error)
	Fn  func(group *eval.ListValue) (eval.Value, error)
}

// Aggregate groups by a key tuple and computes a named collection of
// aggregate results: one row per distinct key, output unordered.
type Aggregate struct {
	Input   Rel
	Key     func(row eval.Value) (eval.Value, error)
	Calls   []AggCall
	Combine func(key eval.Value, aggResults []eval.Value) eval.Value
}

func (a *Aggregate) Rows() ([]eval.Value, error) {
	in, err := a.Input.Rows()
	if err != nil {
		return nil, err
	}
	type group struct {
		key  eval.Value
		args [][]eval.Value
	}
	var groups []*group
	index := make(map[string]*group)
	for _, row := range in {
		key, err := a.Key(row)
		if err != nil {
			return nil, err
		}
		k := key.String()
		g, ok := index[k]
		if !ok {
			g = &group{key: key, args: make([][]eval.Value, len(a.Calls))}
			index[k] = g
			groups = append(groups, g)
		}
		for i, call := range a.Calls {
			v, err := call.Arg(row)
			if err != nil {
				return nil, err
			}
			g.args[i] = append(g.args[i], v)
		}
	}
	out := make([]eval.Value, len(groups))
	for i, g := range groups {
		results := make([]eval.Value, len(a.Calls))
		for j, call := range a.Calls {
			v, err := call.Fn(&eval.ListValue{Elements: g.args[j]})
			if err != nil {
				return nil, err
			}
			results[j] = v
		}
		out[i] = a.Combine(g.key, results)
	}
	return out, nil
}
func (a *Aggregate) Ordered() bool { return false }

// SortKey is one key of a Sort node.
type SortKey struct {
	Key        func(row eval.Value) (eval.Value, error)
	Descending bool
}

// Sort establishes the declared order; an empty key list is a no-op.
type Sort struct {
	Input Rel
	Keys  []SortKey
}

func (s *Sort) Rows() ([]eval.Value, error) {
	in, err := s.Input.Rows()
	if err != nil {
		return nil, err
	}
	if len(s.Keys) == 0 {
		return in, nil
	}
	type keyed struct {
		row  eval.Value
		keys []eval.Value
	}
	rows := make([]keyed, len(in))
	for i, row := range in {
		keys := make([]eval.Value, len(s.Keys))
		for j, k := range s.Keys {
			v, err := k.Key(row)
			if err != nil {
				return nil, err
			}
			keys[j] = v
		}
		rows[i] = keyed{row: row, keys: keys}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k := range s.Keys {
			c := eval.Compare(rows[i].keys[k], rows[j].keys[k])
			if s.Keys[k].Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	out := make([]eval.Value, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out, nil
}
func (s *Sort) Ordered() bool { return true }

// Limit keeps the first N rows of the already-ordered stream.
type Limit struct {
	Input Rel
	N     func() (int, error)
}

func (l *Limit) Rows() ([]eval.Value, error) {
	in, err := l.Input.Rows()
	if err != nil {
		return nil, err
	}
	n, err := l.N()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(in) {
		n = len(in)
	}
	return in[:n], nil
}
func (l *Limit) Ordered() bool { return l.Input.Ordered() }

// Offset drops the first N rows of the already-ordered stream.
type Offset struct {
	Input Rel
	N     func() (int, error)
}

func (o *Offset) Rows() ([]eval.Value, error) {
	in, err := o.Input.Rows()
	if err != nil {
		return nil, err
	}
	n, err := o.N()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(in) {
		n = len(in)
	}
	return in[n:], nil
}
func (o *Offset) Ordered() bool { return o.Input.Ordered() }

// SetOpKind enumerates the set operations.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Except
)

// SetOp applies union/intersect/except with bag semantics, or set
// semantics when Distinct (spec.md Sec. 4.6).
type SetOp struct {
	Kind     SetOpKind
	Left     Rel
	Args     []Rel
	Distinct bool
}

func (s *SetOp) Rows() ([]eval.Value, error) {
	left, err := s.Left.Rows()
	if err != nil {
		return nil, err
	}
	result := left
	for _, arg := range s.Args {
		rows, err := arg.Rows()
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case Union:
			result = append(append([]eval.Value(nil), result...), rows...)
		case Intersect:
			result = intersectBags(result, rows)
		case Except:
			result = exceptBags(result, rows)
		}
	}
	if s.Distinct {
		result = distinctRows(result)
	}
	return result, nil
}

func (s *SetOp) Ordered() bool {
	if !s.Left.Ordered() {
		return false
	}
	for _, a := range s.Args {
		if !a.Ordered() {
			return false
		}
	}
	return true
}

func counts(rows []eval.Value) map[string]int {
	m := make(map[string]int, len(rows))
	for _, r := range rows {
		m[r.String()]++
	}
	return m
}

// intersectBags keeps each left row up to its multiplicity in right.
func intersectBags(left, right []eval.Value) []eval.Value {
	avail := counts(right)
	var out []eval.Value
	for _, r := range left {
		k := r.String()
		if avail[k] > 0 {
			avail[k]--
			out = append(out, r)
		}
	}
	return out
}

// exceptBags removes each right occurrence from left once.
func exceptBags(left, right []eval.Value) []eval.Value {
	remove := counts(right)
	var out []eval.Value
	for _, r := range left {
		k := r.String()
		if remove[k] > 0 {
			remove[k]--
			continue
		}
		out = append(out, r)
	}
	return out
}

func distinctRows(rows []eval.Value) []eval.Value {
	seen := make(map[string]bool, len(rows))
	var out []eval.Value
	for _, r := range rows {
		k := r.String()
		if !seen[k] {
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}
