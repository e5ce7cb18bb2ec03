package ast

import "fmt"

// BuildError is a well-formedness violation caught while constructing the
// AST, before the resolver ever sees the tree (spec.md Sec. 4.2).
type BuildError struct {
	Pos     Pos
	Message string
}

func (e *BuildError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

// RecordFieldSource is the raw field the parser extracted for a record
// expression, before implicit-label derivation.
type RecordFieldSource struct {
	// Label is the explicit label `label = expr`; empty if none was
	// written (e.g. bare `y` or projection `x.a`).
	Label string
	Value Expr
	Pos   Pos
}

// BuildRecordExpr derives each field's label (spec.md Sec. 4.2: a field
// `x.a` or bare `y` has implicit label `a`/`y` respectively) and rejects a
// field whose label cannot be derived.
func BuildRecordExpr(pos Pos, fields []RecordFieldSource) (*RecordExpr, error) {
	out := make([]RecordField, 0, len(fields))
	for _, f := range fields {
		label := f.Label
		if label == "" {
			derived, ok := deriveLabel(f.Value)
			if !ok {
				return nil, &BuildError{Pos: f.Pos, Message: "record field has no explicit or derivable label"}
			}
			label = derived
		}
		out = append(out, RecordField{Label: label, Value: f.Value, Pos: f.Pos})
	}
	if err := checkDuplicateLabels(pos, out); err != nil {
		return nil, err
	}
	return &RecordExpr{Fields: out, Pos: pos}, nil
}

// deriveLabel implements the implicit-label rule: a bare identifier `y`
// derives label `y`; a field access `x.a` derives label `a`.
func deriveLabel(e Expr) (string, bool) {
	switch e := e.(type) {
	case *Ident:
		return e.Name, true
	case *FieldAccess:
		return e.Field, true
	default:
		return "", false
	}
}

func checkDuplicateLabels(pos Pos, fields []RecordField) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Label] {
			return &BuildError{Pos: pos, Message: fmt.Sprintf("duplicate record field %q", f.Label)}
		}
		seen[f.Label] = true
	}
	return nil
}

// FieldAccess is `e.label`, used both as an expression and, per the
// implicit-label rule above, as a record-field-construction source.
type FieldAccess struct {
	Record Expr
	Field  string
	Pos    Pos
}

func (f *FieldAccess) Position() Pos { return f.Pos }
func (f *FieldAccess) exprNode()     {}

// Selector is `#label`, the record-field selector used as a first-class
// function (e.g. `#dept e`). The resolver turns it into a
// core.RecordSelector once the record type is known.
type Selector struct {
	Field string
	Pos   Pos
}

func (s *Selector) Position() Pos { return s.Pos }
func (s *Selector) exprNode()     {}

// BuildIdentPattern rejects binding a reserved name (spec.md Sec. 4.2).
func BuildIdentPattern(pos Pos, name string) (*Ident, error) {
	if ReservedNames[name] {
		return nil, &BuildError{Pos: pos, Message: fmt.Sprintf("%q is reserved and cannot be rebound", name)}
	}
	return &Ident{Name: name, Pos: pos}, nil
}

// BuildFromClause tags the RHS of a `from` clause as bind (`x = e`) or
// scan (`x in e`) per spec.md Sec. 4.2.
func BuildFromClause(pos Pos, pat Pattern, rhs Expr, bind bool) *FromClause {
	return &FromClause{Var: pat, Rhs: rhs, Bind: bind, Pos: pos}
}

// BuildRecordPat mirrors BuildRecordExpr's duplicate-label check: it only
// rejects duplicate labels written explicitly. The fields a `...` pattern
// omits are filled in with wildcards later, by the resolver, once the
// record's full field set is known from the scrutinee type (spec.md Sec.
// 4.3 point 4).
func BuildRecordPat(pos Pos, fields []RecordPatField, rest bool) (*RecordPat, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Label] {
			return nil, &BuildError{Pos: pos, Message: fmt.Sprintf("duplicate record field %q", f.Label)}
		}
		seen[f.Label] = true
	}
	return &RecordPat{Fields: fields, Rest: rest, Pos: pos}, nil
}
