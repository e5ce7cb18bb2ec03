// Package foreign implements the foreign tabular source interface: an
// opaque, read-only producer of record-typed rows (spec.md Sec. 6). The
// reference implementation is a CSV file described by a YAML manifest;
// the evaluator sees only the abstract interface.
package foreign

import (
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

// Source is a foreign value: a schema, a row sequence, and value
// equality. It extends the evaluator's minimal view with the record type
// the resolver needs.
type Source interface {
	eval.Foreign
	// Schema is the record type of each row.
	Schema() *types.Record
	// Name is the source's registered name.
	Name() string
}

// Bind wraps a source as the session binding pair: the list type the
// resolver sees and the table value the evaluator scans.
func Bind(s Source) (types.Type, eval.Value) {
	return &types.List{Element: s.Schema()}, &eval.Table{Source: s}
}
