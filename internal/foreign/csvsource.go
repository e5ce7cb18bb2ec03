package foreign

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

// CSVSource is the reference foreign value: a schema-declared, read-only
// CSV file. Rows are materialized on demand; the file's row order is the
// source order when the spec declares it ordered.
type CSVSource struct {
	spec SourceSpec
	path string
	// labels in canonical record order, with the matching column index.
	labels []string
	colIdx []int
	schema *types.Record
}

// NewCSVSource builds a source from its manifest spec, resolving the file
// relative to dir.
func NewCSVSource(spec SourceSpec, dir string) *CSVSource {
	fields := make(map[string]types.Type, len(spec.Columns))
	for _, c := range spec.Columns {
		fields[c.Name] = columnType(c.Type)
	}
	schema := &types.Record{Fields: fields}
	labels := schema.SortedLabels()
	colIdx := make([]int, len(labels))
	for i, l := range labels {
		for j, c := range spec.Columns {
			if c.Name == l {
				colIdx[i] = j
			}
		}
	}
	return &CSVSource{
		spec:   spec,
		path:   filepath.Join(dir, spec.File),
		labels: labels,
		colIdx: colIdx,
		schema: schema,
	}
}

func columnType(name string) types.Type {
	switch name {
	case "int":
		return types.Int
	case "real":
		return types.Real
	case "bool":
		return types.Bool
	default:
		return types.String
	}
}

func (s *CSVSource) Name() string          { return s.spec.Name }
func (s *CSVSource) Schema() *types.Record { return s.schema }
func (s *CSVSource) Ordered() bool         { return s.spec.Ordered }

// SameSource is value equality for tables: same backing file.
func (s *CSVSource) SameSource(other eval.Foreign) bool {
	o, ok := other.(*CSVSource)
	return ok && o.path == s.path
}

// Rows reads the whole file, converting each cell per the declared column
// type. The first line is a header and is skipped.
func (s *CSVSource) Rows() ([]eval.Value, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]eval.Value, 0, len(records)-1)
	for lineNo, rec := range records[1:] {
		if len(rec) != len(s.spec.Columns) {
			return nil, fmt.Errorf("%s: line %d has %d fields, want %d", s.path, lineNo+2, len(rec), len(s.spec.Columns))
		}
		values := make([]eval.Value, len(s.labels))
		for i := range s.labels {
			col := s.spec.Columns[s.colIdx[i]]
			v, err := cellValue(rec[s.colIdx[i]], col.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d column %q: %w", s.path, lineNo+2, col.Name, err)
			}
			values[i] = v
		}
		rows = append(rows, &eval.RecordValue{Labels: s.labels, Values: values})
	}
	return rows, nil
}

func cellValue(cell, typeName string) (eval.Value, error) {
	switch typeName {
	case "int":
		n, err := strconv.Atoi(cell)
		if err != nil {
			return nil, err
		}
		return &eval.IntValue{Value: n}, nil
	case "real":
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, err
		}
		return &eval.RealValue{Value: f}, nil
	case "bool":
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, err
		}
		return eval.Bool(b), nil
	default:
		return &eval.StringValue{Value: cell}, nil
	}
}
