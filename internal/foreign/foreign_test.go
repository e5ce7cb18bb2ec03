package foreign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/types"
)

const manifest = `sources:
  - name: emps
    file: emps.csv
    ordered: true
    columns:
      - {name: id, type: int}
      - {name: name, type: string}
      - {name: deptno, type: int}
`

const empsCSV = `id,name,deptno
100,Fred,10
101,Velma,20
102,Shaggy,10
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "emps.csv"), []byte(empsCSV), 0o644))
	return dir
}

func TestOpenFromManifest(t *testing.T) {
	dir := writeFixture(t)
	src, err := Open(dir, "emps")
	require.NoError(t, err)
	assert.Equal(t, "emps", src.Name())
	assert.True(t, src.Ordered())

	_, err = Open(dir, "missing")
	require.Error(t, err)
}

func TestSchemaIsCanonicallyOrderedRecord(t *testing.T) {
	dir := writeFixture(t)
	src, err := Open(dir, "emps")
	require.NoError(t, err)
	schema := src.Schema()
	assert.Equal(t, []string{"deptno", "id", "name"}, schema.SortedLabels())
	assert.Equal(t, types.Int, schema.Fields["id"])
	assert.Equal(t, types.String, schema.Fields["name"])
}

func TestRowsAreRecordValues(t *testing.T) {
	dir := writeFixture(t)
	src, err := Open(dir, "emps")
	require.NoError(t, err)
	rows, err := src.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	first := rows[0].(*eval.RecordValue)
	assert.Equal(t, []string{"deptno", "id", "name"}, first.Labels)
	assert.Equal(t, `{deptno=10,id=100,name="Fred"}`, first.String())
}

func TestSameSourceComparesBackingFile(t *testing.T) {
	dir := writeFixture(t)
	a, err := Open(dir, "emps")
	require.NoError(t, err)
	b, err := Open(dir, "emps")
	require.NoError(t, err)
	assert.True(t, a.SameSource(b))
}

func TestBadColumnTypeRejected(t *testing.T) {
	dir := t.TempDir()
	bad := `sources:
  - name: x
    file: x.csv
    columns:
      - {name: a, type: blob}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(bad), 0o644))
	_, err := Open(dir, "x")
	require.Error(t, err)
}

func TestBindGivesListTypeAndTableValue(t *testing.T) {
	dir := writeFixture(t)
	src, err := Open(dir, "emps")
	require.NoError(t, err)
	ty, v := Bind(src)
	_, isList := ty.(*types.List)
	assert.True(t, isList)
	_, isTable := v.(*eval.Table)
	assert.True(t, isTable)
}
