package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end coverage of the foreign tabular source: a CSV-backed table
// registered from the manifest, scanned by a `from` (spec.md Sec. 6).
func TestForeignSourceQuery(t *testing.T) {
	dir := t.TempDir()
	manifest := `sources:
  - name: emps
    file: emps.csv
    ordered: true
    columns:
      - {name: id, type: int}
      - {name: name, type: string}
      - {name: deptno, type: int}
`
	csv := "id,name,deptno\n100,Fred,10\n101,Velma,20\n102,Shaggy,10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foreign.yaml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "emps.csv"), []byte(csv), 0o644))

	color.NoColor = true
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Out = &out
	cfg.Directory = dir
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.LoadForeign("emps"))

	require.Equal(t, OK, s.Execute(`from e in emps where #deptno e = 10 yield #name e`))
	assert.Contains(t, out.String(), `val it = ["Fred","Shaggy"] : string list`)
	out.Reset()

	require.Equal(t, OK, s.Execute(`from e in emps group d = #deptno e compute {c = count of e} order d`))
	assert.Contains(t, out.String(), `val it = [{c=2,d=10},{c=1,d=20}] : {c:int, d:int} list`)
	out.Reset()

	require.Equal(t, OK, s.Execute(`emps = emps`))
	assert.Contains(t, out.String(), "val it = true : bool")
}
