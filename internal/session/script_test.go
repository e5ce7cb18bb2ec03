package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

// TestScripts runs the script corpus (spec.md Sec. 6 "Script test
// format"): each .smli file is a sequence of statements typed at the
// REPL; the transcript (inputs echoed, results interleaved) is
// snapshotted. These files are the primary regression corpus.
func TestScripts(t *testing.T) {
	color.NoColor = true
	files, err := filepath.Glob(filepath.Join("testdata", "scripts", "*.smli"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		name := strings.TrimSuffix(filepath.Base(file), ".smli")
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			var out bytes.Buffer
			cfg := DefaultConfig()
			cfg.Out = &out
			cfg.Echo = true
			s, err := New(cfg)
			require.NoError(t, err)
			s.Run(string(data))

			snaps.MatchSnapshot(t, out.String())
		})
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	snaps.Clean(m)
	os.Exit(code)
}
