// Package cmd wires the morel command line: positional source files,
// --eval, --directory, --foreign, --echo, and --trace, with the exit
// codes of spec.md Sec. 6 (0 clean, 1 runtime error, 2 parse/type error,
// 3 source-file I/O error).
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hydromatic/morel-go/internal/session"
)

var (
	// Version is set by build flags.
	Version = "0.1.0-dev"

	flagEval      string
	flagDirectory string
	flagForeign   []string
	flagEcho      bool
	flagTrace     bool
	flagTraceFile string
	flagStrict    bool
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitStatic  = 2
	exitIO      = 3
)

var rootCmd = &cobra.Command{
	Use:   "morel [file ...]",
	Short: "Morel interpreter",
	Long: `morel is an interpreter for a statically typed functional language in
the Standard ML family, extended with relational query comprehensions
(from ... where ... group ... yield).

With no arguments it reads statements from stdin; with file arguments it
evaluates each file in order.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, args []string) error {
		code := run(args)
		if code != exitOK {
			return &exitError{code: code}
		}
		return nil
	},
}

type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			return ee.code
		}
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
		return exitStatic
	}
	return exitOK
}

func init() {
	rootCmd.Flags().StringVar(&flagEval, "eval", "", "evaluate a single expression, print, and exit")
	rootCmd.Flags().StringVar(&flagDirectory, "directory", ".", "resolve relative `use` imports against this directory")
	rootCmd.Flags().StringArrayVar(&flagForeign, "foreign", nil, "load a named foreign data source (repeatable)")
	rootCmd.Flags().BoolVar(&flagEcho, "echo", false, "echo each input line before the result line")
	rootCmd.Flags().BoolVar(&flagTrace, "trace", false, "print the resolved type of each declaration")
	rootCmd.Flags().StringVar(&flagTraceFile, "trace-file", "", "write the session transcript to this file as YAML")
	rootCmd.Flags().BoolVar(&flagStrict, "strict-match", false, "treat non-exhaustive matches as errors")
}

func run(files []string) int {
	cfg := session.DefaultConfig()
	cfg.Directory = flagDirectory
	cfg.Echo = flagEcho
	cfg.Trace = flagTrace
	cfg.StrictMatch = flagStrict
	cfg.TraceFile = flagTraceFile

	s, err := session.New(cfg)
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
		return exitStatic
	}
	for _, name := range flagForeign {
		if err := s.LoadForeign(name); err != nil {
			color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
			return exitIO
		}
	}

	defer func() {
		if err := s.WriteTrace(); err != nil {
			color.New(color.FgYellow).Fprintln(os.Stderr, err.Error())
		}
	}()

	if flagEval != "" {
		return resultCode(s.Run(flagEval))
	}

	if len(files) > 0 {
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
				return exitIO
			}
			if r := s.Run(string(data)); r != session.OK {
				return resultCode(r)
			}
		}
		return exitOK
	}

	return repl(s)
}

// repl accumulates lines until a `;` at statement scope, then executes
// (spec.md Sec. 6 REPL grammar). Statements that fail report and the
// loop continues with the next input.
func repl(s *session.Session) int {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var buf strings.Builder
	code := exitOK
	for scanner.Scan() {
		line := scanner.Text()
		if buf.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		if !session.Complete(buf.String()) {
			continue
		}
		stmts := session.SplitStatements(buf.String())
		rest := ""
		if n := len(stmts); n > 0 && !strings.HasSuffix(strings.TrimSpace(buf.String()), ";") {
			// The line after the last `;` is a statement still being typed.
			rest = stmts[n-1]
			stmts = stmts[:n-1]
		}
		for _, stmt := range stmts {
			if r := s.Execute(stmt); r != session.OK {
				code = resultCode(r)
			}
		}
		buf.Reset()
		buf.WriteString(rest)
	}
	return code
}

func resultCode(r session.Result) int {
	switch r {
	case session.OK:
		return exitOK
	case session.RuntimeError:
		return exitRuntime
	default:
		return exitStatic
	}
}
