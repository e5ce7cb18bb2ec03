// Package session implements the top-level driver: it owns the
// accumulating environment, synthesizes `val it = e` for bare
// expressions, runs the parse/resolve/compile/evaluate pipeline, prints
// results with their generalized types, and commits bindings
// transactionally per declaration (spec.md Sec. 4.8/7).
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/hydromatic/morel-go/internal/ast"
	"github.com/hydromatic/morel-go/internal/compiler"
	"github.com/hydromatic/morel-go/internal/core"
	"github.com/hydromatic/morel-go/internal/eval"
	"github.com/hydromatic/morel-go/internal/foreign"
	"github.com/hydromatic/morel-go/internal/library"
	"github.com/hydromatic/morel-go/internal/parser"
	"github.com/hydromatic/morel-go/internal/resolver"
	"github.com/hydromatic/morel-go/internal/types"
)

// Config is a session's printing and policy configuration.
type Config struct {
	// MaxLineWidth bounds one printed result line; longer list renderings
	// are elided with `...`.
	MaxLineWidth int
	// PrintDepth bounds nesting when printing values; deeper structure
	// prints as `#`.
	PrintDepth int
	// PrintLength bounds how many list elements print before `...`.
	PrintLength int
	// Echo repeats each input line before its result (the --echo flag).
	Echo bool
	// Trace prints the resolved type of each declaration's core form (the
	// --trace flag).
	Trace bool
	// StrictMatch makes non-exhaustive matches hard errors.
	StrictMatch bool
	// Directory resolves relative `use` imports and foreign manifests.
	Directory string
	// TraceFile, when set, receives the session transcript as YAML when
	// WriteTrace is called.
	TraceFile string
	// Out receives results; defaults to os.Stdout.
	Out io.Writer
}

// DefaultConfig mirrors the interactive defaults.
func DefaultConfig() Config {
	return Config{MaxLineWidth: 79, PrintDepth: 5, PrintLength: 12, Directory: "."}
}

// Session holds the current top-level environment, the printing
// configuration, a layered datatype registry, and any foreign value
// registrations.
type Session struct {
	cfg       Config
	typeEnv   *types.Env
	valEnv    *eval.EvalEnv
	registry  *types.Registry
	overloads *types.OverloadEnv
	res       *resolver.Resolver

	green  *color.Color
	red    *color.Color
	yellow *color.Color

	trace []TraceEntry
}

// TraceEntry is one statement of the session transcript.
type TraceEntry struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// New builds a session with the library preloaded.
func New(cfg Config) (*Session, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	s := &Session{
		cfg:       cfg,
		typeEnv:   types.NewEnv(),
		valEnv:    eval.NewEvalEnv(),
		registry:  types.NewLayeredRegistry(types.Base),
		overloads: types.NewOverloadEnv(),
		green:     color.New(color.FgGreen),
		red:       color.New(color.FgRed),
		yellow:    color.New(color.FgYellow),
	}
	s.res = resolver.New(s.registry, s.overloads)
	s.res.StrictMatch = cfg.StrictMatch

	for _, entry := range library.Entries() {
		var v eval.Value
		if entry.Value != nil {
			v = entry.Value
		} else {
			b, err := eval.NewBuiltin(entry.Tag)
			if err != nil {
				return nil, err
			}
			v = b
		}
		s.valEnv.Set(entry.Name, v)
	}
	for name, tag := range resolver.InstBindings() {
		b, err := eval.NewBuiltin(tag)
		if err != nil {
			return nil, err
		}
		s.valEnv.Set(name, b)
	}
	return s, nil
}

// RegisterForeign binds a foreign source under its name.
func (s *Session) RegisterForeign(src foreign.Source) {
	ty, v := foreign.Bind(src)
	s.typeEnv = s.typeEnv.Extend(src.Name(), types.Monomorphic(ty))
	s.valEnv = s.valEnv.Extend(src.Name(), v)
}

// LoadForeign resolves a named source against the session directory's
// manifest and registers it.
func (s *Session) LoadForeign(name string) error {
	src, err := foreign.Open(s.cfg.Directory, name)
	if err != nil {
		return err
	}
	s.RegisterForeign(src)
	return nil
}

// Result classifies what one statement produced, mapping to the process
// exit codes of spec.md Sec. 6.
type Result int

const (
	OK Result = iota
	// StaticError: parse or type error (exit code 2).
	StaticError
	// RuntimeError: uncaught evaluation error (exit code 1).
	RuntimeError
)

// Execute runs one statement (without its terminating `;`). The printed
// output is written to the configured writer; the result classifies any
// failure. A whitespace-only statement is a no-op.
func (s *Session) Execute(src string) Result {
	if strings.TrimSpace(src) == "" {
		return OK
	}
	if s.cfg.TraceFile != "" {
		capture := &strings.Builder{}
		origOut := s.cfg.Out
		s.cfg.Out = io.MultiWriter(origOut, capture)
		defer func() {
			s.cfg.Out = origOut
			s.trace = append(s.trace, TraceEntry{
				Input:  strings.TrimSpace(src),
				Output: capture.String(),
			})
		}()
	}
	if s.cfg.Echo {
		for _, line := range strings.Split(strings.Trim(src, "\n"), "\n") {
			fmt.Fprintln(s.cfg.Out, line)
		}
	}

	decl, errs := parser.ParseOneDecl("<stdin>", src)
	if len(errs) > 0 {
		for _, e := range errs {
			s.red.Fprintln(s.cfg.Out, e.Error())
		}
		return StaticError
	}
	if decl == nil {
		return OK
	}

	// `use "file"` imports another source file.
	if path, ok := useTarget(decl); ok {
		return s.useFile(path)
	}

	// A bare expression becomes `val it = e` (spec.md Sec. 4.8).
	if ed, ok := decl.(*ast.ExprDecl); ok {
		decl = &ast.ValDecl{
			Pattern: &ast.Ident{Name: "it", Pos: ed.Pos},
			Value:   ed.Value,
			Pos:     ed.Pos,
		}
	}

	s.res.Warnings = nil
	coreDecl, newTypeEnv, err := s.res.ResolveDecl(decl, s.typeEnv)
	if err != nil {
		s.red.Fprintln(s.cfg.Out, err.Error())
		return StaticError
	}
	for _, w := range s.res.Warnings {
		s.yellow.Fprintln(s.cfg.Out, "warning: "+w.Error())
	}

	values, err := compiler.EvalDecl(coreDecl, s.valEnv)
	if err != nil {
		if _, ok := err.(*compiler.Error); ok {
			s.red.Fprintln(s.cfg.Out, err.Error())
			return StaticError
		}
		s.red.Fprintln(s.cfg.Out, err.Error())
		return RuntimeError
	}

	// Commit: both environments advance together, or not at all.
	s.typeEnv = newTypeEnv
	if len(values) > 0 {
		frame := s.valEnv.Child()
		for _, nv := range values {
			frame.Set(nv.Name, nv.Value)
		}
		s.valEnv = frame
	}

	s.printDecl(coreDecl, values, newTypeEnv)
	return OK
}

// useTarget recognizes `use "path"`.
func useTarget(decl ast.Decl) (string, bool) {
	ed, ok := decl.(*ast.ExprDecl)
	if !ok {
		return "", false
	}
	app, ok := ed.Value.(*ast.Apply)
	if !ok {
		return "", false
	}
	id, ok := app.Fn.(*ast.Ident)
	if !ok || id.Name != "use" {
		return "", false
	}
	lit, ok := app.Arg.(*ast.Literal)
	if !ok || lit.Kind != ast.StringLit {
		return "", false
	}
	return lit.Value.(string), true
}

func (s *Session) useFile(path string) Result {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.Directory, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.red.Fprintln(s.cfg.Out, err.Error())
		return RuntimeError
	}
	return s.Run(string(data))
}

// Run executes a whole source text statement by statement, stopping at
// the first error (file/batch mode). Each statement commits or fails
// independently, as at the REPL.
func (s *Session) Run(src string) Result {
	for _, stmt := range SplitStatements(src) {
		if r := s.Execute(stmt); r != OK {
			return r
		}
	}
	return OK
}

// WriteTrace serializes the accumulated transcript to the configured
// trace file as YAML.
func (s *Session) WriteTrace() error {
	if s.cfg.TraceFile == "" {
		return nil
	}
	data, err := yaml.Marshal(s.trace)
	if err != nil {
		return err
	}
	return os.WriteFile(s.cfg.TraceFile, data, 0o644)
}

// printDecl writes the `val name = value : type` lines of a declaration.
func (s *Session) printDecl(d core.Decl, values []compiler.NamedValue, env *types.Env) {
	switch d := d.(type) {
	case *core.DatatypeDecl:
		fmt.Fprintf(s.cfg.Out, "datatype %s\n", d.Datatype.Name)
		return
	case *core.TypeDecl:
		fmt.Fprintf(s.cfg.Out, "type %s = %s\n", d.Name, FormatType(d.Ty))
		return
	case *core.OverDecl:
		fmt.Fprintf(s.cfg.Out, "over %s\n", d.Name)
		return
	}
	for _, nv := range values {
		scheme, ok := env.Lookup(nv.Name)
		tyStr := "?"
		if ok {
			tyStr = FormatScheme(scheme)
		}
		line := fmt.Sprintf("val %s = %s : %s",
			displayName(nv.Name),
			s.FormatValue(nv.Value),
			tyStr)
		s.green.Fprintln(s.cfg.Out, line)
		if s.cfg.Trace {
			fmt.Fprintf(s.cfg.Out, "(* type: %s *)\n", tyStr)
		}
	}
}

// displayName hides the ordinal-mangled internal names of overload
// instances.
func displayName(name string) string {
	return strings.TrimPrefix(name, "$")
}
