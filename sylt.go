// Package sylt is the embedding surface of the compiler and VM:
// run_file / compile_file / run_string, plus the Flags an embedder tunes
// them with.
package sylt

import (
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/sylt-lang/sylt/lang/compiler"
	"github.com/sylt-lang/sylt/lang/lexer"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/vm"
)

// Flags tunes compilation/execution diagnostics.
type Flags struct {
	PrintBytecode bool
	PrintExec     bool

	// MaxSteps caps the number of instructions Run executes before failing
	// with InvalidProgram; zero means unbounded. See vm.VM.MaxSteps and
	// runtimeconfig.Config.MaxSteps.
	MaxSteps int
}

// externNames returns externs' keys in deterministic (sorted) order, and a
// matching vm.ExternFunc slice — compiler.Compile and vm.Load must agree on
// this ordering since ConstExtern entries are indexed positionally.
func externNames(externs map[string]vm.ExternFunc) ([]string, []vm.ExternFunc) {
	names := maps.Keys(externs)
	slices.Sort(names)
	fns := make([]vm.ExternFunc, len(names))
	for i, name := range names {
		fns[i] = externs[name]
	}
	return names, fns
}

// compile tokenizes and compiles src, returning a loaded Program.
func compile(src []byte, filename string, externs map[string]vm.ExternFunc) (*vm.Program, sylterr.List) {
	fset := token.NewFileSet()
	fset.AddFile(filename, countLines(src))

	var lexErrs sylterr.List
	toks := lexer.ScanAll(src, 1, func(pos token.Pos, msg string) {
		lexErrs = append(lexErrs, &sylterr.Error{Kind: sylterr.SyntaxError, File: filename, Line: pos.Line, Message: msg})
	})

	compTokens := make([]compiler.TokAndValue, len(toks))
	for i, t := range toks {
		compTokens[i] = compiler.TokAndValue{Tok: t.Token, Val: t.Value}
	}

	names, fns := externNames(externs)
	prog, errs := compiler.Compile(compTokens, filename, names)
	if len(lexErrs) > 0 {
		errs = append(lexErrs, errs...)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return vm.Load(prog, fns), nil
}

func countLines(src []byte) int {
	n := 1
	for _, b := range src {
		if b == '\n' {
			n++
		}
	}
	return n
}

// RunString compiles, typechecks, and runs src to completion (or a runtime
// error); it never returns an OpResult of Yield to the caller — a program
// that yields must go through CompileFile instead.
func RunString(src []byte, filename string, flags Flags, externs map[string]vm.ExternFunc) error {
	loaded, errs := compile(src, filename, externs)
	if len(errs) > 0 {
		return errs
	}

	m := vm.New()
	m.PrintBytecode = flags.PrintBytecode
	m.PrintExec = flags.PrintExec
	m.MaxSteps = flags.MaxSteps

	if tcErrs := m.Typecheck(loaded); len(tcErrs) > 0 {
		return tcErrs
	}

	m.Init(loaded)
	for {
		res, err := m.Run()
		if err != nil {
			return err
		}
		if res == vm.Done {
			return nil
		}
		// RunString drives a yielding program to completion by simply
		// resuming it immediately, since no caller is present to decide
		// when to continue.
	}
}

// RunFile reads path and behaves like RunString.
func RunFile(path string, flags Flags, externs map[string]vm.ExternFunc) error {
	if path == "" {
		return sylterr.List{&sylterr.Error{Kind: sylterr.NoFileGiven, Message: "no source file given"}}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return sylterr.List{&sylterr.Error{Kind: sylterr.NoFileGiven, Message: err.Error()}}
	}
	return RunString(src, path, flags, externs)
}

// CompileFile compiles and typechecks path, returning a VM initialized and
// ready for the caller to drive with repeated Run calls — the form needed
// for a program that yields.
func CompileFile(path string, flags Flags, externs map[string]vm.ExternFunc) (*vm.VM, sylterr.List) {
	if path == "" {
		return nil, sylterr.List{&sylterr.Error{Kind: sylterr.NoFileGiven, Message: "no source file given"}}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, sylterr.List{&sylterr.Error{Kind: sylterr.NoFileGiven, Message: err.Error()}}
	}

	loaded, errs := compile(src, path, externs)
	if len(errs) > 0 {
		return nil, errs
	}

	m := vm.New()
	m.PrintBytecode = flags.PrintBytecode
	m.PrintExec = flags.PrintExec
	m.MaxSteps = flags.MaxSteps

	if tcErrs := m.Typecheck(loaded); len(tcErrs) > 0 {
		return nil, tcErrs
	}

	m.Init(loaded)
	return m, nil
}
