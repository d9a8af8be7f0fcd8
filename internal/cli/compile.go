package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/sylt-lang/sylt/externs"
	"github.com/sylt-lang/sylt/lang/compiler"
	"github.com/sylt-lang/sylt/lang/lexer"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/vm"
)

// Compile compiles and typechecks the given source, printing the resulting
// bytecode disassembly without running it.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var lexErrs sylterr.List
	toks := lexer.ScanAll(src, 1, func(pos token.Pos, msg string) {
		lexErrs = append(lexErrs, &sylterr.Error{Kind: sylterr.SyntaxError, File: path, Line: pos.Line, Message: msg})
	})
	compTokens := make([]compiler.TokAndValue, len(toks))
	for i, t := range toks {
		compTokens[i] = compiler.TokAndValue{Tok: t.Token, Val: t.Value}
	}

	names, fns := sortedExterns(externs.Default())
	prog, errs := compiler.Compile(compTokens, path, names)
	if len(lexErrs) > 0 {
		errs = append(lexErrs, errs...)
	}
	if len(errs) > 0 {
		sylterr.Print(stdio.Stderr, errs)
		return errs
	}

	loaded := vm.Load(prog, fns)
	m := vm.New()
	if tcErrs := m.Typecheck(loaded); len(tcErrs) > 0 {
		sylterr.Print(stdio.Stderr, tcErrs)
		return tcErrs
	}

	fmt.Fprint(stdio.Stdout, compiler.Disassemble(prog))
	return nil
}
