package cli

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/mainer"

	"github.com/sylt-lang/sylt"
	"github.com/sylt-lang/sylt/externs"
	"github.com/sylt-lang/sylt/internal/runtimeconfig"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/vm"
)

// Run compiles, typechecks and runs the given source file to completion.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	flags := sylt.Flags{PrintBytecode: c.PrintBytecode, PrintExec: c.PrintExec}

	// SYLT_MAX_STEPS is a last-resort safety net for embedders invoking the
	// CLI directly; a bad or missing env var just leaves it unbounded.
	if cfg, err := runtimeconfig.Load(); err == nil {
		flags.MaxSteps = cfg.MaxSteps
	}

	if err := sylt.RunFile(path, flags, externs.Default()); err != nil {
		if errs, ok := err.(sylterr.List); ok {
			sylterr.Print(stdio.Stderr, errs)
		} else {
			fmt.Fprintln(stdio.Stderr, err)
		}
		return err
	}
	return nil
}

// sortedExterns returns externs' keys in deterministic order alongside the
// matching vm.ExternFunc slice, mirroring sylt.externNames so the CLI's
// standalone Compile command agrees with sylt.RunFile on extern indices.
func sortedExterns(ext map[string]vm.ExternFunc) ([]string, []vm.ExternFunc) {
	names := maps.Keys(ext)
	slices.Sort(names)
	fns := make([]vm.ExternFunc, len(names))
	for i, name := range names {
		fns[i] = ext[name]
	}
	return names, fns
}
