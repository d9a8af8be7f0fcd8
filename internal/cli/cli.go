// Package cli is the sylt command-line front end: argument parsing and
// subcommand dispatch.
package cli

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"

	"github.com/sylt-lang/sylt/lang/sylterr"
)

const binName = "sylt"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and VM for the %[1]s programming language.

The <command> can be one of:
       run                       Compile, typecheck and run <path>. This is
                                 the default command when none is given.
       tokenize                  Run the lexer on <path> and print the
                                 resulting tokens.
       compile                   Compile and typecheck <path>, printing the
                                 resulting bytecode, without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --print-bytecode          Print disassembled bytecode before running.
       --print-exec              Trace each executed instruction.

More information on the %[1]s repository:
       https://github.com/sylt-lang/sylt
`, binName)
)

// Cmd is sylt's top-level command, parsed by mainer.Parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	PrintBytecode bool `flag:"print-bytecode"`
	PrintExec     bool `flag:"print-exec"`

	File string

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

// Validate resolves which subcommand runs and checks that a source path was
// given — a bare path with no subcommand name defaults to "run".
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return &sylterr.Error{Kind: sylterr.NoFileGiven, Message: "no path given"}
	}

	cmdName := "run"
	rest := c.args
	commands := buildCmds(c)
	if _, ok := commands[c.args[0]]; ok {
		cmdName = c.args[0]
		rest = c.args[1:]
	}

	c.cmdFn = commands[cmdName]
	if len(rest) == 0 {
		return &sylterr.Error{Kind: sylterr.NoFileGiven, Message: fmt.Sprintf("%s: a source path must be provided", cmdName)}
	}
	c.File = rest[0]

	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, []string{c.File}); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings
// as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
