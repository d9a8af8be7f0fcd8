// Package externs provides the standard library of extern functions every
// embedder wires in by default: len, push, dbg, type_of. Each matches
// vm.ExternFunc's contract — when typecheckMode is true the arguments are
// type exemplars and the function must return a zero-exemplar of its
// declared return type instead of doing real work.
package externs

import (
	"fmt"
	"io"
	"os"

	"github.com/sylt-lang/sylt/lang/value"
	"github.com/sylt-lang/sylt/lang/vm"
)

// Default returns the standard extern table, keyed by the name sylt source
// refers to them by, with dbg writing to os.Stderr. Use NewTable to route
// dbg through a different sink (an embedder's log file, a test buffer, the
// same io.Writer the VM itself prints through, ...).
func Default() map[string]vm.ExternFunc {
	return NewTable(os.Stderr)
}

// NewTable returns the standard extern table with dbg writing to dbgOut
// instead of os.Stderr.
func NewTable(dbgOut io.Writer) map[string]vm.ExternFunc {
	return map[string]vm.ExternFunc{
		"len":     Len,
		"push":    Push,
		"dbg":     NewDbg(dbgOut),
		"type_of": TypeOf,
	}
}

// Len returns the element count of a List or Tuple, or the byte length of a
// String.
func Len(args []vm.Value, typecheckMode bool) (vm.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len: expected 1 argument, got %d", len(args))
	}
	if typecheckMode {
		switch args[0].(type) {
		case *vm.List, vm.Tuple, vm.String, vm.Unknown:
			return vm.Zero(value.IntType{}), nil
		default:
			return nil, fmt.Errorf("len: cannot take the length of %T", args[0])
		}
	}
	switch v := args[0].(type) {
	case *vm.List:
		return vm.Int(len(v.Elems)), nil
	case vm.Tuple:
		return vm.Int(len(v.Elems)), nil
	case vm.String:
		return vm.Int(len(v)), nil
	default:
		return nil, fmt.Errorf("len: cannot take the length of %T", args[0])
	}
}

// Push appends a value to a List in place and returns nil.
func Push(args []vm.Value, typecheckMode bool) (vm.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("push: expected 2 arguments, got %d", len(args))
	}
	list, ok := args[0].(*vm.List)
	if !ok {
		if _, isUnknown := args[0].(vm.Unknown); isUnknown {
			return vm.Nil{}, nil
		}
		return nil, fmt.Errorf("push: first argument must be a list, got %T", args[0])
	}
	if typecheckMode {
		if !value.Fits(vm.TypeOf(args[1]), list.Elem) {
			return nil, fmt.Errorf("push: %s does not fit list element type %s", vm.TypeOf(args[1]), list.Elem)
		}
		return vm.Nil{}, nil
	}
	list.Elems = append(list.Elems, args[1])
	return vm.Nil{}, nil
}

// NewDbg returns a dbg extern that prints a value's String() form to w and
// returns it unchanged, for inline inspection during development.
func NewDbg(w io.Writer) vm.ExternFunc {
	return func(args []vm.Value, typecheckMode bool) (vm.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("dbg: expected 1 argument, got %d", len(args))
		}
		if typecheckMode {
			return args[0], nil
		}
		fmt.Fprintf(w, "dbg: %s\n", args[0].String())
		return args[0], nil
	}
}

// TypeOf returns a Ty value wrapping the static type of its argument.
func TypeOf(args []vm.Value, typecheckMode bool) (vm.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("type_of: expected 1 argument, got %d", len(args))
	}
	return vm.Ty{T: vm.TypeOf(args[0])}, nil
}
