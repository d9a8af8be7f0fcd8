package compiler

import (
	"github.com/google/uuid"

	"github.com/sylt-lang/sylt/lang/value"
)

// UpvalueDescriptor records how a closure's i'th up-value is resolved
// against the immediately enclosing function: either copied straight from
// one of the outer function's own up-values (IsUpvalueInOuter), or captured
// from one of the outer function's local stack slots (OuterSlot).
type UpvalueDescriptor struct {
	OuterSlot        int
	IsUpvalueInOuter bool
	Type             value.Type
}

// Binding names one local slot, for diagnostics. Nothing at run time
// consults it.
type Binding struct {
	Name string
	Type value.Type
}

// Block is one function's compiled unit: its bytecode, its line map, its
// function type and its up-value descriptors. Block 0 of a Prog is always
// the implicit top-level "main" function.
type Block struct {
	Name string
	File string
	Typ  value.FunctionType

	Ops   []byte
	Lines map[int]int // byte offset -> source line, recorded for every emitted instruction

	Locals   []Binding
	Upvalues []UpvalueDescriptor

	// CellLocals lists the slot indices of locals captured by a nested
	// closure. The VM does not read it: captured locals stay on the stack
	// like any other, and closures reach them through shared open cells
	// (see vm.Cell).
	CellLocals []int

	linked bool // true once Upvalues is considered final (set by the compiler when the function body finishes compiling)
}

func (b *Block) Args() []value.Type { return b.Typ.Params }
func (b *Block) Ret() value.Type    { return b.Typ.Ret }

// LineFor returns the source line responsible for the instruction at the
// given byte offset, by finding the nearest recorded offset at or before
// it.
func (b *Block) LineFor(offset int) int {
	best := 0
	bestOff := -1
	for off, line := range b.Lines {
		if off <= offset && off > bestOff {
			bestOff = off
			best = line
		}
	}
	return best
}

// Prog is a whole compiled program: every function Block, the blob
// registry, the interned constant and string pools, and the extern table
// the embedder supplied.
type Prog struct {
	Filename string
	BuildID  uuid.UUID

	Blocks    []*Block
	Blobs     []*value.BlobDef
	Constants []Constant
	Strings   []string
	Externs   []string // the extern names given to Compile, in that order; ConstExtern.ExternIndex indexes this list
}

// Constant is the compile-time representation of one constant-pool entry.
// It is deliberately not a vm.Value: the compiler package cannot import the
// vm package (vm.Function must reference *compiler.Block, which would be a
// cycle), so Constant is a small tagged union that the vm package turns
// into a real runtime or typecheck Value when it loads a Prog.
type Constant struct {
	Kind ConstKind

	Bool  bool
	Int   int64
	Float float64
	Str   string

	// Kind == ConstFunction: the Block this function constant wraps. The VM
	// builds a *fresh* Function value (with freshly linked up-values) every
	// time the CONSTANT op loads this entry.
	Func *Block

	// Kind == ConstType: the declared type of a Define operand.
	Type value.Type

	// Kind == ConstBlob: the blob this constant names, for `Name(...)`
	// instance-construction call sites.
	Blob *value.BlobDef

	// Kind == ConstExtern: the index into Prog.Externs this constant names.
	ExternIndex int
}

type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
	ConstFunction
	ConstType
	ConstBlob
	ConstExtern
)
