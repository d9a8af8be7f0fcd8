package compiler

import "github.com/sylt-lang/sylt/lang/value"

// Variable is one entry in a frame's local-variable table, tracked through
// compilation.
type Variable struct {
	Name      string
	Type      value.Type
	Slot      int
	Depth     int
	Active    bool // false between "declared" and "initializer fully emitted"
	Captured  bool // true once an inner frame resolves this as an up-value
	Mutable   bool
}

// loopCtx tracks the break/continue patch lists and pop depth of one
// enclosing `for` loop's control-flow desugaring.
type loopCtx struct {
	// stepOffset is the byte offset of the loop's step region; continue
	// jumps land here. It is set once the step region has been emitted.
	stepOffset int
	// baseDepth is the local-variable count (cur.locals length) once the
	// loop's init clause has been compiled, used to compute the JmpNPop count
	// for break/continue so every local introduced inside the loop body is
	// popped; the init clause's own locals stay for the step and are popped
	// when the loop's scope closes.
	baseDepth int

	breakFixups    []int // byte offsets of JmpNPop operands needing patch to the loop's exit address
	continueFixups []int // byte offsets of JmpNPop operands needing patch to stepOffset
}

// frame holds the compiler state for one function body being compiled: its
// accumulating Block, its local-variable table, its resolved up-values, and
// its loop stack.
type frame struct {
	parent *frame
	block  *Block

	locals []*Variable
	depth  int // current lexical scope depth within this function

	// allLocals accumulates every Variable ever declared in this frame, in
	// slot order, and is never truncated by popScope: it is what
	// endFunctionBody reads to build Block.Locals and Block.CellLocals,
	// since a local's slot and captured-ness must survive its scope closing.
	allLocals []*Variable

	loops []*loopCtx

	upvalues   []UpvalueDescriptor
	upvalNames []string
	upvalMut   []bool
}

// resolveUpvalue reports whether name has already been resolved as one of
// this frame's up-values, returning its index.
func (f *frame) resolveUpvalue(name string) (int, bool) {
	for i, n := range f.upvalNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (f *frame) addUpvalue(name string, outerSlot int, outerIsUpvalue bool, typ value.Type, mutable bool) int {
	idx := len(f.upvalues)
	f.upvalues = append(f.upvalues, UpvalueDescriptor{OuterSlot: outerSlot, IsUpvalueInOuter: outerIsUpvalue, Type: typ})
	f.upvalNames = append(f.upvalNames, name)
	f.upvalMut = append(f.upvalMut, mutable)
	return idx
}

func newFrame(parent *frame, name, file string) *frame {
	return &frame{
		parent: parent,
		block:  &Block{Name: name, File: file, Lines: map[int]int{}},
	}
}

// declare adds a new (initially inactive) local to the current scope depth
// of f, returning it, or nil plus false if a binding with the same name
// already exists in the same depth (shadowing within one scope is an
// error; shadowing an outer scope is allowed).
func (f *frame) declare(name string, mutable bool) (*Variable, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		v := f.locals[i]
		if v.Depth != f.depth {
			break
		}
		if v.Name == name {
			return nil, false
		}
	}
	v := &Variable{Name: name, Slot: len(f.locals) + 1, Depth: f.depth, Mutable: mutable}
	f.locals = append(f.locals, v)
	f.allLocals = append(f.allLocals, v)
	return v, true
}

// resolveLocal searches f's own locals (innermost last), returning nil if
// not found.
func (f *frame) resolveLocal(name string) *Variable {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].Name == name {
			return f.locals[i]
		}
	}
	return nil
}

// pushScope/popScope bracket a lexical block; popScope returns the locals
// that go out of scope (in declaration order) so the caller can emit the
// correct pop count.
func (f *frame) pushScope() { f.depth++ }

func (f *frame) popScope() []*Variable {
	f.depth--
	n := 0
	for i := len(f.locals) - 1; i >= 0 && f.locals[i].Depth > f.depth; i-- {
		n++
	}
	popped := f.locals[len(f.locals)-n:]
	f.locals = f.locals[:len(f.locals)-n]
	return popped
}
