package compiler

import "github.com/sylt-lang/sylt/lang/value"

// beginFunctionBody starts compiling a new function body on top of the
// already-pushed c.cur frame: it pushes the function's own outermost lexical
// scope and, for non-top-level functions, declares the parameter list as
// the first (already-active) locals.
func (c *Compiler) beginFunctionBody(params []Binding) {
	c.cur.pushScope()
	for _, p := range params {
		v, _ := c.cur.declare(p.Name, true)
		v.Type = p.Type
		v.Active = true
	}
}

// endFunctionBody closes the function's outermost scope, appends the
// mandatory "return nil" safety tail — every function ends
// with `Constant(Nil), Return` even if every syntactic path already
// returned), and finalizes the frame's Block (locals table, cell list,
// resolved up-value descriptors) before popping back to the parent frame.
func (c *Compiler) endFunctionBody(ret value.Type) *Block {
	c.cur.popScope()

	c.emitArg(Constant, 0) // constants[0] is always Nil
	c.emit(Return)

	f := c.cur
	b := f.block
	b.Typ.Ret = ret

	// Locals is indexed by slot; since sibling scopes reuse slot numbers,
	// later declarations at a given slot simply overwrite earlier ones here
	// — diagnostics only ever need whichever binding is live for a slot at
	// the point of use.
	maxSlot := 0
	for _, v := range f.allLocals {
		if v.Slot+1 > maxSlot {
			maxSlot = v.Slot + 1
		}
	}
	b.Locals = make([]Binding, maxSlot)
	for _, v := range f.allLocals {
		b.Locals[v.Slot] = Binding{Name: v.Name, Type: v.Type}
		if v.Captured {
			b.CellLocals = append(b.CellLocals, v.Slot)
		}
	}

	b.Upvalues = f.upvalues
	b.linked = true

	return b
}

// newChildFrame pushes a fresh frame for a nested function literal, linked
// to cur as its lexical parent for up-value resolution.
func (c *Compiler) newChildFrame(name string) {
	c.cur = newFrame(c.cur, name, c.filename)
}

// popFrame pops back to the parent frame, registering the just-finished
// Block in the program's block table.
func (c *Compiler) popFrame(b *Block) int {
	parent := c.cur.parent
	idx := len(c.prog.Blocks)
	c.prog.Blocks = append(c.prog.Blocks, b)
	c.cur = parent
	return idx
}
