package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sylt-lang/sylt/lang/compiler"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/value"
)

// OpResult is what Run returns on successful suspension or completion.
type OpResult int

const (
	Done OpResult = iota
	Yield
)

func (r OpResult) String() string {
	if r == Yield {
		return "yield"
	}
	return "done"
}

// VM runs one loaded Program: a single-threaded, non-reentrant, strictly
// sequential bytecode interpreter. The only suspension point is
// Yield, after which a further call to Run resumes at the next op.
type VM struct {
	prog *Program

	stack  []Value
	frames []Frame

	openCells map[int]*Cell

	PrintBytecode bool
	PrintExec     bool
	Out           io.Writer

	// MaxSteps caps the number of instructions Run will execute before
	// failing with InvalidProgram; zero means unbounded. Typically sourced
	// from runtimeconfig.Config.MaxSteps by an embedder. Typecheck never
	// consults it: it walks each block exactly once and terminates on its
	// own.
	MaxSteps int
	steps    int
}

// New returns an uninitialized VM; call Init before Run.
func New() *VM {
	return &VM{Out: os.Stdout, openCells: map[int]*Cell{}}
}

// Init loads p and pushes its top-level (Block 0, "main") frame, ready for
// Run.
func (m *VM) Init(p *Program) {
	m.prog = p
	m.stack = m.stack[:0]
	m.frames = m.frames[:0]
	m.openCells = map[int]*Cell{}
	m.steps = 0

	main := &Function{Block: p.prog.Blocks[0]}
	m.stack = append(m.stack, Value(main))
	m.frames = append(m.frames, Frame{fn: main, block: main.Block, offset: 0})

	if m.PrintBytecode {
		fmt.Fprint(m.Out, compiler.Disassemble(p.prog))
	}
}

func (m *VM) top() *Frame { return &m.frames[len(m.frames)-1] }

func (m *VM) push(v Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek() Value { return m.stack[len(m.stack)-1] }

func (m *VM) runtimeErr(kind sylterr.Kind, format string, args ...any) error {
	fr := m.top()
	line := fr.block.LineFor(fr.ip)
	return &sylterr.Error{Kind: kind, File: fr.block.File, Line: line, Message: fmt.Sprintf(format, args...)}
}

// findOrCreateUpvalue returns the single Cell covering absolute stack index
// idx, creating it (open) on first reference; every closure that captures
// the same local shares this one Cell.
func (m *VM) findOrCreateUpvalue(idx int) *Cell {
	if c, ok := m.openCells[idx]; ok {
		return c
	}
	c := openCell(idx)
	m.openCells[idx] = c
	return c
}

func (m *VM) closeUpvaluesFrom(idx int) {
	for k, c := range m.openCells {
		if k >= idx {
			c.close(m.stack)
			delete(m.openCells, k)
		}
	}
}

func (m *VM) closeUpvalueAt(idx int) {
	if c, ok := m.openCells[idx]; ok {
		c.close(m.stack)
		delete(m.openCells, idx)
	}
}

// Run executes instructions from the current frame until the outermost
// frame returns (Done), a Yield op is hit, or a runtime error occurs.
func (m *VM) Run() (OpResult, error) {
	return m.dispatch(false)
}

// Typecheck runs every block of p exactly once, independently, with the
// block's declared parameter types pushed as initial stack values. Errors
// from every block are accumulated rather than stopping at the first.
func (m *VM) Typecheck(p *Program) sylterr.List {
	m.prog = p
	var errs sylterr.List

	for _, blk := range p.prog.Blocks {
		if blk == nil {
			continue
		}
		m.stack = m.stack[:0]
		m.frames = m.frames[:0]
		m.openCells = map[int]*Cell{}

		self := &Function{Block: blk}
		m.push(self)
		for _, pt := range blk.Args() {
			m.push(Zero(pt))
		}
		m.frames = append(m.frames, Frame{fn: self, block: blk, offset: 0})

		if _, err := m.dispatch(true); err != nil {
			if se, ok := err.(*sylterr.Error); ok {
				errs = append(errs, se)
			} else {
				errs = append(errs, &sylterr.Error{Kind: sylterr.TypeError, File: blk.File, Message: err.Error()})
			}
		}
	}

	return errs
}

// linkFunction builds a fresh Function value from blk, resolving its
// up-value descriptors against the currently executing frame, per the
// Constant op's "links up-values now" rule.
func (m *VM) linkFunction(blk *compiler.Block) *Function {
	fr := m.top()
	ups := make([]*Cell, len(blk.Upvalues))
	for i, d := range blk.Upvalues {
		if d.IsUpvalueInOuter {
			ups[i] = fr.fn.Upvalues[d.OuterSlot]
		} else {
			ups[i] = m.findOrCreateUpvalue(fr.offset + d.OuterSlot)
		}
	}
	return &Function{Block: blk, Upvalues: ups}
}

func (m *VM) dispatch(typecheck bool) (OpResult, error) {
	for {
		if !typecheck && m.MaxSteps > 0 {
			m.steps++
			if m.steps > m.MaxSteps {
				return 0, m.runtimeErr(sylterr.InvalidProgram, "exceeded max step budget of %d", m.MaxSteps)
			}
		}

		fr := m.top()
		code := fr.block.Ops
		if fr.ip >= len(code) {
			return 0, m.runtimeErr(sylterr.InvalidProgram, "fell off the end of %s", fr.block.Name)
		}
		op := compiler.Op(code[fr.ip])

		if m.PrintExec {
			fmt.Fprintf(m.Out, "%-20s %s ip=%d depth=%d\n", fr.block.Name, op, fr.ip, len(m.stack))
		}

		fr.ip++
		var arg uint32
		if op.HasArg() {
			arg = compiler.GetArg(code, fr.ip)
			fr.ip += 4
			if op == compiler.JmpNPop {
				// second operand (n) immediately follows the target
				fr.ip += 4
			}
		}

		switch op {
		case compiler.Pop:
			m.pop()
		case compiler.Copy:
			m.push(m.peek())
		case compiler.PopUpvalue:
			m.closeUpvalueAt(len(m.stack) - 1)
			m.pop()
		case compiler.Add, compiler.Sub, compiler.Mul, compiler.Div:
			b := m.pop()
			a := m.pop()
			r := Binary(binOpFor(op), a, b)
			if _, isNil := r.(Nil); isNil && !typecheck {
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "%s: incompatible operands %T, %T", op, a, b)
			}
			m.push(r)
		case compiler.Neg:
			m.push(Neg(m.pop()))
		case compiler.Not:
			m.push(Not(m.pop()))
		case compiler.And:
			b := m.pop()
			a := m.pop()
			m.push(boolOp(a, b, func(x, y bool) bool { return x && y }))
		case compiler.Or:
			b := m.pop()
			a := m.pop()
			m.push(boolOp(a, b, func(x, y bool) bool { return x || y }))
		case compiler.Equal:
			b := m.pop()
			a := m.pop()
			m.push(Bool(Equal(a, b)))
		case compiler.Less:
			b := m.pop()
			a := m.pop()
			lt, err := Less(a, b)
			if err != nil {
				if typecheck {
					m.push(Bool(false))
					continue
				}
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "%s", err)
			}
			m.push(lt)
		case compiler.Greater:
			b := m.pop()
			a := m.pop()
			lt, err := Less(b, a)
			if err != nil {
				if typecheck {
					m.push(Bool(false))
					continue
				}
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "%s", err)
			}
			m.push(lt)
		case compiler.Assert:
			v := m.pop()
			if !typecheck {
				if b, ok := v.(Bool); !ok || !bool(b) {
					return 0, m.runtimeErr(sylterr.AssertFailed, "assertion failed")
				}
			}
		case compiler.Index:
			idx := m.pop()
			recv := m.pop()
			v, err := indexInto(recv, idx, typecheck)
			if err != nil {
				return 0, m.runtimeErr(sylterr.IndexOutOfBounds, "%s", err)
			}
			m.push(v)
		case compiler.Print:
			v := m.pop()
			if !typecheck {
				fmt.Fprintln(m.Out, v.String())
			}
		case compiler.Return:
			v := m.pop()
			if typecheck {
				if !value.Fits(TypeOf(v), fr.block.Ret()) {
					return 0, m.runtimeErr(sylterr.TypeError, "return type %s does not fit declared %s", TypeOf(v), fr.block.Ret())
				}
			}
			m.closeUpvaluesFrom(fr.offset)
			m.stack = m.stack[:fr.offset]
			m.frames = m.frames[:len(m.frames)-1]
			if len(m.frames) == 0 {
				m.push(v)
				return Done, nil
			}
			m.push(v)
		case compiler.Yield:
			return Yield, nil
		case compiler.Unreachable:
			return 0, m.runtimeErr(sylterr.Unreachable, "unreachable statement executed")
		case compiler.Illegal:
			return 0, m.runtimeErr(sylterr.InvalidProgram, "illegal instruction")
		case compiler.Constant:
			c := m.prog.prog.Constants[arg]
			if c.Kind == compiler.ConstFunction {
				m.push(m.linkFunction(c.Func))
			} else {
				m.push(m.prog.constants[arg])
			}
		case compiler.Tuple:
			n := int(arg)
			elems := append([]Value(nil), m.stack[len(m.stack)-n:]...)
			m.stack = m.stack[:len(m.stack)-n]
			m.push(Tuple{Elems: elems})
		case compiler.List:
			n := int(arg)
			elems := append([]Value(nil), m.stack[len(m.stack)-n:]...)
			m.stack = m.stack[:len(m.stack)-n]
			var elemType value.Type = value.UnknownType{}
			if n > 0 {
				elemType = TypeOf(elems[0])
			}
			m.push(&List{Elem: elemType, Elems: elems})
		case compiler.Get:
			name := m.prog.prog.Strings[arg]
			inst, ok := m.peek().(*Instance)
			if !ok {
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "Get on non-instance")
			}
			m.pop()
			field, ok := inst.Def.Field(name)
			if !ok {
				return 0, m.runtimeErr(sylterr.InvalidProgram, "no field %q on %s", name, inst.Def.Name)
			}
			if typecheck {
				m.push(Zero(field.Type))
			} else {
				m.push(inst.Fields[field.Slot])
			}
		case compiler.Set:
			v := m.pop()
			inst, ok := m.pop().(*Instance)
			if !ok {
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "Set on non-instance")
			}
			name := m.prog.prog.Strings[arg]
			field, ok := inst.Def.Field(name)
			if !ok {
				return 0, m.runtimeErr(sylterr.InvalidProgram, "no field %q on %s", name, inst.Def.Name)
			}
			if typecheck {
				if !value.Fits(TypeOf(v), field.Type) {
					return 0, m.runtimeErr(sylterr.TypeError, "field %q: %s does not fit %s", name, TypeOf(v), field.Type)
				}
			} else {
				inst.Fields[field.Slot] = v
			}
		case compiler.ReadLocal:
			m.push(m.stack[fr.offset+int(arg)])
		case compiler.AssignLocal:
			v := m.pop()
			m.stack[fr.offset+int(arg)] = v
		case compiler.ReadUpvalue:
			if typecheck {
				m.push(Zero(fr.block.Upvalues[arg].Type))
			} else {
				m.push(fr.fn.Upvalues[arg].get(m.stack))
			}
		case compiler.AssignUpvalue:
			v := m.pop()
			if !typecheck {
				fr.fn.Upvalues[arg].set(m.stack, v)
			}
		case compiler.Define:
			c := m.prog.prog.Constants[arg]
			top := m.peek()
			if typecheck {
				declared := c.Type
				inferred := TypeOf(top)
				if _, isUnknown := declared.(value.UnknownType); isUnknown {
					// propagate the more specific inferred type
				} else if _, isUnknown := inferred.(value.UnknownType); isUnknown {
					m.stack[len(m.stack)-1] = Zero(declared)
				} else if !value.Equal(declared, inferred) {
					return 0, m.runtimeErr(sylterr.TypeError, "%s does not match declared type %s", inferred, declared)
				}
			}
		case compiler.Call:
			if err := m.call(int(arg), typecheck); err != nil {
				return 0, err
			}
		case compiler.Jmp:
			// Typecheck walks each block straight through once, so no jump
			// is taken there.
			if !typecheck {
				fr.ip = int(arg)
			}
		case compiler.JmpFalse:
			v := m.pop()
			b, ok := v.(Bool)
			if !ok {
				if typecheck {
					return 0, m.runtimeErr(sylterr.TypeError, "if condition must be bool, found %s", TypeOf(v))
				}
				return 0, m.runtimeErr(sylterr.RuntimeTypeError, "if condition must be bool")
			}
			if !bool(b) && !typecheck {
				fr.ip = int(arg)
			}
		case compiler.JmpNPop:
			if typecheck {
				break
			}
			n := compiler.GetArg(code, fr.ip-4)
			m.closeUpvaluesFrom(len(m.stack) - int(n))
			m.stack = m.stack[:len(m.stack)-int(n)]
			fr.ip = int(arg)
		default:
			return 0, m.runtimeErr(sylterr.InvalidProgram, "unknown op %s", op)
		}

		if typecheck && len(m.stack) > 0 {
			top := len(m.stack) - 1
			switch m.stack[top].(type) {
			case *Function, ExternFunction:
				// kept as they are, so that a later Call still sees the
				// callee's signature or implementation
			default:
				m.stack[top] = Zero(TypeOf(m.stack[top]))
			}
		}
	}
}

func binOpFor(op compiler.Op) binOp {
	switch op {
	case compiler.Add:
		return opAdd
	case compiler.Sub:
		return opSub
	case compiler.Mul:
		return opMul
	default:
		return opDiv
	}
}

func boolOp(a, b Value, f func(x, y bool) bool) Value {
	ab, aok := a.(Bool)
	bb, bok := b.(Bool)
	if au, ok := a.(Unknown); ok {
		return au
	}
	if bu, ok := b.(Unknown); ok {
		return bu
	}
	if !aok || !bok {
		return Nil{}
	}
	return Bool(f(bool(ab), bool(bb)))
}

func indexInto(recv, idx Value, typecheck bool) (Value, error) {
	i, ok := idx.(Int)
	if !ok {
		if _, isUnknown := idx.(Unknown); isUnknown {
			i = 0
		} else {
			return nil, fmt.Errorf("index must be int")
		}
	}
	switch recv := recv.(type) {
	case Tuple:
		if typecheck {
			if int(i) < 0 || int(i) >= len(recv.Elems) {
				if len(recv.Elems) == 0 {
					return Nil{}, nil
				}
				return recv.Elems[0], nil
			}
			return recv.Elems[i], nil
		}
		if int(i) < 0 || int(i) >= len(recv.Elems) {
			return nil, fmt.Errorf("tuple index %d out of bounds (len %d)", i, len(recv.Elems))
		}
		return recv.Elems[i], nil
	case *List:
		if typecheck {
			return Zero(recv.Elem), nil
		}
		if int(i) < 0 || int(i) >= len(recv.Elems) {
			return nil, fmt.Errorf("list index %d out of bounds (len %d)", i, len(recv.Elems))
		}
		return recv.Elems[i], nil
	default:
		return nil, fmt.Errorf("cannot index %T", recv)
	}
}

// call implements the Call(n) protocol. In typecheck mode it
// never pushes a real Function frame: it validates arity/argument types
// against the callee's declared signature and substitutes the call region
// with a zero-exemplar of the declared return type, since each block is
// typechecked exactly once, independently.
func (m *VM) call(n int, typecheck bool) error {
	calleeIdx := len(m.stack) - n - 1
	callee := m.stack[calleeIdx]

	switch c := callee.(type) {
	case Blob:
		if n != 0 {
			return m.runtimeErr(sylterr.InvalidProgram, "blob construction takes no arguments")
		}
		m.stack = m.stack[:calleeIdx]
		m.push(Zero(value.InstanceType{Def: c.Def}))
		return nil

	case *Function:
		if len(c.Block.Args()) != n {
			return m.runtimeErr(sylterr.InvalidProgram, "%s expects %d arguments, got %d", c.Block.Name, len(c.Block.Args()), n)
		}
		if typecheck {
			args := m.stack[calleeIdx+1:]
			for i, want := range c.Block.Args() {
				if !value.Fits(TypeOf(args[i]), want) {
					return m.runtimeErr(sylterr.TypeError, "argument %d: %s does not fit %s", i, TypeOf(args[i]), want)
				}
			}
			m.stack = m.stack[:calleeIdx]
			m.push(Zero(c.Block.Ret()))
			return nil
		}
		m.frames = append(m.frames, Frame{fn: c, block: c.Block, offset: calleeIdx})
		return nil

	case ExternFunction:
		args := append([]Value(nil), m.stack[calleeIdx+1:]...)
		if c.Fn == nil {
			return m.runtimeErr(sylterr.ExternTypeMismatch, "extern %q has no implementation", c.Name)
		}
		result, err := c.Fn(args, typecheck)
		if err != nil {
			if typecheck {
				return m.runtimeErr(sylterr.ExternTypeMismatch, "extern %q: %s", c.Name, err)
			}
			return m.runtimeErr(sylterr.RuntimeTypeError, "extern %q: %s", c.Name, err)
		}
		m.stack = m.stack[:calleeIdx]
		m.push(result)
		return nil

	default:
		kind := sylterr.RuntimeTypeError
		if typecheck {
			kind = sylterr.TypeError
		}
		return m.runtimeErr(kind, "cannot call a %T", callee)
	}
}
