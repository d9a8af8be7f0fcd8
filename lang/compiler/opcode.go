package compiler

import "encoding/binary"

// Op is a single bytecode instruction. Every op that carries an operand
// carries exactly one uint32, little-endian, fixed width — decoded in one
// step, and easy to back-patch for forward jumps emitted by the single-pass
// compiler before their target address is known. Jump operands need this
// padding regardless; this format generalizes the same fixed 4-byte layout
// to every operand rather than mixing it with a variable-width encoding for
// non-jump operands.
type Op uint8

//nolint:revive
const (
	Pop Op = iota
	Copy
	PopUpvalue

	Add
	Sub
	Mul
	Div
	Neg
	Not
	And
	Or
	Equal
	Less
	Greater
	Assert

	Index
	Print
	Return
	Yield
	Unreachable
	Illegal

	// --- ops below this line carry a single uint32 operand ---
	opArgMin

	Constant Op = iota - 1
	Tuple
	List
	Get
	Set
	ReadLocal
	AssignLocal
	ReadUpvalue
	AssignUpvalue
	Define
	Call
	Jmp
	JmpFalse

	// JmpNPop carries two operands: target, then n.
	JmpNPop
)

// HasArg reports whether op is followed by a uint32 operand.
func (op Op) HasArg() bool { return op >= opArgMin }

var opNames = map[Op]string{
	Pop: "pop", Copy: "copy", PopUpvalue: "pop_upvalue",
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Neg: "neg", Not: "not",
	And: "and", Or: "or", Equal: "equal", Less: "less", Greater: "greater",
	Assert: "assert", Index: "index", Print: "print", Return: "return",
	Yield: "yield", Unreachable: "unreachable", Illegal: "illegal",
	Constant: "constant", Tuple: "tuple", List: "list", Get: "get", Set: "set",
	ReadLocal: "read_local", AssignLocal: "assign_local",
	ReadUpvalue: "read_upvalue", AssignUpvalue: "assign_upvalue",
	Define: "define", Call: "call", Jmp: "jmp", JmpFalse: "jmp_false",
	JmpNPop: "jmp_n_pop",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown_op"
}

const argWidth = 4

func putArg(code []byte, arg uint32) []byte {
	var buf [argWidth]byte
	binary.LittleEndian.PutUint32(buf[:], arg)
	return append(code, buf[:]...)
}

func getArg(code []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(code[offset : offset+argWidth])
}

// GetArg exposes getArg to the vm package, which must decode operands out
// of a Block's raw Ops during dispatch.
func GetArg(code []byte, offset int) uint32 { return getArg(code, offset) }

func patchArg(code []byte, offset int, arg uint32) {
	binary.LittleEndian.PutUint32(code[offset:offset+argWidth], arg)
}
