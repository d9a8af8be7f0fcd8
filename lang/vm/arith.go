package vm

import "github.com/sylt-lang/sylt/lang/value"

// binOp identifies which typed-arithmetic rule to apply; it mirrors the
// four arithmetic opcodes (Add Sub Mul Div) rather than reusing
// compiler.Op, so this package need not import the opcode's full
// instruction set.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

// Binary applies op to a and b under a typed-arithmetic table:
// same-concrete-kind only (Int+Int, Float+Float, String+String as
// concatenation for Add, Tuple+Tuple pointwise on equal lengths); any
// Unknown operand (typecheck mode) yields Unknown; a Union operand applies
// op over its members and keeps the first non-Nil result; every other
// combination yields Nil, which the caller turns into a RuntimeTypeError.
func Binary(op binOp, a, b Value) Value {
	if ua, ok := a.(Unknown); ok {
		return ua
	}
	if ub, ok := b.(Unknown); ok {
		return ub
	}
	if ua, ok := a.(Union); ok {
		return binaryOverUnion(op, ua.Members, b, true)
	}
	if ub, ok := b.(Union); ok {
		return binaryOverUnion(op, ub.Members, a, false)
	}

	switch a := a.(type) {
	case Int:
		if b, ok := b.(Int); ok {
			return intArith(op, a, b)
		}
	case Float:
		if b, ok := b.(Float); ok {
			return floatArith(op, a, b)
		}
	case String:
		if b, ok := b.(String); ok && op == opAdd {
			return a + b
		}
	case Tuple:
		if b, ok := b.(Tuple); ok && len(a.Elems) == len(b.Elems) {
			out := make([]Value, len(a.Elems))
			for i := range a.Elems {
				out[i] = Binary(op, a.Elems[i], b.Elems[i])
				if _, isNil := out[i].(Nil); isNil {
					return Nil{}
				}
			}
			return Tuple{Elems: out}
		}
	}
	return Nil{}
}

func binaryOverUnion(op binOp, members []value.Type, other Value, unionIsLeft bool) Value {
	for _, m := range members {
		ex := Zero(m)
		var r Value
		if unionIsLeft {
			r = Binary(op, ex, other)
		} else {
			r = Binary(op, other, ex)
		}
		if _, isNil := r.(Nil); !isNil {
			return r
		}
	}
	return Nil{}
}

func intArith(op binOp, a, b Int) Value {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		if b == 0 {
			return Nil{}
		}
		return a / b
	}
	return Nil{}
}

func floatArith(op binOp, a, b Float) Value {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	}
	return Nil{}
}

// Neg implements unary negation over Int and Float; anything else yields
// Nil.
func Neg(v Value) Value {
	switch v := v.(type) {
	case Int:
		return -v
	case Float:
		return -v
	case Unknown:
		return v
	default:
		return Nil{}
	}
}

// Not implements unary boolean negation; anything else yields Nil.
func Not(v Value) Value {
	switch v := v.(type) {
	case Bool:
		return !v
	case Unknown:
		return v
	default:
		return Nil{}
	}
}
