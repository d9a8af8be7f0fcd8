// Package vm implements sylt's stack-based, register-less bytecode
// interpreter: a single dispatch loop shared by two modes — runtime
// execution over concrete Values, and static typecheck over type
// exemplars.
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sylt-lang/sylt/lang/compiler"
	"github.com/sylt-lang/sylt/lang/value"
)

// Value is sylt's runtime tagged union: Nil, Unknown, Bool, Int, Float,
// String, Tuple, List, Union, Blob, Instance, Function, ExternFunction, Ty.
// Concrete kinds implement it directly; Equal/TypeOf are standalone
// functions (mirroring value.Type's Equal/Fits) so comparisons stay total
// over every pair of kinds without a combinatorial method set.
type Value interface {
	String() string
	sealedValue()
}

type (
	Nil    struct{}
	Bool   bool
	Int    int64
	Float  float64
	String string
)

func (Nil) sealedValue()    {}
func (Bool) sealedValue()   {}
func (Int) sealedValue()    {}
func (Float) sealedValue()  {}
func (String) sealedValue() {}

func (Nil) String() string    { return "nil" }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }
func (i Int) String() string  { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}
func (s String) String() string { return string(s) }

// Unknown is the typecheck-mode stand-in for "the type of this slot has not
// been narrowed yet"; it never appears during a real run.
type Unknown struct{ T value.Type }

func (Unknown) sealedValue() {}
func (u Unknown) String() string {
	if u.T != nil {
		return "unknown(" + u.T.String() + ")"
	}
	return "unknown"
}

// Tuple is a fixed-arity, immutable product value.
type Tuple struct{ Elems []Value }

func (Tuple) sealedValue() {}
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// List is a homogeneous, mutable, reference-semantics sequence: *List is
// the Value, so appends/indexes observed through one alias are visible
// through every other alias of the same list.
type List struct {
	Elem  value.Type
	Elems []Value
}

func (*List) sealedValue() {}
func (l *List) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Blob is the value produced by naming a blob declaration; calling it
// constructs a fresh Instance.
type Blob struct{ Def *value.BlobDef }

func (Blob) sealedValue()   {}
func (b Blob) String() string { return "blob " + b.Def.Name }

// Instance is a constructed blob record: reference semantics, one Fields
// slice shared by every alias, indexed by BlobDef field slot.
type Instance struct {
	Def    *value.BlobDef
	Fields []Value
}

func (*Instance) sealedValue() {}
func (i *Instance) String() string {
	parts := make([]string, len(i.Fields))
	for idx, f := range i.Fields {
		parts[idx] = i.Def.FieldNames()[idx] + ": " + f.String()
	}
	return i.Def.Name + "{" + strings.Join(parts, ", ") + "}"
}

// Function is a closure: the compiled Block plus its linked up-value
// cells, one per Block.Upvalues entry.
type Function struct {
	Block    *compiler.Block
	Upvalues []*Cell
}

func (*Function) sealedValue() {}
func (f *Function) String() string { return "fn " + f.Block.Name }

// ExternFunction is one entry of the embedder-supplied extern table: its
// name and the implementation Load bound to it.
type ExternFunction struct {
	Name string
	Fn   ExternFunc
}

func (ExternFunction) sealedValue()     {}
func (e ExternFunction) String() string { return "extern " + e.Name }

// ExternFunc is the signature every extern function implementation must
// have: when typecheckMode is true, args are type exemplars and
// the function must return a zero-exemplar of its declared return type
// instead of doing real work.
type ExternFunc func(args []Value, typecheckMode bool) (Value, error)

// Ty wraps a static Type as a first-class runtime value, for externs such
// as type_of.
type Ty struct{ T value.Type }

func (Ty) sealedValue()   {}
func (t Ty) String() string { return t.T.String() }

// Union is the typecheck-mode exemplar for a value whose static type is a
// value.UnionType; it never appears during a real run, since a Union never
// reaches the runtime. Arithmetic against a Union operand applies the op to
// each member's own exemplar in turn and keeps the first result that isn't
// Nil.
type Union struct{ Members []value.Type }

func (Union) sealedValue() {}
func (u Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// TypeOf returns the static Type that describes v — the inverse of Zero.
func TypeOf(v Value) value.Type {
	switch v := v.(type) {
	case Nil:
		return value.VoidType{}
	case Unknown:
		return v.T
	case Bool:
		return value.BoolType{}
	case Int:
		return value.IntType{}
	case Float:
		return value.FloatType{}
	case String:
		return value.StringType{}
	case Tuple:
		elems := make([]value.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = TypeOf(e)
		}
		return value.TupleType{Elems: elems}
	case *List:
		return value.ListType{Elem: v.Elem}
	case Blob:
		return value.BlobType{Def: v.Def}
	case *Instance:
		return value.InstanceType{Def: v.Def}
	case *Function:
		return v.Block.Typ
	case ExternFunction:
		return value.FunctionType{Ret: value.UnknownType{}}
	case Ty:
		return value.UnknownType{}
	case Union:
		return value.UnionType{Members: v.Members}
	default:
		return value.UnknownType{}
	}
}

// Zero returns the deterministic exemplar value of Type t: the same
// construction the typechecker re-derives after every checked op so that
// arithmetic on exemplars is idempotent.
func Zero(t value.Type) Value {
	switch t := t.(type) {
	case value.VoidType:
		return Nil{}
	case value.UnknownType:
		return Unknown{T: t}
	case value.IntType:
		return Int(1)
	case value.FloatType:
		return Float(1.0)
	case value.BoolType:
		return Bool(true)
	case value.StringType:
		return String("")
	case value.TupleType:
		elems := make([]Value, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Zero(e)
		}
		return Tuple{Elems: elems}
	case value.ListType:
		return &List{Elem: t.Elem}
	case value.BlobType:
		return Blob{Def: t.Def}
	case value.InstanceType:
		fields := make([]Value, t.Def.NumFields())
		for i := range fields {
			fields[i] = Zero(t.Def.FieldTypeAt(i))
		}
		return &Instance{Def: t.Def, Fields: fields}
	case value.FunctionType:
		return Unknown{T: t}
	case value.UnionType:
		return Union{Members: t.Members}
	default:
		return Unknown{T: t}
	}
}

// Equal reports whether a and b are the same value: reflexive on all
// finite scalars, tuples, and lists.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Int:
		bb, ok := b.(Int)
		return ok && a == bb
	case Float:
		bb, ok := b.(Float)
		return ok && a == bb
	case String:
		bb, ok := b.(String)
		return ok && a == bb
	case Tuple:
		bb, ok := b.(Tuple)
		if !ok || len(a.Elems) != len(bb.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bb.Elems[i]) {
				return false
			}
		}
		return true
	case *List:
		bb, ok := b.(*List)
		if !ok || len(a.Elems) != len(bb.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bb.Elems[i]) {
				return false
			}
		}
		return true
	case Blob:
		bb, ok := b.(Blob)
		return ok && a.Def.ID == bb.Def.ID
	case *Instance:
		bb, ok := b.(*Instance)
		return ok && a == bb
	default:
		return false
	}
}

// Less implements the strict total order required over (Int,Int),
// (Float,Float), (Bool,Bool), (String,String), and lexicographically over
// Tuple.
func Less(a, b Value) (Bool, error) {
	switch a := a.(type) {
	case Int:
		bb, ok := b.(Int)
		if !ok {
			return false, fmt.Errorf("cannot compare %T and %T", a, b)
		}
		return Bool(a < bb), nil
	case Float:
		bb, ok := b.(Float)
		if !ok {
			return false, fmt.Errorf("cannot compare %T and %T", a, b)
		}
		return Bool(a < bb), nil
	case Bool:
		bb, ok := b.(Bool)
		if !ok {
			return false, fmt.Errorf("cannot compare %T and %T", a, b)
		}
		return Bool(!bool(a) && bool(bb)), nil
	case String:
		bb, ok := b.(String)
		if !ok {
			return false, fmt.Errorf("cannot compare %T and %T", a, b)
		}
		return Bool(a < bb), nil
	case Tuple:
		bb, ok := b.(Tuple)
		if !ok {
			return false, fmt.Errorf("cannot compare %T and %T", a, b)
		}
		n := len(a.Elems)
		if len(bb.Elems) < n {
			n = len(bb.Elems)
		}
		for i := 0; i < n; i++ {
			if Equal(a.Elems[i], bb.Elems[i]) {
				continue
			}
			return Less(a.Elems[i], bb.Elems[i])
		}
		return Bool(len(a.Elems) < len(bb.Elems)), nil
	default:
		return false, fmt.Errorf("%T is not ordered", a)
	}
}
