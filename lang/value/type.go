// Package value defines the static Type model shared by the compiler and
// the VM's typecheck mode: a structural, tagged-variant type system with a
// "fits" assignment-compatibility relation, plus the Blob record-type
// registry that both the runtime and the typechecker index into.
package value

import "strings"

// Type is a sibling tagged variant to Value (see the vm package): every
// concrete type implements it, and equality/fits are computed by the
// standalone Equal and Fits functions rather than by methods, so that
// comparisons stay total over every pair of kinds.
type Type interface {
	String() string
	sealed() // confines implementations to this package
}

type (
	VoidType    struct{}
	UnknownType struct{}
	IntType     struct{}
	FloatType   struct{}
	BoolType    struct{}
	StringType  struct{}
)

func (VoidType) String() string    { return "void" }
func (UnknownType) String() string { return "unknown" }
func (IntType) String() string     { return "int" }
func (FloatType) String() string   { return "float" }
func (BoolType) String() string    { return "bool" }
func (StringType) String() string  { return "str" }

func (VoidType) sealed()    {}
func (UnknownType) sealed() {}
func (IntType) sealed()     {}
func (FloatType) sealed()   {}
func (BoolType) sealed()    {}
func (StringType) sealed()  {}

// TupleType is an ordered, fixed-arity product type.
type TupleType struct{ Elems []Type }

func (t TupleType) sealed() {}
func (t TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ListType is a homogeneous, mutable sequence type.
type ListType struct{ Elem Type }

func (t ListType) sealed()        {}
func (t ListType) String() string { return "[" + t.Elem.String() + "]" }

// UnionType is a set of member types; it exists only to the typechecker —
// no Union ever reaches the runtime.
type UnionType struct{ Members []Type }

func (t UnionType) sealed() {}
func (t UnionType) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// FunctionType is a callable signature.
type FunctionType struct {
	Params []Type
	Ret    Type
}

func (t FunctionType) sealed() {}
func (t FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	ret := "void"
	if t.Ret != nil {
		ret = t.Ret.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + ret
}

// BlobType denotes the blob type itself, the value produced by naming a
// blob declaration (callable to construct an Instance).
type BlobType struct{ Def *BlobDef }

func (t BlobType) sealed()        {}
func (t BlobType) String() string { return "blob " + t.Def.Name }

// InstanceType denotes a value constructed from a BlobDef.
type InstanceType struct{ Def *BlobDef }

func (t InstanceType) sealed()        {}
func (t InstanceType) String() string { return t.Def.Name }

// Equal reports whether a and b denote the same structural type. Blob and
// Instance types compare by BlobDef identity (the BlobDef.ID).
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case VoidType:
		_, ok := b.(VoidType)
		return ok
	case UnknownType:
		_, ok := b.(UnknownType)
		return ok
	case IntType:
		_, ok := b.(IntType)
		return ok
	case FloatType:
		_, ok := b.(FloatType)
		return ok
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case StringType:
		_, ok := b.(StringType)
		return ok
	case TupleType:
		bb, ok := b.(TupleType)
		if !ok || len(a.Elems) != len(bb.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bb.Elems[i]) {
				return false
			}
		}
		return true
	case ListType:
		bb, ok := b.(ListType)
		return ok && Equal(a.Elem, bb.Elem)
	case UnionType:
		bb, ok := b.(UnionType)
		if !ok || len(a.Members) != len(bb.Members) {
			return false
		}
		for _, m := range a.Members {
			if !unionContains(bb.Members, m) {
				return false
			}
		}
		return true
	case FunctionType:
		bb, ok := b.(FunctionType)
		if !ok || len(a.Params) != len(bb.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], bb.Params[i]) {
				return false
			}
		}
		return Equal(a.Ret, bb.Ret)
	case BlobType:
		bb, ok := b.(BlobType)
		return ok && a.Def.ID == bb.Def.ID
	case InstanceType:
		bb, ok := b.(InstanceType)
		return ok && a.Def.ID == bb.Def.ID
	default:
		return false
	}
}

func unionContains(members []Type, t Type) bool {
	for _, m := range members {
		if Equal(m, t) {
			return true
		}
	}
	return false
}

// Fits reports whether a value of type a may be used where a value of type
// b is expected (assignment/argument compatibility):
//
//	T fits Unknown always.
//	List(A) fits List(B) iff A fits B.
//	Union(A) fits Union(B) iff every member of A is in B.
//	Otherwise nothing fits a Union from outside.
//	Otherwise, equality.
func Fits(a, b Type) bool {
	if _, ok := b.(UnknownType); ok {
		return true
	}
	if la, ok := a.(ListType); ok {
		if lb, ok := b.(ListType); ok {
			return Fits(la.Elem, lb.Elem)
		}
		return false
	}
	if ua, ok := a.(UnionType); ok {
		ub, ok := b.(UnionType)
		if !ok {
			return false
		}
		for _, m := range ua.Members {
			if !unionContains(ub.Members, m) {
				return false
			}
		}
		return true
	}
	if _, ok := b.(UnionType); ok {
		return false
	}
	return Equal(a, b)
}

// NewUnion builds a UnionType from members, deduplicating structurally equal
// entries (a Union is a *set* of types).
func NewUnion(members ...Type) Type {
	var uniq []Type
	for _, m := range members {
		if um, ok := m.(UnionType); ok {
			for _, mm := range um.Members {
				if !unionContains(uniq, mm) {
					uniq = append(uniq, mm)
				}
			}
			continue
		}
		if !unionContains(uniq, m) {
			uniq = append(uniq, m)
		}
	}
	if len(uniq) == 1 {
		return uniq[0]
	}
	return UnionType{Members: uniq}
}
