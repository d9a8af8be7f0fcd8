package value

import "github.com/dolthub/swiss"

// Field describes one slot-indexed field of a blob record type.
type Field struct {
	Slot int
	Type Type
}

// BlobDef is a user-defined record type: fields are inserted in declaration
// order and the Slot assigned at insertion never changes. Equality between
// two BlobDefs is by ID, not by structural field comparison.
//
// The name→field lookup is backed by a swiss-table map: blob field lookups
// are on the Get/Set opcode hot path of the VM, which is exactly the kind
// of high-churn map access a swiss table is built for.
type BlobDef struct {
	ID     uint32
	Name   string
	fields *swiss.Map[string, Field]
	order  []string // declaration order, for deterministic iteration (e.g. zero-value construction)
}

// NewBlobDef creates an empty blob definition with the given id and name.
func NewBlobDef(id uint32, name string) *BlobDef {
	return &BlobDef{ID: id, Name: name, fields: swiss.NewMap[string, Field](4)}
}

// AddField registers a new field in declaration order, assigning it the next
// available slot. It returns false if name is already declared (duplicate
// field name is a compile error).
func (b *BlobDef) AddField(name string, typ Type) (slot int, ok bool) {
	if _, found := b.fields.Get(name); found {
		return 0, false
	}
	slot = len(b.order)
	b.fields.Put(name, Field{Slot: slot, Type: typ})
	b.order = append(b.order, name)
	return slot, true
}

// Field looks up a declared field by name.
func (b *BlobDef) Field(name string) (Field, bool) {
	return b.fields.Get(name)
}

// NumFields returns the number of declared fields.
func (b *BlobDef) NumFields() int { return len(b.order) }

// FieldNames returns the fields in declaration order. Callers must not
// mutate the returned slice.
func (b *BlobDef) FieldNames() []string { return b.order }

// FieldTypeAt returns the declared type of the field at slot i.
func (b *BlobDef) FieldTypeAt(i int) Type {
	f, _ := b.fields.Get(b.order[i])
	return f.Type
}
