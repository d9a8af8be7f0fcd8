package compiler

import "github.com/sylt-lang/sylt/lang/value"

type varKind int

const (
	varNotFound varKind = iota
	varLocal
	varUpvalue
)

type resolution struct {
	Kind    varKind
	Index   int
	Type    value.Type
	Mutable bool
}

// resolveVariable implements the lookup rule: search f's own
// locals, then f's already-resolved up-values, then walk enclosing frames
// recursively; when a binding is found in an outer frame, mark that
// frame's local captured and add an up-value entry to every intermediate
// frame between f and the frame that owns it.
func resolveVariable(f *frame, name string) resolution {
	if v := f.resolveLocal(name); v != nil {
		return resolution{Kind: varLocal, Index: v.Slot, Type: v.Type, Mutable: v.Mutable}
	}
	if idx, ok := f.resolveUpvalue(name); ok {
		return resolution{Kind: varUpvalue, Index: idx, Type: f.upvalues[idx].Type, Mutable: f.upvalMut[idx]}
	}
	if f.parent == nil {
		return resolution{Kind: varNotFound}
	}
	parentRes := resolveVariable(f.parent, name)
	switch parentRes.Kind {
	case varNotFound:
		return resolution{Kind: varNotFound}
	case varLocal:
		pv := f.parent.resolveLocal(name)
		pv.Captured = true
		idx := f.addUpvalue(name, pv.Slot, false, pv.Type, pv.Mutable)
		return resolution{Kind: varUpvalue, Index: idx, Type: pv.Type, Mutable: pv.Mutable}
	default: // varUpvalue: chain through the parent's own up-value
		idx := f.addUpvalue(name, parentRes.Index, true, parentRes.Type, parentRes.Mutable)
		return resolution{Kind: varUpvalue, Index: idx, Type: parentRes.Type, Mutable: parentRes.Mutable}
	}
}
