package vm

import (
	"github.com/sylt-lang/sylt/lang/compiler"
)

// Program is a compiler.Prog made ready to execute: every constant-pool
// entry that can be computed once (Nil, Bool, Int, Float, String, Ty,
// Blob, ExternFunction) is precomputed; Function entries are left for the
// Constant op to build fresh on every execution, since linking their
// up-values depends on the currently executing frame.
type Program struct {
	prog      *compiler.Prog
	constants []Value // precomputed; Kind == ConstFunction entries are nil here
	externs   []ExternFunc
}

// Load prepares prog for execution, binding externs (in Prog.Externs
// order) to the concrete implementations the embedder supplied.
func Load(prog *compiler.Prog, externs []ExternFunc) *Program {
	p := &Program{prog: prog, externs: externs, constants: make([]Value, len(prog.Constants))}
	for i, k := range prog.Constants {
		switch k.Kind {
		case compiler.ConstNil:
			p.constants[i] = Nil{}
		case compiler.ConstBool:
			p.constants[i] = Bool(k.Bool)
		case compiler.ConstInt:
			p.constants[i] = Int(k.Int)
		case compiler.ConstFloat:
			p.constants[i] = Float(k.Float)
		case compiler.ConstString:
			p.constants[i] = String(k.Str)
		case compiler.ConstType:
			p.constants[i] = Ty{T: k.Type}
		case compiler.ConstBlob:
			p.constants[i] = Blob{Def: k.Blob}
		case compiler.ConstExtern:
			name := prog.Externs[k.ExternIndex]
			var fn ExternFunc
			if k.ExternIndex < len(externs) {
				fn = externs[k.ExternIndex]
			}
			p.constants[i] = ExternFunction{Name: name, Fn: fn}
		case compiler.ConstFunction:
			// built fresh per execution by the Constant op handler
		}
	}
	return p
}
