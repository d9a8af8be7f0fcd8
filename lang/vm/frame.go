package vm

import "github.com/sylt-lang/sylt/lang/compiler"

// Frame is one active call's bookkeeping: its Block, its instruction
// pointer, and the absolute stack offset its locals start at (slot i lives
// at stack[offset+i]; slot 0 is the callee itself, the up-value capture
// anchor).
type Frame struct {
	fn     *Function
	block  *compiler.Block
	ip     int
	offset int
}
