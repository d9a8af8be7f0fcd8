package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders p as pseudo-assembly, one line per instruction,
// grouped by Block — the --print-bytecode / print_bytecode debugging
// surface.
func Disassemble(p *Prog) string {
	var sb strings.Builder
	for i, b := range p.Blocks {
		fmt.Fprintf(&sb, "== block %d: %s ==\n", i, b.Name)
		disassembleBlock(&sb, b)
	}
	return sb.String()
}

func disassembleBlock(sb *strings.Builder, b *Block) {
	off := 0
	for off < len(b.Ops) {
		op := Op(b.Ops[off])
		line := b.LineFor(off)
		if !op.HasArg() {
			fmt.Fprintf(sb, "%4d  L%-4d  %s\n", off, line, op)
			off++
			continue
		}
		arg := getArg(b.Ops, off+1)
		if op == JmpNPop {
			n := getArg(b.Ops, off+5)
			fmt.Fprintf(sb, "%4d  L%-4d  %s %d, %d\n", off, line, op, arg, n)
			off += 9
			continue
		}
		fmt.Fprintf(sb, "%4d  L%-4d  %s %d\n", off, line, op, arg)
		off += 5
	}
}
