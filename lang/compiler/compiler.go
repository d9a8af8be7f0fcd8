// Package compiler implements sylt's single-pass compiler: a Pratt-style
// precedence parser that emits bytecode directly while walking the token
// stream, tracking lexical scopes, local-slot assignment, closure
// up-values, blob declarations and the constant pool.
package compiler

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/google/uuid"

	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/value"
)

// TokAndValue pairs a scanned token with its line/value payload; it is the
// whole contract the compiler has with its tokenizer collaborator — nothing
// about how tokens were produced leaks past this type.
type TokAndValue struct {
	Tok token.Token
	Val token.Value
}

// Compile compiles one token stream (already terminated by token.EOF) into
// a Prog. externs names the extern functions the embedder has registered;
// identifiers that resolve to none of local/up-value/blob but do match one
// of externs are compiled as ConstExtern references (against the extern
// table). Compile returns either a complete Prog with no errors, or a nil
// Prog alongside a non-empty error list: later phases
// (such as typecheck and run) must never be attempted when errs is
// non-empty.
func Compile(toks []TokAndValue, filename string, externs []string) (*Prog, sylterr.List) {
	c := &Compiler{
		toks:       toks,
		filename:   filename,
		blobs:      swiss.NewMap[string, *value.BlobDef](4),
		strIdx:     swiss.NewMap[string, uint32](8),
		constIdx:   swiss.NewMap[any, uint32](8),
		externIdx:  swiss.NewMap[string, int](4),
		knownExtern: swiss.NewMap[string, bool](4),
	}
	for i, name := range externs {
		c.knownExtern.Put(name, true)
		c.externIdx.Put(name, i)
	}
	c.prog = &Prog{Filename: filename, BuildID: uuid.New(), Externs: append([]string(nil), externs...)}
	c.addConstant(nil, Constant{Kind: ConstNil}) // invariant: constant 0 is always Nil

	c.prog.Blocks = append(c.prog.Blocks, nil) // reserve slot 0 for main, per invariant

	c.cur = newFrame(nil, "main", filename)
	c.beginFunctionBody(nil)
	c.block()
	main := c.endFunctionBody(value.VoidType{})
	c.prog.Blocks[0] = main

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return c.prog, nil
}

// Compiler holds all state for one compilation pass.
type Compiler struct {
	toks     []TokAndValue
	pos      int
	filename string

	prog *Prog
	cur  *frame

	blobs      *swiss.Map[string, *value.BlobDef]
	nextBlobID uint32

	strIdx   *swiss.Map[string, uint32]
	constIdx *swiss.Map[any, uint32]

	externIdx   *swiss.Map[string, int] // extern name -> its position in the externs given to Compile (and in prog.Externs)
	knownExtern *swiss.Map[string, bool]

	errs      sylterr.List
	panicking bool
	lastLine  int
}

// resolveExtern returns the ConstExtern constant index for name, or ok=false
// if name was never declared to Compile as a known extern. Its ExternIndex is
// name's position in the externs given to Compile, which prog.Externs holds
// in the same order.
func (c *Compiler) resolveExtern(name string) (uint32, bool) {
	if !c.knownExtern.Has(name) {
		return 0, false
	}
	idx, _ := c.externIdx.Get(name)
	constIdx := c.addConstant("extern:"+name, Constant{Kind: ConstExtern, ExternIndex: idx})
	return constIdx, true
}

// resolveBlobConstant returns the ConstBlob constant index for a previously
// declared blob name, or ok=false if name is not a registered blob.
func (c *Compiler) resolveBlobConstant(name string) (uint32, bool) {
	def, ok := c.blobs.Get(name)
	if !ok {
		return 0, false
	}
	idx := c.addConstant("blob:"+name, Constant{Kind: ConstBlob, Blob: def})
	return idx, true
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) peek() TokAndValue  { return c.toks[c.pos] }
func (c *Compiler) peekTok() token.Token { return c.toks[c.pos].Tok }

func (c *Compiler) peekAt(n int) TokAndValue {
	i := c.pos + n
	if i >= len(c.toks) {
		return c.toks[len(c.toks)-1]
	}
	return c.toks[i]
}

func (c *Compiler) advance() TokAndValue {
	t := c.toks[c.pos]
	if t.Tok != token.EOF {
		c.pos++
	}
	if t.Val.Pos.Line > 0 {
		c.lastLine = t.Val.Pos.Line
	}
	return t
}

func (c *Compiler) check(tok token.Token) bool { return c.peekTok() == tok }

func (c *Compiler) match(tok token.Token) bool {
	if c.check(tok) {
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) expect(tok token.Token) (TokAndValue, bool) {
	if c.check(tok) {
		return c.advance(), true
	}
	c.errorf("expected %s, found %s", tok, c.peekTok())
	return TokAndValue{}, false
}

// skipNewlines consumes any run of NEWLINE tokens (blank lines, or the
// newline separating a statement from the next).
func (c *Compiler) skipNewlines() {
	for c.check(token.NEWLINE) {
		c.advance()
	}
}

// --- error handling / panic mode --------------------------------------

func (c *Compiler) errorf(format string, args ...any) {
	if c.panicking {
		return
	}
	c.panicking = true
	line, _ := 0, 0
	line = c.peek().Val.Pos.Line
	c.errs = append(c.errs, &sylterr.Error{
		Kind:    sylterr.SyntaxError,
		File:    c.filename,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// synchronize discards tokens up to the next statement boundary (a NEWLINE
// or EOF) as panic-mode recovery, then clears panic state so
// subsequent errors are reported again.
func (c *Compiler) synchronize() {
	for !c.check(token.NEWLINE) && !c.check(token.EOF) {
		c.advance()
	}
	c.skipNewlines()
	c.panicking = false
}

// --- speculative parsing -------------------------------------------------

// snapshot captures enough compiler state to roll back a speculative
// production: the token cursor, the bytecode emitted so far in the current
// block, and the error count. restore rewinds those three (and clears panic
// mode); constants, interned strings and up-value entries added since the
// snapshot are kept. Used wherever two productions share a leading `(` and
// the choice between them can only be made after parsing past it — see
// tryParseTupleAssignTargets, which speculatively parses `(a, b)` as a
// tuple-destructuring assignment target and rewinds to let parseGroupOrTuple
// parse it as an ordinary grouped or tuple expression instead when it isn't.
type snapshot struct {
	pos    int
	opsLen int
	errLen int
}

func (c *Compiler) snapshot() snapshot {
	return snapshot{pos: c.pos, opsLen: len(c.cur.block.Ops), errLen: len(c.errs)}
}

func (c *Compiler) restore(s snapshot) {
	c.pos = s.pos
	c.cur.block.Ops = c.cur.block.Ops[:s.opsLen]
	c.errs = c.errs[:s.errLen]
	c.panicking = false
}

// --- emission -----------------------------------------------------------

func (c *Compiler) emit(op Op) int {
	off := len(c.cur.block.Ops)
	c.markLine(off)
	c.cur.block.Ops = append(c.cur.block.Ops, byte(op))
	return off
}

func (c *Compiler) emitArg(op Op, arg uint32) int {
	off := c.emit(op)
	c.cur.block.Ops = putArg(c.cur.block.Ops, arg)
	return off
}

// markLine records the source line responsible for the instruction about
// to be emitted at byte offset off.
func (c *Compiler) markLine(off int) {
	if _, ok := c.cur.block.Lines[off]; !ok {
		c.cur.block.Lines[off] = c.lastLine
	}
}

// emitJumpPlaceholder emits op followed by a 4-byte placeholder operand and
// returns the byte offset of that operand, to be filled in later by
// patchJump once the real target address is known.
func (c *Compiler) emitJumpPlaceholder(op Op) int {
	c.emit(op)
	off := len(c.cur.block.Ops)
	c.cur.block.Ops = putArg(c.cur.block.Ops, 0)
	return off
}

func (c *Compiler) patchJumpHere(operandOffset int) {
	patchArg(c.cur.block.Ops, operandOffset, uint32(len(c.cur.block.Ops)))
}

func (c *Compiler) patchJumpTo(operandOffset int, target int) {
	patchArg(c.cur.block.Ops, operandOffset, uint32(target))
}

func (c *Compiler) here() int { return len(c.cur.block.Ops) }

// --- constant pool --------------------------------------------------

func (c *Compiler) addConstant(key any, mk Constant) uint32 {
	if key != nil {
		if idx, ok := c.constIdx.Get(key); ok {
			return idx
		}
	}
	idx := uint32(len(c.prog.Constants))
	c.prog.Constants = append(c.prog.Constants, mk)
	if key != nil {
		c.constIdx.Put(key, idx)
	}
	return idx
}

func (c *Compiler) internString(s string) uint32 {
	if idx, ok := c.strIdx.Get(s); ok {
		return idx
	}
	idx := uint32(len(c.prog.Strings))
	c.prog.Strings = append(c.prog.Strings, s)
	c.strIdx.Put(s, idx)
	return idx
}
