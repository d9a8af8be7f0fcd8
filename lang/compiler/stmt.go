package compiler

import (
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/value"
)

// block parses the top-level (main) body: a flat run of statements with no
// enclosing braces, terminated by EOF.
func (c *Compiler) block() {
	c.skipNewlines()
	for !c.check(token.EOF) {
		c.statement()
		c.skipNewlines()
	}
}

// closeScope pops the frame's current scope, emitting one Pop per plain
// local and one PopUpvalue per local that a nested closure captured, in
// reverse declaration order (stack top first).
func (c *Compiler) closeScope() {
	popped := c.cur.popScope()
	for i := len(popped) - 1; i >= 0; i-- {
		if popped[i].Captured {
			c.emit(PopUpvalue)
		} else {
			c.emit(Pop)
		}
	}
}

// parseBraceBlock parses `{ statements }` as a nested scope.
func (c *Compiler) parseBraceBlock() {
	c.expect(token.LBRACE)
	c.cur.pushScope()
	c.skipNewlines()
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.statement()
		c.skipNewlines()
	}
	c.expect(token.RBRACE)
	c.closeScope()
}

// parseBlockBody parses a function literal's `{ statements }` body: like
// parseBraceBlock, but without emitting scope-closing Pops, since endFunctionBody's
// Return unwinds the whole frame itself.
func (c *Compiler) parseBlockBody() {
	c.expect(token.LBRACE)
	c.skipNewlines()
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.statement()
		c.skipNewlines()
	}
	c.expect(token.RBRACE)
}

func (c *Compiler) statement() {
	switch c.peekTok() {
	case token.IF:
		c.ifStatement()
	case token.FOR:
		c.forStatement()
	case token.BREAK:
		c.breakStatement()
	case token.CONTINUE:
		c.continueStatement()
	case token.RET:
		c.retStatement()
	case token.PRINT:
		c.printStatement()
	case token.YIELD:
		c.advance()
		c.emit(Yield)
	case token.UNREACHABLE:
		c.advance()
		c.emit(Unreachable)
	case token.BLOB:
		c.blobDeclaration()
	default:
		c.exprOrDeclStatement()
	}

	if c.panicking {
		c.synchronize()
	}
}

// --- if / for -----------------------------------------------------------

func (c *Compiler) ifStatement() {
	c.advance() // if
	c.parseExpression()
	elseJump := c.emitJumpPlaceholder(JmpFalse)
	c.parseBraceBlock()
	endJump := c.emitJumpPlaceholder(Jmp)
	c.patchJumpHere(elseJump)

	if c.match(token.ELSE) {
		if c.check(token.IF) {
			c.ifStatement()
		} else {
			c.parseBraceBlock()
		}
	}
	c.patchJumpHere(endJump)
}

// forStatement compiles `for init, cond, step { body }` via a
// four-region desugaring: [init][cond -> exit or fallthrough][step -> cond][body -> step].
func (c *Compiler) forStatement() {
	c.advance() // for

	c.cur.pushScope()

	if !c.check(token.COMMA) {
		c.forClause()
	}
	c.expect(token.COMMA)
	baseDepth := len(c.cur.locals)

	condStart := c.here()
	hasCond := !c.check(token.COMMA)
	var exitJump int
	if hasCond {
		c.parseExpression()
		exitJump = c.emitJumpPlaceholder(JmpFalse)
	}
	bodyJump := c.emitJumpPlaceholder(Jmp)

	c.expect(token.COMMA)
	stepStart := c.here()
	if !c.check(token.LBRACE) {
		c.forClause()
	}
	c.emitArg(Jmp, uint32(condStart))

	loop := &loopCtx{stepOffset: stepStart, baseDepth: baseDepth}
	c.cur.loops = append(c.cur.loops, loop)

	c.patchJumpHere(bodyJump)
	c.parseBraceBlock()
	c.emitArg(Jmp, uint32(stepStart))

	exitAddr := c.here()
	if hasCond {
		c.patchJumpTo(exitJump, exitAddr)
	}

	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	for _, off := range loop.breakFixups {
		c.patchJumpTo(off, exitAddr)
	}
	for _, off := range loop.continueFixups {
		c.patchJumpTo(off, stepStart)
	}

	c.closeScope()
}

// forClause parses one of the `for` header's init/step slots: either empty
// (handled by the caller checking for a leading comma/brace) or a single
// declaration/assignment/expression statement, without consuming the
// trailing newline (there isn't one — the clause is comma-terminated).
func (c *Compiler) forClause() {
	c.statementNoTerminator()
}

func (c *Compiler) breakStatement() {
	c.advance()
	if len(c.cur.loops) == 0 {
		c.errorf("break outside of a loop")
		return
	}
	loop := c.cur.loops[len(c.cur.loops)-1]
	n := len(c.cur.locals) - loop.baseDepth
	off := c.emitJumpNPopPlaceholder(uint32(n))
	loop.breakFixups = append(loop.breakFixups, off)
}

func (c *Compiler) continueStatement() {
	c.advance()
	if len(c.cur.loops) == 0 {
		c.errorf("continue outside of a loop")
		return
	}
	loop := c.cur.loops[len(c.cur.loops)-1]
	n := len(c.cur.locals) - loop.baseDepth
	off := c.emitJumpNPopPlaceholder(uint32(n))
	loop.continueFixups = append(loop.continueFixups, off)
}

// emitJumpNPopPlaceholder emits JmpNPop with a placeholder target and the
// already-known pop count n, returning the target operand's offset for
// later patching by patchJumpTo.
func (c *Compiler) emitJumpNPopPlaceholder(n uint32) int {
	c.emit(JmpNPop)
	targetOff := len(c.cur.block.Ops)
	c.cur.block.Ops = putArg(c.cur.block.Ops, 0)
	c.cur.block.Ops = putArg(c.cur.block.Ops, n)
	return targetOff
}

func (c *Compiler) retStatement() {
	c.advance()
	if c.check(token.NEWLINE) || c.check(token.EOF) || c.check(token.RBRACE) {
		c.emitArg(Constant, 0)
	} else {
		c.parseExpression()
	}
	c.emit(Return)
}

func (c *Compiler) printStatement() {
	c.advance()
	c.parseExpression()
	c.emit(Print)
}

// --- blob declaration -----------------------------------------------------

func (c *Compiler) blobDeclaration() {
	c.advance() // blob
	name, ok := c.expect(token.IDENT)
	if !ok {
		return
	}
	if _, exists := c.blobs.Get(name.Val.Str); exists {
		c.errorf("blob %q already declared", name.Val.Str)
	}

	def := value.NewBlobDef(c.nextBlobID, name.Val.Str)
	c.nextBlobID++

	c.expect(token.LBRACE)
	c.skipNewlines()
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		fname, ok := c.expect(token.IDENT)
		if !ok {
			c.synchronize()
			continue
		}
		c.expect(token.COLON)
		ftyp := c.parseType()
		if _, ok := def.AddField(fname.Val.Str, ftyp); !ok {
			c.errorf("duplicate field %q in blob %q", fname.Val.Str, name.Val.Str)
		}
		c.skipNewlines()
	}
	c.expect(token.RBRACE)

	c.blobs.Put(name.Val.Str, def)
	c.prog.Blobs = append(c.prog.Blobs, def)
}

// --- declarations, assignment, bare expression statements -----------------

// exprOrDeclStatement disambiguates, by lookahead on the token(s) following
// a leading identifier, between a declaration (`:=`, `::`, `: T =`, the
// legacy `name name2 :=` typed-short form), an assignment (`=`, `+=`, `-=`,
// `*=`, `/=`, including `x.f op= e` field assignment), a bang-call
// (`f! a, b, c`), and a bare expression statement.
func (c *Compiler) exprOrDeclStatement() {
	c.statementNoTerminator()
}

func (c *Compiler) statementNoTerminator() {
	if c.check(token.IDENT) {
		switch c.peekAt(1).Tok {
		case token.COLONEQ:
			c.declareStatement(true, nil)
			return
		case token.COLONCOLON:
			c.declareStatement(false, nil)
			return
		case token.COLON:
			c.typedDeclareStatement()
			return
		case token.IDENT:
			if c.peekAt(2).Tok == token.COLONEQ {
				c.legacyTypedDeclareStatement()
				return
			}
		case token.BANG:
			c.bangCallStatement()
			return
		}
	}

	// `(` starts both a tuple-destructuring assignment target, `(a, b) = e`,
	// and an ordinary grouped or tuple expression, `(a, b)`; the two can't be
	// told apart until the closing `)` and what follows it, so attempt the
	// assignment-target production speculatively and roll back to the
	// general expression parser if it doesn't pan out.
	if c.check(token.LPAREN) {
		if targets, ok := c.tryParseTupleAssignTargets(); ok {
			c.finishTupleAssignment(targets)
			return
		}
	}

	// Parse a primary expression target (identifier or field chain), then
	// decide between assignment and a bare expression statement by what
	// follows.
	c.assignOrExprStatement()
}

// tryParseTupleAssignTargets speculatively parses a parenthesized,
// comma-separated list of two or more plain local/up-value names as the
// target of a tuple-destructuring assignment. It snapshots before consuming
// the `(` and restores to that snapshot (leaving the cursor and any emitted
// bytecode untouched) the moment the input turns out not to match: a
// non-identifier element, a name that isn't a local or up-value, a missing
// closing `)`, or no `=` immediately after it. Callers must treat a false
// result as "nothing was consumed".
func (c *Compiler) tryParseTupleAssignTargets() ([]assignTarget, bool) {
	snap := c.snapshot()
	c.advance() // (

	var targets []assignTarget
	for {
		if !c.check(token.IDENT) {
			c.restore(snap)
			return nil, false
		}
		name, _ := c.expect(token.IDENT)
		res := resolveVariable(c.cur, name.Val.Str)
		switch res.Kind {
		case varLocal:
			targets = append(targets, assignTarget{kind: targetLocal, local: &Variable{Slot: res.Index, Mutable: res.Mutable}})
		case varUpvalue:
			targets = append(targets, assignTarget{kind: targetUpvalue, upvalue: res.Index})
		default:
			c.restore(snap)
			return nil, false
		}
		if c.match(token.COMMA) {
			c.skipNewlines()
			continue
		}
		break
	}

	if len(targets) < 2 || !c.check(token.RPAREN) {
		c.restore(snap)
		return nil, false
	}
	c.advance() // )

	if !c.check(token.EQ) {
		c.restore(snap)
		return nil, false
	}
	return targets, true
}

// finishTupleAssignment compiles `(t0, t1, ...) = rhs`: rhs is evaluated
// once, then indexed once per target, left to right, so `(a, b) = (b, a)`
// reads both elements of the right-hand tuple before either target is
// written.
func (c *Compiler) finishTupleAssignment(targets []assignTarget) {
	c.advance() // =
	c.parseExpression()

	for i, target := range targets {
		c.emit(Copy)
		idx := c.addConstant(intKey(i), Constant{Kind: ConstInt, Int: int64(i)})
		c.emitArg(Constant, idx)
		c.emit(Index)

		switch target.kind {
		case targetLocal:
			if !target.local.Mutable {
				c.errorf("assignment to immutable binding")
			}
			c.emitArg(AssignLocal, uint32(target.local.Slot))
		case targetUpvalue:
			c.emitArg(AssignUpvalue, uint32(target.upvalue))
		}
	}
	c.emit(Pop)
}

func (c *Compiler) declareStatement(mutable bool, explicitType value.Type) {
	name, _ := c.expect(token.IDENT)
	if mutable {
		c.expect(token.COLONEQ)
	} else {
		c.expect(token.COLONCOLON)
	}

	v, ok := c.cur.declare(name.Val.Str, mutable)
	if !ok {
		c.errorf("%q already declared in this scope", name.Val.Str)
	}

	c.parseExpression()

	if v != nil {
		if explicitType != nil {
			v.Type = explicitType
		} else {
			v.Type = value.UnknownType{}
		}
		v.Active = true
		// the initializer's value was already produced on the stack by
		// parseExpression and sits exactly at v.Slot, so the local's storage
		// is simply "the stack slot itself" once active — nothing more is
		// emitted.
	}
}

// typedDeclareStatement compiles `name : T = expr`.
func (c *Compiler) typedDeclareStatement() {
	name, _ := c.expect(token.IDENT)
	c.expect(token.COLON)
	t := c.parseType()
	c.expect(token.EQ)

	v, ok := c.cur.declare(name.Val.Str, true)
	if !ok {
		c.errorf("%q already declared in this scope", name.Val.Str)
	}

	c.parseExpression()
	if v != nil {
		v.Type = t
		v.Active = true
		tidx := c.addConstant(nil, Constant{Kind: ConstType, Type: t})
		c.emitArg(Define, tidx)
	}
}

// legacyTypedDeclareStatement compiles the legacy `name name2 := expr` short
// form, where name2 is a type keyword (int/float/bool/str).
func (c *Compiler) legacyTypedDeclareStatement() {
	name, _ := c.expect(token.IDENT)
	typeName, _ := c.expect(token.IDENT)
	c.expect(token.COLONEQ)

	var t value.Type
	switch typeName.Val.Str {
	case "int":
		t = value.IntType{}
	case "float":
		t = value.FloatType{}
	case "bool":
		t = value.BoolType{}
	case "str":
		t = value.StringType{}
	default:
		c.errorf("unknown type %q in legacy declaration", typeName.Val.Str)
		t = value.UnknownType{}
	}

	v, ok := c.cur.declare(name.Val.Str, true)
	if !ok {
		c.errorf("%q already declared in this scope", name.Val.Str)
	}

	c.parseExpression()
	if v != nil {
		v.Type = t
		v.Active = true
		tidx := c.addConstant(nil, Constant{Kind: ConstType, Type: t})
		c.emitArg(Define, tidx)
	}
}

// bangCallStatement compiles the statement-position `f! a, b, c` call form.
func (c *Compiler) bangCallStatement() {
	c.parseIdentifierExpr()
	c.parseBangCallArgs()
	c.emit(Pop) // statement-position call discards its result
}

// assignOrExprStatement parses a primary target expression and then, if
// followed by an assignment operator, compiles an assignment; otherwise the
// already-parsed expression is a bare expression statement and its value is
// discarded.
func (c *Compiler) assignOrExprStatement() {
	target := c.parseAssignTarget()

	switch c.peekTok() {
	case token.EQ, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ:
		c.finishAssignment(target)
	default:
		if target.pushed {
			c.emit(Pop)
		}
	}
}

// assignTarget describes the left-hand side of a potential assignment,
// already partially compiled by parsePrefix/parseInfix via parseExpression's
// machinery (so that `x`, `x.f`, `x.f.g` are each valid targets).
type assignTarget struct {
	kind    targetKind
	local   *Variable
	upvalue int
	field   uint32 // string index of the final .field, for field targets
	pushed  bool   // true if a value was already pushed to the stack (bare-expr fallback)
}

type targetKind int

const (
	targetInvalid targetKind = iota
	targetLocal
	targetUpvalue
	targetField
)

// parseAssignTarget parses an identifier, optionally followed by one or more
// `.field` accesses, deferring the decision between "assignment target" and
// "plain expression" to the caller. Only the last `.field` step (if any) is
// special-cased for assignment; any earlier `.field` steps and any
// non-identifier leading expression are compiled as ordinary reads, falling
// back to pushed=true (not independently assignable without a store chain
// sylt does not support since blobs are single-level records).
func (c *Compiler) parseAssignTarget() assignTarget {
	if !c.check(token.IDENT) {
		c.parseExpression()
		return assignTarget{pushed: true}
	}

	// An identifier that isn't a plain local/upvalue/blob/extern reference
	// (e.g. `f(x)` or `a + b`) still starts like one; resolve eagerly and
	// only fall through to the general expression parser's infix loop for
	// anything beyond a single optional field chain.
	name, _ := c.expect(token.IDENT)
	res := resolveVariable(c.cur, name.Val.Str)

	if c.check(token.DOT) {
		return c.parseFieldTarget(name.Val.Str, res)
	}

	switch res.Kind {
	case varLocal:
		if infixPrecedence(c.peekTok()) > precNone || isCallStart(c.peekTok()) {
			c.emitArg(ReadLocal, uint32(res.Index))
			c.continueExpressionFrom()
			return assignTarget{pushed: true}
		}
		return assignTarget{kind: targetLocal, local: &Variable{Slot: res.Index, Mutable: res.Mutable}}
	case varUpvalue:
		if infixPrecedence(c.peekTok()) > precNone || isCallStart(c.peekTok()) {
			c.emitArg(ReadUpvalue, uint32(res.Index))
			c.continueExpressionFrom()
			return assignTarget{pushed: true}
		}
		return assignTarget{kind: targetUpvalue, upvalue: res.Index}
	default:
		if idx, ok := c.resolveBlobConstant(name.Val.Str); ok {
			c.emitArg(Constant, idx)
		} else if idx, ok := c.resolveExtern(name.Val.Str); ok {
			c.emitArg(Constant, idx)
		} else {
			c.errorf("undefined name %q", name.Val.Str)
			return assignTarget{pushed: true}
		}
		c.continueExpressionFrom()
		return assignTarget{pushed: true}
	}
}

// parseFieldTarget compiles `recv.field` where recv is the already-resolved
// variable res; it pushes the receiver once (finishAssignment Copy-duplicates
// it for the compound forms, so the instance stays reachable for the final
// Set) and leaves the target description for finishAssignment to complete.
func (c *Compiler) parseFieldTarget(name string, res resolution) assignTarget {
	switch res.Kind {
	case varLocal:
		c.emitArg(ReadLocal, uint32(res.Index))
	case varUpvalue:
		c.emitArg(ReadUpvalue, uint32(res.Index))
	default:
		if idx, ok := c.resolveBlobConstant(name); ok {
			c.emitArg(Constant, idx)
		} else if idx, ok := c.resolveExtern(name); ok {
			c.emitArg(Constant, idx)
		} else {
			c.errorf("undefined name %q", name)
		}
	}

	c.expect(token.DOT)
	field, _ := c.expect(token.IDENT)
	sidx := c.internString(field.Val.Str)

	for c.check(token.DOT) {
		// intermediate field step: read through, no longer assignable as a
		// whole chain beyond the final field — blobs assign only one level deep.
		c.emitArg(Get, sidx)
		c.advance()
		next, _ := c.expect(token.IDENT)
		sidx = c.internString(next.Val.Str)
	}

	switch c.peekTok() {
	case token.EQ, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ:
		return assignTarget{kind: targetField, field: sidx}
	default:
		c.emitArg(Get, sidx)
		c.continueExpressionFrom()
		return assignTarget{pushed: true}
	}
}

// continueExpressionFrom resumes the ordinary Pratt infix loop on top of a
// value this function already pushed (used once assignTarget determines the
// parsed prefix is not actually an assignment target after all).
func (c *Compiler) continueExpressionFrom() {
	for precAssert <= infixPrecedence(c.peekTok()) {
		c.parseInfix()
	}
}

func isCallStart(tok token.Token) bool { return tok == token.LPAREN }

// finishAssignment compiles the assignment operator and RHS against an
// already-resolved target: compound forms emit current
// value, RHS, op, then store.
func (c *Compiler) finishAssignment(target assignTarget) {
	opTok := c.advance().Tok

	switch target.kind {
	case targetLocal:
		if !target.local.Mutable {
			c.errorf("assignment to immutable binding")
		}
		if opTok != token.EQ {
			c.emitArg(ReadLocal, uint32(target.local.Slot))
			c.parseExpression()
			c.emitCompoundOp(opTok)
		} else {
			c.parseExpression()
		}
		c.emitArg(AssignLocal, uint32(target.local.Slot))
	case targetUpvalue:
		if opTok != token.EQ {
			c.emitArg(ReadUpvalue, uint32(target.upvalue))
			c.parseExpression()
			c.emitCompoundOp(opTok)
		} else {
			c.parseExpression()
		}
		c.emitArg(AssignUpvalue, uint32(target.upvalue))
	case targetField:
		// stack already holds the receiver (pushed by parseFieldTarget);
		// field compound-assignment duplicates the receiver first.
		if opTok != token.EQ {
			c.emit(Copy)
			c.emitArg(Get, target.field)
			c.parseExpression()
			c.emitCompoundOp(opTok)
		} else {
			c.parseExpression()
		}
		c.emitArg(Set, target.field)
	default:
		c.errorf("invalid assignment target")
	}
}

func (c *Compiler) emitCompoundOp(opTok token.Token) {
	switch opTok {
	case token.PLUSEQ:
		c.emit(Add)
	case token.MINUSEQ:
		c.emit(Sub)
	case token.STAREQ:
		c.emit(Mul)
	case token.SLASHEQ:
		c.emit(Div)
	}
}
