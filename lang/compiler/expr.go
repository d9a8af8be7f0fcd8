package compiler

import (
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/value"
)

// precedence levels, low to high:
// No < Assert(<=>) < Bool(and,or) < Comparison < Term(+,-) < Factor(*,/).
// Unary and call/index/field binding sit one and two notches tighter than
// Factor respectively, rather than sharing Factor's own level, so that
// `-a * b` parses as `(-a) * b` and `f(x).y` parses postfix-first — the
// conventional placement for a prefix operator in a Pratt parser.
type precedence int

const (
	precNone precedence = iota
	precAssert
	precBool
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
)

func infixPrecedence(tok token.Token) precedence {
	switch tok {
	case token.ASSERTEQ:
		return precAssert
	case token.AND, token.OR:
		return precBool
	case token.EQEQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return precComparison
	case token.PLUS, token.MINUS:
		return precTerm
	case token.STAR, token.SLASH:
		return precFactor
	case token.LPAREN, token.LBRACK, token.DOT:
		return precCall
	default:
		return precNone
	}
}

// parseExpression parses one full expression at the loosest binding
// strength (assert-equal and above).
func (c *Compiler) parseExpression() {
	c.parsePrecedence(precAssert)
}

func (c *Compiler) parsePrecedence(minPrec precedence) {
	c.parsePrefix()
	for minPrec <= infixPrecedence(c.peekTok()) {
		c.parseInfix()
	}
}

func (c *Compiler) parsePrefix() {
	t := c.peek()
	switch t.Tok {
	case token.INT:
		c.advance()
		idx := c.addConstant(intKey(t.Val.Int), Constant{Kind: ConstInt, Int: t.Val.Int})
		c.emitArg(Constant, idx)
	case token.FLOAT:
		c.advance()
		idx := c.addConstant(floatKey(t.Val.Float), Constant{Kind: ConstFloat, Float: t.Val.Float})
		c.emitArg(Constant, idx)
	case token.STRING:
		c.advance()
		idx := c.addConstant(strKey(t.Val.Str), Constant{Kind: ConstString, Str: t.Val.Str})
		c.emitArg(Constant, idx)
	case token.TRUE:
		c.advance()
		idx := c.addConstant(boolKey(true), Constant{Kind: ConstBool, Bool: true})
		c.emitArg(Constant, idx)
	case token.FALSE:
		c.advance()
		idx := c.addConstant(boolKey(false), Constant{Kind: ConstBool, Bool: false})
		c.emitArg(Constant, idx)
	case token.NIL:
		c.advance()
		c.emitArg(Constant, 0) // constants[0] is always Nil
	case token.IDENT:
		c.parseIdentifierExpr()
	case token.LPAREN:
		c.parseGroupOrTuple()
	case token.LBRACK:
		c.parseListLiteral()
	case token.MINUS:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emit(Neg)
	case token.BANG:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emit(Not)
	case token.FN:
		c.parseFunctionLiteral()
	default:
		c.errorf("expected an expression, found %s", t.Tok)
		c.advance()
	}
}

func (c *Compiler) parseInfix() {
	t := c.peek()
	switch t.Tok {
	case token.LPAREN:
		c.parseCallArgs()
	case token.LBRACK:
		c.advance()
		c.parseExpression()
		c.expect(token.RBRACK)
		c.emit(Index)
	case token.DOT:
		c.advance()
		name, ok := c.expect(token.IDENT)
		if !ok {
			return
		}
		sidx := c.internString(name.Val.Str)
		c.emitArg(Get, sidx)
	default:
		c.parseBinaryOp()
	}
}

// parseBinaryOp consumes one binary operator and its right-hand operand,
// emitting the matching op.
func (c *Compiler) parseBinaryOp() {
	opTok := c.advance()
	prec := infixPrecedence(opTok.Tok)
	c.parsePrecedence(prec + 1)

	switch opTok.Tok {
	case token.PLUS:
		c.emit(Add)
	case token.MINUS:
		c.emit(Sub)
	case token.STAR:
		c.emit(Mul)
	case token.SLASH:
		c.emit(Div)
	case token.EQEQ:
		c.emit(Equal)
	case token.NEQ:
		c.emit(Equal)
		c.emit(Not)
	case token.LT:
		c.emit(Less)
	case token.GT:
		c.emit(Greater)
	case token.LE:
		c.emit(Greater)
		c.emit(Not)
	case token.GE:
		c.emit(Less)
		c.emit(Not)
	case token.ASSERTEQ:
		c.emit(Equal)
		c.emit(Assert)
		// Assert consumes the comparison; the `<=>` expression itself
		// evaluates to nil, so its statement's Pop has a value to discard.
		c.emitArg(Constant, 0)
	case token.AND:
		c.emit(And)
	case token.OR:
		c.emit(Or)
	default:
		c.errorf("internal: %s is not a binary operator", opTok.Tok)
	}
}

// parseIdentifierExpr resolves name against the variable scope chain, then
// the blob registry, then the known-extern table, in that order, emitting
// the appropriate read op or constant push.
func (c *Compiler) parseIdentifierExpr() {
	t, _ := c.expect(token.IDENT)
	name := t.Val.Str

	res := resolveVariable(c.cur, name)
	switch res.Kind {
	case varLocal:
		c.emitArg(ReadLocal, uint32(res.Index))
		return
	case varUpvalue:
		c.emitArg(ReadUpvalue, uint32(res.Index))
		return
	}

	if idx, ok := c.resolveBlobConstant(name); ok {
		c.emitArg(Constant, idx)
		return
	}

	if idx, ok := c.resolveExtern(name); ok {
		c.emitArg(Constant, idx)
		return
	}

	c.errorf("undefined name %q", name)
}

// parseGroupOrTuple handles `(e)` grouping and `(e, e, ...)` tuple
// construction; exactly one expression means grouping, two or more build a
// Tuple(n).
func (c *Compiler) parseGroupOrTuple() {
	c.advance() // (
	n := 0
	if !c.check(token.RPAREN) {
		c.parseExpression()
		n++
		for c.match(token.COMMA) {
			c.parseExpression()
			n++
		}
	}
	c.expect(token.RPAREN)
	if n > 1 {
		c.emitArg(Tuple, uint32(n))
	}
}

func (c *Compiler) parseListLiteral() {
	c.advance() // [
	n := 0
	if !c.check(token.RBRACK) {
		c.parseExpression()
		n++
		for c.match(token.COMMA) {
			c.parseExpression()
			n++
		}
	}
	c.expect(token.RBRACK)
	c.emitArg(List, uint32(n))
}

// parseCallArgs parses the parenthesized-call argument list and emits
// Call(n); the callee has already been pushed by the preceding prefix/infix
// production.
func (c *Compiler) parseCallArgs() {
	c.advance() // (
	n := 0
	if !c.check(token.RPAREN) {
		c.parseExpression()
		n++
		for c.match(token.COMMA) {
			c.parseExpression()
			n++
		}
	}
	c.expect(token.RPAREN)
	c.emitArg(Call, uint32(n))
}

// parseBangCallArgs parses the statement-position `f! a, b, c` call form:
// comma-separated expressions terminated by newline or EOF, with the
// callee already pushed.
func (c *Compiler) parseBangCallArgs() {
	c.advance() // !
	n := 0
	if !c.check(token.NEWLINE) && !c.check(token.EOF) {
		c.parseExpression()
		n++
		for c.match(token.COMMA) {
			c.parseExpression()
			n++
		}
	}
	c.emitArg(Call, uint32(n))
}

// parseFunctionLiteral parses `fn (params) -> R { body }`, `fn -> R { body }`
// and bare `fn { body }`.
func (c *Compiler) parseFunctionLiteral() {
	c.advance() // fn

	var params []Binding
	if c.match(token.LPAREN) {
		if !c.check(token.RPAREN) {
			params = append(params, c.parseParam())
			for c.match(token.COMMA) {
				params = append(params, c.parseParam())
			}
		}
		c.expect(token.RPAREN)
	}

	ret := value.Type(value.VoidType{})
	if c.match(token.ARROW) {
		ret = c.parseType()
	}

	name := "fn"
	c.newChildFrame(name)
	c.cur.block.Typ.Params = paramTypes(params)
	c.beginFunctionBody(params)
	c.parseBlockBody()
	b := c.endFunctionBody(ret)
	idx := c.popFrame(b)
	_ = idx

	constIdx := c.addConstant(nil, Constant{Kind: ConstFunction, Func: b})
	c.emitArg(Constant, constIdx)
}

func (c *Compiler) parseParam() Binding {
	name, _ := c.expect(token.IDENT)
	c.expect(token.COLON)
	t := c.parseType()
	return Binding{Name: name.Val.Str, Type: t}
}

func paramTypes(params []Binding) []value.Type {
	ts := make([]value.Type, len(params))
	for i, p := range params {
		ts[i] = p.Type
	}
	return ts
}

// constant-pool dedup keys: distinct Go types per literal kind so that, say,
// Int(0) and Float(0) and Bool(false) never collide in constIdx.
type intKey int64
type floatKey float64
type strKey string
type boolKey bool
