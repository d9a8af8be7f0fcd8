package compiler

import (
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/value"
)

// parseType parses a type expression:
// int, float, bool, str, (T, ...), [T], fn T, T -> R, BlobName.
func (c *Compiler) parseType() value.Type {
	base := c.parseTypeAtom()
	if c.match(token.ARROW) {
		ret := c.parseType()
		params := []value.Type{base}
		if tup, ok := base.(value.TupleType); ok {
			params = tup.Elems
		}
		return value.FunctionType{Params: params, Ret: ret}
	}
	return base
}

func (c *Compiler) parseTypeAtom() value.Type {
	t := c.peek()
	switch t.Tok {
	case token.IDENT:
		switch t.Val.Str {
		case "int":
			c.advance()
			return value.IntType{}
		case "float":
			c.advance()
			return value.FloatType{}
		case "bool":
			c.advance()
			return value.BoolType{}
		case "str":
			c.advance()
			return value.StringType{}
		}
		c.advance()
		if def, ok := c.blobs.Get(t.Val.Str); ok {
			return value.InstanceType{Def: def}
		}
		c.errorf("unknown type %q", t.Val.Str)
		return value.UnknownType{}
	case token.FN:
		c.advance()
		ret := c.parseType()
		return value.FunctionType{Ret: ret}
	case token.LBRACK:
		c.advance()
		elem := c.parseType()
		c.expect(token.RBRACK)
		return value.ListType{Elem: elem}
	case token.LPAREN:
		c.advance()
		var elems []value.Type
		if !c.check(token.RPAREN) {
			elems = append(elems, c.parseType())
			for c.match(token.COMMA) {
				elems = append(elems, c.parseType())
			}
		}
		c.expect(token.RPAREN)
		if len(elems) == 1 {
			return elems[0]
		}
		return value.TupleType{Elems: elems}
	default:
		c.errorf("expected a type, found %s", t.Tok)
		return value.UnknownType{}
	}
}
