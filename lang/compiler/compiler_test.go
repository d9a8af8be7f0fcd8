package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/lang/lexer"
	"github.com/sylt-lang/sylt/lang/token"
)

func tokens(t *testing.T, src string) []TokAndValue {
	t.Helper()
	var lexErrs []string
	toks := lexer.ScanAll([]byte(src), 1, func(pos token.Pos, msg string) {
		lexErrs = append(lexErrs, msg)
	})
	require.Empty(t, lexErrs)

	out := make([]TokAndValue, len(toks))
	for i, tv := range toks {
		out[i] = TokAndValue{Tok: tv.Token, Val: tv.Value}
	}
	return out
}

func TestCompileDeterministic(t *testing.T) {
	src := "x := 1 + 2\nprint x\n"
	p1, errs1 := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs1)
	p2, errs2 := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs2)

	require.Equal(t, Disassemble(p1), Disassemble(p2))
}

func TestCompilePropagatesSyntaxErrors(t *testing.T) {
	_, errs := Compile(tokens(t, "x := \n"), "a.sylt", nil)
	require.NotEmpty(t, errs)
}

func TestBlobFieldDuplicateIsError(t *testing.T) {
	src := "blob Point {\n\tx: int\n\tx: int\n}\n"
	_, errs := Compile(tokens(t, src), "a.sylt", nil)
	require.NotEmpty(t, errs)
}

func TestBlobConstructionCompiles(t *testing.T) {
	src := "blob Point {\n\tx: int\n\ty: int\n}\np := Point()\n"
	prog, errs := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs)
	require.Len(t, prog.Blobs, 1)
	require.Equal(t, "Point", prog.Blobs[0].Name)
}

func TestUnknownExternIsUndefinedName(t *testing.T) {
	_, errs := Compile(tokens(t, "nope()\n"), "a.sylt", nil)
	require.NotEmpty(t, errs)
}

func TestKnownExternResolves(t *testing.T) {
	src := "len\n"
	prog, errs := Compile(tokens(t, src), "a.sylt", []string{"len"})
	require.Empty(t, errs)
	require.Contains(t, prog.Externs, "len")
}

func TestTupleDestructuringAssignmentCompiles(t *testing.T) {
	src := "a := 1\nb := 2\n(a, b) = (b, a)\n"
	_, errs := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs)
}

// A bare parenthesized tuple expression statement must still compile once
// tryParseTupleAssignTargets gives up and restores: no `=` follows `(a, b)`
// here, so this exercises the rollback path, not the destructuring one.
func TestBareTupleExpressionStatementStillCompiles(t *testing.T) {
	src := "a := 1\nb := 2\n(a, b)\n"
	_, errs := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs)
}

func TestDisassembleListsEveryBlock(t *testing.T) {
	src := "f := fn() -> int {\n\tret 1\n}\n"
	prog, errs := Compile(tokens(t, src), "a.sylt", nil)
	require.Empty(t, errs)
	out := Disassemble(prog)
	require.True(t, strings.Contains(out, "block 0"))
	require.True(t, strings.Contains(out, "block 1"))
}
