package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/lang/token"
)

func scanTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	var errs []string
	toks := ScanAll([]byte(src), 1, func(pos token.Pos, msg string) {
		errs = append(errs, msg)
	})
	require.Empty(t, errs)
	out := make([]token.Token, len(toks))
	for i, tv := range toks {
		out[i] = tv.Token
	}
	return out
}

func TestScanBasicTokens(t *testing.T) {
	toks := scanTokens(t, "a := 1 + 2\n")
	require.Equal(t, []token.Token{
		token.IDENT, token.COLONEQ, token.INT, token.PLUS, token.INT, token.NEWLINE, token.EOF,
	}, toks)
}

func TestScanOperators(t *testing.T) {
	toks := scanTokens(t, ":= :: : == != <= >= <=> -> += -= *= /=")
	require.Equal(t, []token.Token{
		token.COLONEQ, token.COLONCOLON, token.COLON, token.EQEQ, token.NEQ,
		token.LE, token.GE, token.ASSERTEQ, token.ARROW,
		token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ, token.EOF,
	}, toks)
}

func TestScanKeywords(t *testing.T) {
	toks := scanTokens(t, "if else for break continue ret fn blob print yield unreachable and or true false nil")
	require.Equal(t, []token.Token{
		token.IF, token.ELSE, token.FOR, token.BREAK, token.CONTINUE, token.RET,
		token.FN, token.BLOB, token.PRINT, token.YIELD, token.UNREACHABLE,
		token.AND, token.OR, token.TRUE, token.FALSE, token.NIL, token.EOF,
	}, toks)
}

func TestScanStringLiteral(t *testing.T) {
	var errs []string
	toks := ScanAll([]byte(`"hello\nworld"`), 1, func(_ token.Pos, msg string) { errs = append(errs, msg) })
	require.Empty(t, errs)
	require.Equal(t, token.STRING, toks[0].Token)
	require.Equal(t, "hello\nworld", toks[0].Value.Str)
}

func TestScanFloatAndInt(t *testing.T) {
	var errs []string
	toks := ScanAll([]byte("1 1.5 2e3"), 1, func(_ token.Pos, msg string) { errs = append(errs, msg) })
	require.Empty(t, errs)
	require.Equal(t, int64(1), toks[0].Value.Int)
	require.Equal(t, 1.5, toks[1].Value.Float)
	require.Equal(t, 2000.0, toks[2].Value.Float)
}

func TestScanComment(t *testing.T) {
	toks := scanTokens(t, "a := 1 # a comment\nb := 2")
	require.Equal(t, []token.Token{
		token.IDENT, token.COLONEQ, token.INT, token.NEWLINE,
		token.IDENT, token.COLONEQ, token.INT, token.EOF,
	}, toks)
}

func TestScanStartLineContinuesGlobalSpace(t *testing.T) {
	toks := ScanAll([]byte("a\nb"), 10, nil)
	require.Equal(t, 10, toks[0].Value.Pos.Line)
	require.Equal(t, 11, toks[2].Value.Pos.Line)
}

func TestIllegalCharacterReported(t *testing.T) {
	var errs []string
	toks := ScanAll([]byte("a $ b"), 1, func(_ token.Pos, msg string) { errs = append(errs, msg) })
	require.NotEmpty(t, errs)
	require.Equal(t, token.ILLEGAL, toks[1].Token)
}
