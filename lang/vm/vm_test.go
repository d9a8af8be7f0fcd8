package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/lang/compiler"
	"github.com/sylt-lang/sylt/lang/lexer"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/token"
	"github.com/sylt-lang/sylt/lang/vm"
)

func compileSrc(t *testing.T, src string, externs []string) *compiler.Prog {
	t.Helper()
	var lexErrs []string
	toks := lexer.ScanAll([]byte(src), 1, func(pos token.Pos, msg string) {
		lexErrs = append(lexErrs, msg)
	})
	require.Empty(t, lexErrs)

	compToks := make([]compiler.TokAndValue, len(toks))
	for i, tv := range toks {
		compToks[i] = compiler.TokAndValue{Tok: tv.Token, Val: tv.Value}
	}

	prog, errs := compiler.Compile(compToks, "test.sylt", externs)
	require.Empty(t, errs, "compile errors: %v", errs)
	return prog
}

// firstKind extracts the Kind of the first error out of either a single
// *sylterr.Error (a runtime failure) or a sylterr.List (accumulated
// typecheck failures), so tests don't need to care which phase caught it.
func firstKind(t *testing.T, err error) sylterr.Kind {
	t.Helper()
	switch e := err.(type) {
	case *sylterr.Error:
		return e.Kind
	case sylterr.List:
		require.NotEmpty(t, e)
		return e[0].Kind
	default:
		t.Fatalf("unexpected error type %T: %v", err, err)
		return 0
	}
}

func runProg(t *testing.T, prog *compiler.Prog, externFns []vm.ExternFunc) (string, error) {
	t.Helper()
	loaded := vm.Load(prog, externFns)

	m := vm.New()
	var out bytes.Buffer
	m.Out = &out

	if errs := m.Typecheck(loaded); len(errs) > 0 {
		return out.String(), errs
	}

	m.Init(loaded)
	_, err := m.Run()
	return out.String(), err
}

func TestArithmeticPrecedenceAndAssert(t *testing.T) {
	prog := compileSrc(t, "1 + 1 * 2 <=> 3\n", nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}

func TestAssertFailure(t *testing.T) {
	prog := compileSrc(t, "1 + 1 <=> 3\n", nil)
	_, err := runProg(t, prog, nil)
	require.Error(t, err)
	require.Equal(t, sylterr.AssertFailed, firstKind(t, err))
}

func TestUnaryBindsTighterThanFactor(t *testing.T) {
	prog := compileSrc(t, "-2 * 3 <=> -6\n", nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}

func TestImmutableAssignmentIsCompileError(t *testing.T) {
	toks := lexer.ScanAll([]byte("x :: 1\nx = 2\n"), 1, func(token.Pos, string) {})
	compToks := make([]compiler.TokAndValue, len(toks))
	for i, tv := range toks {
		compToks[i] = compiler.TokAndValue{Tok: tv.Token, Val: tv.Value}
	}
	_, errs := compiler.Compile(compToks, "test.sylt", nil)
	require.NotEmpty(t, errs)
}

func TestUnreachable(t *testing.T) {
	prog := compileSrc(t, "unreachable\n", nil)
	_, err := runProg(t, prog, nil)
	require.Error(t, err)
	require.Equal(t, sylterr.Unreachable, firstKind(t, err))
}

func TestFactorialRecursion(t *testing.T) {
	src := `
fact := fn(n: int) -> int {
	if n <= 1 {
		ret 1
	}
	ret n * fact(n - 1)
}
fact(5) <=> 120
`
	prog := compileSrc(t, src, nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}

func TestClosureSharedUpvalueIdentity(t *testing.T) {
	src := `
make_counter := fn() -> fn int {
	count := 0
	ret fn() -> int {
		count = count + 1
		ret count
	}
}
counter := make_counter()
counter()
counter() <=> 2
`
	prog := compileSrc(t, src, nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}

// Typecheck visits every block exactly once, unconditionally, before Run
// ever gets a chance to — so an uncallable call at the top level is always
// caught during Typecheck (as TypeError), never surviving to become a
// RuntimeTypeError out of Run.
func TestCallingUncallableValueIsTypeError(t *testing.T) {
	src := `
x := 1
x()
`
	prog := compileSrc(t, src, nil)
	_, err := runProg(t, prog, nil)
	require.Error(t, err)
	require.Equal(t, sylterr.TypeError, firstKind(t, err))
}

func TestMaxStepsAbortsRunawayLoop(t *testing.T) {
	prog := compileSrc(t, "for i := 0, true, i = i + 1 {}\n", nil)
	loaded := vm.Load(prog, nil)

	m := vm.New()
	var out bytes.Buffer
	m.Out = &out
	m.MaxSteps = 100

	require.Empty(t, m.Typecheck(loaded))

	m.Init(loaded)
	_, err := m.Run()
	require.Error(t, err)
	require.Equal(t, sylterr.InvalidProgram, firstKind(t, err))
}

func TestTupleDestructuringAssignmentSwaps(t *testing.T) {
	src := `
a := 1
b := 2
(a, b) = (b, a)
a <=> 2
b <=> 1
`
	prog := compileSrc(t, src, nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}

func TestForLoopBreakAndContinue(t *testing.T) {
	src := `
total := 0
for i := 0, i < 10, i = i + 1 {
	if i == 5 {
		break
	}
	if i == 2 {
		continue
	}
	total = total + i
}
total <=> 8
`
	prog := compileSrc(t, src, nil)
	_, err := runProg(t, prog, nil)
	require.NoError(t, err)
}
