package sylt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/externs"
	"github.com/sylt-lang/sylt/lang/sylterr"
)

func TestRunStringSucceedsOnPassingAssertions(t *testing.T) {
	err := RunString([]byte("1 + 1 * 2 <=> 3\n"), "test.sylt", Flags{}, externs.Default())
	require.NoError(t, err)
}

func TestRunStringReportsAssertFailure(t *testing.T) {
	err := RunString([]byte("1 + 1 <=> 3\n"), "test.sylt", Flags{}, externs.Default())
	require.Error(t, err)
}

func TestRunStringReportsCompileErrors(t *testing.T) {
	err := RunString([]byte("x :: 1\nx = 2\n"), "test.sylt", Flags{}, nil)
	require.Error(t, err)
}

func TestRunFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.sylt")
	require.NoError(t, os.WriteFile(path, []byte("len(\"abc\") <=> 3\n"), 0o644))

	err := RunFile(path, Flags{}, externs.Default())
	require.NoError(t, err)
}

func TestRunFileMissingPathIsNoFileGiven(t *testing.T) {
	err := RunFile("", Flags{}, nil)
	require.Error(t, err)
	var se *sylterr.Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, sylterr.NoFileGiven, se.Kind)
}

func TestCompileFileReturnsYieldingVM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.sylt")
	require.NoError(t, os.WriteFile(path, []byte("yield\nyield\n"), 0o644))

	m, errs := CompileFile(path, Flags{}, nil)
	require.Empty(t, errs)
	require.NotNil(t, m)
}
