package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsToRun(t *testing.T) {
	c := &Cmd{}
	c.SetArgs([]string{"main.sylt"})
	require.NoError(t, c.Validate())
	require.Equal(t, "main.sylt", c.File)
	require.NotNil(t, c.cmdFn)
}

func TestValidateRecognizesExplicitSubcommand(t *testing.T) {
	c := &Cmd{}
	c.SetArgs([]string{"tokenize", "main.sylt"})
	require.NoError(t, c.Validate())
	require.Equal(t, "main.sylt", c.File)
	require.NotNil(t, c.cmdFn)
}

func TestValidateRejectsMissingPath(t *testing.T) {
	c := &Cmd{}
	c.SetArgs(nil)
	require.Error(t, c.Validate())
}

func TestValidateRejectsSubcommandWithNoPath(t *testing.T) {
	c := &Cmd{}
	c.SetArgs([]string{"compile"})
	require.Error(t, c.Validate())
}

func TestHelpAndVersionSkipValidation(t *testing.T) {
	c := &Cmd{Help: true}
	require.NoError(t, c.Validate())
	c = &Cmd{Version: true}
	require.NoError(t, c.Validate())
}
