package runtimeconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/internal/runtimeconfig"
)

func TestLoadDefaultsToZero(t *testing.T) {
	t.Setenv("SYLT_MAX_STEPS", "")
	t.Setenv("SYLT_EXTERN_TIMEOUT_MS", "")

	cfg, err := runtimeconfig.Load()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxSteps)
	require.Equal(t, 0, cfg.ExternTimeoutMS)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("SYLT_MAX_STEPS", "1000")
	t.Setenv("SYLT_EXTERN_TIMEOUT_MS", "250")

	cfg, err := runtimeconfig.Load()
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.MaxSteps)
	require.Equal(t, 250, cfg.ExternTimeoutMS)
}

func TestLoadRejectsUnparseableOverride(t *testing.T) {
	t.Setenv("SYLT_MAX_STEPS", "not-a-number")

	_, err := runtimeconfig.Load()
	require.Error(t, err)
}
