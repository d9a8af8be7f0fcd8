// Package runtimeconfig holds environment-derived defaults layered under
// the CLI's flags: these are defaults for settings too operational to
// belong on the Cmd struct itself. (The CLI's mainer.Parser runs with
// EnvVars off, so the Cmd flags themselves are not read from the
// environment.)
package runtimeconfig

import "github.com/caarlos0/env/v6"

// Config is parsed once at process start from SYLT_*-prefixed environment
// variables.
type Config struct {
	// MaxSteps caps the number of instructions a VM may execute, counted
	// from VM.Init across all of its Run calls, before it fails with
	// InvalidProgram, guarding an embedder
	// against a runaway or unintentionally infinite script. Zero (the
	// default) means unbounded.
	MaxSteps int `env:"SYLT_MAX_STEPS" envDefault:"0"`

	// ExternTimeoutMS bounds how long a single extern function call may run,
	// in milliseconds; zero means unbounded. Extern functions are always
	// synchronous, so this is advisory metadata an embedder's own
	// ExternFunc implementations may consult, not something the VM enforces
	// itself.
	ExternTimeoutMS int `env:"SYLT_EXTERN_TIMEOUT_MS" envDefault:"0"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
