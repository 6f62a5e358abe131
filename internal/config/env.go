package config

import (
	"github.com/xyproto/env/v2"
)

// Environment variable names read by ApplyEnv.
const (
	EnvLogLevel    = "LOWERC_LOG_LEVEL"
	EnvLogFormat   = "LOWERC_LOG_FORMAT"
	EnvStore       = "LOWERC_STORE"
	EnvPointerSize = "LOWERC_POINTER_SIZE"
)

// Environment is the subset of github.com/xyproto/env/v2 used for
// overrides.
type Environment interface {
	Has(name string) bool
	Str(name string, def ...string) string
	Int(name string, def int) int
}

// processEnv reads the process environment.
type processEnv struct{}

func (processEnv) Has(name string) bool                  { return env.Has(name) }
func (processEnv) Str(name string, def ...string) string { return env.Str(name, def...) }
func (processEnv) Int(name string, def int) int          { return env.Int(name, def) }

// ProcessEnv returns the process environment.
func ProcessEnv() Environment { return processEnv{} }

// ApplyEnv overrides cfg with the LOWERC_* variables that are set.
func ApplyEnv(cfg *Config, e Environment) {
	if e.Has(EnvLogLevel) {
		cfg.Log.Level = e.Str(EnvLogLevel, cfg.Log.Level)
	}
	if e.Has(EnvLogFormat) {
		cfg.Log.Format = e.Str(EnvLogFormat, cfg.Log.Format)
	}
	if e.Has(EnvStore) {
		cfg.Store.Path = e.Str(EnvStore)
	}
	if e.Has(EnvPointerSize) {
		// Unparseable values fall back to zero and fail validation.
		cfg.Target.PointerSize = e.Int(EnvPointerSize, 0)
	}
}
