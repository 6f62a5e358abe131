package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lowercore/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the complete lowerc configuration.
type Config struct {
	Target   Target   `yaml:"target" toml:"target" json:"target"`
	Log      Log      `yaml:"log" toml:"log" json:"log"`
	Store    Store    `yaml:"store" toml:"store" json:"store"`
	Registry Registry `yaml:"registry" toml:"registry" json:"registry"`
}

// Target describes the machine operations are lowered for.
type Target struct {
	PointerSize int `yaml:"pointer_size" toml:"pointer_size" json:"pointer_size"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Store locates the alias store. An empty path disables persistence.
type Store struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

// Registry adjusts the default intrinsic registry.
type Registry struct {
	// Disabled names entries that are not registered.
	Disabled []string `yaml:"disabled" toml:"disabled" json:"disabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Target: Target{PointerSize: 8},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Layout returns the data layout for the target.
func (t Target) Layout() ir.DataLayout {
	dl := ir.DefaultLayout
	dl.PointerSize = int64(t.PointerSize)
	return dl
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// Handler builds the configured handler writing to w.
func (l Log) Handler(w io.Writer) (slog.Handler, error) {
	lvl, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}

// Load reads path, applies environment overrides from env and validates
// the result. An empty path yields the defaults plus overrides.
func Load(path string, env Environment) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(cfg, path, data); err != nil {
			return nil, err
		}
	}
	if env != nil {
		ApplyEnv(cfg, env)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}
	return cfg, nil
}

func decode(cfg *Config, path string, data []byte) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".cue":
		return decodeCUE(cfg, path, data)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	return nil
}

// decodeCUE unifies data with the #Config schema and decodes the result.
func decodeCUE(cfg *Config, path string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return formatCUEError(err)
	}
	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	if err := v.Decode(cfg); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// CUEError is a CUE failure with its source position.
type CUEError struct {
	Message string
	Pos     token.Pos
}

func (e *CUEError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CUEError{Message: first.Error(), Pos: positions[0]}
	}
	return &CUEError{Message: first.Error()}
}
