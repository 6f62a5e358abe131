package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/testutil"
)

type mapEnv = testutil.MapEnv

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(8), cfg.Target.Layout().PointerSize)
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "lowerc.yaml", `
target:
  pointer_size: 4
log:
  level: debug
registry:
  disabled: [malloc, "@llvm.trap"]
`},
		{"toml", "lowerc.toml", `
[target]
pointer_size = 4

[log]
level = "debug"

[registry]
disabled = ["malloc", "@llvm.trap"]
`},
		{"cue", "lowerc.cue", `
target: pointer_size: 4
log: level: "debug"
registry: disabled: ["malloc", "@llvm.trap"]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content), nil)
			require.NoError(t, err)

			assert.Equal(t, 4, cfg.Target.PointerSize)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format, "unset fields keep defaults")
			assert.Equal(t, []string{"malloc", "@llvm.trap"}, cfg.Registry.Disabled)
		})
	}
}

func TestLoad_UnknownFieldsRejected(t *testing.T) {
	for _, f := range []struct{ file, content string }{
		{"bad.yaml", "target:\n  pointer_width: 8\n"},
		{"bad.toml", "[target]\npointer_width = 8\n"},
		{"bad.cue", "target: pointer_width: 8\n"},
	} {
		_, err := Load(writeFile(t, f.file, f.content), nil)
		assert.Error(t, err, f.file)
	}
}

func TestLoad_CUESchemaViolationHasPosition(t *testing.T) {
	path := writeFile(t, "lowerc.cue", "target: pointer_size: 2\n")
	_, err := Load(path, nil)
	var ce *CUEError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "pointer_size")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "lowerc.json", "{}"), nil)
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	path := writeFile(t, "lowerc.yaml", "log:\n  level: warn\nstore:\n  path: from-file.db\n")
	cfg, err := Load(path, mapEnv{
		EnvLogLevel:    "error",
		EnvLogFormat:   "json",
		EnvStore:       "from-env.db",
		EnvPointerSize: "4",
	})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "from-env.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Target.PointerSize)
}

func TestApplyEnv_UnsetKeepsFile(t *testing.T) {
	path := writeFile(t, "lowerc.yaml", "log:\n  level: warn\n")
	cfg, err := Load(path, mapEnv{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Target:   Target{PointerSize: 2},
		Log:      Log{Level: "loud", Format: "xml"},
		Registry: Registry{Disabled: []string{"malloc", ""}},
	}
	errs := cfg.Validate()
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{ErrPointerSize, ErrLogLevel, ErrLogFormat, ErrEmptyName}, codes)
	assert.Equal(t, "[E203] registry.disabled[1]: empty intrinsic name", errs[3].Error())

	_, err := Load("", mapEnv{EnvPointerSize: "sixteen"})
	assert.ErrorContains(t, err, ErrPointerSize)
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := Log{Level: "warn", Format: "json"}.Handler(&buf)
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = Log{Level: "nope"}.Handler(&buf)
	assert.Error(t, err)
}
