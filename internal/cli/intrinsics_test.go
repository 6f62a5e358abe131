package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/testutil"
)

func TestIntrinsicsList_Golden(t *testing.T) {
	out, _, err := execute(t, nil, "intrinsics", "list", "--prefix", "@llvm.ctpop")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "intrinsics_list_ctpop", []byte(out))
}

func TestIntrinsicsList_PrefixIsNormalized(t *testing.T) {
	withAt, _, err := execute(t, nil, "intrinsics", "list", "--prefix", "@llvm.ctpop")
	require.NoError(t, err)
	bare, _, err := execute(t, nil, "intrinsics", "list", "--prefix", "llvm.ctpop")
	require.NoError(t, err)
	assert.Equal(t, withAt, bare)
}

func TestIntrinsicsList_JSON(t *testing.T) {
	out, _, err := execute(t, nil, "--format", "json", "intrinsics", "list", "--prefix", "@llvm.cttz")
	require.NoError(t, err)

	var infos []IntrinsicInfo
	assert.Equal(t, "ok", decodeData(t, out, &infos))
	require.Len(t, infos, 4)
	assert.Equal(t, "@llvm.cttz.i16", infos[0].Name)
	for _, info := range infos {
		assert.True(t, info.ForceInline, info.Name)
		assert.False(t, info.ForceSplit, info.Name)
	}
}

func TestIntrinsicsList_Disabled(t *testing.T) {
	cfg := writeFile(t, "lowerc.yaml", "registry:\n  disabled: [\"@llvm.ctpop.i8\", \"llvm.ctpop.i16\"]\n")

	out, _, err := execute(t, nil, "--config", cfg, "intrinsics", "list", "--prefix", "@llvm.ctpop")
	require.NoError(t, err)
	assert.Equal(t, "@llvm.ctpop.i32 [inline]\n@llvm.ctpop.i64 [inline]\n", out)
}

func TestIntrinsicsList_Split(t *testing.T) {
	out, _, err := execute(t, nil, "intrinsics", "list", "--prefix", "polyglot_")
	require.NoError(t, err)
	assert.Equal(t,
		"@polyglot_export [inline] [split]\n"+
			"@polyglot_import [inline] [split]\n"+
			"@polyglot_is_value [inline] [split]\n",
		out)
}

func TestIntrinsicsList_NoMatch(t *testing.T) {
	out, _, err := execute(t, nil, "intrinsics", "list", "--prefix", "@nothing.here")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIntrinsicsResolve(t *testing.T) {
	out, _, err := execute(t, nil, "intrinsics", "resolve", "llvm.ctlz.i32", "_ZN4core9panicking5panicE")
	require.NoError(t, err)
	assert.Equal(t,
		"@llvm.ctlz.i32 -> @llvm.ctlz.i32\n"+
			"@_ZN4core9panicking5panicE -> @core::panicking::panic\n",
		out)
}

func TestIntrinsicsResolve_Unsupported(t *testing.T) {
	out, _, err := execute(t, nil, "intrinsics", "resolve", "@malloc", "@mystery")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 names unsupported")
	assert.Equal(t, "@malloc -> @malloc\n@mystery -> unsupported\n", out)
}

func TestIntrinsicsResolve_JSON(t *testing.T) {
	out, _, err := execute(t, nil, "--format", "json", "intrinsics", "resolve", "@mystery")
	require.Error(t, err)

	var results []Resolution
	assert.Equal(t, "error", decodeData(t, out, &results))
	assert.Equal(t, []Resolution{{Name: "@mystery"}}, results)
}

func TestIntrinsicsResolve_MissingArgs(t *testing.T) {
	_, _, err := execute(t, nil, "intrinsics", "resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestIntrinsicsResolve_PersistsAliases(t *testing.T) {
	db := tempStore(t)

	_, _, err := execute(t, nil, "--store", db, "intrinsics", "resolve", "_ZN3std7process4exitE")
	require.NoError(t, err)

	out, _, err := execute(t, nil, "--store", db, "history", "aliases")
	require.NoError(t, err)
	assert.Equal(t, "@_ZN3std7process4exitE -> @std::process::exit\n", out)

	// The store can also be named through the environment.
	out, _, err = execute(t, testutil.MapEnv{"LOWERC_STORE": db}, "intrinsics", "resolve", "_ZN3std7process4exitE")
	require.NoError(t, err)
	assert.Equal(t, "@_ZN3std7process4exitE -> @std::process::exit\n", out)
}

func TestIntrinsicsResolve_VerbosePreloadLog(t *testing.T) {
	db := tempStore(t)
	_, _, err := execute(t, nil, "--store", db, "intrinsics", "resolve", "_ZN4core9panicking5panicE")
	require.NoError(t, err)

	_, stderr, err := execute(t, nil, "--store", db, "-v", "intrinsics", "resolve", "_ZN4core9panicking5panicE")
	require.NoError(t, err)
	assert.Contains(t, stderr, "preloaded aliases")
	assert.Contains(t, stderr, "count=1")
}
