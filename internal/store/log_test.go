package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/ir"
)

func TestAliases_PutAndOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutAlias(ctx, "@_ZN4core9panicking5panicE", "@core::panicking::panic"))
	require.NoError(t, s.PutAlias(ctx, "@_ZN3std7process4exitE", "@std::process::exit"))
	require.NoError(t, s.PutAlias(ctx, "@_ZN3std7process4exitE", "@exit"))

	got, err := s.Aliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"@_ZN4core9panicking5panicE": "@core::panicking::panic",
		"@_ZN3std7process4exitE":     "@exit",
	}, got)
}

func TestUnits_BeginAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	u, err := s.BeginUnit(ctx, "eval")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.Seq)

	id, err := uuid.Parse(u.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	got, err := s.ReadUnit(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.ReadUnit(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	u2, err := s.BeginUnit(ctx, "inspect")
	require.NoError(t, err)
	units, err := s.Units(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Unit{u, u2}, units)
}

func TestLowerings_WriteAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	u, err := s.BeginUnit(ctx, "scenario")
	require.NoError(t, err)

	add := NewLowering("add", "add.i32", []ir.Type{ir.Int32, ir.Int32})
	vec := NewLowering("add", "add.v4i32", []ir.Type{ir.MustVector(ir.Int32, 4), ir.MustVector(ir.Int32, 4)})

	seq, err := s.WriteLowering(ctx, u.ID, add)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
	_, err = s.WriteLowering(ctx, u.ID, vec)
	require.NoError(t, err)

	got, err := s.ReadLowerings(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "add.i32", got[0].Operation)
	assert.Equal(t, []string{"<4 x i32>", "<4 x i32>"}, got[1].Types)
	assert.Equal(t, ir.LoweringID("add", ir.Int32, ir.Int32), got[0].LoweringID)

	var raw string
	require.NoError(t, s.DB().QueryRow("SELECT types FROM lowerings WHERE seq = ?", got[1].Seq).Scan(&raw))
	assert.Equal(t, `["<4 x i32>","<4 x i32>"]`, raw)

	empty, err := s.ReadLowerings(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestLowerings_DuplicateSeqRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	u, err := s.BeginUnit(ctx, "eval")
	require.NoError(t, err)

	l := NewLowering("call", "call.@malloc", nil)
	l.Seq = 50
	_, err = s.WriteLowering(ctx, u.ID, l)
	require.NoError(t, err)
	_, err = s.WriteLowering(ctx, u.ID, l)
	assert.Error(t, err)
}

func TestNewLowering_NilTypeIsVoid(t *testing.T) {
	l := NewLowering("select", "select.struct", []ir.Type{ir.Int1, nil})
	assert.Equal(t, []string{"i1", "void"}, l.Types)
}

func TestCompareUnits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	a, err := s.BeginUnit(ctx, "before")
	require.NoError(t, err)
	b, err := s.BeginUnit(ctx, "after")
	require.NoError(t, err)

	i32 := []ir.Type{ir.Int32, ir.Int32}
	f64 := []ir.Type{ir.Double, ir.Double}
	for _, l := range []Lowering{
		NewLowering("add", "add.i32", i32),
		NewLowering("add", "add.i32", i32),
		NewLowering("mul", "mul.double", f64),
		NewLowering("sdiv", "sdiv.i32", i32),
	} {
		_, err := s.WriteLowering(ctx, a.ID, l)
		require.NoError(t, err)
	}
	for _, l := range []Lowering{
		NewLowering("add", "add.i32", i32),
		NewLowering("mul", "mul.double.fast", f64),
		NewLowering("udiv", "udiv.i32", i32),
	} {
		_, err := s.WriteLowering(ctx, b.ID, l)
		require.NoError(t, err)
	}

	drifts, err := s.CompareUnits(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, drifts, 3)
	assert.Equal(t, Drift{
		LoweringID: ir.LoweringID("mul", f64...),
		Operator:   "mul",
		Types:      []string{"double", "double"},
		Before:     "mul.double",
		After:      "mul.double.fast",
	}, drifts[0])
	assert.Equal(t, "sdiv.i32", drifts[1].Before)
	assert.Empty(t, drifts[1].After)
	assert.Empty(t, drifts[2].Before)
	assert.Equal(t, "udiv.i32", drifts[2].After)

	same, err := s.CompareUnits(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, same)
}

func TestOpen_ResumesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutAlias(ctx, "@a", "@b"))
	u, err := s.BeginUnit(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.Seq, last)

	u2, err := s.BeginUnit(ctx, "second")
	require.NoError(t, err)
	assert.Greater(t, u2.Seq, u.Seq)
}

func TestMarshalTypes(t *testing.T) {
	s, err := marshalTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	types, err := unmarshalTypes("")
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = unmarshalTypes("{")
	assert.Error(t, err)
}
