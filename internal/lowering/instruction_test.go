package lowering

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
	"github.com/roach88/lowercore/internal/testutil"
)

func TestLowerInstruction_ReportsRecords(t *testing.T) {
	var records []Record
	var logs bytes.Buffer
	lw := newCallLowerer(t,
		WithObserver(func(r Record) { records = append(records, r) }),
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)

	insts := []Instruction{
		&BinaryInst{Op: ir.Add, Type: ir.Int32, L: testutil.Lit(ir.I32(7)), R: testutil.Lit(ir.I32(5))},
		&CastInst{Kind: ir.SignExtend, From: ir.Int8, To: ir.Int32, In: testutil.Lit(ir.I8(-1))},
		&CompareInst{Op: ir.UnsignedLT, Type: ir.Int32, L: testutil.Lit(ir.I32(-1)), R: testutil.Lit(ir.I32(0))},
		&CallInst{
			Callee: "@llvm.ctlz.i32",
			Sig:    ir.NewFunction(ir.Int32, ir.Int32, ir.Int1),
			Args:   []engine.Operation{testutil.Lit(ir.I32(1)), testutil.Lit(ir.I1(false))},
		},
	}
	want := []ir.Value{ir.I32(12), ir.I32(-1), ir.I1(false), ir.I32(31)}

	f := testutil.NewFrame(t)
	for i, inst := range insts {
		op, err := lw.LowerInstruction(inst)
		require.NoError(t, err)
		assert.Equal(t, want[i], testutil.Exec(t, f, op))
	}

	require.Len(t, records, 4)
	assert.Equal(t, "add", records[0].Operator)
	assert.Equal(t, "add.i32", records[0].Operation)
	assert.Equal(t, "sext", records[1].Operator)
	assert.Len(t, records[1].Types, 2)
	assert.Equal(t, "call.@llvm.ctlz.i32", records[3].Operation)
	assert.Contains(t, logs.String(), "operation=add.i32")
}

func TestLowerInstruction_FailuresAreNotRecorded(t *testing.T) {
	var records []Record
	lw := New(ir.DefaultLayout, nil, WithObserver(func(r Record) { records = append(records, r) }))

	_, err := lw.LowerInstruction(&BinaryInst{Op: ir.Add, Type: ir.Ptr, L: testutil.Untouchable(t, "l"), R: testutil.Untouchable(t, "r")})
	assert.True(t, IsTypeSystemViolation(err))

	_, err = lw.LowerInstruction(nil)
	assert.True(t, IsTypeSystemViolation(err))
	assert.Empty(t, records)
}

func TestLowerInstruction_MemoryRoundTrip(t *testing.T) {
	lw := newTestLowerer()
	f := testutil.NewFrame(t)

	alloca, err := lw.LowerInstruction(&AllocaInst{Type: ir.Double})
	require.NoError(t, err)
	slot := testutil.Lit(testutil.Exec(t, f, alloca))

	store, err := lw.LowerInstruction(&StoreInst{Type: ir.Double, Addr: slot, Value: testutil.Lit(ir.F64(6.5))})
	require.NoError(t, err)
	testutil.Exec(t, f, store)

	load, err := lw.LowerInstruction(&LoadInst{Type: ir.Double, Addr: slot})
	require.NoError(t, err)
	assert.Equal(t, ir.F64(6.5), testutil.Exec(t, f, load))
}

func TestLoweringError_Message(t *testing.T) {
	err := violationf("add", []ir.Type{ir.Ptr, nil}, "no primitive")
	assert.Equal(t, "TYPE_SYSTEM_VIOLATION: add [ptr, void]: no primitive", err.Error())
	assert.False(t, IsUnsupportedIntrinsic(err))
}
