package lowering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/ir"
	"github.com/roach88/lowercore/internal/testutil"
)

func TestCompare_SignedVersusUnsigned(t *testing.T) {
	tests := []struct {
		typ      ir.Type
		minusOne ir.Value
		zero     ir.Value
		name     string
	}{
		{ir.Int32, ir.I32(-1), ir.I32(0), "slt.i32"},
		{ir.Int64, ir.I64(-1), ir.I64(0), "slt.i64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lw := newTestLowerer()
			minusOne, zero := testutil.Lit(tt.minusOne), testutil.Lit(tt.zero)

			slt, err := lw.Compare(ir.SignedLT, tt.typ, minusOne, zero)
			require.NoError(t, err)
			ult, err := lw.Compare(ir.UnsignedLT, tt.typ, minusOne, zero)
			require.NoError(t, err)

			f := testutil.NewFrame(t)
			assert.Equal(t, ir.I1(true), testutil.Exec(t, f, slt))
			assert.Equal(t, ir.I1(false), testutil.Exec(t, f, ult), "-1 is the unsigned maximum")
			assert.Equal(t, tt.name, slt.Name())
		})
	}
}

func TestCompare_IntegerPredicates(t *testing.T) {
	tests := []struct {
		op   ir.ComparisonOp
		typ  ir.Type
		l, r ir.Value
		want ir.I1
	}{
		{ir.Equal, ir.Int8, ir.I8(3), ir.I8(3), true},
		{ir.NotEqual, ir.Int16, ir.I16(3), ir.I16(3), false},
		{ir.SignedGE, ir.Int64, ir.I64(-5), ir.I64(-5), true},
		{ir.UnsignedGT, ir.Int8, ir.I8(-128), ir.I8(127), true},
		{ir.SignedGT, ir.Int8, ir.I8(-128), ir.I8(127), false},
		{ir.UnsignedLE, ir.Int64, ir.I64(0), ir.I64(-1), true},
		{ir.SignedLT, ir.Int1, ir.I1(true), ir.I1(false), true},
		{ir.UnsignedLT, ir.Int1, ir.I1(true), ir.I1(false), false},
		{ir.Equal, ir.Ptr, ir.Address(64), ir.Address(64), true},
		{ir.UnsignedLT, ir.Ptr, ir.Address(8), ir.Address(64), true},
	}

	lw := newTestLowerer()
	for _, tt := range tests {
		t.Run(tt.op.String()+"."+tt.typ.String(), func(t *testing.T) {
			op, err := lw.Compare(tt.op, tt.typ, testutil.Lit(tt.l), testutil.Lit(tt.r))
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.Exec(t, testutil.NewFrame(t), op))
		})
	}
}

// Every ordered predicate is false and every unordered one true when an
// operand is NaN, at each float precision.
func TestCompare_NaNIsUnordered(t *testing.T) {
	ordered := []ir.ComparisonOp{
		ir.OrderedEQ, ir.OrderedGT, ir.OrderedGE, ir.OrderedLT, ir.OrderedLE, ir.OrderedNE, ir.Ordered,
	}
	unordered := []ir.ComparisonOp{
		ir.UnorderedEQ, ir.UnorderedGT, ir.UnorderedGE, ir.UnorderedLT, ir.UnorderedLE, ir.UnorderedNE, ir.Unordered,
	}
	precisions := []struct {
		typ      ir.Type
		nan, one ir.Value
	}{
		{ir.Float, ir.F32(float32(math.NaN())), ir.F32(1)},
		{ir.Double, ir.F64(math.NaN()), ir.F64(1)},
		{ir.FP80, ir.F80NaN(), ir.F80FromFloat64(1)},
	}

	lw := newTestLowerer()
	for _, p := range precisions {
		t.Run(p.typ.String(), func(t *testing.T) {
			f := testutil.NewFrame(t)
			check := func(op ir.ComparisonOp, want ir.I1) {
				for _, pair := range [][2]ir.Value{{p.nan, p.one}, {p.one, p.nan}, {p.nan, p.nan}} {
					sel, err := lw.Compare(op, p.typ, testutil.Lit(pair[0]), testutil.Lit(pair[1]))
					require.NoError(t, err)
					assert.Equal(t, want, testutil.Exec(t, f, sel), "%s", sel.Name())
				}
			}
			for _, op := range ordered {
				check(op, false)
			}
			for _, op := range unordered {
				check(op, true)
			}
		})
	}
}

func TestCompare_FloatOrdering(t *testing.T) {
	lw := newTestLowerer()
	tests := []struct {
		op   ir.ComparisonOp
		l, r float64
		want ir.I1
	}{
		{ir.OrderedLT, 1, 2, true},
		{ir.OrderedNE, 1, 1, false},
		{ir.UnorderedNE, 1, 2, true},
		{ir.OrderedEQ, 0, math.Copysign(0, -1), true},
		{ir.UnorderedGE, 3, 2, true},
	}
	for _, tt := range tests {
		for _, typ := range []ir.Type{ir.Double, ir.FP80} {
			l, r := ir.Value(ir.F64(tt.l)), ir.Value(ir.F64(tt.r))
			if typ == ir.FP80 {
				l, r = ir.F80FromFloat64(tt.l), ir.F80FromFloat64(tt.r)
			}
			op, err := lw.Compare(tt.op, typ, testutil.Lit(l), testutil.Lit(r))
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.Exec(t, testutil.NewFrame(t), op), "%s", op.Name())
		}
	}
}

func TestCompare_ConstantPredicatesSkipOperands(t *testing.T) {
	lw := newTestLowerer()
	f := testutil.NewFrame(t)

	never, err := lw.Compare(ir.AlwaysFalse, ir.Double, testutil.Untouchable(t, "l"), testutil.Untouchable(t, "r"))
	require.NoError(t, err)
	assert.Equal(t, ir.I1(false), testutil.Exec(t, f, never))

	always, err := lw.Compare(ir.AlwaysTrue, ir.Float, testutil.Untouchable(t, "l"), testutil.Untouchable(t, "r"))
	require.NoError(t, err)
	assert.Equal(t, ir.I1(true), testutil.Exec(t, f, always))

	vec, err := lw.Compare(ir.AlwaysTrue, ir.MustVector(ir.Double, 2), testutil.Untouchable(t, "l"), testutil.Untouchable(t, "r"))
	require.NoError(t, err)
	assert.Equal(t, ir.Vector{ir.I1(true), ir.I1(true)}, testutil.Exec(t, f, vec))
}

func TestCompare_Vector(t *testing.T) {
	lw := newTestLowerer()
	op, err := lw.Compare(ir.SignedLT, ir.MustVector(ir.Int32, 3),
		testutil.Lit(ir.Vector{ir.I32(1), ir.I32(5), ir.I32(-3)}),
		testutil.Lit(ir.Vector{ir.I32(2), ir.I32(5), ir.I32(0)}))
	require.NoError(t, err)
	assert.Equal(t, ir.Vector{ir.I1(true), ir.I1(false), ir.I1(true)},
		testutil.Exec(t, testutil.NewFrame(t), op))

	op, err = lw.Compare(ir.OrderedGT, ir.MustVector(ir.Float, 2),
		testutil.Lit(ir.Vector{ir.F32(2), ir.F32(float32(math.NaN()))}),
		testutil.Lit(ir.Vector{ir.F32(1), ir.F32(1)}))
	require.NoError(t, err)
	assert.Equal(t, ir.Vector{ir.I1(true), ir.I1(false)},
		testutil.Exec(t, testutil.NewFrame(t), op))
}

func TestCompare_Violations(t *testing.T) {
	tests := []struct {
		name string
		op   ir.ComparisonOp
		typ  ir.Type
	}{
		{"fcmp predicate on integer", ir.OrderedEQ, ir.Int32},
		{"icmp predicate on double", ir.SignedLT, ir.Double},
		{"constant predicate on integer", ir.AlwaysTrue, ir.Int64},
		{"i8 vector", ir.Equal, ir.MustVector(ir.Int8, 4)},
		{"i64 vector", ir.Equal, ir.MustVector(ir.Int64, 2)},
		{"pointer vector", ir.Equal, ir.MustVector(ir.Ptr, 2)},
		{"struct", ir.Equal, ir.NewStruct(false, ir.Int32)},
		{"void", ir.Equal, ir.Void},
	}

	lw := newTestLowerer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lw.Compare(tt.op, tt.typ, testutil.Untouchable(t, "l"), testutil.Untouchable(t, "r"))
			require.Error(t, err)
			assert.True(t, IsTypeSystemViolation(err))
		})
	}
}
