package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  Type
		in   string
		want Value
	}{
		{Int1, "true", I1(true)},
		{Int1, "0", I1(false)},
		{Int8, "255", I8(-1)},
		{Int8, "-1", I8(-1)},
		{Int32, "0x10", I32(16)},
		{Int32, "-0x10", I32(-16)},
		{Int64, "9223372036854775807", I64(math.MaxInt64)},
		{Float, "1.5", F32(1.5)},
		{Double, "-0.25", F64(-0.25)},
		{Double, "-inf", F64(math.Inf(-1))},
		{Ptr, "0x1000", Address(0x1000)},
		{NewPointer(NewFunction(Void)), "16", FunctionAddress(16)},
		{MustVector(Int32, 2), "<1, -2>", Vector{I32(1), I32(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValue_WideAndExtended(t *testing.T) {
	v, err := ParseValue(NewInt(24), "-1")
	require.NoError(t, err)
	assert.Equal(t, "-1", FormatValue(v))

	v, err = ParseValue(Double, "nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(v.(F64))))

	v, err = ParseValue(FP80, "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.(F80).Float64())
}

func TestParseValue_Errors(t *testing.T) {
	for _, tc := range []struct {
		typ Type
		in  string
	}{
		{Int32, ""},
		{Int32, "1.5"},
		{Int32, "0x"},
		{Double, "abc"},
		{Ptr, "-1"},
		{MustVector(Int32, 2), "1, 2"},
		{MustVector(Int32, 2), "<1>"},
		{NewArray(Int32, 2), "[1, 2]"},
		{Void, "0"},
	} {
		_, err := ParseValue(tc.typ, tc.in)
		assert.Error(t, err, "%s %q", tc.typ, tc.in)
	}
}

func TestParseValue_RoundTripsFormat(t *testing.T) {
	for _, v := range []Value{I32(-7), I1(true), F64(0.1), Vector{I8(1), I8(-128)}} {
		var typ Type
		switch v.(type) {
		case I32:
			typ = Int32
		case I1:
			typ = Int1
		case F64:
			typ = Double
		case Vector:
			typ = MustVector(Int8, 2)
		}
		got, err := ParseValue(typ, FormatValue(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
