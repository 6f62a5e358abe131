package ir

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestF80Float64RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 1.5, 0.1, math.MaxFloat64, math.SmallestNonzeroFloat64, -123456.789} {
		f := F80FromFloat64(v)
		assert.Equal(t, v, f.Float64(), "value %g", v)
	}
}

func TestF80Bits(t *testing.T) {
	se, mant := F80FromFloat64(1).Bits()
	assert.Equal(t, uint16(0x3FFF), se)
	assert.Equal(t, uint64(1)<<63, mant)

	se, _ = F80FromFloat64(-2).Bits()
	assert.Equal(t, uint16(0xC000), se)
}

func TestF80Specials(t *testing.T) {
	assert.True(t, F80FromFloat64(math.NaN()).IsNaN())
	assert.True(t, F80FromFloat64(math.Inf(1)).IsInf())
	assert.True(t, math.IsInf(F80Inf(true).Float64(), -1))
	assert.True(t, math.IsNaN(F80NaN().Float64()))
	assert.True(t, F80{}.IsZero())

	// A tiny denormal is below float64 range.
	assert.Equal(t, 0.0, F80FromBits(0, 1).Float64())
}

func TestF80Arithmetic(t *testing.T) {
	one := F80FromFloat64(1)
	two := F80FromFloat64(2)

	assert.Equal(t, 3.0, one.Add(two).Float64())
	assert.Equal(t, -1.0, one.Sub(two).Float64())
	assert.Equal(t, 2.0, one.Mul(two).Float64())
	assert.Equal(t, 0.5, one.Quo(two).Float64())

	assert.True(t, math.IsInf(one.Quo(F80{}).Float64(), 1))
	assert.True(t, F80{}.Quo(F80{}).IsNaN())
	assert.True(t, F80Inf(false).Add(F80Inf(true)).IsNaN())
	assert.True(t, F80Inf(false).Mul(F80{}).IsNaN())
	assert.True(t, F80NaN().Add(one).IsNaN())
}

func TestF80ExtraPrecision(t *testing.T) {
	// 2^60 + 1 is exact in 64 significant bits but not in 53.
	x := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 60), big.NewInt(1))
	f := F80FromInt(x)
	back, ok := f.Int()
	require.True(t, ok)
	assert.Equal(t, 0, back.Cmp(x))
}

func TestF80Rem(t *testing.T) {
	assert.Equal(t, 1.5, F80FromFloat64(7.5).Rem(F80FromFloat64(2)).Float64())
	assert.Equal(t, -1.0, F80FromFloat64(-7).Rem(F80FromFloat64(2)).Float64())
	assert.Equal(t, 0.25, F80FromFloat64(0.25).Rem(F80FromFloat64(3)).Float64())
	assert.Equal(t, 1.0, F80FromFloat64(1e30).Rem(F80FromFloat64(3)).Float64())
	assert.True(t, F80FromFloat64(1).Rem(F80{}).IsNaN())
	assert.Equal(t, 5.0, F80FromFloat64(5).Rem(F80Inf(false)).Float64())
}

func TestF80Cmp(t *testing.T) {
	ord, unordered := F80FromFloat64(1).Cmp(F80FromFloat64(2))
	assert.False(t, unordered)
	assert.Equal(t, -1, ord)

	_, unordered = F80NaN().Cmp(F80FromFloat64(2))
	assert.True(t, unordered)
}

func TestF80Int(t *testing.T) {
	i, ok := F80FromFloat64(-2.7).Int()
	require.True(t, ok)
	assert.Equal(t, int64(-2), i.Int64())

	_, ok = F80NaN().Int()
	assert.False(t, ok)
}
