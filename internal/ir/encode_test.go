package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIsLittleEndian(t *testing.T) {
	dl := DefaultLayout

	b, err := dl.EncodeValue(Int32, I32(0x01020304))
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 3, 2, 1}, b)

	b, err = dl.EncodeValue(Int16, I16(-2))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFF}, b)

	b, err = dl.EncodeValue(Ptr, Address(0x1122))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0x11, 0, 0, 0, 0, 0, 0}, b)
}

func TestDecodeValue(t *testing.T) {
	dl := DefaultLayout

	v, err := dl.DecodeValue(Int16, []byte{0xFE, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, I16(-2), v)

	v, err = dl.DecodeValue(Double, []byte{0, 0, 0, 0, 0, 0, 0xF8, 0x3F})
	require.NoError(t, err)
	assert.Equal(t, F64(1.5), v)

	v, err = dl.DecodeValue(NewInt(24), []byte{1, 0, 0x80})
	require.NoError(t, err)
	n, ok := v.(IntN)
	require.True(t, ok)
	assert.Equal(t, int64(0x800001), n.Bits.Int64())

	_, err = dl.DecodeValue(Int64, []byte{1, 2})
	assert.Error(t, err)
}

func TestBoolVectorIsBitPacked(t *testing.T) {
	dl := DefaultLayout
	vt := MustVector(Int1, 8)
	vec := Vector{I1(true), I1(false), I1(false), I1(false), I1(false), I1(false), I1(false), I1(true)}

	b, err := dl.EncodeValue(vt, vec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x81}, b)

	back, err := dl.DecodeValue(vt, b)
	require.NoError(t, err)
	assert.Equal(t, vec, back)
}

func TestVectorImage(t *testing.T) {
	dl := DefaultLayout
	vt := MustVector(Int16, 2)

	b, err := dl.EncodeValue(vt, Vector{I16(1), I16(-1)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0xFF, 0xFF}, b)

	v, err := dl.DecodeValue(Int32, b)
	require.NoError(t, err)
	assert.Equal(t, I32(-65535), v)
}

func TestF80Image(t *testing.T) {
	dl := DefaultLayout
	b, err := dl.EncodeValue(FP80, F80FromFloat64(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0x80, 0xFF, 0x3F}, b)

	v, err := dl.DecodeValue(FP80, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.(F80).Float64())
}

func TestEncodeRejectsMismatch(t *testing.T) {
	dl := DefaultLayout
	_, err := dl.EncodeValue(Int32, F32(1))
	assert.Error(t, err)
	_, err = dl.EncodeValue(MustVector(Int32, 2), Vector{I32(1)})
	assert.Error(t, err)
	_, err = dl.EncodeValue(NewStruct(false, Int32), Address(8))
	assert.Error(t, err)
}

func TestWideIntImage(t *testing.T) {
	dl := DefaultLayout
	x := new(big.Int).Lsh(big.NewInt(1), 100)
	b, err := dl.EncodeValue(NewInt(128), NewIntN(128, x))
	require.NoError(t, err)
	require.Len(t, b, 16)
	assert.Equal(t, byte(0x10), b[12])

	v, err := dl.DecodeValue(NewInt(128), b)
	require.NoError(t, err)
	assert.Equal(t, 0, v.(IntN).Bits.Cmp(x))
}
