package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEveryType(t *testing.T) {
	fn := NewFunction(Int32, Int32)
	tests := []struct {
		typ  Type
		want TypeTag
	}{
		{Int1, TagBool},
		{Int8, TagI8},
		{Int16, TagI16},
		{Int32, TagI32},
		{Int64, TagI64},
		{NewInt(24), TagIntN},
		{NewInt(128), TagIntN},
		{Float, TagFloat},
		{Double, TagDouble},
		{FP80, TagX86FP80},
		{Ptr, TagPointer},
		{NewPointer(Int8), TagPointer},
		{NewPointer(fn), TagFunctionPointer},
		{fn, TagFunctionPointer},
		{NewArray(Int8, 4), TagArray},
		{NewStruct(false, Int8, Int32), TagStruct},
		{Void, TagVoid},
		{MustVector(Int1, 8), TagVectorBool},
		{MustVector(Int8, 16), TagVectorI8},
		{MustVector(Int16, 8), TagVectorI16},
		{MustVector(Int32, 4), TagVectorI32},
		{MustVector(Int64, 2), TagVectorI64},
		{MustVector(Float, 4), TagVectorFloat},
		{MustVector(Double, 2), TagVectorDouble},
		{MustVector(Ptr, 2), TagVectorPointer},
	}

	covered := map[TypeTag]bool{}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.typ))
		})
		covered[tt.want] = true
	}
	for _, tag := range AllTags() {
		assert.True(t, covered[tag], "tag %s has no classified type", tag)
	}
}

func TestNewVectorRejectsNonPrimitiveElements(t *testing.T) {
	invalid := []Type{
		NewStruct(false, Int32),
		NewArray(Int8, 2),
		FP80,
		NewInt(24),
		MustVector(Int32, 2),
	}
	for _, elem := range invalid {
		_, err := NewVector(elem, 4)
		assert.Error(t, err, "element %s", elem)
	}

	_, err := NewVector(Int32, 0)
	assert.Error(t, err)
}

func TestVectorInfo(t *testing.T) {
	elem, n := VectorInfo(MustVector(Float, 4))
	assert.Equal(t, TagFloat, elem)
	assert.Equal(t, 4, n)

	elem, n = VectorInfo(Int64)
	assert.Equal(t, TagI64, elem)
	assert.Equal(t, 0, n)
}

func TestTagHelpers(t *testing.T) {
	assert.True(t, TagBool.IsInteger())
	assert.True(t, TagIntN.IsInteger())
	assert.False(t, TagFloat.IsInteger())
	assert.True(t, TagX86FP80.IsFloat())
	assert.True(t, TagVectorPointer.IsVector())
	assert.Equal(t, TagPointer, TagVectorPointer.ElementTag())
	assert.Equal(t, TagI32, TagI32.ElementTag())
	assert.True(t, TagStruct.IsAggregate())
	assert.True(t, TagFunctionPointer.IsPointer())
}

func TestBitWidth(t *testing.T) {
	assert.Equal(t, 1, BitWidth(Int1))
	assert.Equal(t, 24, BitWidth(NewInt(24)))
	assert.Equal(t, 80, BitWidth(FP80))
	assert.Equal(t, 64, BitWidth(Ptr))
	assert.Equal(t, 128, BitWidth(MustVector(Int32, 4)))
	assert.Equal(t, 0, BitWidth(NewStruct(false, Int32)))

	narrow := DataLayout{PointerSize: 4}
	assert.Equal(t, 32, narrow.BitWidth(Ptr))
	assert.Equal(t, 128, narrow.BitWidth(MustVector(Ptr, 4)))
	assert.Equal(t, 24, narrow.BitWidth(NewInt(24)))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "[4 x i8]", NewArray(Int8, 4).String())
	assert.Equal(t, "<{ i8, i32 }>", NewStruct(true, Int8, Int32).String())
	assert.Equal(t, "<4 x i32>", MustVector(Int32, 4).String())
	assert.Equal(t, "i8*", NewPointer(Int8).String())
	assert.Equal(t, "ptr", Ptr.String())
	assert.Equal(t, "i32 (i8*, ...)", (&FunctionType{Return: Int32, Params: []Type{NewPointer(Int8)}, Variadic: true}).String())
	assert.Equal(t, "%pair", (&StructType{Name: "pair", Fields: []Type{Int32, Int32}}).String())
}

func TestSameType(t *testing.T) {
	assert.True(t, SameType(NewInt(32), Int32))
	assert.True(t, SameType(NewStruct(false, Int8, Double), NewStruct(false, Int8, Double)))
	assert.False(t, SameType(NewStruct(false, Int8, Double), NewStruct(true, Int8, Double)))
	assert.False(t, SameType(MustVector(Int32, 4), MustVector(Int32, 2)))
	assert.True(t, SameType(NewFunction(nil), NewFunction(Void)))
	assert.False(t, SameType(Int32, Float))
}

func TestParseOperators(t *testing.T) {
	k, err := ParseConversionKind("fpext")
	require.NoError(t, err)
	assert.Equal(t, SignExtend, k)

	op, err := ParseArithmeticOp("fadd")
	require.NoError(t, err)
	assert.Equal(t, Add, op)

	c, err := ParseComparisonOp("ult", false)
	require.NoError(t, err)
	assert.Equal(t, UnsignedLT, c)

	c, err = ParseComparisonOp("ult", true)
	require.NoError(t, err)
	assert.Equal(t, UnorderedLT, c)
	assert.True(t, c.IsFloat())

	_, err = ParseLogicalOp("rotl")
	assert.Error(t, err)
}
