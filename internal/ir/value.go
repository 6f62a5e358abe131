package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a runtime value produced by an
// operation. Only the types in this file and F80 implement it.
// Aggregates are never values themselves: they travel as an Address.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// I1 is a boolean.
type I1 bool

// I8, I16, I32 and I64 hold the two's complement bit pattern of fixed-width
// integers. Signedness is a property of the operation, not the value.
type (
	I8  int8
	I16 int16
	I32 int32
	I64 int64
)

// IntN is an integer of arbitrary width. Bits holds the unsigned pattern,
// always normalized to [0, 2^Width).
type IntN struct {
	Width int
	Bits  *big.Int
}

// F32 and F64 are IEEE 754 binary32 and binary64 values.
type (
	F32 float32
	F64 float64
)

// Address is a data pointer, also used as the reference for aggregates.
type Address uint64

// FunctionAddress is a function pointer.
type FunctionAddress uint64

// Vector holds the elements of a SIMD value.
type Vector []Value

// FixedInt is the constraint satisfied by the fixed-width integer values.
type FixedInt interface {
	I8 | I16 | I32 | I64
	Value
}

// IEEEFloat is the constraint satisfied by the binary32 and binary64 values.
type IEEEFloat interface {
	F32 | F64
	Value
}

func (I1) irValue()              {}
func (I8) irValue()              {}
func (I16) irValue()             {}
func (I32) irValue()             {}
func (I64) irValue()             {}
func (IntN) irValue()            {}
func (F32) irValue()             {}
func (F64) irValue()             {}
func (Address) irValue()         {}
func (FunctionAddress) irValue() {}
func (Vector) irValue()          {}

// NewIntN wraps x to width bits. Negative inputs take their two's complement.
func NewIntN(width int, x *big.Int) IntN {
	return IntN{Width: width, Bits: wrapUnsigned(width, x)}
}

// Signed returns the two's complement interpretation of the pattern.
func (v IntN) Signed() *big.Int {
	return toSigned(v.Width, v.Bits)
}

func wrapUnsigned(width int, x *big.Int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	r := new(big.Int).Mod(x, mod) // Mod is Euclidean: result is non-negative
	return r
}

func toSigned(width int, bits *big.Int) *big.Int {
	if width == 0 || bits.Bit(width-1) == 0 {
		return new(big.Int).Set(bits)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return new(big.Int).Sub(bits, mod)
}

// MakeInt builds the integer value of the given width from x, wrapping
// modulo 2^width. Widths 1/8/16/32/64 produce the fixed-width value types.
func MakeInt(width int, x *big.Int) Value {
	u := wrapUnsigned(width, x)
	switch width {
	case 1:
		return I1(u.Sign() != 0)
	case 8:
		return I8(int8(uint8(u.Uint64())))
	case 16:
		return I16(int16(uint16(u.Uint64())))
	case 32:
		return I32(int32(uint32(u.Uint64())))
	case 64:
		return I64(int64(u.Uint64()))
	}
	return IntN{Width: width, Bits: u}
}

// UnsignedBits returns the unsigned pattern and width of an integer value.
func UnsignedBits(v Value) (*big.Int, int, bool) {
	switch x := v.(type) {
	case I1:
		if x {
			return big.NewInt(1), 1, true
		}
		return big.NewInt(0), 1, true
	case I8:
		return new(big.Int).SetUint64(uint64(uint8(x))), 8, true
	case I16:
		return new(big.Int).SetUint64(uint64(uint16(x))), 16, true
	case I32:
		return new(big.Int).SetUint64(uint64(uint32(x))), 32, true
	case I64:
		return new(big.Int).SetUint64(uint64(x)), 64, true
	case IntN:
		return new(big.Int).Set(x.Bits), x.Width, true
	case Address:
		return new(big.Int).SetUint64(uint64(x)), 64, true
	case FunctionAddress:
		return new(big.Int).SetUint64(uint64(x)), 64, true
	}
	return nil, 0, false
}

// SignedBits returns the two's complement interpretation and width of an
// integer value. For i1, true is -1.
func SignedBits(v Value) (*big.Int, int, bool) {
	u, w, ok := UnsignedBits(v)
	if !ok {
		return nil, 0, false
	}
	return toSigned(w, u), w, true
}

// AsUint64 returns the low 64 bits of an integer or pointer value.
func AsUint64(v Value) (uint64, bool) {
	switch x := v.(type) {
	case I1:
		if x {
			return 1, true
		}
		return 0, true
	case I8:
		return uint64(uint8(x)), true
	case I16:
		return uint64(uint16(x)), true
	case I32:
		return uint64(uint32(x)), true
	case I64:
		return uint64(x), true
	case IntN:
		return new(big.Int).And(x.Bits, new(big.Int).SetUint64(math.MaxUint64)).Uint64(), true
	case Address:
		return uint64(x), true
	case FunctionAddress:
		return uint64(x), true
	}
	return 0, false
}

// AsInt64 returns the sign-extended value of an integer no wider than 64 bits.
func AsInt64(v Value) (int64, bool) {
	switch x := v.(type) {
	case I1:
		if x {
			return -1, true
		}
		return 0, true
	case I8:
		return int64(x), true
	case I16:
		return int64(x), true
	case I32:
		return int64(x), true
	case I64:
		return int64(x), true
	case IntN:
		s := x.Signed()
		if !s.IsInt64() {
			return 0, false
		}
		return s.Int64(), true
	}
	return 0, false
}

// MatchesTag reports whether v is a well-formed value for tag.
func MatchesTag(tag TypeTag, v Value) bool {
	switch tag {
	case TagBool:
		_, ok := v.(I1)
		return ok
	case TagI8:
		_, ok := v.(I8)
		return ok
	case TagI16:
		_, ok := v.(I16)
		return ok
	case TagI32:
		_, ok := v.(I32)
		return ok
	case TagI64:
		_, ok := v.(I64)
		return ok
	case TagIntN:
		_, ok := v.(IntN)
		return ok
	case TagFloat:
		_, ok := v.(F32)
		return ok
	case TagDouble:
		_, ok := v.(F64)
		return ok
	case TagX86FP80:
		_, ok := v.(F80)
		return ok
	case TagPointer, TagArray, TagStruct:
		_, ok := v.(Address)
		return ok
	case TagFunctionPointer:
		switch v.(type) {
		case FunctionAddress, Address:
			return true
		}
		return false
	case TagVoid:
		return v == nil
	case TagVectorBool, TagVectorI8, TagVectorI16, TagVectorI32, TagVectorI64,
		TagVectorFloat, TagVectorDouble, TagVectorPointer:
		vec, ok := v.(Vector)
		if !ok {
			return false
		}
		elem := tag.ElementTag()
		for _, e := range vec {
			if !MatchesTag(elem, e) {
				return false
			}
		}
		return true
	}
	return false
}

// Zero returns the zero value of a scalar or vector type.
// Aggregates have no register value; callers allocate storage instead.
func Zero(t Type) (Value, error) {
	switch x := t.(type) {
	case *IntType:
		return MakeInt(x.Width, new(big.Int)), nil
	case *FloatType:
		switch x.Kind {
		case Float32:
			return F32(0), nil
		case Float64:
			return F64(0), nil
		case X86FP80:
			return F80{}, nil
		}
	case *PointerType:
		if _, ok := x.Pointee.(*FunctionType); ok {
			return FunctionAddress(0), nil
		}
		return Address(0), nil
	case *VectorType:
		elem, err := Zero(x.Elem)
		if err != nil {
			return nil, err
		}
		vec := make(Vector, x.Len)
		for i := range vec {
			vec[i] = elem
		}
		return vec, nil
	}
	return nil, fmt.Errorf("type %s has no scalar zero value", t)
}

// FormatValue renders a value for diagnostics and golden traces.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "void"
	case I1:
		if x {
			return "true"
		}
		return "false"
	case I8:
		return fmt.Sprintf("%d", x)
	case I16:
		return fmt.Sprintf("%d", x)
	case I32:
		return fmt.Sprintf("%d", x)
	case I64:
		return fmt.Sprintf("%d", x)
	case IntN:
		return x.Signed().String()
	case F32:
		return formatFloat(float64(x), 32)
	case F64:
		return formatFloat(float64(x), 64)
	case F80:
		return x.String()
	case Address:
		return fmt.Sprintf("0x%x", uint64(x))
	case FunctionAddress:
		return fmt.Sprintf("fn@0x%x", uint64(x))
	case Vector:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "<" + strings.Join(parts, ", ") + ">"
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
