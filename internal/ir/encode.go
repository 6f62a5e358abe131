package ir

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// EncodeValue returns the little-endian memory image of v as type t.
// The image is SizeOf(t) bytes long. Aggregates have no image; they are
// copied byte-wise through memory instead.
func (dl DataLayout) EncodeValue(t Type, v Value) ([]byte, error) {
	buf := make([]byte, dl.SizeOf(t))
	if err := dl.encodeInto(buf, t, v); err != nil {
		return nil, err
	}
	return buf, nil
}

func (dl DataLayout) encodeInto(buf []byte, t Type, v Value) error {
	switch x := t.(type) {
	case *IntType:
		u, _, ok := UnsignedBits(v)
		if !ok {
			return fmt.Errorf("encode %s: got %T", t, v)
		}
		putBig(buf, u)
		return nil
	case *FloatType:
		switch f := v.(type) {
		case F32:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
			return nil
		case F64:
			binary.LittleEndian.PutUint64(buf, math.Float64bits(float64(f)))
			return nil
		case F80:
			binary.LittleEndian.PutUint64(buf, f.mant)
			binary.LittleEndian.PutUint16(buf[8:], f.se)
			return nil
		}
		return fmt.Errorf("encode %s: got %T", t, v)
	case *PointerType, *FunctionType:
		p, ok := AsUint64(v)
		if !ok {
			return fmt.Errorf("encode %s: got %T", t, v)
		}
		putUint(buf, p)
		return nil
	case *VectorType:
		vec, ok := v.(Vector)
		if !ok || len(vec) != x.Len {
			return fmt.Errorf("encode %s: got %s", t, FormatValue(v))
		}
		if isBool(x.Elem) {
			for i, e := range vec {
				if b, _ := e.(I1); b {
					buf[i/8] |= 1 << (i % 8)
				}
			}
			return nil
		}
		step := dl.SizeOf(x.Elem)
		for i, e := range vec {
			if err := dl.encodeInto(buf[int64(i)*step:], x.Elem, e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	return fmt.Errorf("encode: %s has no value image", t)
}

// DecodeValue reads a value of type t from its memory image.
func (dl DataLayout) DecodeValue(t Type, b []byte) (Value, error) {
	if int64(len(b)) < dl.SizeOf(t) {
		return nil, fmt.Errorf("decode %s: need %d bytes, have %d", t, dl.SizeOf(t), len(b))
	}
	switch x := t.(type) {
	case *IntType:
		n := dl.SizeOf(t)
		le := make([]byte, n)
		for i := range le {
			le[n-1-int64(i)] = b[i] // big.Int wants big-endian
		}
		return MakeInt(x.Width, new(big.Int).SetBytes(le)), nil
	case *FloatType:
		switch x.Kind {
		case Float32:
			return F32(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
		case Float64:
			return F64(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
		case X86FP80:
			return F80{mant: binary.LittleEndian.Uint64(b), se: binary.LittleEndian.Uint16(b[8:])}, nil
		}
	case *PointerType:
		p := getUint(b[:dl.PointerSize])
		if _, ok := x.Pointee.(*FunctionType); ok {
			return FunctionAddress(p), nil
		}
		return Address(p), nil
	case *FunctionType:
		return FunctionAddress(getUint(b[:dl.PointerSize])), nil
	case *VectorType:
		vec := make(Vector, x.Len)
		if isBool(x.Elem) {
			for i := range vec {
				vec[i] = I1(b[i/8]&(1<<(i%8)) != 0)
			}
			return vec, nil
		}
		step := dl.SizeOf(x.Elem)
		for i := range vec {
			e, err := dl.DecodeValue(x.Elem, b[int64(i)*step:])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			vec[i] = e
		}
		return vec, nil
	}
	return nil, fmt.Errorf("decode: %s has no value image", t)
}

func putBig(buf []byte, u *big.Int) {
	be := u.Bytes()
	for i := 0; i < len(be) && i < len(buf); i++ {
		buf[i] = be[len(be)-1-i]
	}
}

func putUint(buf []byte, v uint64) {
	for i := range buf {
		buf[i] = byte(v)
		v >>= 8
	}
}

func getUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
