package lowering

import (
	"math"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// castRule is a resolved scalar conversion. A passthrough rule returns its
// input operation unchanged.
type castRule struct {
	fn          unaryFn
	passthrough bool
}

// Cast selects the conversion of in from type from to type to.
//
// Equal types return in unchanged. Vector casts require equal lane counts
// (except Bitcast) and wrap the scalar rule selected for the lane types.
// Any combination outside the conversion matrix is a type system violation.
func (lw *Lowerer) Cast(kind ir.ConversionKind, from, to ir.Type, in engine.Operation) (engine.Operation, error) {
	if ir.SameType(from, to) {
		return in, nil
	}
	name := opName(kind.String(), from, to)
	if kind == ir.Bitcast {
		return lw.bitcast(name, from, to, in)
	}

	fv, fromVec := from.(*ir.VectorType)
	tv, toVec := to.(*ir.VectorType)
	if fromVec != toVec {
		return nil, violationf(kind.String(), []ir.Type{from, to}, "cannot mix vector and scalar")
	}
	if fromVec {
		if fv.Len != tv.Len {
			return nil, violationf(kind.String(), []ir.Type{from, to}, "lane counts differ")
		}
		rule, ok := lw.scalarCast(kind, fv.Elem, tv.Elem)
		if !ok {
			return nil, violation(kind.String(), from, to)
		}
		if rule.passthrough {
			return in, nil
		}
		return &vectorUnaryOp{name: name, n: fv.Len, in: in, fn: rule.fn}, nil
	}

	rule, ok := lw.scalarCast(kind, from, to)
	if !ok {
		return nil, violation(kind.String(), from, to)
	}
	if rule.passthrough {
		return in, nil
	}
	return &unaryOp{name: name, in: in, fn: rule.fn}, nil
}

func (lw *Lowerer) scalarCast(kind ir.ConversionKind, from, to ir.Type) (castRule, bool) {
	switch ir.Classify(from) {
	case ir.TagBool, ir.TagI8, ir.TagI16, ir.TagI32, ir.TagI64, ir.TagIntN:
		return lw.castFromInt(kind, from.(*ir.IntType).Width, to)
	case ir.TagFloat, ir.TagDouble, ir.TagX86FP80:
		return castFromFloat(kind, to)
	case ir.TagPointer, ir.TagFunctionPointer:
		return castFromPointer(kind, to)
	}
	return castRule{}, false
}

func (lw *Lowerer) castFromInt(kind ir.ConversionKind, fromWidth int, to ir.Type) (castRule, bool) {
	tt := ir.Classify(to)
	switch kind {
	case ir.SignExtend, ir.Truncate:
		if tt.IsInteger() {
			return castRule{fn: resizeInt(ir.SignedBits, to.(*ir.IntType).Width)}, true
		}
	case ir.ZeroExtend:
		if tt.IsInteger() && to.(*ir.IntType).Width > fromWidth {
			return castRule{fn: resizeInt(ir.UnsignedBits, to.(*ir.IntType).Width)}, true
		}
	case ir.SignedIntToFloat:
		if tt.IsFloat() {
			return castRule{fn: intToFloat(ir.SignedBits, to.(*ir.FloatType).Kind)}, true
		}
	case ir.UnsignedIntToFloat:
		if tt.IsFloat() {
			return castRule{fn: intToFloat(ir.UnsignedBits, to.(*ir.FloatType).Kind)}, true
		}
	case ir.IntToPointer:
		if tt.IsPointer() {
			return castRule{fn: intToPointer(tt, lw.layout.PointerSize*8)}, true
		}
	}
	return castRule{}, false
}

func castFromFloat(kind ir.ConversionKind, to ir.Type) (castRule, bool) {
	tt := ir.Classify(to)
	switch kind {
	case ir.FloatToSignedInt:
		if tt.IsInteger() {
			return castRule{fn: floatToInt(true, to.(*ir.IntType).Width)}, true
		}
	case ir.FloatToUnsignedInt:
		if tt.IsInteger() {
			return castRule{fn: floatToInt(false, to.(*ir.IntType).Width)}, true
		}
	case ir.SignExtend, ir.Truncate:
		if tt.IsFloat() {
			return castRule{fn: floatToFloat(to.(*ir.FloatType).Kind)}, true
		}
		if tt.IsInteger() {
			return castRule{fn: floatToInt(true, to.(*ir.IntType).Width)}, true
		}
	}
	return castRule{}, false
}

func castFromPointer(kind ir.ConversionKind, to ir.Type) (castRule, bool) {
	tt := ir.Classify(to)
	switch kind {
	case ir.FunctionPointerCast:
		if tt.IsPointer() {
			return castRule{passthrough: true}, true
		}
	case ir.PointerToInt:
		if tt.IsInteger() {
			return castRule{fn: pointerToInt(to.(*ir.IntType).Width)}, true
		}
	}
	return castRule{}, false
}

// bitcast reinterprets the byte image. Pointer to pointer is a passthrough.
func (lw *Lowerer) bitcast(name string, from, to ir.Type, in engine.Operation) (engine.Operation, error) {
	ft, tt := ir.Classify(from), ir.Classify(to)
	if ft.IsPointer() && tt.IsPointer() {
		return in, nil
	}
	if ft == ir.TagVectorPointer && tt == ir.TagVectorPointer {
		if from.(*ir.VectorType).Len == to.(*ir.VectorType).Len {
			return in, nil
		}
	}
	if !bitcastable(ft) || !bitcastable(tt) {
		return nil, violation(ir.Bitcast.String(), from, to)
	}
	dl := lw.layout
	if dl.BitWidth(from) != dl.BitWidth(to) {
		return nil, violationf(ir.Bitcast.String(), []ir.Type{from, to},
			"width %d != %d", dl.BitWidth(from), dl.BitWidth(to))
	}
	return &unaryOp{name: name, in: in, fn: func(v ir.Value) (ir.Value, error) {
		b, err := dl.EncodeValue(from, v)
		if err != nil {
			return nil, &engine.RuntimeError{Code: engine.ErrCodeTypeMismatch, Message: err.Error()}
		}
		return dl.DecodeValue(to, b)
	}}, nil
}

// bitcastable lists the tags with a fixed-width byte image. x86_fp80 is
// excluded: its 80-bit image has no same-width integer or vector partner in
// the supported matrix.
func bitcastable(tag ir.TypeTag) bool {
	switch tag {
	case ir.TagBool, ir.TagI8, ir.TagI16, ir.TagI32, ir.TagI64, ir.TagIntN,
		ir.TagFloat, ir.TagDouble,
		ir.TagVectorBool, ir.TagVectorI8, ir.TagVectorI16, ir.TagVectorI32, ir.TagVectorI64,
		ir.TagVectorFloat, ir.TagVectorDouble:
		return true
	}
	return false
}

type bitsFunc func(ir.Value) (*big.Int, int, bool)

func resizeInt(bits bitsFunc, width int) unaryFn {
	return func(v ir.Value) (ir.Value, error) {
		x, _, ok := bits(v)
		if !ok {
			return nil, mismatch("integer", v)
		}
		return ir.MakeInt(width, x), nil
	}
}

func intToFloat(bits bitsFunc, kind ir.FloatKind) unaryFn {
	return func(v ir.Value) (ir.Value, error) {
		x, _, ok := bits(v)
		if !ok {
			return nil, mismatch("integer", v)
		}
		switch kind {
		case ir.Float32:
			f, _ := new(big.Float).SetInt(x).Float32()
			return ir.F32(f), nil
		case ir.Float64:
			f, _ := new(big.Float).SetInt(x).Float64()
			return ir.F64(f), nil
		}
		return ir.F80FromInt(x), nil
	}
}

func intToPointer(tag ir.TypeTag, pointerBits int64) unaryFn {
	mask := uint64(math.MaxUint64)
	if pointerBits < 64 {
		mask = 1<<uint(pointerBits) - 1
	}
	return func(v ir.Value) (ir.Value, error) {
		p, ok := ir.AsUint64(v)
		if !ok {
			return nil, mismatch("integer", v)
		}
		if tag == ir.TagFunctionPointer {
			return ir.FunctionAddress(p & mask), nil
		}
		return ir.Address(p & mask), nil
	}
}

func pointerToInt(width int) unaryFn {
	return func(v ir.Value) (ir.Value, error) {
		p, ok := pointerBits(v)
		if !ok {
			return nil, mismatch("pointer", v)
		}
		return ir.MakeInt(width, new(big.Int).SetUint64(p)), nil
	}
}

// floatToFloat converts between precisions with round-to-nearest-even.
func floatToFloat(kind ir.FloatKind) unaryFn {
	return func(v ir.Value) (ir.Value, error) {
		switch x := v.(type) {
		case ir.F32:
			return widenOrNarrow(float64(x), kind), nil
		case ir.F64:
			return widenOrNarrow(float64(x), kind), nil
		case ir.F80:
			switch kind {
			case ir.Float32:
				return ir.F32(x.Float32()), nil
			case ir.Float64:
				return ir.F64(x.Float64()), nil
			}
			return x, nil
		}
		return nil, mismatch("float", v)
	}
}

func widenOrNarrow(f float64, kind ir.FloatKind) ir.Value {
	switch kind {
	case ir.Float32:
		return ir.F32(float32(f))
	case ir.Float64:
		return ir.F64(f)
	}
	return ir.F80FromFloat64(f)
}

// floatToInt truncates toward zero. NaN converts to 0 and out-of-range
// values saturate to the destination range.
func floatToInt(signed bool, width int) unaryFn {
	lo, hi := new(big.Int), new(big.Int).Lsh(big.NewInt(1), uint(width))
	if signed {
		lo.Neg(new(big.Int).Lsh(big.NewInt(1), uint(width-1)))
		hi.Lsh(big.NewInt(1), uint(width-1))
	}
	hi.Sub(hi, big.NewInt(1))

	return func(v ir.Value) (ir.Value, error) {
		x, nan, ok := floatBig(v)
		if !ok {
			return nil, mismatch("float", v)
		}
		if nan {
			return ir.MakeInt(width, new(big.Int)), nil
		}
		if x.IsInf() {
			if x.Signbit() {
				return ir.MakeInt(width, lo), nil
			}
			return ir.MakeInt(width, hi), nil
		}
		i, _ := x.Int(nil)
		switch {
		case i.Cmp(lo) < 0:
			i = lo
		case i.Cmp(hi) > 0:
			i = hi
		}
		return ir.MakeInt(width, i), nil
	}
}

func floatBig(v ir.Value) (*big.Float, bool, bool) {
	switch x := v.(type) {
	case ir.F32:
		if math.IsNaN(float64(x)) {
			return nil, true, true
		}
		return new(big.Float).SetFloat64(float64(x)), false, true
	case ir.F64:
		if math.IsNaN(float64(x)) {
			return nil, true, true
		}
		return new(big.Float).SetFloat64(float64(x)), false, true
	case ir.F80:
		if x.IsNaN() {
			return nil, true, true
		}
		return x.Big(), false, true
	}
	return nil, false, false
}
