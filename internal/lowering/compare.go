package lowering

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Compare selects an icmp or fcmp operation. The result is i1, or <N x i1>
// for vector operands.
//
// Integer, pointer and i1 operands take the integer predicates. Integer
// vectors compare only with 32-bit (or i1) lanes. Floating-point operands
// take the fcmp predicates; AlwaysFalse and AlwaysTrue fold to constants and
// never evaluate their operands.
func (lw *Lowerer) Compare(op ir.ComparisonOp, t ir.Type, l, r engine.Operation) (engine.Operation, error) {
	tag := ir.Classify(t)
	name := opName(op.String(), t)
	if tag.IsVector() && !vectorComparable(tag) {
		return nil, violation(op.String(), t)
	}

	if op == ir.AlwaysFalse || op == ir.AlwaysTrue {
		if !tag.ElementTag().IsFloat() {
			return nil, violation(op.String(), t)
		}
		var v ir.Value = ir.I1(op == ir.AlwaysTrue)
		if vt, ok := t.(*ir.VectorType); ok {
			vec := make(ir.Vector, vt.Len)
			for i := range vec {
				vec[i] = v
			}
			v = vec
		}
		return &engine.Const{Label: name, Value: v}, nil
	}

	fn, ok := comparePrimitive(op, elemType(t))
	if !ok {
		return nil, violation(op.String(), t)
	}
	return newBinary(name, t, l, r, fn), nil
}

func vectorComparable(tag ir.TypeTag) bool {
	switch tag {
	case ir.TagVectorBool, ir.TagVectorI32, ir.TagVectorFloat, ir.TagVectorDouble:
		return true
	}
	return false
}

func comparePrimitive(op ir.ComparisonOp, t ir.Type) (binaryFn, bool) {
	switch ir.Classify(t) {
	case ir.TagBool, ir.TagIntN:
		return bigCompare(op)
	case ir.TagI8:
		return intCompare[ir.I8, uint8](op)
	case ir.TagI16:
		return intCompare[ir.I16, uint16](op)
	case ir.TagI32:
		return intCompare[ir.I32, uint32](op)
	case ir.TagI64:
		return intCompare[ir.I64, uint64](op)
	case ir.TagPointer, ir.TagFunctionPointer:
		return pointerCompare(op)
	case ir.TagFloat:
		return floatCompare[ir.F32](op)
	case ir.TagDouble:
		return floatCompare[ir.F64](op)
	case ir.TagX86FP80:
		return f80Compare(op)
	}
	return nil, false
}

func intCompare[S ir.FixedInt, U uint8 | uint16 | uint32 | uint64](op ir.ComparisonOp) (binaryFn, bool) {
	var p func(a, b S) bool
	switch op {
	case ir.Equal:
		p = func(a, b S) bool { return a == b }
	case ir.NotEqual:
		p = func(a, b S) bool { return a != b }
	case ir.SignedLT:
		p = func(a, b S) bool { return a < b }
	case ir.SignedLE:
		p = func(a, b S) bool { return a <= b }
	case ir.SignedGT:
		p = func(a, b S) bool { return a > b }
	case ir.SignedGE:
		p = func(a, b S) bool { return a >= b }
	case ir.UnsignedLT:
		p = func(a, b S) bool { return U(a) < U(b) }
	case ir.UnsignedLE:
		p = func(a, b S) bool { return U(a) <= U(b) }
	case ir.UnsignedGT:
		p = func(a, b S) bool { return U(a) > U(b) }
	case ir.UnsignedGE:
		p = func(a, b S) bool { return U(a) >= U(b) }
	}
	if p == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(S)
		b, ok2 := r.(S)
		if !ok1 || !ok2 {
			return nil, mismatch(fmt.Sprintf("%T", a), l, r)
		}
		return ir.I1(p(a, b)), nil
	}, true
}

// bigCompare handles i1 and arbitrary-width integers. For i1, true is -1
// under the signed predicates.
func bigCompare(op ir.ComparisonOp) (binaryFn, bool) {
	var signed bool
	var p func(c int) bool
	switch op {
	case ir.Equal:
		p = func(c int) bool { return c == 0 }
	case ir.NotEqual:
		p = func(c int) bool { return c != 0 }
	case ir.SignedLT, ir.UnsignedLT:
		p = func(c int) bool { return c < 0 }
	case ir.SignedLE, ir.UnsignedLE:
		p = func(c int) bool { return c <= 0 }
	case ir.SignedGT, ir.UnsignedGT:
		p = func(c int) bool { return c > 0 }
	case ir.SignedGE, ir.UnsignedGE:
		p = func(c int) bool { return c >= 0 }
	}
	if p == nil {
		return nil, false
	}
	switch op {
	case ir.SignedLT, ir.SignedLE, ir.SignedGT, ir.SignedGE:
		signed = true
	}
	bits := ir.UnsignedBits
	if signed {
		bits = ir.SignedBits
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, wa, ok1 := bits(l)
		b, wb, ok2 := bits(r)
		if !ok1 || !ok2 || wa != wb {
			return nil, mismatch("integer", l, r)
		}
		return ir.I1(p(a.Cmp(b))), nil
	}, true
}

func pointerCompare(op ir.ComparisonOp) (binaryFn, bool) {
	var p func(a, b uint64) bool
	switch op {
	case ir.Equal:
		p = func(a, b uint64) bool { return a == b }
	case ir.NotEqual:
		p = func(a, b uint64) bool { return a != b }
	case ir.SignedLT:
		p = func(a, b uint64) bool { return int64(a) < int64(b) }
	case ir.SignedLE:
		p = func(a, b uint64) bool { return int64(a) <= int64(b) }
	case ir.SignedGT:
		p = func(a, b uint64) bool { return int64(a) > int64(b) }
	case ir.SignedGE:
		p = func(a, b uint64) bool { return int64(a) >= int64(b) }
	case ir.UnsignedLT:
		p = func(a, b uint64) bool { return a < b }
	case ir.UnsignedLE:
		p = func(a, b uint64) bool { return a <= b }
	case ir.UnsignedGT:
		p = func(a, b uint64) bool { return a > b }
	case ir.UnsignedGE:
		p = func(a, b uint64) bool { return a >= b }
	}
	if p == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := pointerBits(l)
		b, ok2 := pointerBits(r)
		if !ok1 || !ok2 {
			return nil, mismatch("pointer", l, r)
		}
		return ir.I1(p(a, b)), nil
	}, true
}

func pointerBits(v ir.Value) (uint64, bool) {
	switch x := v.(type) {
	case ir.Address:
		return uint64(x), true
	case ir.FunctionAddress:
		return uint64(x), true
	}
	return 0, false
}

func isNaN[F ir.IEEEFloat](x F) bool { return x != x }

// floatCompare gives every fcmp predicate its own primitive. Ordered
// predicates are false when either operand is NaN; unordered ones are true.
func floatCompare[F ir.IEEEFloat](op ir.ComparisonOp) (binaryFn, bool) {
	var p func(a, b F) bool
	switch op {
	case ir.OrderedEQ:
		p = func(a, b F) bool { return a == b }
	case ir.OrderedGT:
		p = func(a, b F) bool { return a > b }
	case ir.OrderedGE:
		p = func(a, b F) bool { return a >= b }
	case ir.OrderedLT:
		p = func(a, b F) bool { return a < b }
	case ir.OrderedLE:
		p = func(a, b F) bool { return a <= b }
	case ir.OrderedNE:
		p = func(a, b F) bool { return !isNaN(a) && !isNaN(b) && a != b }
	case ir.Ordered:
		p = func(a, b F) bool { return !isNaN(a) && !isNaN(b) }
	case ir.Unordered:
		p = func(a, b F) bool { return isNaN(a) || isNaN(b) }
	case ir.UnorderedEQ:
		p = func(a, b F) bool { return isNaN(a) || isNaN(b) || a == b }
	case ir.UnorderedGT:
		p = func(a, b F) bool { return !(a <= b) }
	case ir.UnorderedGE:
		p = func(a, b F) bool { return !(a < b) }
	case ir.UnorderedLT:
		p = func(a, b F) bool { return !(a >= b) }
	case ir.UnorderedLE:
		p = func(a, b F) bool { return !(a > b) }
	case ir.UnorderedNE:
		p = func(a, b F) bool { return a != b }
	}
	if p == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(F)
		b, ok2 := r.(F)
		if !ok1 || !ok2 {
			return nil, mismatch(fmt.Sprintf("%T", a), l, r)
		}
		return ir.I1(p(a, b)), nil
	}, true
}

func f80Compare(op ir.ComparisonOp) (binaryFn, bool) {
	var p func(c int, unordered bool) bool
	switch op {
	case ir.OrderedEQ:
		p = func(c int, u bool) bool { return !u && c == 0 }
	case ir.OrderedGT:
		p = func(c int, u bool) bool { return !u && c > 0 }
	case ir.OrderedGE:
		p = func(c int, u bool) bool { return !u && c >= 0 }
	case ir.OrderedLT:
		p = func(c int, u bool) bool { return !u && c < 0 }
	case ir.OrderedLE:
		p = func(c int, u bool) bool { return !u && c <= 0 }
	case ir.OrderedNE:
		p = func(c int, u bool) bool { return !u && c != 0 }
	case ir.Ordered:
		p = func(_ int, u bool) bool { return !u }
	case ir.Unordered:
		p = func(_ int, u bool) bool { return u }
	case ir.UnorderedEQ:
		p = func(c int, u bool) bool { return u || c == 0 }
	case ir.UnorderedGT:
		p = func(c int, u bool) bool { return u || c > 0 }
	case ir.UnorderedGE:
		p = func(c int, u bool) bool { return u || c >= 0 }
	case ir.UnorderedLT:
		p = func(c int, u bool) bool { return u || c < 0 }
	case ir.UnorderedLE:
		p = func(c int, u bool) bool { return u || c <= 0 }
	case ir.UnorderedNE:
		p = func(c int, u bool) bool { return u || c != 0 }
	}
	if p == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(ir.F80)
		b, ok2 := r.(ir.F80)
		if !ok1 || !ok2 {
			return nil, mismatch("x86_fp80", l, r)
		}
		return ir.I1(p(a.Cmp(b))), nil
	}, true
}
