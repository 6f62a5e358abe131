package lowering

import (
	"fmt"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Logical selects a bitwise or shift operation over integers and integer
// vectors. Shift amounts are not range-checked: shifting by the width or
// more yields zero (or all sign bits for ashr).
func (lw *Lowerer) Logical(op ir.LogicalOp, t ir.Type, l, r engine.Operation) (engine.Operation, error) {
	fn, ok := logicalPrimitive(op, elemType(t))
	if !ok {
		return nil, violation(op.String(), t)
	}
	return newBinary(opName(op.String(), t), t, l, r, fn), nil
}

func logicalPrimitive(op ir.LogicalOp, t ir.Type) (binaryFn, bool) {
	switch ir.Classify(t) {
	case ir.TagBool:
		return boolLogical(op)
	case ir.TagI8:
		return intLogical[ir.I8, uint8](op)
	case ir.TagI16:
		return intLogical[ir.I16, uint16](op)
	case ir.TagI32:
		return intLogical[ir.I32, uint32](op)
	case ir.TagI64:
		return intLogical[ir.I64, uint64](op)
	case ir.TagIntN:
		return bigLogical(op, t.(*ir.IntType).Width)
	}
	return nil, false
}

func boolLogical(op ir.LogicalOp) (binaryFn, bool) {
	var f func(a, b ir.I1) ir.I1
	switch op {
	case ir.And:
		f = func(a, b ir.I1) ir.I1 { return a && b }
	case ir.Or:
		f = func(a, b ir.I1) ir.I1 { return a || b }
	case ir.Xor:
		f = func(a, b ir.I1) ir.I1 { return a != b }
	case ir.ShiftLeft, ir.LogicalShiftRight:
		f = func(a, b ir.I1) ir.I1 { return a && !b }
	case ir.ArithmeticShiftRight:
		f = func(a, _ ir.I1) ir.I1 { return a }
	}
	if f == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(ir.I1)
		b, ok2 := r.(ir.I1)
		if !ok1 || !ok2 {
			return nil, mismatch("i1", l, r)
		}
		return f(a, b), nil
	}, true
}

func intLogical[S ir.FixedInt, U uint8 | uint16 | uint32 | uint64](op ir.LogicalOp) (binaryFn, bool) {
	var f func(a, b S) S
	switch op {
	case ir.ShiftLeft:
		f = func(a, b S) S { return a << U(b) }
	case ir.LogicalShiftRight:
		f = func(a, b S) S { return S(U(a) >> U(b)) }
	case ir.ArithmeticShiftRight:
		f = func(a, b S) S { return a >> U(b) }
	case ir.And:
		f = func(a, b S) S { return a & b }
	case ir.Or:
		f = func(a, b S) S { return a | b }
	case ir.Xor:
		f = func(a, b S) S { return a ^ b }
	}
	if f == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(S)
		b, ok2 := r.(S)
		if !ok1 || !ok2 {
			return nil, mismatch(fmt.Sprintf("%T", a), l, r)
		}
		return f(a, b), nil
	}, true
}

func bigLogical(op ir.LogicalOp, width int) (binaryFn, bool) {
	w := big.NewInt(int64(width))
	var f func(a, b ir.IntN) *big.Int
	switch op {
	case ir.ShiftLeft:
		f = func(a, b ir.IntN) *big.Int {
			if b.Bits.Cmp(w) >= 0 {
				return new(big.Int)
			}
			return new(big.Int).Lsh(a.Bits, uint(b.Bits.Uint64()))
		}
	case ir.LogicalShiftRight:
		f = func(a, b ir.IntN) *big.Int {
			if b.Bits.Cmp(w) >= 0 {
				return new(big.Int)
			}
			return new(big.Int).Rsh(a.Bits, uint(b.Bits.Uint64()))
		}
	case ir.ArithmeticShiftRight:
		f = func(a, b ir.IntN) *big.Int {
			n := uint(width)
			if b.Bits.Cmp(w) < 0 {
				n = uint(b.Bits.Uint64())
			}
			// Rsh on a negative big.Int rounds toward -inf, which is ashr.
			return new(big.Int).Rsh(a.Signed(), n)
		}
	case ir.And:
		f = func(a, b ir.IntN) *big.Int { return new(big.Int).And(a.Bits, b.Bits) }
	case ir.Or:
		f = func(a, b ir.IntN) *big.Int { return new(big.Int).Or(a.Bits, b.Bits) }
	case ir.Xor:
		f = func(a, b ir.IntN) *big.Int { return new(big.Int).Xor(a.Bits, b.Bits) }
	}
	if f == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(ir.IntN)
		b, ok2 := r.(ir.IntN)
		if !ok1 || !ok2 || a.Width != width || b.Width != width {
			return nil, mismatch(fmt.Sprintf("i%d", width), l, r)
		}
		return ir.NewIntN(width, f(a, b)), nil
	}, true
}
