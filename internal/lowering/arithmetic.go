package lowering

import (
	"fmt"
	"math"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Arithmetic selects the operation for op applied to two operands of type t.
//
// Dispatch is category first, operator second: the primitive is chosen by
// the (element) type tag, then by operator. Vectors apply the scalar
// primitive lane by lane. Integer division by zero fails at execution time
// with engine.ErrCodeDivideByZero; signed overflow wraps.
func (lw *Lowerer) Arithmetic(op ir.ArithmeticOp, t ir.Type, l, r engine.Operation) (engine.Operation, error) {
	fn, ok := arithmeticPrimitive(op, elemType(t))
	if !ok {
		return nil, violation(op.String(), t)
	}
	return newBinary(opName(op.String(), t), t, l, r, fn), nil
}

func arithmeticPrimitive(op ir.ArithmeticOp, t ir.Type) (binaryFn, bool) {
	switch ir.Classify(t) {
	case ir.TagBool:
		if op == ir.Add {
			return boolAdd, true
		}
	case ir.TagI8:
		return intArithmetic[ir.I8, uint8](op)
	case ir.TagI16:
		return intArithmetic[ir.I16, uint16](op)
	case ir.TagI32:
		return intArithmetic[ir.I32, uint32](op)
	case ir.TagI64:
		return intArithmetic[ir.I64, uint64](op)
	case ir.TagIntN:
		return bigArithmetic(op, t.(*ir.IntType).Width)
	case ir.TagFloat:
		return floatArithmetic[ir.F32](op)
	case ir.TagDouble:
		return floatArithmetic[ir.F64](op)
	case ir.TagX86FP80:
		return f80Arithmetic(op)
	}
	return nil, false
}

// boolAdd is addition modulo 2.
func boolAdd(l, r ir.Value) (ir.Value, error) {
	a, ok1 := l.(ir.I1)
	b, ok2 := r.(ir.I1)
	if !ok1 || !ok2 {
		return nil, mismatch("i1", l, r)
	}
	return ir.I1(a != b), nil
}

func intArithmetic[S ir.FixedInt, U uint8 | uint16 | uint32 | uint64](op ir.ArithmeticOp) (binaryFn, bool) {
	var f func(a, b S) (S, error)
	switch op {
	case ir.Add:
		f = func(a, b S) (S, error) { return a + b, nil }
	case ir.Sub:
		f = func(a, b S) (S, error) { return a - b, nil }
	case ir.Mul:
		f = func(a, b S) (S, error) { return a * b, nil }
	case ir.SignedDiv:
		f = func(a, b S) (S, error) {
			if b == 0 {
				return 0, engine.NewDivideByZeroError("")
			}
			return a / b, nil
		}
	case ir.UnsignedDiv:
		f = func(a, b S) (S, error) {
			if b == 0 {
				return 0, engine.NewDivideByZeroError("")
			}
			return S(U(a) / U(b)), nil
		}
	case ir.SignedRem:
		f = func(a, b S) (S, error) {
			if b == 0 {
				return 0, engine.NewDivideByZeroError("")
			}
			return a % b, nil
		}
	case ir.UnsignedRem:
		f = func(a, b S) (S, error) {
			if b == 0 {
				return 0, engine.NewDivideByZeroError("")
			}
			return S(U(a) % U(b)), nil
		}
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
		v, err := f(a, b)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, true
}

func bigArithmetic(op ir.ArithmeticOp, width int) (binaryFn, bool) {
	var f func(a, b ir.IntN) (*big.Int, error)
	switch op {
	case ir.Add:
		f = func(a, b ir.IntN) (*big.Int, error) { return new(big.Int).Add(a.Bits, b.Bits), nil }
	case ir.Sub:
		f = func(a, b ir.IntN) (*big.Int, error) { return new(big.Int).Sub(a.Bits, b.Bits), nil }
	case ir.Mul:
		f = func(a, b ir.IntN) (*big.Int, error) { return new(big.Int).Mul(a.Bits, b.Bits), nil }
	case ir.SignedDiv:
		f = func(a, b ir.IntN) (*big.Int, error) {
			if b.Bits.Sign() == 0 {
				return nil, engine.NewDivideByZeroError("")
			}
			return new(big.Int).Quo(a.Signed(), b.Signed()), nil
		}
	case ir.UnsignedDiv:
		f = func(a, b ir.IntN) (*big.Int, error) {
			if b.Bits.Sign() == 0 {
				return nil, engine.NewDivideByZeroError("")
			}
			return new(big.Int).Quo(a.Bits, b.Bits), nil
		}
	case ir.SignedRem:
		f = func(a, b ir.IntN) (*big.Int, error) {
			if b.Bits.Sign() == 0 {
				return nil, engine.NewDivideByZeroError("")
			}
			return new(big.Int).Rem(a.Signed(), b.Signed()), nil
		}
	case ir.UnsignedRem:
		f = func(a, b ir.IntN) (*big.Int, error) {
			if b.Bits.Sign() == 0 {
				return nil, engine.NewDivideByZeroError("")
			}
			return new(big.Int).Rem(a.Bits, b.Bits), nil
		}
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
		x, err := f(a, b)
		if err != nil {
			return nil, err
		}
		return ir.NewIntN(width, x), nil
	}, true
}

func floatArithmetic[F ir.IEEEFloat](op ir.ArithmeticOp) (binaryFn, bool) {
	var f func(a, b F) F
	switch op {
	case ir.Add:
		f = func(a, b F) F { return a + b }
	case ir.Sub:
		f = func(a, b F) F { return a - b }
	case ir.Mul:
		f = func(a, b F) F { return a * b }
	case ir.Div:
		f = func(a, b F) F { return a / b }
	case ir.Rem:
		// fmod is exact, so the float32 result needs no extra rounding.
		f = func(a, b F) F { return F(math.Mod(float64(a), float64(b))) }
	}
	if f == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(F)
		b, ok2 := r.(F)
		if !ok1 || !ok2 {
			return nil, mismatch(fmt.Sprintf("%T", a), l, r)
		}
		return f(a, b), nil
	}, true
}

func f80Arithmetic(op ir.ArithmeticOp) (binaryFn, bool) {
	var f func(a, b ir.F80) ir.F80
	switch op {
	case ir.Add:
		f = ir.F80.Add
	case ir.Sub:
		f = ir.F80.Sub
	case ir.Mul:
		f = ir.F80.Mul
	case ir.Div:
		f = ir.F80.Quo
	case ir.Rem:
		f = ir.F80.Rem
	}
	if f == nil {
		return nil, false
	}
	return func(l, r ir.Value) (ir.Value, error) {
		a, ok1 := l.(ir.F80)
		b, ok2 := r.(ir.F80)
		if !ok1 || !ok2 {
			return nil, mismatch("x86_fp80", l, r)
		}
		return f(a, b), nil
	}, true
}

// mismatch reports the first operand that is not of the wanted kind.
func mismatch(want string, vals ...ir.Value) error {
	var got ir.Value
	if len(vals) > 0 {
		got = vals[0]
	}
	return engine.NewTypeMismatch("", want, got)
}
