package intrinsics

import (
	"fmt"
	"math"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// mathFn is a float64 kernel with its argument count.
type mathFn struct {
	arity int
	fn    func(x []float64) float64
}

func unaryMath(fn func(float64) float64) mathFn {
	return mathFn{1, func(x []float64) float64 { return fn(x[0]) }}
}

func binaryMath(fn func(float64, float64) float64) mathFn {
	return mathFn{2, func(x []float64) float64 { return fn(x[0], x[1]) }}
}

var llvmMath = map[string]mathFn{
	"fabs":     unaryMath(math.Abs),
	"sqrt":     unaryMath(math.Sqrt),
	"sin":      unaryMath(math.Sin),
	"cos":      unaryMath(math.Cos),
	"exp":      unaryMath(math.Exp),
	"exp2":     unaryMath(math.Exp2),
	"log":      unaryMath(math.Log),
	"log2":     unaryMath(math.Log2),
	"log10":    unaryMath(math.Log10),
	"floor":    unaryMath(math.Floor),
	"ceil":     unaryMath(math.Ceil),
	"rint":     unaryMath(math.RoundToEven),
	"pow":      binaryMath(math.Pow),
	"powi":     binaryMath(math.Pow),
	"copysign": binaryMath(math.Copysign),
}

var libm = map[string]mathFn{
	"sqrt":  unaryMath(math.Sqrt),
	"sin":   unaryMath(math.Sin),
	"cos":   unaryMath(math.Cos),
	"tan":   unaryMath(math.Tan),
	"asin":  unaryMath(math.Asin),
	"acos":  unaryMath(math.Acos),
	"atan":  unaryMath(math.Atan),
	"sinh":  unaryMath(math.Sinh),
	"cosh":  unaryMath(math.Cosh),
	"tanh":  unaryMath(math.Tanh),
	"exp":   unaryMath(math.Exp),
	"exp2":  unaryMath(math.Exp2),
	"log":   unaryMath(math.Log),
	"log2":  unaryMath(math.Log2),
	"log10": unaryMath(math.Log10),
	"floor": unaryMath(math.Floor),
	"ceil":  unaryMath(math.Ceil),
	"rint":  unaryMath(math.RoundToEven),
	"fabs":  unaryMath(math.Abs),
	"atan2": binaryMath(math.Atan2),
	"pow":   binaryMath(math.Pow),
	"fmod":  binaryMath(math.Mod),
}

// floatArg widens a float or integer argument to float64.
func floatArg(v ir.Value) (float64, error) {
	switch x := v.(type) {
	case ir.F32:
		return float64(x), nil
	case ir.F64:
		return float64(x), nil
	case ir.F80:
		return x.Float64(), nil
	}
	if i, ok := ir.AsInt64(v); ok {
		return float64(i), nil
	}
	return 0, engine.NewTypeMismatch("", "float", v)
}

// mathKernel picks the result precision from the declared return type.
func mathKernel(m mathFn) func(sig *ir.FunctionType) (builtinFn, int, error) {
	return func(sig *ir.FunctionType) (builtinFn, int, error) {
		var wrap func(float64) ir.Value
		switch ir.Classify(sig.Return) {
		case ir.TagFloat:
			wrap = func(x float64) ir.Value { return ir.F32(float32(x)) }
		case ir.TagDouble:
			wrap = func(x float64) ir.Value { return ir.F64(x) }
		case ir.TagX86FP80:
			wrap = func(x float64) ir.Value { return ir.F80FromFloat64(x) }
		default:
			return nil, 0, fmt.Errorf("%w: math result %s", ErrSignature, sig.Return)
		}
		return func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			xs := make([]float64, m.arity)
			for i := range xs {
				x, err := floatArg(args[i])
				if err != nil {
					return nil, err
				}
				xs[i] = x
			}
			return wrap(m.fn(xs)), nil
		}, m.arity, nil
	}
}

// f80Exact overrides kernels that x86_fp80 can compute without rounding
// through float64.
func f80Exact(op string) (builtinFn, bool) {
	switch op {
	case "fabs":
		return func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			x, ok := args[0].(ir.F80)
			if !ok {
				return nil, engine.NewTypeMismatch("", "x86_fp80", args[0])
			}
			if se, _ := x.Bits(); se&0x8000 != 0 {
				return x.Neg(), nil
			}
			return x, nil
		}, true
	case "sqrt":
		return func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			x, ok := args[0].(ir.F80)
			if !ok {
				return nil, engine.NewTypeMismatch("", "x86_fp80", args[0])
			}
			if x.IsNaN() || x.IsZero() || (x.IsInf() && !signbit(x)) {
				return x, nil
			}
			if signbit(x) {
				return ir.F80NaN(), nil
			}
			return ir.F80FromBig(new(big.Float).SetPrec(128).Sqrt(x.Big())), nil
		}, true
	}
	return nil, false
}

func signbit(x ir.F80) bool {
	se, _ := x.Bits()
	return se&0x8000 != 0
}

func registerMath(r *Registry) error {
	var entries []Entry
	for op, m := range llvmMath {
		kernel := mathKernel(m)
		for _, suffix := range []string{"f32", "f64", "f80"} {
			name := fmt.Sprintf("@llvm.%s.%s", op, suffix)
			pick := kernel
			if exact, ok := f80Exact(op); ok && suffix == "f80" {
				pick = func(sig *ir.FunctionType) (builtinFn, int, error) {
					if ir.Classify(sig.Return) != ir.TagX86FP80 {
						return kernel(sig)
					}
					return exact, 1, nil
				}
			}
			entries = append(entries, bySignature(name, pick))
		}
	}
	entries = append(entries,
		bySignature("@llvm.powi.f32.i32", mathKernel(llvmMath["powi"])),
		bySignature("@llvm.powi.f64.i32", mathKernel(llvmMath["powi"])),
	)
	for op, m := range libm {
		entries = append(entries,
			bySignature("@"+op, mathKernel(m)),
			bySignature("@"+op+"f", mathKernel(m)),
		)
	}
	entries = append(entries,
		bySignature("@fmodl", mathKernel(libm["fmod"])),
		bySignature("@copysign", mathKernel(binaryMath(math.Copysign))),
		builtin("@ldexp", 2, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			x, err := floatArg(args[0])
			if err != nil {
				return nil, err
			}
			e, err := intArg(args[1])
			if err != nil {
				return nil, err
			}
			return ir.F64(math.Ldexp(x, int(e))), nil
		}),
		builtin("@modf", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			x, err := floatArg(args[0])
			if err != nil {
				return nil, err
			}
			ip, err := pointerArg(args[1])
			if err != nil {
				return nil, err
			}
			whole, frac := math.Modf(x)
			if err := f.Store(ir.Double, ip, ir.F64(whole)); err != nil {
				return nil, err
			}
			return ir.F64(frac), nil
		}),
		builtin("@abs", 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			i, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			return ir.I32(int32(abs(i))), nil
		}),
		builtin("@labs", 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			i, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			return ir.I64(abs(i)), nil
		}),
	)
	return r.registerAll(entries...)
}

// abs wraps like the C functions: abs(MinInt) is MinInt.
func abs(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}
