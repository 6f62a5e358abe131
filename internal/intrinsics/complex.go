package intrinsics

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// complexResult stores re and im as {double, double} in stack storage.
func complexResult(f *engine.Frame, z complex128) (ir.Value, error) {
	addr, err := f.Stack.Alloc(16, 8)
	if err != nil {
		return nil, err
	}
	if err := f.Store(ir.Double, addr, ir.F64(real(z))); err != nil {
		return nil, err
	}
	if err := f.Store(ir.Double, addr+8, ir.F64(imag(z))); err != nil {
		return nil, err
	}
	return ir.Address(addr), nil
}

func complexArgs(args []ir.Value) (complex128, complex128, error) {
	var xs [4]float64
	for i := range xs {
		x, err := floatArg(args[i])
		if err != nil {
			return 0, 0, err
		}
		xs[i] = x
	}
	return complex(xs[0], xs[1]), complex(xs[2], xs[3]), nil
}

// registerComplex adds the compiler-rt complex double helpers.
func registerComplex(r *Registry) error {
	return r.registerAll(
		builtin("@__muldc3", 4, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			a, b, err := complexArgs(args)
			if err != nil {
				return nil, err
			}
			return complexResult(f, a*b)
		}),
		builtin("@__divdc3", 4, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			a, b, err := complexArgs(args)
			if err != nil {
				return nil, err
			}
			return complexResult(f, a/b)
		}),
	)
}
