package intrinsics

import (
	"math"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// noop declares an annotation intrinsic. It yields the zero value of the
// declared return type, or nothing for void.
func noop(name string) Entry {
	return Entry{
		Name:        name,
		ForceInline: true,
		Lower: func(_ []engine.Operation, sig *ir.FunctionType) (engine.Operation, error) {
			if ir.Classify(sig.Return) == ir.TagVoid {
				return &engine.Const{Label: name}, nil
			}
			z, err := ir.Zero(sig.Return)
			if err != nil {
				return nil, ErrSignature
			}
			return &engine.Const{Label: name, Value: z}, nil
		},
	}
}

// passthrough declares an intrinsic that returns its first argument.
func passthrough(name string) Entry {
	return Entry{
		Name:        name,
		ForceInline: true,
		Lower: func(args []engine.Operation, _ *ir.FunctionType) (engine.Operation, error) {
			if len(args) == 0 {
				return nil, ErrSignature
			}
			return args[0], nil
		},
	}
}

func registerAnnotations(r *Registry) error {
	var entries []Entry
	for _, p := range []string{"", ".p0", ".p0i8"} {
		entries = append(entries,
			noop("@llvm.lifetime.start"+p),
			noop("@llvm.lifetime.end"+p),
			noop("@llvm.invariant.start"+p),
			noop("@llvm.invariant.end"+p),
		)
	}
	entries = append(entries,
		noop("@llvm.assume"),
		noop("@llvm.donothing"),
		noop("@llvm.prefetch"),
		noop("@llvm.prefetch.p0"),
		noop("@llvm.prefetch.p0i8"),
		noop("@llvm.dbg.declare"),
		noop("@llvm.dbg.value"),
		passthrough("@llvm.expect.i1"),
		passthrough("@llvm.expect.i32"),
		passthrough("@llvm.expect.i64"),
	)

	// objectsize cannot see allocation bounds: -1 for "maximum", 0 for
	// "minimum".
	objectSize := func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
		if len(args) > 1 && args[1] == ir.I1(true) {
			return ir.I64(0), nil
		}
		return ir.I64(-1), nil
	}
	objectSize32 := func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		v, _ := objectSize(f, args)
		return ir.I32(int32(v.(ir.I64))), nil
	}
	for _, p := range []string{".p0", ".p0i8"} {
		entries = append(entries,
			builtin("@llvm.objectsize.i64"+p, 1, objectSize),
			builtin("@llvm.objectsize.i32"+p, 1, objectSize32),
		)
	}

	entries = append(entries,
		builtin("@llvm.trap", 0, func(*engine.Frame, []ir.Value) (ir.Value, error) {
			return nil, &engine.RuntimeError{Code: engine.ErrCodeTrap, Message: "llvm.trap"}
		}),
		builtin("@llvm.debugtrap", 0, func(*engine.Frame, []ir.Value) (ir.Value, error) {
			return nil, &engine.RuntimeError{Code: engine.ErrCodeTrap, Message: "llvm.debugtrap"}
		}),
		builtin("@llvm.returnaddress", 1, func(*engine.Frame, []ir.Value) (ir.Value, error) {
			return ir.Address(0), nil
		}),
		builtin("@llvm.frameaddress", 1, func(f *engine.Frame, _ []ir.Value) (ir.Value, error) {
			return ir.Address(f.Stack.Save()), nil
		}),
		builtin("@llvm.frameaddress.p0", 1, func(f *engine.Frame, _ []ir.Value) (ir.Value, error) {
			return ir.Address(f.Stack.Save()), nil
		}),
	)

	typeID := func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		h, err := hostOf(f)
		if err != nil {
			return nil, err
		}
		ti, err := pointerArg(args[0])
		if err != nil {
			return nil, err
		}
		return ir.I32(h.TypeID(ti)), nil
	}
	entries = append(entries,
		builtin("@llvm.eh.typeid.for", 1, typeID),
		builtin("@llvm.eh.typeid.for.p0", 1, typeID),
		builtin("@llvm.x86.sse.cvtss2si", 1, cvtToInt32),
		builtin("@llvm.x86.sse2.cvtsd2si", 1, cvtToInt32),
	)
	return r.registerAll(entries...)
}

// cvtToInt32 converts lane 0 with round-half-even. Unrepresentable results
// give the x86 integer indefinite value.
func cvtToInt32(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
	vec, ok := args[0].(ir.Vector)
	if !ok || len(vec) == 0 {
		return nil, engine.NewTypeMismatch("", "float vector", args[0])
	}
	var x float64
	switch e := vec[0].(type) {
	case ir.F32:
		x = float64(e)
	case ir.F64:
		x = float64(e)
	default:
		return nil, engine.NewTypeMismatch("", "float lane", vec[0])
	}
	x = math.RoundToEven(x)
	if math.IsNaN(x) || x < math.MinInt32 || x > math.MaxInt32 {
		return ir.I32(math.MinInt32), nil
	}
	return ir.I32(int32(x)), nil
}
