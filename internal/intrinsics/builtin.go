package intrinsics

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// builtinFn is the body of a builtin. args are the evaluated call arguments.
type builtinFn func(f *engine.Frame, args []ir.Value) (ir.Value, error)

// callOp evaluates its arguments in order and runs fn.
type callOp struct {
	name string
	args []engine.Operation
	fn   builtinFn
}

func (o *callOp) Name() string { return o.name }

func (o *callOp) Execute(f *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(f, o.args)
	if err != nil {
		return nil, err
	}
	v, err := o.fn(f, vals)
	if err != nil {
		var re *engine.RuntimeError
		if errors.As(err, &re) && re.Operation == "" {
			re.Operation = o.name
		}
	}
	return v, err
}

// builtin declares an inlined entry whose body needs at least arity arguments.
func builtin(name string, arity int, fn builtinFn) Entry {
	return Entry{
		Name:        name,
		ForceInline: true,
		Lower: func(args []engine.Operation, sig *ir.FunctionType) (engine.Operation, error) {
			if len(args) < arity {
				return nil, fmt.Errorf("%w: want %d arguments, have %d", ErrSignature, arity, len(args))
			}
			return &callOp{name: name, args: args, fn: fn}, nil
		},
	}
}

// split marks e as force-split.
func split(e Entry) Entry {
	e.ForceSplit = true
	return e
}

// bySignature declares an entry whose body is chosen from the declared
// signature at lowering time.
func bySignature(name string, pick func(sig *ir.FunctionType) (builtinFn, int, error)) Entry {
	return Entry{
		Name:        name,
		ForceInline: true,
		Lower: func(args []engine.Operation, sig *ir.FunctionType) (engine.Operation, error) {
			fn, arity, err := pick(sig)
			if err != nil {
				return nil, err
			}
			if len(args) < arity {
				return nil, fmt.Errorf("%w: want %d arguments, have %d", ErrSignature, arity, len(args))
			}
			return &callOp{name: name, args: args, fn: fn}, nil
		},
	}
}

func pointerArg(v ir.Value) (uint64, error) {
	switch x := v.(type) {
	case ir.Address:
		return uint64(x), nil
	case ir.FunctionAddress:
		return uint64(x), nil
	}
	return 0, engine.NewTypeMismatch("", "pointer", v)
}

func uintArg(v ir.Value) (uint64, error) {
	u, ok := ir.AsUint64(v)
	if !ok {
		return 0, engine.NewTypeMismatch("", "integer", v)
	}
	return u, nil
}

func intArg(v ir.Value) (int64, error) {
	i, ok := ir.AsInt64(v)
	if !ok {
		return 0, engine.NewTypeMismatch("", "integer", v)
	}
	return i, nil
}

// intOf builds an integer value of width from the low bits of x.
func intOf(width int, x int64) ir.Value {
	return ir.MakeInt(width, big.NewInt(x))
}

// returnWidth is the integer width of sig's return type, or def.
func returnWidth(sig *ir.FunctionType, def int) int {
	if it, ok := sig.Return.(*ir.IntType); ok {
		return it.Width
	}
	return def
}

func hostOf(f *engine.Frame) (engine.Host, error) {
	if f.Host == nil {
		return nil, engine.NewNoHostError("")
	}
	return f.Host, nil
}

// nameTable expands a spelling template over suffixes.
func nameTable(prefix string, suffixes ...string) []string {
	names := make([]string, len(suffixes))
	for i, s := range suffixes {
		names[i] = prefix + s
	}
	return names
}
