package lowering

import (
	"errors"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/intrinsics"
	"github.com/roach88/lowercore/internal/ir"
)

// Linker resolves call targets the registry does not know, typically
// functions defined in the module being executed. The returned operation
// reads its arguments from the frame it executes in.
type Linker interface {
	Link(name string, sig *ir.FunctionType) (engine.Operation, bool)
}

// LinkerFunc adapts a function to the Linker interface.
type LinkerFunc func(name string, sig *ir.FunctionType) (engine.Operation, bool)

// Link calls fn.
func (fn LinkerFunc) Link(name string, sig *ir.FunctionType) (engine.Operation, bool) {
	return fn(name, sig)
}

// LowerCall selects a direct call to the external symbol name. The registry
// is consulted first, then the linker. A symbol neither can serve is an
// unsupported intrinsic.
//
// Arguments are evaluated in the calling frame; the target runs in a nested
// frame whose Args are those values.
func (lw *Lowerer) LowerCall(name string, sig *ir.FunctionType, args []engine.Operation) (engine.Operation, error) {
	if len(args) < len(sig.Params) || (!sig.Variadic && len(args) > len(sig.Params)) {
		return nil, &LoweringError{
			Code:     ErrCodeTypeSystemViolation,
			Operator: "call",
			Types:    []ir.Type{sig},
			Symbol:   name,
			Message:  "argument count does not match signature",
		}
	}

	if lw.registry != nil {
		target, err := lw.registry.ResolveIntrinsic(name, sig)
		if err == nil {
			return newCall("call."+target.Name, sig, target.Operation, args), nil
		}
		if !errors.Is(err, intrinsics.ErrNotFound) {
			return nil, &LoweringError{
				Code:     ErrCodeTypeSystemViolation,
				Operator: "call",
				Types:    []ir.Type{sig},
				Symbol:   name,
				Message:  err.Error(),
			}
		}
	}
	if lw.linker != nil {
		if op, ok := lw.linker.Link(name, sig); ok {
			return newCall("call."+intrinsics.Normalize(name), sig, op, args), nil
		}
	}
	lw.logger.Debug("unsupported intrinsic", "symbol", name, "signature", sig.String())
	return nil, &LoweringError{
		Code:     ErrCodeUnsupportedIntrinsic,
		Operator: "call",
		Types:    []ir.Type{sig},
		Symbol:   intrinsics.Normalize(name),
	}
}

// CallPointer selects an indirect call through the function address fn.
// The host performs the call.
func (lw *Lowerer) CallPointer(sig *ir.FunctionType, fn engine.Operation, args []engine.Operation) (engine.Operation, error) {
	if len(args) < len(sig.Params) || (!sig.Variadic && len(args) > len(sig.Params)) {
		return nil, violationf("call", []ir.Type{sig}, "argument count does not match signature")
	}
	name := "call.indirect"
	return &engine.Func{Label: name, Fn: func(f *engine.Frame) (ir.Value, error) {
		target, err := fn.Execute(f)
		if err != nil {
			return nil, err
		}
		addr, err := addressOf(target, name)
		if err != nil {
			return nil, err
		}
		vals, err := engine.EvalAll(f, args)
		if err != nil {
			return nil, err
		}
		if f.Host == nil {
			return nil, engine.NewNoHostError(name)
		}
		return f.Host.Call(f, addr, vals)
	}}, nil
}

type callOp struct {
	name   string
	fixed  int
	vararg bool
	target engine.Operation
	args   []engine.Operation
}

func newCall(name string, sig *ir.FunctionType, target engine.Operation, args []engine.Operation) *callOp {
	return &callOp{
		name:   name,
		fixed:  len(sig.Params),
		vararg: sig.Variadic,
		target: target,
		args:   args,
	}
}

func (o *callOp) Name() string { return o.name }

func (o *callOp) Execute(f *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(f, o.args)
	if err != nil {
		return nil, err
	}
	if o.vararg {
		return o.target.Execute(f.WithVariadicArgs(o.fixed, vals...))
	}
	return o.target.Execute(f.WithArgs(vals...))
}
