package intrinsics

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// unwind raises a C++ exception carrying obj.
func unwind(obj, typeinfo uint64) error {
	return &engine.RuntimeError{
		Code:    engine.ErrCodeUnwind,
		Message: fmt.Sprintf("exception 0x%x", obj),
		Payload: obj,
		Details: map[string]string{"typeinfo": fmt.Sprintf("0x%x", typeinfo)},
	}
}

// registerExceptions adds the Itanium C++ ABI exception entry points. A
// thrown exception surfaces as an ErrCodeUnwind error whose Payload is the
// exception object; the host tracks objects between begin and end catch.
func registerExceptions(r *Registry) error {
	return r.registerAll(
		builtin("@__cxa_allocate_exception", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			n, err := uintArg(args[0])
			if err != nil {
				return nil, err
			}
			p, err := f.Alloc.Allocate(int64(n), mallocAlign)
			if err != nil {
				return nil, err
			}
			return ir.Address(p), nil
		}),
		builtin("@__cxa_free_exception", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			p, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			return nil, f.Alloc.Free(p)
		}),
		builtin("@__cxa_throw", 2, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			obj, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			ti, err := pointerArg(args[1])
			if err != nil {
				return nil, err
			}
			return nil, unwind(obj, ti)
		}),
		builtin("@__cxa_rethrow", 0, func(f *engine.Frame, _ []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			obj, ok := h.CurrentException()
			if !ok {
				return nil, abortError("rethrow with no active exception")
			}
			h.EndCatch()
			return nil, unwind(obj, 0)
		}),
		builtin("@__cxa_begin_catch", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			obj, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			h.BeginCatch(obj)
			return ir.Address(obj), nil
		}),
		builtin("@__cxa_end_catch", 0, func(f *engine.Frame, _ []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			h.EndCatch()
			return nil, nil
		}),
		builtin("@__cxa_call_unexpected", 0, func(*engine.Frame, []ir.Value) (ir.Value, error) {
			return nil, abortError("unexpected exception")
		}),
	)
}
