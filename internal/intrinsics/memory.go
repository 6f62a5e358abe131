package intrinsics

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// lengthWidth checks that the parameter at i is a 32- or 64-bit length.
func lengthWidth(sig *ir.FunctionType, i int) error {
	if i >= len(sig.Params) {
		return fmt.Errorf("%w: missing length parameter", ErrSignature)
	}
	switch ir.Classify(sig.Params[i]) {
	case ir.TagI32, ir.TagI64:
		return nil
	}
	return fmt.Errorf("%w: length parameter is %s", ErrSignature, sig.Params[i])
}

func memsetBody(f *engine.Frame, args []ir.Value) (ir.Value, error) {
	dst, err := pointerArg(args[0])
	if err != nil {
		return nil, err
	}
	c, err := uintArg(args[1])
	if err != nil {
		return nil, err
	}
	n, err := uintArg(args[2])
	if err != nil {
		return nil, err
	}
	return nil, engine.Fill(f.Mem, dst, byte(c), int64(n))
}

func memmoveBody(f *engine.Frame, args []ir.Value) (ir.Value, error) {
	dst, err := pointerArg(args[0])
	if err != nil {
		return nil, err
	}
	src, err := pointerArg(args[1])
	if err != nil {
		return nil, err
	}
	n, err := uintArg(args[2])
	if err != nil {
		return nil, err
	}
	return nil, engine.Copy(f.Mem, dst, src, int64(n))
}

// returningDest makes a libc-style body return its first argument.
func returningDest(body builtinFn) builtinFn {
	return func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		if _, err := body(f, args); err != nil {
			return nil, err
		}
		return args[0], nil
	}
}

// registerMemory adds the llvm.mem* intrinsics in typed and opaque pointer
// spellings, their libc counterparts and the fortified variants.
func registerMemory(r *Registry) error {
	withLength := func(body builtinFn) func(*ir.FunctionType) (builtinFn, int, error) {
		return func(sig *ir.FunctionType) (builtinFn, int, error) {
			if err := lengthWidth(sig, 2); err != nil {
				return nil, 0, err
			}
			return body, 3, nil
		}
	}

	var entries []Entry
	for _, w := range []string{"i32", "i64"} {
		for _, p := range []string{"p0i8", "p0"} {
			entries = append(entries,
				bySignature(fmt.Sprintf("@llvm.memset.%s.%s", p, w), withLength(memsetBody)),
				bySignature(fmt.Sprintf("@llvm.memcpy.%s.%s.%s", p, p, w), withLength(memmoveBody)),
				bySignature(fmt.Sprintf("@llvm.memmove.%s.%s.%s", p, p, w), withLength(memmoveBody)),
			)
		}
	}
	entries = append(entries,
		bySignature("@memset", withLength(returningDest(memsetBody))),
		bySignature("@memcpy", withLength(returningDest(memmoveBody))),
		bySignature("@memmove", withLength(returningDest(memmoveBody))),
		bySignature("@__memset_chk", withLength(returningDest(memsetBody))),
		bySignature("@__memcpy_chk", withLength(returningDest(memmoveBody))),
	)
	return r.registerAll(entries...)
}

// registerStack adds llvm.stacksave/stackrestore and the va_list intrinsics.
// va_start and va_copy act on the frame of the function that called them.
func registerStack(r *Registry) error {
	save := func(f *engine.Frame, _ []ir.Value) (ir.Value, error) {
		return ir.Address(f.Stack.Save()), nil
	}
	restore := func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		sp, err := pointerArg(args[0])
		if err != nil {
			return nil, err
		}
		return nil, f.Stack.Restore(sp)
	}
	vaStart := func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		list, err := pointerArg(args[0])
		if err != nil {
			return nil, err
		}
		return nil, callerOf(f).VAStart(list)
	}
	vaEnd := func(*engine.Frame, []ir.Value) (ir.Value, error) {
		return nil, nil
	}
	vaCopy := func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
		dst, err := pointerArg(args[0])
		if err != nil {
			return nil, err
		}
		src, err := pointerArg(args[1])
		if err != nil {
			return nil, err
		}
		return nil, f.VACopy(dst, src)
	}
	return r.registerAll(
		builtin("@llvm.stacksave", 0, save),
		builtin("@llvm.stacksave.p0", 0, save),
		builtin("@llvm.stackrestore", 1, restore),
		builtin("@llvm.stackrestore.p0", 1, restore),
		builtin("@llvm.va_start", 1, vaStart),
		builtin("@llvm.va_start.p0", 1, vaStart),
		builtin("@llvm.va_end", 1, vaEnd),
		builtin("@llvm.va_end.p0", 1, vaEnd),
		builtin("@llvm.va_copy", 2, vaCopy),
		builtin("@llvm.va_copy.p0", 2, vaCopy),
		builtin("@llvm.va_copy.p0.p0", 2, vaCopy),
	)
}

// callerOf returns the frame that made the call executing in f.
func callerOf(f *engine.Frame) *engine.Frame {
	if f.Caller != nil {
		return f.Caller
	}
	return f
}
