package intrinsics

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// registerRust adds the Rust runtime entry points. Mangled spellings reach
// them through the demangler.
func registerRust(r *Registry) error {
	langStart := bySignature("@std::rt::lang_start", func(sig *ir.FunctionType) (builtinFn, int, error) {
		w := returnWidth(sig, 64)
		return func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			entry, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			if _, err := h.Call(f, entry, nil); err != nil {
				return nil, err
			}
			return intOf(w, 0), nil
		}, 1, nil
	})
	langStartInternal := langStart
	langStartInternal.Name = "@std::rt::lang_start_internal"

	return r.registerAll(
		langStart,
		langStartInternal,
		builtin("@std::process::exit", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			status, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			return nil, exitWith(f, int(int32(status)))
		}),
		builtin("@core::panicking::panic", 0, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			msg := "explicit panic"
			if len(args) >= 2 {
				if s, ok := readStr(f, args[0], args[1]); ok {
					msg = s
				}
			}
			return nil, &engine.RuntimeError{Code: engine.ErrCodePanic, Message: msg, Status: 101}
		}),
	)
}

// readStr reads a Rust &str given as pointer and length.
func readStr(f *engine.Frame, ptr, length ir.Value) (string, bool) {
	p, err := pointerArg(ptr)
	if err != nil {
		return "", false
	}
	n, err := uintArg(length)
	if err != nil || n > 1<<20 {
		return "", false
	}
	b, err := f.Mem.Read(p, int64(n))
	if err != nil {
		return "", false
	}
	return string(b), true
}
