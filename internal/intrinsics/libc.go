package intrinsics

import (
	"math"
	"math/bits"
	"strings"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// mallocAlign matches glibc's guarantee on x86-64.
const mallocAlign = 16

// abortStatus is the shell status of a process killed by SIGABRT.
const abortStatus = 134

func registerAllocation(r *Registry) error {
	return r.registerAll(
		builtin("@malloc", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
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
		builtin("@calloc", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			count, err := uintArg(args[0])
			if err != nil {
				return nil, err
			}
			size, err := uintArg(args[1])
			if err != nil {
				return nil, err
			}
			hi, lo := bits.Mul64(count, size)
			if hi != 0 || lo > math.MaxInt64 {
				return nil, engine.NewMemoryFault(0, -1, "calloc size overflows")
			}
			n := int64(lo)
			p, err := f.Alloc.Allocate(n, mallocAlign)
			if err != nil {
				return nil, err
			}
			if err := engine.Fill(f.Mem, p, 0, n); err != nil {
				return nil, err
			}
			return ir.Address(p), nil
		}),
		builtin("@realloc", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			old, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			n, err := uintArg(args[1])
			if err != nil {
				return nil, err
			}
			p, err := f.Alloc.Allocate(int64(n), mallocAlign)
			if err != nil {
				return nil, err
			}
			if old == 0 {
				return ir.Address(p), nil
			}
			size, ok := f.Alloc.BlockSize(old)
			if !ok {
				return nil, engine.NewMemoryFault(old, 0, "realloc of unallocated block")
			}
			if err := engine.Copy(f.Mem, p, old, min(size, int64(n))); err != nil {
				return nil, err
			}
			if err := f.Alloc.Free(old); err != nil {
				return nil, err
			}
			return ir.Address(p), nil
		}),
		builtin("@free", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			p, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			return nil, f.Alloc.Free(p)
		}),
	)
}

// ctype predicates follow the "C" locale.
func ctype(pred func(c byte) bool) builtinFn {
	return func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
		c, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		if c >= 0 && c < 256 && pred(byte(c)) {
			return ir.I32(1), nil
		}
		return ir.I32(0), nil
	}
}

func ctypeMap(conv func(c byte) byte) builtinFn {
	return func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
		c, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		if c < 0 || c > 255 {
			return ir.I32(int32(c)), nil
		}
		return ir.I32(int32(conv(byte(c)))), nil
	}
}

func registerStrings(r *Registry) error {
	return r.registerAll(
		bySignature("@strlen", func(sig *ir.FunctionType) (builtinFn, int, error) {
			w := returnWidth(sig, 64)
			return func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
				p, err := pointerArg(args[0])
				if err != nil {
					return nil, err
				}
				s, err := engine.ReadCString(f.Mem, p)
				if err != nil {
					return nil, err
				}
				return intOf(w, int64(len(s))), nil
			}, 1, nil
		}),
		builtin("@strcmp", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			a, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			b, err := pointerArg(args[1])
			if err != nil {
				return nil, err
			}
			sa, err := engine.ReadCString(f.Mem, a)
			if err != nil {
				return nil, err
			}
			sb, err := engine.ReadCString(f.Mem, b)
			if err != nil {
				return nil, err
			}
			return ir.I32(strings.Compare(sa, sb)), nil
		}),
		builtin("@isalpha", 1, ctype(func(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' })),
		builtin("@isspace", 1, ctype(func(c byte) bool {
			return c == ' ' || c >= '\t' && c <= '\r'
		})),
		builtin("@isupper", 1, ctype(func(c byte) bool { return c >= 'A' && c <= 'Z' })),
		builtin("@tolower", 1, ctypeMap(func(c byte) byte {
			if c >= 'A' && c <= 'Z' {
				return c + 'a' - 'A'
			}
			return c
		})),
		builtin("@toupper", 1, ctypeMap(func(c byte) byte {
			if c >= 'a' && c <= 'z' {
				return c - 'a' + 'A'
			}
			return c
		})),
	)
}

func abortError(msg string) error {
	return &engine.RuntimeError{Code: engine.ErrCodeAbort, Message: msg, Status: abortStatus}
}

// exitWith runs the host's exit handlers when a host is present.
func exitWith(f *engine.Frame, status int) error {
	if f.Host == nil {
		return &engine.RuntimeError{Code: engine.ErrCodeExit, Message: "exit", Status: status}
	}
	return f.Host.Exit(f, status)
}

func registerProcess(r *Registry) error {
	abort := func(*engine.Frame, []ir.Value) (ir.Value, error) {
		return nil, abortError("abort")
	}
	return r.registerAll(
		builtin("@abort", 0, abort),
		builtin("@_gfortran_abort", 0, abort),
		builtin("@exit", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			status, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			return nil, exitWith(f, int(int32(status)))
		}),
		builtin("@signal", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			sig, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			handler, err := pointerArg(args[1])
			if err != nil {
				return nil, err
			}
			return ir.FunctionAddress(h.Signal(int32(sig), handler)), nil
		}),
		builtin("@atexit", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			fn, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			h.AtExit(fn, nil, false)
			return ir.I32(0), nil
		}),
		builtin("@__cxa_atexit", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			fn, err := pointerArg(args[0])
			if err != nil {
				return nil, err
			}
			h.AtExit(fn, args[1], true)
			return ir.I32(0), nil
		}),
	)
}
