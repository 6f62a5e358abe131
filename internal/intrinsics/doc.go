// Package intrinsics resolves external symbols to built-in implementations.
//
// A Registry maps normalised names ("@llvm.ctlz.i32", "@malloc",
// "@core::panicking::panic") to entries. Lookups that miss try an ordered
// chain of demanglers and memoise hits under the mangled spelling:
//
//	r, _ := intrinsics.NewDefaultRegistry()
//	target, err := r.ResolveIntrinsic("@llvm.ctlz.i32", sig)
//
// The operation of a CallTarget reads argument i from the Args of the frame
// it executes in, so callers run it in a frame built with Frame.WithArgs.
package intrinsics
