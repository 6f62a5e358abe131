// Package engine is the execution substrate that lowered operations run on.
//
// It defines the Operation contract and the Frame an operation executes
// against, plus the minimal machine state builtins need: byte-addressed
// memory (Heap), a downward-growing Stack, and a Host for process-level
// effects such as exit handlers and interop bindings.
//
// The interpreter loop, call machinery and memory policy proper live
// outside this module. Everything here exists so that operations produced
// by package lowering can be executed and observed.
//
// CONCURRENCY:
//
// Operations are immutable after lowering. Per-execution state lives in the
// Frame, so the same Operation may run on many goroutines, each with its own
// Frame and Stack. Heap and BasicHost guard their state with a mutex and may
// be shared between frames.
//
// ERRORS:
//
// Failures during execution are *RuntimeError values with a
// RuntimeErrorCode. Exit and unwind are reported the same way; callers use
// ExitStatus and CodeOf to tell them apart from faults.
package engine
