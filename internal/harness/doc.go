// Package harness runs lowering scenarios: YAML files that lower and execute
// a sequence of instructions and check the selected operations, the values
// they produce and the errors they raise.
//
// # Scenario Format
//
//	name: add_i32
//	description: "7 + 5 lowers to add.i32 and yields 12"
//	pointer_size: 8
//	aliases:
//	  "@_ZN3foo3barE": "@malloc"
//	steps:
//	  - op: add
//	    type: i32
//	    args: ["7", "5"]
//	    expect:
//	      operation: add.i32
//	      value: "12"
//	  - op: zext
//	    type: i8
//	    to: i32
//	    args: ["255"]
//	  - call: "@llvm.ctlz.i32"
//	    signature: "i32 (i32, i1)"
//	    args: ["1", "false"]
//	    expect:
//	      value: "31"
//	assertions:
//	  - type: trace_contains
//	    operation: add.i32
//	  - type: alias
//	    mangled: "@_ZN4core9panicking5panicE"
//	    canonical: "@core::panicking::panic"
//
// Operands are literals in the notation ir.FormatValue writes. Types and
// signatures use LLVM textual syntax.
//
// # Assertion Types
//
//   - trace_contains: an operation was selected
//   - trace_order: operations were selected in the given order
//   - trace_count: an operation was selected exactly N times
//   - alias: the registry memoised a mangled name to a canonical one
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a deterministic
// clock, so traces are identical across runs and can be compared with
// golden files.
package harness
