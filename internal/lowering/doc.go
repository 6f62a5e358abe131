// Package lowering selects typed executable operations for decoded IR
// instructions.
//
// A Lowerer is built once per runtime with a data layout and an intrinsic
// registry. Each dispatch method classifies its operand types, picks the
// primitive for (tag, operator) and returns an engine.Operation that closes
// over the chosen primitive and its operand operations:
//
//	lw := lowering.New(ir.DefaultLayout, registry)
//	op, err := lw.Arithmetic(ir.Add, ir.Int32, lhs, rhs) // "add.i32"
//
// Selection happens once; execution never re-inspects types. Any
// combination outside the supported matrix fails with a *LoweringError of
// code ErrCodeTypeSystemViolation. Calls to symbols that neither the
// registry nor the Linker can serve fail with ErrCodeUnsupportedIntrinsic.
//
// AGGREGATES:
//
// Structs and arrays are never held in registers. Operations producing an
// aggregate allocate storage on the frame's stack and yield its Address;
// operations consuming one copy bytes using offsets from ir.DataLayout.
package lowering
