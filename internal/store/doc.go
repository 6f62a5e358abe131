// Package store provides SQLite-backed storage for lowerc.
//
// Two things are kept:
//   - Aliases: mangled symbols and the canonical registry entries they
//     demangled to, so a later session can preload the registry's memo
//   - Units and lowerings: an append-only log of the dispatch decisions a
//     session made, one row per selected operation
//
// # Ordering
//
// All ordering uses seq INTEGER from a logical clock, never timestamps.
// Queries order by seq ASC, id ASC so results are identical across runs.
// CompareUnits relies on this to report dispatch drift between two sessions.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Unit IDs are UUIDv7 strings. Lowering IDs are computed by ir.LoweringID.
package store
